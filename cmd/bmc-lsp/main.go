// SPDX-License-Identifier: Apache-2.0
package main

import (
	"flag"
	"log"
	"os"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"bmc/config"
	"bmc/internal/bmclsp"
)

const lsName = "bmc"

var version = "0.0.1"

func main() {
	bound := flag.Int("bound", 0, "loop-unwinding bound k >= 0 applied to every verified document")
	mathInt := flag.Bool("math-int", false, "record the math-int integer representation in the run options (lowering keeps each IR value's declared type)")
	assumeNoNaN := flag.Bool("assume-no-nan", false, "assert every float symbol is not NaN")
	flag.Parse()

	commonlog.Configure(1, nil)

	opts := config.Default()
	opts.Bound = *bound
	if *mathInt {
		opts.IntRepr = config.MathInt
	}
	opts.AssumeNoNaN = *assumeNoNaN

	bmcHandler := bmclsp.NewHandler(opts)

	handler := protocol.Handler{
		Initialize:            bmcHandler.Initialize,
		Initialized:           bmcHandler.Initialized,
		Shutdown:              bmcHandler.Shutdown,
		TextDocumentDidOpen:   bmcHandler.TextDocumentDidOpen,
		TextDocumentDidChange: bmcHandler.TextDocumentDidChange,
		TextDocumentDidClose:  bmcHandler.TextDocumentDidClose,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Println("Starting bmc LSP server...")
	if err := s.RunStdio(); err != nil {
		log.Println("Error starting bmc LSP server:", err)
		os.Exit(1)
	}
}
