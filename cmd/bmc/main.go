// SPDX-License-Identifier: Apache-2.0
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"

	"bmc/config"
	"bmc/diagnostics"
	"bmc/encode"
	bmcerrors "bmc/internal/errors"
	"bmc/ir"
	"bmc/ir/textfmt"
	"bmc/solver"
	"bmc/solver/reference"
	"bmc/term"
	"bmc/trace"
	"bmc/unwind"
)

// Exit codes, per the run's documented contract: 0 every error block
// is unreachable up to the bound, 1 some error block is reachable
// (a counterexample was found), 2 the run finished without deciding
// every block (solver returned Unknown or was cancelled), 3 the run
// could not proceed at all (parse/unwind/encode failure).
const (
	exitSafe            = 0
	exitUnsafe          = 1
	exitUnknown         = 2
	exitInternalFailure = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("bmc", flag.ContinueOnError)
	bound := fs.Int("bound", 0, "loop-unwinding bound k >= 0")
	mathInt := fs.Bool("math-int", false, "record the math-int integer representation in the run options (lowering keeps each IR value's declared type)")
	assumeNoNaN := fs.Bool("assume-no-nan", false, "assert every float symbol is not NaN")
	noElimVars := fs.Bool("no-elim-vars", false, "disable temporary-variable elimination")
	dumpFormula := fs.Bool("dump-formula", false, "log each error block's formula before solving")
	dumpSolverFormula := fs.Bool("dump-solver-formula", false, "log each formula in the solver backend's own syntax")
	dumpModel := fs.Bool("dump-model", false, "log the satisfying model for each reachable error block")
	verbosity := fs.Int("v", 0, "commonlog verbosity (0 disables logging)")

	if err := fs.Parse(args); err != nil {
		return exitInternalFailure
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: bmc [flags] <file.bmc>")
		fs.PrintDefaults()
		return exitInternalFailure
	}
	path := fs.Arg(0)

	diagnostics.Configure(*verbosity, nil)
	logger := diagnostics.NewLogger()

	cfg := config.Default()
	cfg.Bound = *bound
	if *mathInt {
		cfg.IntRepr = config.MathInt
	}
	cfg.AssumeNoNaN = *assumeNoNaN
	cfg.NoElimVars = *noElimVars
	cfg.DumpFormula = *dumpFormula
	cfg.DumpSolverFormula = *dumpSolverFormula
	cfg.DumpModel = *dumpModel

	source, err := os.ReadFile(path)
	if err != nil {
		color.Red("failed to read %s: %s", path, err)
		return exitInternalFailure
	}

	fn, err := textfmt.ParseFunction(path, string(source))
	if err != nil {
		color.Red("%s", err)
		return exitInternalFailure
	}

	logger.RunStarted(fn.Name, cfg)

	unwound, err := unwind.Unwind(fn, cfg.Bound)
	if err != nil {
		color.Red("unwinding failed: %s", err)
		return exitInternalFailure
	}

	tctx := term.NewContext()
	res, err := encode.Encode(context.Background(), unwound, tctx, cfg)
	if err != nil {
		var checkerErr bmcerrors.CheckerError
		if errors.As(err, &checkerErr) && checkerErr.Kind == bmcerrors.KindCancelled {
			return exitUnknown
		}
		color.Red("encoding failed: %s", err)
		return exitInternalFailure
	}

	return report(logger, cfg, fn, res, tctx)
}

// report hands every error block's formula to the reference solver, in
// sorted block-ID order for determinism, and prints a verdict. It
// returns the exit code for the whole run: unsafe as soon as one block
// is SAT, unknown if every decided block was safe but at least one
// could not be decided, safe only if every block came back UNSAT.
func report(logger *diagnostics.Logger, cfg config.Options, fn *ir.Function, res *encode.Result, tctx *term.Context) int {
	blockIDs := make([]string, 0, len(res.ErrorFormulas))
	for id := range res.ErrorFormulas {
		blockIDs = append(blockIDs, id)
	}
	sort.Strings(blockIDs)

	sawUnknown := false
	for _, blockID := range blockIDs {
		formula := res.ErrorFormulas[blockID]
		logger.CheckingBlock(blockID)
		logger.DumpFormula(cfg, blockID, formula)

		s := reference.New(tctx)
		if err := s.Add(formula); err != nil {
			logger.SolverSkipped(blockID, err)
			sawUnknown = true
			continue
		}
		if cfg.DumpSolverFormula {
			if text, err := s.Dump(); err == nil {
				fmt.Fprintf(os.Stderr, "solver formula for %s:\n%s\n", blockID, text)
			}
		}

		status, err := s.Run(context.Background())
		if err != nil {
			logger.SolverSkipped(blockID, err)
			sawUnknown = true
			continue
		}
		logger.BlockResult(blockID, status)

		switch status {
		case solver.UNSAT:
			continue
		case solver.Unknown:
			sawUnknown = true
			continue
		case solver.SAT:
			return reportUnsafe(logger, cfg, fn, res, blockID, s.Model())
		}
	}

	if sawUnknown {
		logger.Summarize(diagnostics.Result{Safe: false, BlockID: ""})
		return exitUnknown
	}
	logger.Summarize(diagnostics.Result{Safe: true})
	color.Green("safe up to bound %d", cfg.Bound)
	return exitSafe
}

// reportUnsafe renders the counterexample trace for the first block a
// satisfiable model was found for and returns exitUnsafe.
func reportUnsafe(logger *diagnostics.Logger, cfg config.Options, fn *ir.Function, res *encode.Result, blockID string, model solver.Model) int {
	vars := make([]*term.Variable, 0, len(res.ValueMap))
	for _, v := range res.ValueMap {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })
	logger.DumpModel(cfg, blockID, vars, model)

	tr, errorCode, err := trace.Build(fn, res, blockID, model)
	logger.Summarize(diagnostics.Result{Safe: false, BlockID: blockID, ErrorCode: errorCode})
	color.Red("error block %q is reachable (error code %d)", blockID, errorCode)
	if err != nil {
		color.Yellow("partial trace (%s):", err)
	}
	for _, ev := range tr {
		fmt.Println(" ", ev.String())
	}
	return exitUnsafe
}
