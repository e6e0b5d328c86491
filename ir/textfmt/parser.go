// Package textfmt is a small, line-oriented textual reader for the
// ir.Function contract (§6), used only by tests, the CLI driver, and
// fixtures — it is explicitly not a general-purpose compiler front
// end. Its grammar is a participle.Build over a stateful lexer, shaped
// around basic blocks of three-address instructions rather than a
// full source language's module/function/statement nesting.
package textfmt

import (
	"fmt"

	"github.com/alecthomas/participle/v2"

	"bmc/ir"
)

var parser = participle.MustBuild[Program](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(5),
)

// ParseProgram parses source into every function it defines, for
// fixtures that model more than one verification unit in one file.
func ParseProgram(filename, source string) ([]*ir.Function, error) {
	prog, err := parser.ParseString(filename, source)
	if err != nil {
		return nil, fmt.Errorf("textfmt: %w", err)
	}
	fns := make([]*ir.Function, 0, len(prog.Functions))
	for _, f := range prog.Functions {
		fn, err := toFunction(f)
		if err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}
	return fns, nil
}

// ParseFunction parses source, which must define exactly one function,
// and converts it into the ir.Function contract the checker consumes.
// This is the entry point the CLI driver and most tests use.
func ParseFunction(filename, source string) (*ir.Function, error) {
	prog, err := parser.ParseString(filename, source)
	if err != nil {
		return nil, fmt.Errorf("textfmt: %w", err)
	}
	if len(prog.Functions) != 1 {
		return nil, fmt.Errorf("textfmt: expected exactly one function, found %d", len(prog.Functions))
	}
	return toFunction(prog.Functions[0])
}
