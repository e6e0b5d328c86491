// Package config collects the run-wide options that shape lowering,
// unwinding, and encoding: the knobs listed in §5/§7 of the design,
// plumbed through as a single value rather than globals so independent
// runs (and tests) never share mutable state.
package config

// IntRepresentation names an integer representation for a verification
// run (§4.E). The choice is recorded in Options and logged; lowering
// does not apply it: every IR value keeps its declared term.Type, so an
// IR integer declared as Bv(w) lowers to Bv(w) under either setting.
type IntRepresentation int

const (
	// BitVector names fixed-width term.BvType integers sized by the IR
	// type's width.
	BitVector IntRepresentation = iota
	// MathInt names unbounded term.IntType integers; lowering does not
	// convert Bv-typed IR values to IntType when it is selected.
	MathInt
)

func (r IntRepresentation) String() string {
	if r == MathInt {
		return "math-int"
	}
	return "bit-vector"
}

// Options holds one verification run's configuration.
type Options struct {
	// Bound is the loop-unwinding bound k >= 0 (§4.F).
	Bound int

	// IntRepr records BitVector or MathInt (§4.E); lowering does not
	// read it.
	IntRepr IntRepresentation

	// AssumeNoNaN asserts ¬isNaN on every float symbol and enables
	// temporary-variable elimination across float-compare uses that
	// would otherwise be blocked (§4.E, §4.G, §7 "assume-no-nan").
	AssumeNoNaN bool

	// NoElimVars disables the encoder's temporary-variable elimination
	// entirely (§7 "no-elim-vars").
	NoElimVars bool

	// DumpFormula writes the per-error-block reach formula to the
	// diagnostics log before it is handed to the solver.
	DumpFormula bool

	// DumpSolverFormula writes the formula in the solver backend's own
	// native syntax, when the backend supports it.
	DumpSolverFormula bool

	// DumpModel writes the satisfying assignment returned for each SAT
	// error block before trace reconstruction consumes it.
	DumpModel bool
}

// Default returns the run configuration used when the CLI driver
// receives no explicit flags: bound 0, bit-vector integers, no NaN
// assumption, elimination and dumps all enabled/disabled at their
// conservative defaults.
func Default() Options {
	return Options{
		Bound:   0,
		IntRepr: BitVector,
	}
}
