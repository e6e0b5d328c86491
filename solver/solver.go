// Package solver defines the boundary between the checker core and a
// concrete decision procedure (§6): the core only ever calls Solver,
// never a specific SMT backend. Production backends are explicitly out
// of the core's scope; solver/reference ships a small decision
// procedure used by tests and as cmd/bmc's solver.
package solver

import (
	"context"
	"math/big"

	"bmc/term"
)

// Status is the three-valued result a Solver run reports.
type Status int

const (
	// Unknown means the solver could not decide within its resources
	// (budget, timeout, or an unsupported construct).
	Unknown Status = iota
	// SAT means a satisfying model was found.
	SAT
	// UNSAT means no satisfying assignment exists.
	UNSAT
)

func (s Status) String() string {
	switch s {
	case SAT:
		return "SAT"
	case UNSAT:
		return "UNSAT"
	default:
		return "UNKNOWN"
	}
}

// Model is a satisfying assignment returned alongside a SAT result.
// Every accessor's second return reports whether the variable appears
// in the model at all — a variable the formula never constrained is
// legitimately absent, not zero.
type Model interface {
	BoolValue(v *term.Variable) (bool, bool)
	BvValue(v *term.Variable) (*big.Int, bool)
	IntValue(v *term.Variable) (*big.Int, bool)
}

// Solver accumulates a conjunction of Bool-typed formulas and decides
// their joint satisfiability. Add may be called any number of times
// before Run; a Solver is single-use once Run has returned.
type Solver interface {
	Add(e *term.Expr) error
	Run(ctx context.Context) (Status, error)
	Model() Model
}

// Error wraps any backend failure surfaced while adding a formula or
// running the decision procedure (§7 SolverError). The encoder's
// caller is expected to recover per error block, not abort the whole
// run — see bmc/internal/errors.Solver.
type Error struct {
	Cause error
}

func (e *Error) Error() string { return "solver: " + e.Cause.Error() }
func (e *Error) Unwrap() error { return e.Cause }
