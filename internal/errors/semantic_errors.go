package errors

import (
	"fmt"

	"bmc/ir"
	"bmc/term"
)

// CheckerError is a structured error with suggestions and context,
// tagged with one of the closed Kinds from codes.go.
type CheckerError struct {
	Kind        Kind
	Message     string       // Primary error message
	Location    ir.LocationInfo // Location in the IR, if known
	Suggestions []Suggestion // Suggested fixes
	Notes       []string     // Additional context notes
	HelpText    string       // Help text for the error
}

func (e CheckerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Message)
}

// Suggestion represents a suggested fix or next step.
type Suggestion struct {
	Message string
}

// CheckerErrorBuilder provides a fluent interface for assembling a
// CheckerError with suggestions.
type CheckerErrorBuilder struct {
	err CheckerError
}

// NewCheckerError starts building an error of the given kind.
func NewCheckerError(kind Kind, message string) *CheckerErrorBuilder {
	return &CheckerErrorBuilder{err: CheckerError{Kind: kind, Message: message}}
}

// At attaches an IR source location to the error under construction.
func (b *CheckerErrorBuilder) At(loc ir.LocationInfo) *CheckerErrorBuilder {
	b.err.Location = loc
	return b
}

// WithSuggestion adds a suggestion to the error.
func (b *CheckerErrorBuilder) WithSuggestion(message string) *CheckerErrorBuilder {
	b.err.Suggestions = append(b.err.Suggestions, Suggestion{Message: message})
	return b
}

// WithNote adds a note to the error.
func (b *CheckerErrorBuilder) WithNote(note string) *CheckerErrorBuilder {
	b.err.Notes = append(b.err.Notes, note)
	return b
}

// WithHelp adds help text to the error.
func (b *CheckerErrorBuilder) WithHelp(help string) *CheckerErrorBuilder {
	b.err.HelpText = help
	return b
}

// Build returns the completed CheckerError.
func (b *CheckerErrorBuilder) Build() CheckerError {
	return b.err
}

// Common constructors for the checker's closed error set.

// TypeMismatch reports that an expression kind's operand types violate
// its well-typedness rule (§4.B).
func TypeMismatch(kind, expected, actual string) CheckerError {
	return NewCheckerError(KindTypeMismatch,
		fmt.Sprintf("%s requires operands of type %s, found %s", kind, expected, actual)).
		WithHelp("bit-vector width and integer-vs-bit-vector representation must match exactly; no implicit widening is performed").
		Build()
}

// FromTypeError wraps a term.TypeError — raised deep inside expression
// construction, where that package cannot depend on this one — into the
// reported CheckerError shape. Any other error is wrapped as a
// TypeMismatch CheckerError carrying that error's message.
func FromTypeError(err error) CheckerError {
	if te, ok := err.(*term.TypeError); ok {
		return TypeMismatch(te.Kind, te.Expected, te.Actual)
	}
	return NewCheckerError(KindTypeMismatch, err.Error()).Build()
}

// UnsupportedInstruction reports that lowering has no translation for
// an IR construct (§4.E / §7).
func UnsupportedInstruction(what string, loc ir.LocationInfo) CheckerError {
	return NewCheckerError(KindUnsupportedInstruction,
		fmt.Sprintf("no lowering defined for %s", what)).
		At(loc).
		WithSuggestion("choose a different memory model, or reject this input ahead of the checker").
		Build()
}

// Solver wraps a backend failure (§7: recovered locally per error block).
func Solver(cause error) CheckerError {
	return NewCheckerError(KindSolverError, cause.Error()).
		WithNote("the encoder continues with the next error block").
		Build()
}

// Cancelled reports cooperative cancellation of the encoder's DP (§5).
func Cancelled() CheckerError {
	return NewCheckerError(KindCancelled, "verification run was cancelled between blocks").Build()
}

// TraceIncomplete reports a partially reconstructed counterexample
// (§4.H "Failure semantics").
func TraceIncomplete(blockID string) CheckerError {
	return NewCheckerError(KindTraceIncomplete,
		fmt.Sprintf("no model entry for the predecessor variable of block %s", blockID)).
		WithNote("the partial event sequence assembled so far is still returned").
		Build()
}
