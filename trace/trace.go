// Package trace reconstructs a counterexample witness from a
// satisfying model (§4.H): starting at the error block, it walks
// predecessor-selector variables backward to recover the unique path
// that was taken, then replays that path forward to emit an ordered
// sequence of observable events.
package trace

import (
	"fmt"
	"math/big"

	"bmc/encode"
	bmcerrors "bmc/internal/errors"
	"bmc/ir"
	"bmc/solver"
	"bmc/term"
)

// EventKind is the closed set of observable events a trace can hold
// (§3 "Trace event").
type EventKind int

const (
	// EventAssign records a variable taking a concrete value.
	EventAssign EventKind = iota
	// EventFunctionEntry marks the start of the verified function.
	EventFunctionEntry
	// EventFunctionReturn marks a return from the verified function.
	EventFunctionReturn
	// EventFunctionCall records a call site and, when present, the
	// value the model assigned to its result.
	EventFunctionCall
	// EventUndefinedBehavior marks a point where the program read a
	// value the model was free to choose arbitrarily.
	EventUndefinedBehavior
)

func (k EventKind) String() string {
	switch k {
	case EventAssign:
		return "Assign"
	case EventFunctionEntry:
		return "FunctionEntry"
	case EventFunctionReturn:
		return "FunctionReturn"
	case EventFunctionCall:
		return "FunctionCall"
	case EventUndefinedBehavior:
		return "UndefinedBehavior"
	default:
		return "UnknownEvent"
	}
}

// Event is one entry in a trace. Fields not meaningful for a given Kind
// are left zero; Name holds the variable name (Assign) or the
// function/callee name (FunctionEntry/Return/Call).
type Event struct {
	Kind  EventKind
	Name  string
	Value Literal
	// HasValue reports whether Value is meaningful — a void call or a
	// function entry/return carries none.
	HasValue bool
	Loc      *ir.LocationInfo
}

func (e Event) String() string {
	if e.HasValue {
		return fmt.Sprintf("%s(%s=%s)", e.Kind, e.Name, e.Value)
	}
	if e.Name != "" {
		return fmt.Sprintf("%s(%s)", e.Kind, e.Name)
	}
	return e.Kind.String()
}

// Literal is a concrete value read out of a model, rendered without
// depending on the solver's own representation.
type Literal struct {
	Type  term.Type
	Bool  bool
	Int   *big.Int // meaningful for Bv and Int types
	Float float64
}

func (l Literal) String() string {
	switch l.Type.(type) {
	case term.BoolType:
		return fmt.Sprintf("%t", l.Bool)
	case term.FloatType:
		return fmt.Sprintf("%g", l.Float)
	default:
		if l.Int != nil {
			return l.Int.String()
		}
		return "0"
	}
}

// Trace is a finite, ordered sequence of events from function entry to
// the error location (§3).
type Trace []Event

// Build reconstructs the counterexample trace reaching errBlock in fn,
// given the encoder's Result for fn and a satisfying Model for
// res.ErrorFormulas[errBlock]. Alongside the trace it returns the u32
// argument of errBlock's error_code call (§6 "Fail(error_code, trace)"),
// resolved from the literal when the argument is a constant or from
// model otherwise. It never fails silently (§4.H "Failure semantics"):
// when a reachable multi-predecessor block's selector variable has no
// model entry, it returns the partial trace assembled so far alongside
// a TraceIncomplete error.
func Build(fn *ir.Function, res *encode.Result, errBlock encode.BlockID, model solver.Model) (Trace, uint32, error) {
	blocks := make(map[string]*ir.BasicBlock, len(fn.Blocks))
	for _, b := range fn.Blocks {
		blocks[b.ID] = b
	}
	errBlk, ok := blocks[errBlock]
	if !ok {
		return nil, 0, fmt.Errorf("trace: block %q is not part of function %q", errBlock, fn.Name)
	}
	errorCode := errorCodeOf(fn, res, errBlk, model)

	path, incompleteAt, err := walkBack(res, errBlock, model)
	if path == nil {
		return nil, errorCode, err
	}

	var out Trace
	for i, id := range path {
		blk, ok := blocks[id]
		if !ok {
			return out, errorCode, fmt.Errorf("trace: block %q referenced by topological order has no definition in %q", id, fn.Name)
		}
		if i == 0 {
			out = append(out, Event{Kind: EventFunctionEntry, Name: fn.Name})
		}
		out = appendBlockEvents(out, fn, blk, res, model)
	}

	if incompleteAt != "" {
		return out, errorCode, bmcerrors.TraceIncomplete(incompleteAt)
	}
	return out, errorCode, nil
}

// walkBack recovers the entry-to-errBlock path by following
// predecessor-selector variables backward from errBlock to the entry
// block (§4.H "Algorithm"). It returns the path in forward order
// (entry first). If a reachable multi-predecessor block's selector has
// no model entry, it stops there and returns incompleteAt set to that
// block's ID along with whatever prefix was recovered, matching the
// "never fail silently" rule: the caller still gets the partial
// sequence.
func walkBack(res *encode.Result, errBlock encode.BlockID, model solver.Model) (path []string, incompleteAt string, err error) {
	var reversed []string
	current := errBlock
	for {
		reversed = append(reversed, current)
		preds := res.PredOrder[current]
		switch len(preds) {
		case 0:
			// Entry block (or an unreachable one, but reach[0] is always
			// true so only the true entry has zero predecessors in a
			// function the encoder actually processed).
			for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
				reversed[i], reversed[j] = reversed[j], reversed[i]
			}
			return reversed, "", nil
		case 1:
			current = preds[0]
		default:
			predVar, ok := res.Preds[current]
			if !ok {
				return nil, "", fmt.Errorf("trace: block %q has %d predecessors but no selector variable was recorded", current, len(preds))
			}
			idx, ok := model.BvValue(predVar)
			if !ok {
				for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
					reversed[i], reversed[j] = reversed[j], reversed[i]
				}
				return reversed, current, nil
			}
			i := int(idx.Int64())
			if i < 0 || i >= len(preds) {
				return nil, "", fmt.Errorf("trace: model assigned out-of-range predecessor index %s for block %q (%d predecessors)", idx, current, len(preds))
			}
			current = preds[i]
		}
	}
}

// appendBlockEvents emits the events for one block along the
// reconstructed path: phi resolutions, then straight-line instruction
// assignments/calls/undefined-behavior points in program order, then a
// function-return event if the block terminates in a Return.
func appendBlockEvents(out Trace, fn *ir.Function, blk *ir.BasicBlock, res *encode.Result, model solver.Model) Trace {
	// The predecessor the path entered blk from picks each phi's value.
	preds := res.PredOrder[blk.ID]
	from := ""
	if len(preds) == 1 {
		from = preds[0]
	} else if idx, ok := model.BvValue(res.Preds[blk.ID]); ok && idx.IsInt64() && idx.Int64() < int64(len(preds)) {
		from = preds[idx.Int64()]
	}
	for _, phi := range blk.Phis {
		variable, ok := res.ValueMap[phi.Result]
		if !ok {
			continue
		}
		value := readLiteral(variable, model)
		if in, ok := phi.Incoming[from]; ok {
			if lit, ok := resolveArgLiteral(fn, res, model, in); ok {
				value = lit
			}
		}
		out = append(out, Event{
			Kind:     EventAssign,
			Name:     variable.Name,
			Value:    value,
			HasValue: true,
			Loc:      phi.Loc,
		})
	}

	for _, inst := range blk.Instructions {
		switch v := inst.(type) {
		case *ir.CallInst:
			ev := Event{Kind: EventFunctionCall, Name: v.Callee, Loc: v.Loc}
			switch {
			case v.IsErrorCall() && len(v.Args) > 0:
				if lit, ok := resolveArgLiteral(fn, res, model, v.Args[0]); ok {
					ev.Value = lit
					ev.HasValue = true
				}
			case v.HasResult:
				if variable, ok := res.ValueMap[v.ID]; ok {
					ev.Value = readLiteral(variable, model)
					ev.HasValue = true
				}
			}
			out = append(out, ev)
			// Every result-bearing call is bound to an Undef-typed
			// variable (§6: unmodeled callees return an arbitrary value
			// of their declared type) — the error_code sentinel is void
			// and carries no such unmodeled result, so it gets no
			// undefined-behavior event.
			if !v.IsErrorCall() && v.HasResult {
				out = append(out, Event{Kind: EventUndefinedBehavior, Name: v.Callee, Loc: v.Loc})
			}
		case *ir.UndefinedValueInst:
			variable, ok := res.ValueMap[v.ID]
			if ok {
				out = append(out, Event{
					Kind:     EventAssign,
					Name:     variable.Name,
					Value:    readLiteral(variable, model),
					HasValue: true,
					Loc:      v.Loc,
				})
			}
			out = append(out, Event{Kind: EventUndefinedBehavior, Loc: v.Loc})
		default:
			result, ok := inst.Result()
			if !ok {
				continue
			}
			variable, ok := res.ValueMap[result]
			if !ok {
				continue
			}
			value, _ := resolveArgLiteral(fn, res, model, result)
			out = append(out, Event{
				Kind:     EventAssign,
				Name:     variable.Name,
				Value:    value,
				HasValue: true,
				Loc:      inst.Location(),
			})
		}
	}

	if _, isReturn := blk.Terminator.(*ir.Return); isReturn {
		out = append(out, Event{Kind: EventFunctionReturn})
	}
	return out
}

// errorCodeOf resolves the u32 argument of errBlk's error_code call,
// defaulting to 0 when the block has no such call or the argument
// can't be resolved (walkBack's TraceIncomplete path already reports
// that condition separately).
func errorCodeOf(fn *ir.Function, res *encode.Result, errBlk *ir.BasicBlock, model solver.Model) uint32 {
	for _, inst := range errBlk.Instructions {
		call, ok := inst.(*ir.CallInst)
		if !ok || !call.IsErrorCall() || len(call.Args) == 0 {
			continue
		}
		lit, ok := resolveArgLiteral(fn, res, model, call.Args[0])
		if !ok || lit.Int == nil {
			return 0
		}
		return uint32(lit.Int.Uint64())
	}
	return 0
}

// resolveArgLiteral resolves an instruction operand to its value:
// directly from a ConstInst literal when arg's defining instruction is
// one, otherwise from model via arg's bound variable (§4.G: a call
// argument "may be literal or symbolic").
func resolveArgLiteral(fn *ir.Function, res *encode.Result, model solver.Model, arg ir.Value) (Literal, bool) {
	if def := findDefiningInst(fn, arg); def != nil {
		if c, ok := def.(*ir.ConstInst); ok {
			switch c.Type.(type) {
			case term.BoolType:
				return Literal{Type: c.Type, Bool: c.BoolVal}, true
			case term.FloatType:
				return Literal{Type: c.Type, Float: c.FloatVal}, true
			default:
				return Literal{Type: c.Type, Int: big.NewInt(c.Int)}, true
			}
		}
	}
	variable, ok := res.ValueMap[arg]
	if !ok {
		return Literal{}, false
	}
	return readLiteral(variable, model), true
}

// findDefiningInst searches fn for the instruction whose result is v,
// or nil if none binds it (e.g. it is a block parameter the IR front
// end never modeled as an instruction result).
func findDefiningInst(fn *ir.Function, v ir.Value) ir.Instruction {
	for _, b := range fn.Blocks {
		for _, inst := range b.Instructions {
			if result, ok := inst.Result(); ok && result == v {
				return inst
			}
		}
	}
	return nil
}

// readLiteral reads v's value from model, defaulting to the type's
// zero-like literal when the model has no entry for it (§4.H "Missing
// model entries default to that variable's type's zero-like literal").
// Array-typed variables have no scalar literal form and always default.
func readLiteral(v *term.Variable, model solver.Model) Literal {
	switch v.Type.(type) {
	case term.BoolType:
		b, ok := model.BoolValue(v)
		if !ok {
			b = false
		}
		return Literal{Type: v.Type, Bool: b}
	case term.BvType:
		n, ok := model.BvValue(v)
		if !ok {
			n = big.NewInt(0)
		}
		return Literal{Type: v.Type, Int: n}
	case term.IntType:
		n, ok := model.IntValue(v)
		if !ok {
			n = big.NewInt(0)
		}
		return Literal{Type: v.Type, Int: n}
	default:
		// Float and Array types: the solver.Model interface has no
		// accessor for either (§6 — floats/arrays are an opaque
		// collaborator's concern beyond the reference solver's scope),
		// so these always report the zero-like literal.
		return Literal{Type: v.Type, Int: big.NewInt(0)}
	}
}
