// Package encode is the BMC encoder (§4.G) — the centerpiece of the
// checker. It walks a function's basic blocks in topological order and
// builds, for every location, the formula "this location is reachable"
// (reach[i]) and "this location is reachable and its own instructions
// have executed" (post[i] = reach[i] ∧ body[i]), exactly as
// gazer's BMC.cpp::encode() does: reach[0] = true, reach[i] = Or over
// predecessors j of (post[j] ∧ edge(j,i)), reach[i] = false when i has
// no predecessors left unreachable by construction. A predecessor
// selector variable is introduced for every block with more than one
// predecessor so a satisfying model can be read back into a trace;
// single-predecessor blocks need no selector since control flow there
// is deterministic.
package encode

import (
	"context"
	"fmt"
	"sort"

	"bmc/config"
	bmcerrors "bmc/internal/errors"
	"bmc/ir"
	"bmc/lower"
	"bmc/term"
)

// BlockID names a basic block the way the front-end does — ir.BasicBlock.ID.
type BlockID = string

// Result is everything the encoder produced for a function: the
// reachability/post formulas for every block, the predecessor-selector
// variables introduced for join points, and the value->variable binding
// trace.Build needs to walk a satisfying model back into a
// counterexample.
type Result struct {
	// Topo is the block order the DP ran in, entry first.
	Topo []BlockID
	// BlockIndex maps a block ID to its position in Topo.
	BlockIndex map[BlockID]int
	// Reach[i] holds "control reaches block i".
	Reach map[BlockID]*term.Expr
	// Post[i] holds Reach[i] ∧ body[i] — reachable and fully executed.
	Post map[BlockID]*term.Expr
	// Preds holds the predecessor-selector variable for every block
	// with more than one predecessor, keyed by that block's ID.
	Preds map[BlockID]*term.Variable
	// PredOrder records, for every block, the predecessor order its
	// selector variable's value indexes into (PredOrder[i][k] is the
	// block ID a model value of k for Preds[i] names).
	PredOrder map[BlockID][]BlockID
	// ValueMap binds every IR value (instruction result or phi result)
	// encoded so far to the term.Variable holding its symbolic value.
	ValueMap map[ir.Value]*term.Variable
	// ErrorFormulas holds, for every block containing an error_code
	// call, the formula asserting that call is reached — what the
	// solver is actually asked to decide, one block at a time.
	ErrorFormulas map[BlockID]*term.Expr
}

// Encode runs the reach[i] dynamic program over fn, which must already
// be acyclic (the output of unwind.Unwind). runCtx is checked between
// blocks; a cancelled context yields bmcerrors.Cancelled() and no
// partial Result, matching the concurrency model of §5.
func Encode(runCtx context.Context, fn *ir.Function, tctx *term.Context, cfg config.Options) (*Result, error) {
	topo, err := topoOrder(fn)
	if err != nil {
		return nil, err
	}

	blockIndex := make(map[BlockID]int, len(topo))
	for i, blk := range topo {
		blockIndex[blk.ID] = i
	}

	b := term.NewBuilder(tctx)
	lowerer := lower.NewLowerer(tctx, cfg, nil)

	res := &Result{
		Topo:          make([]BlockID, len(topo)),
		BlockIndex:    blockIndex,
		Reach:         make(map[BlockID]*term.Expr, len(topo)),
		Post:          make(map[BlockID]*term.Expr, len(topo)),
		Preds:         make(map[BlockID]*term.Variable),
		PredOrder:     make(map[BlockID][]BlockID, len(topo)),
		ValueMap:      make(map[ir.Value]*term.Variable),
		ErrorFormulas: make(map[BlockID]*term.Expr),
	}
	for i, blk := range topo {
		res.Topo[i] = blk.ID
	}

	floatVars := make(map[*term.Variable]bool)

	for _, blk := range topo {
		select {
		case <-runCtx.Done():
			return nil, bmcerrors.Cancelled()
		default:
		}

		preds := blk.Predecessors
		predOrder := make([]BlockID, len(preds))
		for i, p := range preds {
			predOrder[i] = p.ID
		}
		res.PredOrder[blk.ID] = predOrder

		// Phi results are bound before the block's own instructions are
		// lowered: a straight-line instruction in this block may use a
		// phi's result, but the equality that defines that result
		// depends on which predecessor was taken, so it is folded into
		// reach[i] below, not into the memoized body.
		for _, phi := range blk.Phis {
			phiVar, err := lowerer.Bind(phi.Result, phi.Type, "phi")
			if err != nil {
				return nil, err
			}
			res.ValueMap[phi.Result] = phiVar
			if _, isFloat := phi.Type.(term.FloatType); isFloat {
				floatVars[phiVar] = true
			}
		}

		bodyExpr, err := buildBody(b, lowerer, blk, res.ValueMap, floatVars)
		if err != nil {
			return nil, err
		}

		reach, err := reachFormula(b, lowerer, res, tctx, blk, preds)
		if err != nil {
			return nil, err
		}
		res.Reach[blk.ID] = reach

		post, err := b.And(reach, bodyExpr)
		if err != nil {
			return nil, err
		}
		res.Post[blk.ID] = post

		if hasErrorCall(blk) {
			errFormula := post
			if cfg.AssumeNoNaN {
				noNaN, err := noNaNConjunct(b, floatVars)
				if err != nil {
					return nil, err
				}
				errFormula, err = b.And(errFormula, noNaN)
				if err != nil {
					return nil, err
				}
			}
			if !cfg.NoElimVars {
				errFormula, err = eliminateTemps(b, errFormula, cfg.AssumeNoNaN)
				if err != nil {
					return nil, err
				}
			}
			res.ErrorFormulas[blk.ID] = errFormula
		}
	}

	return res, nil
}

// reachFormula builds reach[i] for blk, dispatching on how many
// predecessors it has: none (the entry block, trivially reached),
// exactly one (a deterministic edge, no selector needed), or several
// (a selector variable picks out which predecessor's edge held, and
// also drives this block's phi resolution).
func reachFormula(b *term.Builder, lowerer *lower.Lowerer, res *Result, tctx *term.Context, blk *ir.BasicBlock, preds []*ir.BasicBlock) (*term.Expr, error) {
	switch len(preds) {
	case 0:
		return b.True(), nil
	case 1:
		p := preds[0]
		edge, err := edgeFormula(b, lowerer, res.Post, p, blk)
		if err != nil {
			return nil, err
		}
		phiEq, err := singlePredPhiEq(b, lowerer, blk, p)
		if err != nil {
			return nil, err
		}
		return b.And(edge, phiEq)
	default:
		predVar, err := tctx.NewVariable(fmt.Sprintf("pred#%s", blk.ID), term.BvType{Width: 32})
		if err != nil {
			return nil, err
		}
		res.Preds[blk.ID] = predVar

		terms := make([]*term.Expr, 0, len(preds))
		for idx, p := range preds {
			edge, err := edgeFormula(b, lowerer, res.Post, p, blk)
			if err != nil {
				return nil, err
			}
			idxEq, err := b.Eq(b.VarRef(predVar), b.BvConstU(32, uint64(idx)))
			if err != nil {
				return nil, err
			}
			edgeTerm, err := b.And(edge, idxEq)
			if err != nil {
				return nil, err
			}
			terms = append(terms, edgeTerm)
		}
		disj, err := b.Or(terms...)
		if err != nil {
			return nil, err
		}
		phiEq, err := multiPredPhiEq(b, lowerer, blk, preds, predVar)
		if err != nil {
			return nil, err
		}
		return b.And(disj, phiEq)
	}
}

// edgeFormula builds edge(from,to) = post[from] ∧ guard(from,to): the
// predecessor's own reachability-and-body formula, reused from the
// memoized Post map rather than rebuilt, conjoined with the branch
// condition (or its negation) that actually leaves from toward to.
func edgeFormula(b *term.Builder, lowerer *lower.Lowerer, post map[BlockID]*term.Expr, from, to *ir.BasicBlock) (*term.Expr, error) {
	guard, err := branchGuard(b, lowerer, from, to)
	if err != nil {
		return nil, err
	}
	fromPost, ok := post[from.ID]
	if !ok {
		return nil, fmt.Errorf("encode: predecessor %q of %q was not yet encoded (blocks are not in topological order)", from.ID, to.ID)
	}
	return b.And(fromPost, guard)
}

func branchGuard(b *term.Builder, lowerer *lower.Lowerer, from, to *ir.BasicBlock) (*term.Expr, error) {
	switch t := from.Terminator.(type) {
	case *ir.Jump:
		return b.True(), nil
	case *ir.Branch:
		condVar, ok := lowerer.Resolve(t.Cond)
		if !ok {
			return nil, fmt.Errorf("encode: branch condition %q in block %q was never bound", t.Cond.ID, from.ID)
		}
		cond := b.VarRef(condVar)
		switch to.ID {
		case t.TrueTarget:
			return cond, nil
		case t.FalseTarget:
			return b.Not(cond)
		default:
			return nil, fmt.Errorf("encode: block %q is not a branch target of %q", to.ID, from.ID)
		}
	default:
		return nil, fmt.Errorf("encode: block %q has no outgoing edge to %q (terminator %T)", from.ID, to.ID, from.Terminator)
	}
}

// buildBody lowers blk's straight-line instructions into the memoized
// per-block body formula: the conjunction of "result variable equals
// its defining expression" over every instruction with a result. Void
// calls (including the error_code sentinel) contribute nothing here —
// their effect on reachability is the caller's concern, not the
// body's.
func buildBody(b *term.Builder, lowerer *lower.Lowerer, blk *ir.BasicBlock, valueMap map[ir.Value]*term.Variable, floatVars map[*term.Variable]bool) (*term.Expr, error) {
	var eqs []*term.Expr
	for _, inst := range blk.Instructions {
		variable, expr, err := lowerer.Lower(inst)
		if err != nil {
			return nil, err
		}
		if variable == nil {
			continue
		}
		if result, ok := inst.Result(); ok {
			valueMap[result] = variable
		}
		if _, isFloat := variable.Type.(term.FloatType); isFloat {
			floatVars[variable] = true
		}
		eq, err := b.Eq(b.VarRef(variable), expr)
		if err != nil {
			return nil, err
		}
		eqs = append(eqs, eq)
	}
	return b.And(eqs...)
}

// singlePredPhiEq resolves blk's phis against its one predecessor:
// each phi result simply equals the value that predecessor contributed.
func singlePredPhiEq(b *term.Builder, lowerer *lower.Lowerer, blk *ir.BasicBlock, pred *ir.BasicBlock) (*term.Expr, error) {
	var eqs []*term.Expr
	for _, phi := range blk.Phis {
		phiVar, ok := lowerer.Resolve(phi.Result)
		if !ok {
			return nil, fmt.Errorf("encode: phi result %q in block %q was not bound", phi.Result.ID, blk.ID)
		}
		incomingVar, err := resolveIncoming(lowerer, blk, phi, pred.ID)
		if err != nil {
			return nil, err
		}
		eq, err := b.Eq(b.VarRef(phiVar), b.VarRef(incomingVar))
		if err != nil {
			return nil, err
		}
		eqs = append(eqs, eq)
	}
	return b.And(eqs...)
}

// multiPredPhiEq resolves blk's phis against several predecessors by
// building a nested Select keyed on predVar: Select(predVar==0, v0,
// Select(predVar==1, v1, ... vLast)). The resulting equality takes
// effect unconditionally (it is always true exactly when predVar
// equals the index of whichever edge term actually held).
func multiPredPhiEq(b *term.Builder, lowerer *lower.Lowerer, blk *ir.BasicBlock, preds []*ir.BasicBlock, predVar *term.Variable) (*term.Expr, error) {
	var eqs []*term.Expr
	for _, phi := range blk.Phis {
		phiVar, ok := lowerer.Resolve(phi.Result)
		if !ok {
			return nil, fmt.Errorf("encode: phi result %q in block %q was not bound", phi.Result.ID, blk.ID)
		}

		last := preds[len(preds)-1]
		lastVar, err := resolveIncoming(lowerer, blk, phi, last.ID)
		if err != nil {
			return nil, err
		}
		value := b.VarRef(lastVar)

		for i := len(preds) - 2; i >= 0; i-- {
			v, err := resolveIncoming(lowerer, blk, phi, preds[i].ID)
			if err != nil {
				return nil, err
			}
			cond, err := b.Eq(b.VarRef(predVar), b.BvConstU(32, uint64(i)))
			if err != nil {
				return nil, err
			}
			value, err = b.Select(cond, b.VarRef(v), value)
			if err != nil {
				return nil, err
			}
		}

		eq, err := b.Eq(b.VarRef(phiVar), value)
		if err != nil {
			return nil, err
		}
		eqs = append(eqs, eq)
	}
	return b.And(eqs...)
}

func resolveIncoming(lowerer *lower.Lowerer, blk *ir.BasicBlock, phi *ir.Phi, predID string) (*term.Variable, error) {
	val, ok := phi.Incoming[predID]
	if !ok {
		return nil, fmt.Errorf("encode: phi for %q in block %q has no incoming value from predecessor %q", phi.Result.ID, blk.ID, predID)
	}
	v, ok := lowerer.Resolve(val)
	if !ok {
		return nil, fmt.Errorf("encode: phi incoming value %q was never bound before block %q", val.ID, blk.ID)
	}
	return v, nil
}

func hasErrorCall(blk *ir.BasicBlock) bool {
	for _, inst := range blk.Instructions {
		if call, ok := inst.(*ir.CallInst); ok && call.IsErrorCall() {
			return true
		}
	}
	return false
}

// noNaNConjunct builds ⋀ ¬isNaN(v) over every float-typed variable
// bound so far, in stable name order, for the AssumeNoNaN option.
func noNaNConjunct(b *term.Builder, floatVars map[*term.Variable]bool) (*term.Expr, error) {
	vars := make([]*term.Variable, 0, len(floatVars))
	for v := range floatVars {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name < vars[j].Name })

	conjuncts := make([]*term.Expr, 0, len(vars))
	for _, v := range vars {
		isNaN, err := b.FIsNan(b.VarRef(v))
		if err != nil {
			return nil, err
		}
		notNaN, err := b.Not(isNaN)
		if err != nil {
			return nil, err
		}
		conjuncts = append(conjuncts, notNaN)
	}
	return b.And(conjuncts...)
}

// topoOrder computes a topological order of fn's blocks reachable from
// its entry, via reverse DFS postorder. It fails if fn still contains a
// cycle — callers are expected to have run unwind.Unwind first.
func topoOrder(fn *ir.Function) ([]*ir.BasicBlock, error) {
	if fn.Entry == nil {
		return nil, fmt.Errorf("encode: function %q has no entry block", fn.Name)
	}

	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var order []*ir.BasicBlock

	var visit func(b *ir.BasicBlock) error
	visit = func(b *ir.BasicBlock) error {
		if visited[b.ID] {
			return nil
		}
		if onStack[b.ID] {
			return fmt.Errorf("encode: block %q lies on a cycle; run unwind.Unwind first", b.ID)
		}
		onStack[b.ID] = true
		for _, s := range b.Successors {
			if err := visit(s); err != nil {
				return err
			}
		}
		onStack[b.ID] = false
		visited[b.ID] = true
		order = append(order, b)
		return nil
	}

	if err := visit(fn.Entry); err != nil {
		return nil, err
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil
}
