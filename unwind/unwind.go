// Package unwind implements bounded loop unwinding (§4.F): it turns a
// CFG that may contain back-edges into a semantically equivalent
// acyclic CFG where every loop body has been physically duplicated a
// fixed number of times, with the (bound+1)-th re-entry attempt cut
// off to a dead location instead of accepted.
//
// This realizes gazer's BoundedUnwindPass, whose body is not present
// in original_source — only its declaration and the duplicate-and-cut
// contract described around it survive — so the natural-loop discovery
// and duplication strategy here is this package's own, built in the
// idiom of the front-end's existing Loop/Dominance bookkeeping.
package unwind

import (
	"fmt"
	"sort"

	"bmc/ir"
)

// DeadBlockID names the unreachable-by-construction block every
// (bound+1)-th loop re-entry is redirected to.
const DeadBlockID = "__unwind_dead"

// loop is one natural loop: a single-latch back edge from Latch to
// Header, plus every block on some path from Header back to Latch
// that doesn't leave through Header.
type loop struct {
	Header *ir.BasicBlock
	Latch  *ir.BasicBlock
	Body   map[string]*ir.BasicBlock // keyed by BasicBlock.ID, includes Header and Latch
}

// Unwind duplicates every loop in fn bound times and returns a new,
// acyclic Function. fn itself is not mutated. bound == 0 removes every
// loop body entirely: the first re-entry attempt is already the
// (bound+1)-th, so it goes straight to the dead block.
func Unwind(fn *ir.Function, bound int) (*ir.Function, error) {
	if bound < 0 {
		return nil, fmt.Errorf("unwind: bound must be >= 0, got %d", bound)
	}

	working := cloneFunction(fn)
	ir.BuildEdges(working)

	loops, err := detectLoops(working)
	if err != nil {
		return nil, err
	}
	// Process smaller bodies first: in a well-structured nest an inner
	// loop's natural-loop body is a subset of its outer loop's, so
	// sorting by ascending body size visits inner loops before the outer
	// loops that contain them, matching §4.F's "inner loops unrolled
	// within each outer-loop copy".
	sort.Slice(loops, func(i, j int) bool { return len(loops[i].Body) < len(loops[j].Body) })

	dead := false
	for _, lp := range loops {
		usedDead, err := unwindOne(working, lp, bound)
		if err != nil {
			return nil, err
		}
		dead = dead || usedDead
	}
	if dead {
		working.Blocks = append(working.Blocks, &ir.BasicBlock{ID: DeadBlockID, Terminator: &ir.Return{}})
	}
	ir.BuildEdges(working)
	return working, nil
}

func cloneFunction(fn *ir.Function) *ir.Function {
	out := &ir.Function{Name: fn.Name}
	byID := make(map[string]*ir.BasicBlock, len(fn.Blocks))
	for _, b := range fn.Blocks {
		nb := &ir.BasicBlock{ID: b.ID, Instructions: append([]ir.Instruction(nil), b.Instructions...)}
		for _, p := range b.Phis {
			nb.Phis = append(nb.Phis, clonePhi(p))
		}
		nb.Terminator = b.Terminator
		byID[b.ID] = nb
		out.Blocks = append(out.Blocks, nb)
	}
	if fn.Entry != nil {
		out.Entry = byID[fn.Entry.ID]
	}
	return out
}

func clonePhi(p *ir.Phi) *ir.Phi {
	incoming := make(map[string]ir.Value, len(p.Incoming))
	for k, v := range p.Incoming {
		incoming[k] = v
	}
	return &ir.Phi{Result: p.Result, Type: p.Type, Incoming: incoming, Loc: p.Loc}
}

// detectLoops finds one loop per back edge reachable by a DFS from
// fn.Entry, treating an edge to an ancestor still on the DFS stack as
// a back edge (the standard structured-CFG definition of a natural
// loop's latch).
func detectLoops(fn *ir.Function) ([]loop, error) {
	byID := make(map[string]*ir.BasicBlock, len(fn.Blocks))
	for _, b := range fn.Blocks {
		byID[b.ID] = b
	}

	var loops []loop
	onStack := make(map[string]bool)
	visited := make(map[string]bool)

	var visit func(b *ir.BasicBlock) error
	visit = func(b *ir.BasicBlock) error {
		visited[b.ID] = true
		onStack[b.ID] = true
		for _, succ := range b.Successors {
			if onStack[succ.ID] {
				lp, err := naturalLoop(succ, b, byID)
				if err != nil {
					return err
				}
				loops = append(loops, lp)
				continue
			}
			if !visited[succ.ID] {
				if err := visit(succ); err != nil {
					return err
				}
			}
		}
		onStack[b.ID] = false
		return nil
	}

	if fn.Entry != nil {
		if err := visit(fn.Entry); err != nil {
			return nil, err
		}
	}
	return loops, nil
}

// naturalLoop walks predecessors backward from latch until header,
// collecting every block encountered — the standard natural-loop body
// computation for a single back edge header<-latch.
func naturalLoop(header, latch *ir.BasicBlock, byID map[string]*ir.BasicBlock) (loop, error) {
	body := map[string]*ir.BasicBlock{header.ID: header, latch.ID: latch}
	stack := []*ir.BasicBlock{latch}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, pred := range b.Predecessors {
			if _, ok := body[pred.ID]; ok {
				continue
			}
			body[pred.ID] = pred
			stack = append(stack, pred)
		}
	}
	return loop{Header: header, Latch: latch, Body: body}, nil
}

// unwindOne replaces lp's single back edge with bound physical copies
// of lp.Body, header included (copy 0 is the original): each copy's
// back edge enters the next copy's header, and the (bound+1)-th
// re-entry is retargeted to DeadBlockID. Reports whether it used the dead block, so
// the caller only appends it when at least one loop needed it.
func unwindOne(fn *ir.Function, lp loop, bound int) (bool, error) {
	blockByID := make(map[string]*ir.BasicBlock, len(fn.Blocks))
	for _, b := range fn.Blocks {
		blockByID[b.ID] = b
	}

	// previous holds, for each original body-block ID, the block that
	// should be jumped to when "entering the loop body again" from the
	// current copy — it starts as the original blocks (copy 0) and is
	// replaced with each new copy's blocks as unwinding proceeds.
	previous := make(map[string]*ir.BasicBlock, len(lp.Body))
	// Copies are made from the terminators as they were before any back
	// edge was redirected.
	origTerm := make(map[string]ir.Terminator, len(lp.Body))
	for id, b := range lp.Body {
		previous[id] = b
		origTerm[id] = b.Terminator
	}

	usedDead := false
	for i := 1; i <= bound; i++ {
		copyOf := make(map[string]*ir.BasicBlock, len(lp.Body))
		for id, b := range lp.Body {
			copyOf[id] = &ir.BasicBlock{
				ID:           fmt.Sprintf("%s__unwind%d", id, i),
				Instructions: append([]ir.Instruction(nil), b.Instructions...),
				Terminator:   origTerm[id],
			}
			for _, p := range b.Phis {
				copyOf[id].Phis = append(copyOf[id].Phis, clonePhi(p))
			}
		}
		for id, b := range copyOf {
			retargetInternal(b, lp.Body, copyOf)
			patchPhiPredecessors(b, lp.Body[id], previous, copyOf)
			fn.Blocks = append(fn.Blocks, b)
		}
		// the previous copy's back edge (to what was `previous[header]`)
		// now targets this copy's header instead.
		redirectBackEdge(previous[lp.Latch.ID], previous[lp.Header.ID].ID, copyOf[lp.Header.ID].ID)
		previous = copyOf
	}
	// the final copy's back edge is the (bound+1)-th re-entry: cut it off.
	if redirectBackEdge(previous[lp.Latch.ID], previous[lp.Header.ID].ID, DeadBlockID) {
		usedDead = true
	}
	return usedDead, nil
}

// retargetInternal rewrites any terminator/phi reference from b (a
// fresh copy of an original body block) that pointed at another
// original body block so it points at that block's copy instead.
// References to blocks outside the loop body are left untouched —
// those are the loop's exits, which every copy shares.
func retargetInternal(b *ir.BasicBlock, originalBody, copyOf map[string]*ir.BasicBlock) {
	b.Terminator = retarget(b.Terminator, originalBody, copyOf)
}

func retarget(t ir.Terminator, originalBody, copyOf map[string]*ir.BasicBlock) ir.Terminator {
	switch term := t.(type) {
	case *ir.Jump:
		return &ir.Jump{Target: mapTarget(term.Target, originalBody, copyOf)}
	case *ir.Branch:
		return &ir.Branch{
			Cond:        term.Cond,
			TrueTarget:  mapTarget(term.TrueTarget, originalBody, copyOf),
			FalseTarget: mapTarget(term.FalseTarget, originalBody, copyOf),
		}
	default:
		return t
	}
}

func mapTarget(id string, originalBody, copyOf map[string]*ir.BasicBlock) string {
	if _, inBody := originalBody[id]; inBody {
		return copyOf[id].ID
	}
	return id
}

// patchPhiPredecessors rewrites a duplicated block's phi Incoming keys
// so a predecessor reference that named an original body block names
// that block's copy in this same duplication round instead — §4.F's
// "predecessor references on duplicated edges name the duplicated
// predecessors". original is the pre-duplication block this copy was
// made from (needed to read its Incoming map before it was cloned).
func patchPhiPredecessors(copyBlock, original *ir.BasicBlock, previous, copyOf map[string]*ir.BasicBlock) {
	for i, p := range copyBlock.Phis {
		origPhi := original.Phis[i]
		patched := make(map[string]ir.Value, len(origPhi.Incoming))
		for pred, v := range origPhi.Incoming {
			if _, inBody := copyOf[pred]; inBody {
				patched[copyOf[pred].ID] = v
				continue
			}
			if prevBlock, ok := previous[pred]; ok {
				patched[prevBlock.ID] = v
				continue
			}
			patched[pred] = v
		}
		p.Incoming = patched
	}
}

// redirectBackEdge finds the edge out of latch that targets headerID
// and retargets it to newTarget. Reports whether such an edge was
// found and changed.
func redirectBackEdge(latch *ir.BasicBlock, headerID, newTarget string) bool {
	switch t := latch.Terminator.(type) {
	case *ir.Jump:
		if t.Target == headerID {
			latch.Terminator = &ir.Jump{Target: newTarget}
			return true
		}
	case *ir.Branch:
		changed := false
		nt := *t
		if nt.TrueTarget == headerID {
			nt.TrueTarget = newTarget
			changed = true
		}
		if nt.FalseTarget == headerID {
			nt.FalseTarget = newTarget
			changed = true
		}
		if changed {
			latch.Terminator = &nt
		}
		return changed
	}
	return false
}
