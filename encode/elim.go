package encode

import "bmc/term"

// eliminateTemps implements BMC.cpp's tryToEliminate over a finished
// error formula: scan its flattened top-level conjunction for bindings
// shaped v == rhs, and whenever v is referenced exactly once elsewhere
// in the formula, inline rhs at that one use and drop the separate
// equality — unless that one use sits under a floating-point
// comparison and assumeNoNaN does not hold, since a NaN-valued rhs
// could then disagree with its own substituted copy (§9 Open
// Questions: the blocker applies to FEq, FLt and FLtEq alike).
func eliminateTemps(b *term.Builder, formula *term.Expr, assumeNoNaN bool) (*term.Expr, error) {
	conjuncts := flattenAnd(formula)

	for changed := true; changed; {
		changed = false
		for i := range conjuncts {
			c := conjuncts[i]
			if c == nil {
				continue
			}
			v, rhs, ok := asBinding(c)
			if !ok {
				continue
			}

			count := 0
			for j, other := range conjuncts {
				if j == i || other == nil {
					continue
				}
				count += countVarRefs(other, v)
			}
			if count != 1 {
				continue
			}
			if !assumeNoNaN && blocksElimination(conjuncts, i, v) {
				continue
			}

			subst := map[*term.Variable]*term.Expr{v: rhs}
			next := make([]*term.Expr, len(conjuncts))
			for j, other := range conjuncts {
				if j == i || other == nil {
					next[j] = other
					continue
				}
				ne, err := term.Substitute(b, other, subst)
				if err != nil {
					return nil, err
				}
				next[j] = ne
			}
			next[i] = nil
			conjuncts = next
			changed = true
		}
	}

	remaining := make([]*term.Expr, 0, len(conjuncts))
	for _, c := range conjuncts {
		if c != nil {
			remaining = append(remaining, c)
		}
	}
	return b.And(remaining...)
}

// flattenAnd recursively unpacks a top-level conjunction into its leaf
// conjuncts, since And's own builder already flattens nested Ands at
// construction time but a Select-guarded phi equality or an Or term
// sits alongside them as a single non-And conjunct.
func flattenAnd(e *term.Expr) []*term.Expr {
	if e.Kind != term.And {
		return []*term.Expr{e}
	}
	out := make([]*term.Expr, 0, len(e.Operands))
	for _, op := range e.Operands {
		out = append(out, flattenAnd(op)...)
	}
	return out
}

// asBinding reports whether c has the shape every instruction and phi
// equality in this package builds: Eq(VarRef(v), rhs).
func asBinding(c *term.Expr) (*term.Variable, *term.Expr, bool) {
	if c.Kind != term.Eq || len(c.Operands) != 2 {
		return nil, nil, false
	}
	left := c.Operands[0]
	if left.Kind != term.VarRef {
		return nil, nil, false
	}
	return left.Var, c.Operands[1], true
}

func countVarRefs(e *term.Expr, v *term.Variable) int {
	if e.Kind == term.VarRef {
		if e.Var == v {
			return 1
		}
		return 0
	}
	total := 0
	for _, op := range e.Operands {
		total += countVarRefs(op, v)
	}
	return total
}

// blocksElimination reports whether v's remaining use, anywhere among
// conjuncts other than the binding being eliminated, sits under a
// floating-point comparison.
func blocksElimination(conjuncts []*term.Expr, skipIndex int, v *term.Variable) bool {
	for i, c := range conjuncts {
		if i == skipIndex || c == nil {
			continue
		}
		if floatCompareUses(c, v) {
			return true
		}
	}
	return false
}

func floatCompareUses(e *term.Expr, v *term.Variable) bool {
	if term.IsFloatCompare(e.Kind) {
		for _, op := range e.Operands {
			if countVarRefs(op, v) > 0 {
				return true
			}
		}
	}
	for _, op := range e.Operands {
		if floatCompareUses(op, v) {
			return true
		}
	}
	return false
}
