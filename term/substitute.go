package term

// Substitute rewrites e, replacing every VarRef of a variable in subst
// with that variable's mapped expression, reconstructing every ancestor
// node through b so the canonicalization catalogue and hash-consing
// still apply to the result. It is the mechanism behind the encoder's
// temporary-variable elimination (§4.G "tryToEliminate"): inlining a
// single-use binding's right-hand side into its one use site and
// dropping the binding's equality conjunct.
//
// Substitute is memoized per call over the DAG's sharing, so a variable
// referenced from many places in e is rewritten once, not once per
// reference.
func Substitute(b *Builder, e *Expr, subst map[*Variable]*Expr) (*Expr, error) {
	if len(subst) == 0 {
		return e, nil
	}
	memo := make(map[*Expr]*Expr)
	return substRec(b, e, subst, memo)
}

func substRec(b *Builder, e *Expr, subst map[*Variable]*Expr, memo map[*Expr]*Expr) (*Expr, error) {
	if cached, ok := memo[e]; ok {
		return cached, nil
	}
	result, err := substOnce(b, e, subst, memo)
	if err != nil {
		return nil, err
	}
	memo[e] = result
	return result, nil
}

func substOnce(b *Builder, e *Expr, subst map[*Variable]*Expr, memo map[*Expr]*Expr) (*Expr, error) {
	if e.Kind == VarRef {
		if repl, ok := subst[e.Var]; ok {
			return repl, nil
		}
		return e, nil
	}
	if len(e.Operands) == 0 {
		return e, nil
	}
	ops := make([]*Expr, len(e.Operands))
	changed := false
	for i, o := range e.Operands {
		no, err := substRec(b, o, subst, memo)
		if err != nil {
			return nil, err
		}
		ops[i] = no
		if no != o {
			changed = true
		}
	}
	if !changed {
		return e, nil
	}
	return rebuild(b, e, ops)
}

// rebuild reconstructs a node of e's kind over freshly-substituted
// operands by calling back into the same Builder method that would have
// produced e originally, so every simplification rule applies again.
func rebuild(b *Builder, e *Expr, ops []*Expr) (*Expr, error) {
	switch e.Kind {
	case Not:
		return b.Not(ops[0])
	case Neg:
		return b.Neg(ops[0])
	case ZExt:
		return b.ZExt(ops[0], Bits(e.Type))
	case SExt:
		return b.SExt(ops[0], Bits(e.Type))
	case Trunc:
		return b.Trunc(ops[0], Bits(e.Type))
	case FCast:
		return b.FCast(ops[0], e.Type.(FloatType).Format)
	case FIsNan:
		return b.FIsNan(ops[0])
	case And:
		return b.And(ops...)
	case Or:
		return b.Or(ops...)
	case Xor:
		return b.Xor(ops[0], ops[1])
	case Eq:
		return b.Eq(ops[0], ops[1])
	case NotEq:
		return b.NotEq(ops[0], ops[1])
	case Lt:
		return b.Lt(ops[0], ops[1])
	case LtEq:
		return b.LtEq(ops[0], ops[1])
	case Ult:
		return b.Ult(ops[0], ops[1])
	case UltEq:
		return b.UltEq(ops[0], ops[1])
	case Add:
		return b.Add(ops[0], ops[1])
	case Sub:
		return b.Sub(ops[0], ops[1])
	case Mul:
		return b.Mul(ops[0], ops[1])
	case SDiv:
		return b.SDiv(ops[0], ops[1])
	case UDiv:
		return b.UDiv(ops[0], ops[1])
	case SMod:
		return b.SMod(ops[0], ops[1])
	case URem:
		return b.URem(ops[0], ops[1])
	case BvAnd:
		return b.BvAnd(ops[0], ops[1])
	case BvOr:
		return b.BvOr(ops[0], ops[1])
	case BvXor:
		return b.BvXor(ops[0], ops[1])
	case Shl:
		return b.Shl(ops[0], ops[1])
	case LShr:
		return b.LShr(ops[0], ops[1])
	case AShr:
		return b.AShr(ops[0], ops[1])
	case FEq:
		return b.FEq(ops[0], ops[1])
	case FLt:
		return b.FLt(ops[0], ops[1])
	case FLtEq:
		return b.FLtEq(ops[0], ops[1])
	case FAdd:
		return b.FAdd(ops[0], ops[1])
	case FSub:
		return b.FSub(ops[0], ops[1])
	case FMul:
		return b.FMul(ops[0], ops[1])
	case FDiv:
		return b.FDiv(ops[0], ops[1])
	case Select:
		return b.Select(ops[0], ops[1], ops[2])
	case ArrayRead:
		return b.ArrayRead(ops[0], ops[1])
	case ArrayWrite:
		return b.ArrayWrite(ops[0], ops[1], ops[2])
	default:
		return e, nil
	}
}

// IsFloatCompare reports whether k is one of the floating-point
// comparison kinds (FEq, FLt, FLtEq). Exported for the encoder's
// temporary-variable elimination, which must block substituting a
// binding away from under a float comparison unless "assume no NaN"
// holds (§9 Open Questions).
func IsFloatCompare(k ExprKind) bool {
	return isFloatCompare(k)
}
