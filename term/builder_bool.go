package term

// And builds a variadic conjunction, applying the canonicalization
// catalogue of §4.B: flattens nested Ands, drops `true` operands,
// short-circuits to `false` on any `false` operand, and folds an empty
// input to `true` and a singleton input to that input.
func (b *Builder) And(operands ...*Expr) (*Expr, error) {
	return b.nary(And, operands, b.True(), b.False())
}

// Or builds a variadic disjunction with the dual simplifications of And.
func (b *Builder) Or(operands ...*Expr) (*Expr, error) {
	return b.nary(Or, operands, b.False(), b.True())
}

// nary implements the shared flatten/simplify/fold machinery for And
// and Or. identity is the operand that can be dropped (true for And,
// false for Or); annihilator is the value that short-circuits the
// whole expression (false for And, true for Or).
func (b *Builder) nary(kind ExprKind, operands []*Expr, identity, annihilator *Expr) (*Expr, error) {
	flat := make([]*Expr, 0, len(operands))
	b.flatten(kind, operands, identity, annihilator, &flat)

	for _, op := range flat {
		if op == annihilator {
			return annihilator, nil
		}
	}

	switch len(flat) {
	case 0:
		return identity, nil
	case 1:
		return flat[0], nil
	}

	return b.ctx.intern(&Expr{Kind: kind, Type: BoolType{}, Operands: flat}), nil
}

func (b *Builder) flatten(kind ExprKind, operands []*Expr, identity, annihilator *Expr, out *[]*Expr) {
	for _, op := range operands {
		if !IsBool(op.Type) {
			continue // well-typedness is checked by the typed call sites below
		}
		if op == identity {
			continue
		}
		if op.Kind == kind {
			b.flatten(kind, op.Operands, identity, annihilator, out)
			continue
		}
		*out = append(*out, op)
	}
}

// AndChecked is And with explicit well-typedness checking — used when
// operand types have not already been validated by a typed caller.
func (b *Builder) AndChecked(operands ...*Expr) (*Expr, error) {
	for _, op := range operands {
		if !IsBool(op.Type) {
			return nil, b.mismatch("And", "Bool", op.Type.String())
		}
	}
	return b.And(operands...)
}

// OrChecked is Or with explicit well-typedness checking.
func (b *Builder) OrChecked(operands ...*Expr) (*Expr, error) {
	for _, op := range operands {
		if !IsBool(op.Type) {
			return nil, b.mismatch("Or", "Bool", op.Type.String())
		}
	}
	return b.Or(operands...)
}

// Xor builds exclusive-or over exactly two Bool operands.
func (b *Builder) Xor(x, y *Expr) (*Expr, error) {
	if !IsBool(x.Type) || !IsBool(y.Type) {
		return nil, b.mismatch("Xor", "Bool", x.Type.String()+","+y.Type.String())
	}
	if x.Kind == BoolLit && y.Kind == BoolLit {
		return b.Bool(x.BoolVal != y.BoolVal), nil
	}
	return b.ctx.intern(&Expr{Kind: Xor, Type: BoolType{}, Operands: []*Expr{x, y}}), nil
}
