package term

// Select builds an if-then-else term: Select(cond, whenTrue, whenFalse).
// A literal condition folds away the branch not taken — the unchosen
// branch's expression still exists in the DAG if something else
// references it, but this call no longer holds it alive.
func (b *Builder) Select(cond, whenTrue, whenFalse *Expr) (*Expr, error) {
	if !IsBool(cond.Type) {
		return nil, b.mismatch("Select", "Bool", cond.Type.String())
	}
	if !whenTrue.Type.Equal(whenFalse.Type) {
		return nil, b.mismatch("Select", whenTrue.Type.String(), whenFalse.Type.String())
	}
	if cond.Kind == BoolLit {
		if cond.BoolVal {
			return whenTrue, nil
		}
		return whenFalse, nil
	}
	if whenTrue == whenFalse {
		return whenTrue, nil
	}
	return b.ctx.intern(&Expr{Kind: Select, Type: whenTrue.Type, Operands: []*Expr{cond, whenTrue, whenFalse}}), nil
}

// ArrayRead builds a read of arr at index key.
func (b *Builder) ArrayRead(arr, key *Expr) (*Expr, error) {
	at, ok := arr.Type.(ArrayType)
	if !ok {
		return nil, b.mismatch("ArrayRead", "Array", arr.Type.String())
	}
	if !at.KeyType.Equal(key.Type) {
		return nil, b.mismatch("ArrayRead", at.KeyType.String(), key.Type.String())
	}
	if arr.Kind == ArrayWrite {
		written, writtenKey, writtenVal := arr.Operands[0], arr.Operands[1], arr.Operands[2]
		if writtenKey == key {
			return writtenVal, nil
		}
		_ = written
	}
	return b.ctx.intern(&Expr{Kind: ArrayRead, Type: at.ValueType, Operands: []*Expr{arr, key}}), nil
}

// ArrayWrite builds the array resulting from storing val at key in arr.
func (b *Builder) ArrayWrite(arr, key, val *Expr) (*Expr, error) {
	at, ok := arr.Type.(ArrayType)
	if !ok {
		return nil, b.mismatch("ArrayWrite", "Array", arr.Type.String())
	}
	if !at.KeyType.Equal(key.Type) {
		return nil, b.mismatch("ArrayWrite", at.KeyType.String(), key.Type.String())
	}
	if !at.ValueType.Equal(val.Type) {
		return nil, b.mismatch("ArrayWrite", at.ValueType.String(), val.Type.String())
	}
	// Writing the same key twice in a row makes the first write dead;
	// drop it so the DAG doesn't carry an unobservable intermediate array.
	if arr.Kind == ArrayWrite && arr.Operands[1] == key {
		arr = arr.Operands[0]
	}
	return b.ctx.intern(&Expr{Kind: ArrayWrite, Type: at, Operands: []*Expr{arr, key, val}}), nil
}
