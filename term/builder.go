package term

import (
	"fmt"
	"math/big"
)

// Builder is the simplifying expression constructor described in §4.B:
// one method per ExprKind, each of which checks the kind's
// well-typedness rule, applies the fixed canonicalization catalogue,
// and returns the hash-consed canonical node via its Context.
type Builder struct {
	ctx *Context
}

// NewBuilder creates a Builder backed by ctx. All expressions the
// Builder produces are interned into ctx and must not outlive it.
func NewBuilder(ctx *Context) *Builder {
	return &Builder{ctx: ctx}
}

// TypeError reports a well-typedness violation raised while building an
// expression. It carries the three fields internal/errors.TypeMismatch
// needs to build a diagnostic, without this package depending on the
// diagnostics layer — errors.FromTypeError does that wrapping at the
// boundary where a term-level failure becomes a reported CheckerError.
type TypeError struct {
	Kind, Expected, Actual string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s requires operands of type %s, got %s", e.Kind, e.Expected, e.Actual)
}

func (b *Builder) mismatch(kind, expected, actual string) error {
	return &TypeError{Kind: kind, Expected: expected, Actual: actual}
}

// --- Leaves ---------------------------------------------------------

// True returns the canonical Bool literal true.
func (b *Builder) True() *Expr { return b.Bool(true) }

// False returns the canonical Bool literal false.
func (b *Builder) False() *Expr { return b.Bool(false) }

// Bool returns the canonical Bool literal for v.
func (b *Builder) Bool(v bool) *Expr {
	return b.ctx.intern(&Expr{Kind: BoolLit, Type: BoolType{}, BoolVal: v})
}

// BvConst returns the canonical Bv(width) literal for v, truncated to
// width bits (two's complement).
func (b *Builder) BvConst(width int, v *big.Int) *Expr {
	t := BvType{Width: width}
	truncated := truncateToWidth(v, width)
	return b.ctx.intern(&Expr{Kind: BvLit, Type: t, BvVal: truncated})
}

// BvConstU returns a Bv(width) literal from an unsigned Go integer.
func (b *Builder) BvConstU(width int, v uint64) *Expr {
	return b.BvConst(width, new(big.Int).SetUint64(v))
}

// IntConst returns the canonical mathematical-integer literal for v.
func (b *Builder) IntConst(v *big.Int) *Expr {
	return b.ctx.intern(&Expr{Kind: IntLit, Type: IntType{}, IntVal: new(big.Int).Set(v)})
}

// FloatConst returns the canonical float literal of the given format.
func (b *Builder) FloatConst(format FloatFormat, v float64) *Expr {
	return b.ctx.intern(&Expr{Kind: FloatLit, Type: FloatType{Format: format}, FloatVal: v})
}

// VarRef returns the canonical reference expression for v.
func (b *Builder) VarRef(v *Variable) *Expr {
	return v.RefExpr()
}

// Undef returns the single canonical Undef literal for t.
func (b *Builder) Undef(t Type) *Expr {
	return b.ctx.UndefOf(t)
}

func truncateToWidth(v *big.Int, width int) *big.Int {
	mod := new(big.Int).Lsh(big.NewInt(1), uint(width))
	r := new(big.Int).Mod(v, mod)
	if r.Sign() < 0 {
		r.Add(r, mod)
	}
	return r
}

// --- Unary ------------------------------------------------------------

// Not builds ¬x. Requires x : Bool. Not(Not x) -> x; Not(false) -> true;
// Not(true) -> false.
func (b *Builder) Not(x *Expr) (*Expr, error) {
	if !IsBool(x.Type) {
		return nil, b.mismatch("Not", "Bool", x.Type.String())
	}
	if x.Kind == Not {
		return x.Operands[0], nil
	}
	if x.Kind == BoolLit {
		return b.Bool(!x.BoolVal), nil
	}
	return b.ctx.intern(&Expr{Kind: Not, Type: BoolType{}, Operands: []*Expr{x}}), nil
}

// Neg builds arithmetic negation. Requires a Bv or Int operand.
func (b *Builder) Neg(x *Expr) (*Expr, error) {
	switch x.Type.(type) {
	case BvType:
		if x.Kind == BvLit {
			return b.BvConst(Bits(x.Type), new(big.Int).Neg(x.BvVal)), nil
		}
	case IntType:
		if x.Kind == IntLit {
			return b.IntConst(new(big.Int).Neg(x.IntVal)), nil
		}
	default:
		return nil, b.mismatch("Neg", "Bv or Int", x.Type.String())
	}
	return b.ctx.intern(&Expr{Kind: Neg, Type: x.Type, Operands: []*Expr{x}}), nil
}

// ZExt zero-extends a Bv(w) operand to Bv(toWidth), toWidth >= w.
func (b *Builder) ZExt(x *Expr, toWidth int) (*Expr, error) {
	return b.extend(ZExt, x, toWidth, false)
}

// SExt sign-extends a Bv(w) operand to Bv(toWidth), toWidth >= w.
func (b *Builder) SExt(x *Expr, toWidth int) (*Expr, error) {
	return b.extend(SExt, x, toWidth, true)
}

func (b *Builder) extend(kind ExprKind, x *Expr, toWidth int, signed bool) (*Expr, error) {
	bv, ok := x.Type.(BvType)
	if !ok {
		return nil, b.mismatch(kind.String(), "Bv", x.Type.String())
	}
	if toWidth < bv.Width {
		return nil, b.mismatch(kind.String(), fmt.Sprintf("width >= %d", bv.Width), fmt.Sprintf("%d", toWidth))
	}
	toType := BvType{Width: toWidth}
	if x.Kind == BvLit {
		v := new(big.Int).Set(x.BvVal)
		if signed && v.Bit(bv.Width-1) == 1 {
			mask := new(big.Int).Lsh(big.NewInt(1), uint(bv.Width))
			v.Sub(v, mask)
		}
		return b.BvConst(toWidth, v), nil
	}
	return b.ctx.intern(&Expr{Kind: kind, Type: toType, Operands: []*Expr{x}}), nil
}

// Trunc truncates a Bv(w) operand to Bv(toWidth), toWidth <= w.
func (b *Builder) Trunc(x *Expr, toWidth int) (*Expr, error) {
	bv, ok := x.Type.(BvType)
	if !ok {
		return nil, b.mismatch("Trunc", "Bv", x.Type.String())
	}
	if toWidth > bv.Width {
		return nil, b.mismatch("Trunc", fmt.Sprintf("width <= %d", bv.Width), fmt.Sprintf("%d", toWidth))
	}
	if x.Kind == BvLit {
		return b.BvConst(toWidth, x.BvVal), nil
	}
	return b.ctx.intern(&Expr{Kind: Trunc, Type: BvType{Width: toWidth}, Operands: []*Expr{x}}), nil
}

// FCast converts a float operand to a different float format.
func (b *Builder) FCast(x *Expr, to FloatFormat) (*Expr, error) {
	if !IsFloat(x.Type) {
		return nil, b.mismatch("FCast", "Float", x.Type.String())
	}
	toType := FloatType{Format: to}
	if x.Kind == FloatLit {
		return b.FloatConst(to, x.FloatVal), nil
	}
	return b.ctx.intern(&Expr{Kind: FCast, Type: toType, Operands: []*Expr{x}}), nil
}

// FIsNan tests whether a float operand is NaN.
func (b *Builder) FIsNan(x *Expr) (*Expr, error) {
	if !IsFloat(x.Type) {
		return nil, b.mismatch("FIsNan", "Float", x.Type.String())
	}
	if x.Kind == FloatLit {
		return b.Bool(x.IsNaNLiteral()), nil
	}
	return b.ctx.intern(&Expr{Kind: FIsNan, Type: BoolType{}, Operands: []*Expr{x}}), nil
}
