package term

import (
	"fmt"
	"math"
	"math/big"
	"strings"
)

// ExprKind is the closed set of expression node tags described in §3 of
// the design: leaves, unary operators, and binary/n-ary operators. Adding
// a new kind means touching every switch below by hand (builder,
// printer, encoder); Go does not check these switches for
// exhaustiveness.
type ExprKind int

const (
	VarRef ExprKind = iota
	Undef
	BoolLit
	BvLit
	IntLit
	FloatLit

	Not
	Neg
	ZExt
	SExt
	Trunc
	FCast
	FIsNan

	And
	Or
	Xor
	Eq
	NotEq
	Lt
	LtEq
	Ult
	UltEq
	Add
	Sub
	Mul
	SDiv
	UDiv
	SMod
	URem
	BvAnd
	BvOr
	BvXor
	Shl
	LShr
	AShr
	FEq
	FLt
	FLtEq
	FAdd
	FSub
	FMul
	FDiv

	Select
	ArrayRead
	ArrayWrite
)

var kindNames = map[ExprKind]string{
	VarRef: "VarRef", Undef: "Undef", BoolLit: "BoolLit", BvLit: "BvLit",
	IntLit: "IntLit", FloatLit: "FloatLit", Not: "Not", Neg: "Neg",
	ZExt: "ZExt", SExt: "SExt", Trunc: "Trunc", FCast: "FCast", FIsNan: "FIsNan",
	And: "And", Or: "Or", Xor: "Xor", Eq: "Eq", NotEq: "NotEq",
	Lt: "Lt", LtEq: "LtEq", Ult: "Ult", UltEq: "UltEq",
	Add: "Add", Sub: "Sub", Mul: "Mul", SDiv: "SDiv", UDiv: "UDiv",
	SMod: "SMod", URem: "URem", BvAnd: "BvAnd", BvOr: "BvOr", BvXor: "BvXor",
	Shl: "Shl", LShr: "LShr", AShr: "AShr",
	FEq: "FEq", FLt: "FLt", FLtEq: "FLtEq",
	FAdd: "FAdd", FSub: "FSub", FMul: "FMul", FDiv: "FDiv",
	Select: "Select", ArrayRead: "ArrayRead", ArrayWrite: "ArrayWrite",
}

func (k ExprKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ExprKind(%d)", int(k))
}

// isFloatCompare reports whether k compares two floats. The encoder's
// temporary-variable elimination treats every kind in this set as a
// blocker unless "assume no NaN" holds — per spec these users observe a
// NaN-dependent second value of their operand, so substituting the
// operand away would change which comparisons later read it.
func isFloatCompare(k ExprKind) bool {
	return k == FEq || k == FLt || k == FLtEq
}

// Expr is a DAG node: a kind tag, a result Type, an ordered operand
// list, and — for leaves — a literal payload. Two expressions are the
// same node iff they are the same pointer; Context.intern guarantees
// that any two calls with identical (kind, type, operands, payload)
// return the same pointer.
type Expr struct {
	Kind     ExprKind
	Type     Type
	Operands []*Expr

	// Leaf payloads. Exactly one is meaningful, selected by Kind.
	Var      *Variable
	BoolVal  bool
	BvVal    *big.Int
	IntVal   *big.Int
	FloatVal float64
}

// String renders the expression as an s-expression, used by the
// "dump-formula" diagnostic option.
func (e *Expr) String() string {
	switch e.Kind {
	case VarRef:
		return e.Var.Name
	case Undef:
		return "undef:" + e.Type.String()
	case BoolLit:
		return fmt.Sprintf("%t", e.BoolVal)
	case BvLit:
		return e.BvVal.String()
	case IntLit:
		return e.IntVal.String()
	case FloatLit:
		return fmt.Sprintf("%g", e.FloatVal)
	}
	parts := make([]string, len(e.Operands))
	for i, op := range e.Operands {
		parts[i] = op.String()
	}
	return fmt.Sprintf("(%s %s)", e.Kind, strings.Join(parts, " "))
}

// IsLiteral reports whether e is a fully-evaluated literal (constant
// folding's base case).
func (e *Expr) IsLiteral() bool {
	switch e.Kind {
	case BoolLit, BvLit, IntLit, FloatLit:
		return true
	default:
		return false
	}
}

// IsNaNLiteral reports whether e is a float literal holding NaN.
func (e *Expr) IsNaNLiteral() bool {
	return e.Kind == FloatLit && math.IsNaN(e.FloatVal)
}
