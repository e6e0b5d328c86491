// Package term implements the symbolic expression layer: a nominal type
// system, a hash-consed expression DAG, and the typed variable registry
// that the rest of the checker builds formulas out of.
package term

import "fmt"

// FloatFormat enumerates the IEEE-754 formats the checker models.
type FloatFormat int

const (
	Half FloatFormat = iota
	Single
	Double
	Quad
)

func (f FloatFormat) String() string {
	switch f {
	case Half:
		return "half"
	case Single:
		return "single"
	case Double:
		return "double"
	case Quad:
		return "quad"
	default:
		return "unknown-float-format"
	}
}

// Type classifies the values an Expr can carry. Types compare by
// structural equality: two Bv types are equal only when their widths
// match, two Array types only when both key and element types match.
type Type interface {
	String() string
	Equal(other Type) bool
}

// BoolType is the type of truth values.
type BoolType struct{}

func (BoolType) String() string        { return "Bool" }
func (BoolType) Equal(other Type) bool { _, ok := other.(BoolType); return ok }

// BvType is a fixed-width bit-vector type.
type BvType struct {
	Width int
}

func (b BvType) String() string { return fmt.Sprintf("Bv(%d)", b.Width) }
func (b BvType) Equal(other Type) bool {
	o, ok := other.(BvType)
	return ok && o.Width == b.Width
}

// IntType is the type of unbounded mathematical integers.
type IntType struct{}

func (IntType) String() string        { return "Int" }
func (IntType) Equal(other Type) bool { _, ok := other.(IntType); return ok }

// FloatType is an IEEE-754 floating point type in one of the four
// modeled formats.
type FloatType struct {
	Format FloatFormat
}

func (f FloatType) String() string { return fmt.Sprintf("Float(%s)", f.Format) }
func (f FloatType) Equal(other Type) bool {
	o, ok := other.(FloatType)
	return ok && o.Format == f.Format
}

// ArrayType maps keys of KeyType to values of ValueType.
type ArrayType struct {
	KeyType   Type
	ValueType Type
}

func (a ArrayType) String() string {
	return fmt.Sprintf("Array(%s -> %s)", a.KeyType, a.ValueType)
}
func (a ArrayType) Equal(other Type) bool {
	o, ok := other.(ArrayType)
	return ok && o.KeyType.Equal(a.KeyType) && o.ValueType.Equal(a.ValueType)
}

// Bits reports the bit-vector width of a Bv type, or 0 for any other
// type. Used by the lowering and encoder to size constants.
func Bits(t Type) int {
	if bv, ok := t.(BvType); ok {
		return bv.Width
	}
	return 0
}

// IsFloat reports whether t is a Float type.
func IsFloat(t Type) bool {
	_, ok := t.(FloatType)
	return ok
}

// IsBool reports whether t is the Bool type.
func IsBool(t Type) bool {
	_, ok := t.(BoolType)
	return ok
}
