// Package lower translates one ir.Instruction at a time into a
// term.Expr plus a value->variable binding, per the rules of §4.E.
// Branch terminators and phi joins are lowered by the encoder, not
// here — a Lowerer only ever sees straight-line instructions.
package lower

import (
	"fmt"
	"math/big"

	"bmc/config"
	bmcerrors "bmc/internal/errors"
	"bmc/ir"
	"bmc/term"
)

// MemoryModel lowers instructions the core has no built-in translation
// for (pointer/array memory accesses, in the gazer original). Injecting
// it keeps the core free of any particular memory model (§6).
type MemoryModel interface {
	Lower(inst ir.Instruction, l *Lowerer) (*term.Expr, error)
}

// Lowerer holds the per-run state IR-to-expression translation needs:
// the term context/builder it emits into, the run's integer/NaN
// configuration, the value->variable bindings accumulated so far, and
// an optional memory model for instructions the core doesn't know.
type Lowerer struct {
	Ctx     *term.Context
	Builder *term.Builder
	Options config.Options
	Memory  MemoryModel

	values map[ir.Value]*term.Variable
}

// NewLowerer creates a Lowerer over ctx using opts, with memory
// optionally nil when the unit under check performs no memory
// operations the core doesn't already model.
func NewLowerer(ctx *term.Context, opts config.Options, memory MemoryModel) *Lowerer {
	return &Lowerer{
		Ctx:     ctx,
		Builder: term.NewBuilder(ctx),
		Options: opts,
		Memory:  memory,
		values:  make(map[ir.Value]*term.Variable),
	}
}

// Resolve returns the variable already bound to a prior instruction's
// result value, for use as a later instruction's operand.
func (l *Lowerer) Resolve(v ir.Value) (*term.Variable, bool) {
	variable, ok := l.values[v]
	return variable, ok
}

// Bind registers a fresh variable of type t for value v, so later
// operands can resolve it. Exported for the encoder, which binds phi
// results and loop-carried values the same way before lowering the
// block that defines them.
func (l *Lowerer) Bind(v ir.Value, t term.Type, hint string) (*term.Variable, error) {
	name := fmt.Sprintf("%s#%s", hint, v.ID)
	variable, err := l.Ctx.NewVariable(name, t)
	if err != nil {
		return nil, err
	}
	l.values[v] = variable
	return variable, nil
}

// intType returns the term.Type used for an IR bit-width under the
// run's configured integer representation.
func (l *Lowerer) intType(width int) term.Type {
	if l.Options.IntRepr == config.MathInt {
		return term.IntType{}
	}
	return term.BvType{Width: width}
}

// Lower translates inst, returning the fresh variable bound to its
// result and the expression that defines it. The caller (the encoder)
// is responsible for conjoining Eq(VarRef(variable), expr) into the
// current block's formula — Lower only produces the pieces, it does
// not add constraints itself. It does register the result's variable
// in the Context (see Bind), so lowering a second instruction with the
// same result value fails with a duplicate-name error. Both
// return values are nil for an instruction with no result (a void call).
func (l *Lowerer) Lower(inst ir.Instruction) (*term.Variable, *term.Expr, error) {
	var (
		expr *term.Expr
		err  error
	)
	switch v := inst.(type) {
	case *ir.BinaryInst:
		expr, err = l.lowerBinary(v)
	case *ir.NotInst:
		expr, err = l.lowerNot(v)
	case *ir.CastInst:
		expr, err = l.lowerCast(v)
	case *ir.ConstInst:
		expr, err = l.lowerConst(v)
	case *ir.UndefinedValueInst:
		expr, err = l.lowerUndefined(v)
	case *ir.CallInst:
		return l.lowerCall(v)
	default:
		if l.Memory != nil {
			memExpr, memErr := l.Memory.Lower(inst, l)
			if memErr != nil {
				return nil, nil, memErr
			}
			expr, err = memExpr, nil
		} else {
			return nil, nil, bmcerrors.UnsupportedInstruction(fmt.Sprintf("%T", inst), locOf(inst.Location()))
		}
	}
	if err != nil {
		return nil, nil, err
	}

	result, hasResult := inst.Result()
	if !hasResult {
		return nil, expr, nil
	}
	variable, err := l.Bind(result, expr.Type, "t")
	if err != nil {
		return nil, nil, err
	}
	return variable, expr, nil
}

func (l *Lowerer) operand(v ir.Value) (*term.Expr, error) {
	variable, ok := l.Resolve(v)
	if !ok {
		return nil, fmt.Errorf("lower: operand %q has no bound variable (used before its defining instruction ran)", v.ID)
	}
	return l.Builder.VarRef(variable), nil
}

func (l *Lowerer) lowerBinary(inst *ir.BinaryInst) (*term.Expr, error) {
	left, err := l.operand(inst.Left)
	if err != nil {
		return nil, err
	}
	right, err := l.operand(inst.Right)
	if err != nil {
		return nil, err
	}
	result, err := l.applyBinOp(inst.Op, left, right)
	if err != nil {
		return nil, wrapTypeError(err)
	}
	return result, nil
}

func (l *Lowerer) applyBinOp(op ir.BinOp, left, right *term.Expr) (*term.Expr, error) {
	b := l.Builder
	switch op {
	case ir.OpAdd:
		return b.Add(left, right)
	case ir.OpSub:
		return b.Sub(left, right)
	case ir.OpMul:
		return b.Mul(left, right)
	case ir.OpSDiv:
		return b.SDiv(left, right)
	case ir.OpUDiv:
		return b.UDiv(left, right)
	case ir.OpSMod:
		return b.SMod(left, right)
	case ir.OpURem:
		return b.URem(left, right)
	case ir.OpAnd:
		return b.AndChecked(left, right)
	case ir.OpOr:
		return b.OrChecked(left, right)
	case ir.OpXor:
		return b.Xor(left, right)
	case ir.OpShl:
		return b.Shl(left, right)
	case ir.OpLShr:
		return b.LShr(left, right)
	case ir.OpAShr:
		return b.AShr(left, right)
	case ir.OpEq:
		return b.Eq(left, right)
	case ir.OpNotEq:
		return b.NotEq(left, right)
	case ir.OpLt:
		return b.Lt(left, right)
	case ir.OpLtEq:
		return b.LtEq(left, right)
	case ir.OpUlt:
		return b.Ult(left, right)
	case ir.OpUltEq:
		return b.UltEq(left, right)
	case ir.OpFAdd:
		return b.FAdd(left, right)
	case ir.OpFSub:
		return b.FSub(left, right)
	case ir.OpFMul:
		return b.FMul(left, right)
	case ir.OpFDiv:
		return b.FDiv(left, right)
	case ir.OpFEq:
		return b.FEq(left, right)
	case ir.OpFLt:
		return b.FLt(left, right)
	case ir.OpFLtEq:
		return b.FLtEq(left, right)
	default:
		return nil, fmt.Errorf("lower: unrecognized binary op %d", op)
	}
}

func (l *Lowerer) lowerNot(inst *ir.NotInst) (*term.Expr, error) {
	operand, err := l.operand(inst.Operand)
	if err != nil {
		return nil, err
	}
	result, err := l.Builder.Not(operand)
	if err != nil {
		return nil, wrapTypeError(err)
	}
	return result, nil
}

func (l *Lowerer) lowerCast(inst *ir.CastInst) (*term.Expr, error) {
	operand, err := l.operand(inst.Operand)
	if err != nil {
		return nil, err
	}
	var result *term.Expr
	switch inst.Kind {
	case ir.CastZExt:
		result, err = l.Builder.ZExt(operand, term.Bits(inst.ToType))
	case ir.CastSExt:
		result, err = l.Builder.SExt(operand, term.Bits(inst.ToType))
	case ir.CastTrunc:
		result, err = l.Builder.Trunc(operand, term.Bits(inst.ToType))
	case ir.CastFCast:
		ft, ok := inst.ToType.(term.FloatType)
		if !ok {
			return nil, bmcerrors.UnsupportedInstruction("FCast to non-float type", locOf(inst.Loc))
		}
		result, err = l.Builder.FCast(operand, ft.Format)
	default:
		return nil, fmt.Errorf("lower: unrecognized cast kind %d", inst.Kind)
	}
	if err != nil {
		return nil, wrapTypeError(err)
	}
	return result, nil
}

func (l *Lowerer) lowerConst(inst *ir.ConstInst) (*term.Expr, error) {
	switch t := inst.Type.(type) {
	case term.BoolType:
		return l.Builder.Bool(inst.BoolVal), nil
	case term.BvType:
		return l.Builder.BvConst(t.Width, big.NewInt(inst.Int)), nil
	case term.IntType:
		return l.Builder.IntConst(big.NewInt(inst.Int)), nil
	case term.FloatType:
		return l.Builder.FloatConst(t.Format, inst.FloatVal), nil
	default:
		return nil, bmcerrors.UnsupportedInstruction("constant of unmodeled type", locOf(inst.Loc))
	}
}

func (l *Lowerer) lowerUndefined(inst *ir.UndefinedValueInst) (*term.Expr, error) {
	return l.Builder.Undef(inst.Type), nil
}

// lowerCall handles the two shapes a CallInst takes: a void call
// (nothing is bound, the encoder decides how its effect on
// reachability is modeled — e.g. the error_code sentinel) and a
// result-bearing call, which is bound to a fresh Undef-typed variable
// since the core has no callee semantics of its own (§6: calls into
// unmodeled code are treated as returning an arbitrary value of the
// declared type, same as UndefinedValue).
func (l *Lowerer) lowerCall(inst *ir.CallInst) (*term.Variable, *term.Expr, error) {
	if !inst.HasResult {
		return nil, nil, nil
	}
	expr := l.Builder.Undef(inst.Type)
	variable, err := l.Bind(inst.ID, inst.Type, fmt.Sprintf("call:%s", inst.Callee))
	if err != nil {
		return nil, nil, err
	}
	return variable, expr, nil
}

func locOf(loc *ir.LocationInfo) ir.LocationInfo {
	if loc == nil {
		return ir.LocationInfo{}
	}
	return *loc
}

func wrapTypeError(err error) error {
	if _, ok := err.(*term.TypeError); ok {
		return bmcerrors.FromTypeError(err)
	}
	return err
}
