package textfmt

import (
	"fmt"
	"strconv"
	"strings"

	"bmc/ir"
	"bmc/term"
)

// Resolve parses a TypeRef's textual spelling into a term.Type: "bool",
// "int" (mathematical integer), "i<width>" (a sized bit-vector), or
// one of the four IEEE-754 format names.
func (t *TypeRef) Resolve() (term.Type, error) {
	switch t.Name {
	case "bool":
		return term.BoolType{}, nil
	case "int":
		return term.IntType{}, nil
	case "f16", "half":
		return term.FloatType{Format: term.Half}, nil
	case "f32", "single":
		return term.FloatType{Format: term.Single}, nil
	case "f64", "double":
		return term.FloatType{Format: term.Double}, nil
	case "f128", "quad":
		return term.FloatType{Format: term.Quad}, nil
	}
	if strings.HasPrefix(t.Name, "i") {
		if width, err := strconv.Atoi(t.Name[1:]); err == nil && width > 0 {
			return term.BvType{Width: width}, nil
		}
	}
	return nil, fmt.Errorf("textfmt: unrecognized type %q", t.Name)
}

var binOpTable = map[string]ir.BinOp{
	"add": ir.OpAdd, "sub": ir.OpSub, "mul": ir.OpMul,
	"sdiv": ir.OpSDiv, "udiv": ir.OpUDiv, "smod": ir.OpSMod, "urem": ir.OpURem,
	"and": ir.OpAnd, "or": ir.OpOr, "xor": ir.OpXor,
	"shl": ir.OpShl, "lshr": ir.OpLShr, "ashr": ir.OpAShr,
	"eq": ir.OpEq, "ne": ir.OpNotEq,
	"lt": ir.OpLt, "le": ir.OpLtEq, "ult": ir.OpUlt, "ule": ir.OpUltEq,
	"fadd": ir.OpFAdd, "fsub": ir.OpFSub, "fmul": ir.OpFMul, "fdiv": ir.OpFDiv,
	"feq": ir.OpFEq, "flt": ir.OpFLt, "fle": ir.OpFLtEq,
}

// isComparison reports whether op produces a Bool result rather than
// a value of its operands' own type, purely to give the converted
// BinaryInst.Type field a plausible result type — lowering itself
// derives the real result type from the builder call, not this field.
func isComparison(op ir.BinOp) bool {
	switch op {
	case ir.OpEq, ir.OpNotEq, ir.OpLt, ir.OpLtEq, ir.OpUlt, ir.OpUltEq,
		ir.OpFEq, ir.OpFLt, ir.OpFLtEq:
		return true
	default:
		return false
	}
}

var castOpTable = map[string]ir.CastKind{
	"zext": ir.CastZExt, "sext": ir.CastSExt, "trunc": ir.CastTrunc, "fcast": ir.CastFCast,
}

func reg(name string) ir.Value { return ir.Value{ID: strings.TrimPrefix(name, "%")} }

// toFunction converts one parsed Function into the ir.Function
// contract the rest of the checker consumes.
func toFunction(f *Function) (*ir.Function, error) {
	if len(f.Blocks) == 0 {
		return nil, fmt.Errorf("textfmt: function %q has no blocks", f.Name)
	}

	blocks := make([]*ir.BasicBlock, 0, len(f.Blocks))
	for _, b := range f.Blocks {
		blk, err := toBlock(b)
		if err != nil {
			return nil, fmt.Errorf("textfmt: function %q: %w", f.Name, err)
		}
		blocks = append(blocks, blk)
	}

	fn := &ir.Function{Name: f.Name, Entry: blocks[0], Blocks: blocks}
	ir.BuildEdges(fn)
	return fn, nil
}

func toBlock(b *Block) (*ir.BasicBlock, error) {
	phis := make([]*ir.Phi, 0, len(b.Phis))
	for _, p := range b.Phis {
		phi, err := toPhi(p)
		if err != nil {
			return nil, err
		}
		phis = append(phis, phi)
	}

	instrs := make([]ir.Instruction, 0, len(b.Instrs))
	for _, line := range b.Instrs {
		inst, err := toInstr(line)
		if err != nil {
			return nil, fmt.Errorf("block %q: %w", b.Label, err)
		}
		instrs = append(instrs, inst)
	}

	terminator, err := toTerminator(b.Term)
	if err != nil {
		return nil, fmt.Errorf("block %q: %w", b.Label, err)
	}

	return &ir.BasicBlock{
		ID:           b.Label,
		Instructions: instrs,
		Phis:         phis,
		Terminator:   terminator,
	}, nil
}

func toPhi(p *PhiDecl) (*ir.Phi, error) {
	t, err := p.Type.Resolve()
	if err != nil {
		return nil, err
	}
	incoming := make(map[string]ir.Value, len(p.Arms))
	for _, arm := range p.Arms {
		incoming[arm.Block] = reg(arm.Value)
	}
	return &ir.Phi{Result: reg(p.Result), Type: t, Incoming: incoming}, nil
}

func toInstr(line *InstrLine) (ir.Instruction, error) {
	switch {
	case line.Call != nil:
		return toCall(line.Call)
	case line.Assign != nil:
		return toAssign(line.Assign)
	default:
		return nil, fmt.Errorf("textfmt: empty instruction line")
	}
}

func toCall(c *CallInstr) (ir.Instruction, error) {
	args := make([]ir.Value, len(c.Args))
	for i, a := range c.Args {
		args[i] = reg(a)
	}
	inst := &ir.CallInst{Callee: c.Name, Args: args}
	if c.Result != nil {
		t, err := c.ResultType.Resolve()
		if err != nil {
			return nil, err
		}
		inst.HasResult = true
		inst.ID = reg(*c.Result)
		inst.Type = t
	}
	return inst, nil
}

func toAssign(a *AssignInstr) (ir.Instruction, error) {
	result := reg(a.Result)
	switch {
	case a.Const != nil:
		return toConst(result, a.Const)
	case a.Cast != nil:
		return toCast(result, a.Cast)
	case a.Not != nil:
		return &ir.NotInst{ID: result, Operand: reg(a.Not.Operand)}, nil
	case a.Undef != nil:
		t, err := a.Undef.Type.Resolve()
		if err != nil {
			return nil, err
		}
		return &ir.UndefinedValueInst{ID: result, Type: t}, nil
	case a.Binary != nil:
		return toBinary(result, a.Binary)
	default:
		return nil, fmt.Errorf("textfmt: assignment to %q has no right-hand side", a.Result)
	}
}

func toConst(result ir.Value, c *ConstRHS) (ir.Instruction, error) {
	t, err := c.Type.Resolve()
	if err != nil {
		return nil, err
	}
	inst := &ir.ConstInst{ID: result, Type: t}
	switch t.(type) {
	case term.BoolType:
		if c.Bool == nil {
			return nil, fmt.Errorf("textfmt: const %s requires a true/false literal", t)
		}
		inst.BoolVal = *c.Bool == "true"
	case term.BvType, term.IntType:
		if c.Number == nil {
			return nil, fmt.Errorf("textfmt: const %s requires an integer literal", t)
		}
		n, err := strconv.ParseInt(*c.Number, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("textfmt: %q is not an integer literal: %w", *c.Number, err)
		}
		inst.Int = n
	case term.FloatType:
		var text string
		switch {
		case c.FloatVal != nil:
			text = *c.FloatVal
		case c.Number != nil:
			text = *c.Number
		default:
			return nil, fmt.Errorf("textfmt: const %s requires a float literal", t)
		}
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("textfmt: %q is not a float literal: %w", text, err)
		}
		inst.FloatVal = n
	default:
		return nil, fmt.Errorf("textfmt: unsupported constant type %s", t)
	}
	return inst, nil
}

func toCast(result ir.Value, c *CastRHS) (ir.Instruction, error) {
	kind, ok := castOpTable[c.Op]
	if !ok {
		return nil, fmt.Errorf("textfmt: unrecognized cast op %q", c.Op)
	}
	t, err := c.Type.Resolve()
	if err != nil {
		return nil, err
	}
	return &ir.CastInst{ID: result, Kind: kind, Operand: reg(c.Operand), ToType: t}, nil
}

func toBinary(result ir.Value, b *BinaryRHS) (ir.Instruction, error) {
	op, ok := binOpTable[b.Op]
	if !ok {
		return nil, fmt.Errorf("textfmt: unrecognized binary op %q", b.Op)
	}
	t, err := b.Type.Resolve()
	if err != nil {
		return nil, err
	}
	resultType := t
	if isComparison(op) {
		resultType = term.BoolType{}
	}
	return &ir.BinaryInst{
		ID: result, Op: op, Left: reg(b.Left), Right: reg(b.Right), Type: resultType,
	}, nil
}

func toTerminator(t *TermLine) (ir.Terminator, error) {
	switch {
	case t.Br != nil:
		return &ir.Branch{Cond: reg(t.Br.Cond), TrueTarget: t.Br.True, FalseTarget: t.Br.False}, nil
	case t.Jmp != nil:
		return &ir.Jump{Target: t.Jmp.Target}, nil
	case t.Ret != nil:
		if t.Ret.Value == nil {
			return &ir.Return{}, nil
		}
		v := reg(*t.Ret.Value)
		return &ir.Return{Value: &v}, nil
	default:
		return nil, fmt.Errorf("textfmt: block has no terminator")
	}
}
