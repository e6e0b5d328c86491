package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bmc/config"
	"bmc/encode"
	"bmc/ir"
	"bmc/solver/reference"
	"bmc/term"
)

// buildReachable builds: entry: x=1; if (x==1) error_code(42); return.
// The sole path to the error call is unconditionally reachable, so
// entry has no predecessor selector at all — the straight-line
// scenario from the design's end-to-end test list.
func buildReachable() *ir.Function {
	x := ir.Value{ID: "x"}
	oneLit := ir.Value{ID: "one"}
	cond := ir.Value{ID: "cond"}
	code := ir.Value{ID: "code"}

	entry := &ir.BasicBlock{
		ID: "entry",
		Instructions: []ir.Instruction{
			&ir.ConstInst{ID: x, Type: term.BvType{Width: 32}, Int: 1},
			&ir.ConstInst{ID: oneLit, Type: term.BvType{Width: 32}, Int: 1},
			&ir.BinaryInst{ID: cond, Op: ir.OpEq, Left: x, Right: oneLit, Type: term.BoolType{}},
		},
		Terminator: &ir.Branch{Cond: cond, TrueTarget: "err", FalseTarget: "ret"},
	}
	errBlk := &ir.BasicBlock{
		ID: "err",
		Instructions: []ir.Instruction{
			&ir.ConstInst{ID: code, Type: term.BvType{Width: 32}, Int: 42},
			&ir.CallInst{ID: ir.Value{ID: "c"}, HasResult: false, Callee: ir.ErrorCodeIntrinsic, Args: []ir.Value{code}},
		},
		Terminator: &ir.Return{},
	}
	ret := &ir.BasicBlock{ID: "ret", Terminator: &ir.Return{}}

	fn := &ir.Function{Name: "main", Entry: entry, Blocks: []*ir.BasicBlock{entry, errBlk, ret}}
	ir.BuildEdges(fn)
	return fn
}

func TestBuildReconstructsStraightLineTrace(t *testing.T) {
	fn := buildReachable()
	tctx := term.NewContext()
	res, err := encode.Encode(context.Background(), fn, tctx, config.Default())
	require.NoError(t, err)
	require.Contains(t, res.ErrorFormulas, encode.BlockID("err"))

	s := reference.New(tctx)
	require.NoError(t, s.Add(res.ErrorFormulas["err"]))
	status, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, "SAT", status.String())

	tr, errorCode, err := Build(fn, res, "err", s.Model())
	require.NoError(t, err)
	require.NotEmpty(t, tr)
	assert.Equal(t, uint32(42), errorCode)

	assert.Equal(t, EventFunctionEntry, tr[0].Kind)
	assert.Equal(t, EventFunctionCall, tr[len(tr)-2].Kind)
	assert.Equal(t, ir.ErrorCodeIntrinsic, tr[len(tr)-2].Name)
	assert.Equal(t, EventFunctionReturn, tr[len(tr)-1].Kind)

	var sawXAssign bool
	for _, ev := range tr {
		if ev.Kind == EventAssign && ev.HasValue && ev.Value.Int != nil && ev.Value.Int.Int64() == 1 {
			sawXAssign = true
		}
	}
	assert.True(t, sawXAssign, "expected an Assign event carrying the value 1 for x")
}

func TestBuildUnreachableErrorIsUnsat(t *testing.T) {
	x := ir.Value{ID: "x"}
	twoLit := ir.Value{ID: "two"}
	cond := ir.Value{ID: "cond"}

	entry := &ir.BasicBlock{
		ID: "entry",
		Instructions: []ir.Instruction{
			&ir.ConstInst{ID: x, Type: term.BvType{Width: 32}, Int: 1},
			&ir.ConstInst{ID: twoLit, Type: term.BvType{Width: 32}, Int: 2},
			&ir.BinaryInst{ID: cond, Op: ir.OpEq, Left: x, Right: twoLit, Type: term.BoolType{}},
		},
		Terminator: &ir.Branch{Cond: cond, TrueTarget: "err", FalseTarget: "ret"},
	}
	errBlk := &ir.BasicBlock{
		ID: "err",
		Instructions: []ir.Instruction{
			&ir.CallInst{ID: ir.Value{ID: "c"}, HasResult: false, Callee: ir.ErrorCodeIntrinsic},
		},
		Terminator: &ir.Return{},
	}
	ret := &ir.BasicBlock{ID: "ret", Terminator: &ir.Return{}}
	fn := &ir.Function{Name: "main", Entry: entry, Blocks: []*ir.BasicBlock{entry, errBlk, ret}}
	ir.BuildEdges(fn)

	tctx := term.NewContext()
	res, err := encode.Encode(context.Background(), fn, tctx, config.Default())
	require.NoError(t, err)

	s := reference.New(tctx)
	require.NoError(t, s.Add(res.ErrorFormulas["err"]))
	status, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "UNSAT", status.String())
}

func TestBuildReturnsErrorForUnknownBlock(t *testing.T) {
	fn := buildReachable()
	tctx := term.NewContext()
	res, err := encode.Encode(context.Background(), fn, tctx, config.Default())
	require.NoError(t, err)

	_, _, err = Build(fn, res, "nope", nil)
	require.Error(t, err)
}

func TestBuildPhiDisambiguationSelectsConsistentBranch(t *testing.T) {
	cond := ir.Value{ID: "cond"}
	aThen := ir.Value{ID: "a.then"}
	aEls := ir.Value{ID: "a.els"}
	phiResult := ir.Value{ID: "v"}
	target := ir.Value{ID: "target"}
	eqV := ir.Value{ID: "eqV"}

	entry := &ir.BasicBlock{
		ID: "entry",
		Instructions: []ir.Instruction{
			&ir.ConstInst{ID: cond, Type: term.BoolType{}, BoolVal: true},
		},
		Terminator: &ir.Branch{Cond: cond, TrueTarget: "then", FalseTarget: "els"},
	}
	then := &ir.BasicBlock{
		ID: "then",
		Instructions: []ir.Instruction{
			&ir.ConstInst{ID: aThen, Type: term.BvType{Width: 8}, Int: 1},
		},
		Terminator: &ir.Jump{Target: "join"},
	}
	els := &ir.BasicBlock{
		ID: "els",
		Instructions: []ir.Instruction{
			&ir.ConstInst{ID: aEls, Type: term.BvType{Width: 8}, Int: 2},
		},
		Terminator: &ir.Jump{Target: "join"},
	}
	join := &ir.BasicBlock{
		ID: "join",
		Phis: []*ir.Phi{
			{Result: phiResult, Type: term.BvType{Width: 8}, Incoming: map[string]ir.Value{
				"then": aThen, "els": aEls,
			}},
		},
		Instructions: []ir.Instruction{
			&ir.ConstInst{ID: target, Type: term.BvType{Width: 8}, Int: 1},
			&ir.BinaryInst{ID: eqV, Op: ir.OpEq, Left: phiResult, Right: target, Type: term.BoolType{}},
			&ir.CallInst{ID: ir.Value{ID: "c"}, HasResult: false, Callee: ir.ErrorCodeIntrinsic, Args: []ir.Value{eqV}},
		},
		Terminator: &ir.Return{},
	}
	fn := &ir.Function{Name: "f", Entry: entry, Blocks: []*ir.BasicBlock{entry, then, els, join}}
	ir.BuildEdges(fn)

	tctx := term.NewContext()
	res, err := encode.Encode(context.Background(), fn, tctx, config.Default())
	require.NoError(t, err)

	b := term.NewBuilder(tctx)
	eqVar, ok := res.ValueMap[eqV]
	require.True(t, ok)
	guarded, err := b.And(res.ErrorFormulas["join"], b.VarRef(eqVar))
	require.NoError(t, err)

	s := reference.New(tctx)
	require.NoError(t, s.Add(guarded))
	status, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, "SAT", status.String())

	tr, _, err := Build(fn, res, "join", s.Model())
	require.NoError(t, err)

	phiVar := res.ValueMap[phiResult]
	var phiValue int64 = -1
	for _, ev := range tr {
		if ev.Kind == EventAssign && ev.Name == phiVar.Name {
			phiValue = ev.Value.Int.Int64()
		}
	}
	assert.Equal(t, int64(1), phiValue, "phi should resolve to the branch the model actually took")
}
