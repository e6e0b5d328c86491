package encode

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bmc/config"
	"bmc/ir"
	"bmc/term"
)

// buildDiamond builds entry -[cond]-> (then, els); then, els -> join;
// join calls error_code(v) where v is a phi over the two branches'
// constants, then returns. A minimal acyclic diamond with one
// multi-predecessor join, the shape §4.G's reach[i] DP is built for.
func buildDiamond() *ir.Function {
	cond := ir.Value{ID: "cond"}
	aThen := ir.Value{ID: "a.then"}
	aEls := ir.Value{ID: "a.els"}
	phiResult := ir.Value{ID: "v"}

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
			&ir.CallInst{ID: ir.Value{ID: "c"}, HasResult: false, Callee: ir.ErrorCodeIntrinsic, Args: []ir.Value{phiResult}},
		},
		Terminator: &ir.Return{},
	}

	fn := &ir.Function{Name: "f", Entry: entry, Blocks: []*ir.BasicBlock{entry, then, els, join}}
	ir.BuildEdges(fn)
	return fn
}

func TestEncodeProducesReachAndPostForEveryBlock(t *testing.T) {
	fn := buildDiamond()
	tctx := term.NewContext()
	res, err := Encode(context.Background(), fn, tctx, config.Default())
	require.NoError(t, err)

	for _, id := range []string{"entry", "then", "els", "join"} {
		assert.Contains(t, res.Reach, id)
		assert.Contains(t, res.Post, id)
	}
	assert.Equal(t, []BlockID{"entry", "els", "then", "join"}, orderedByIndex(res))
}

func TestEncodeIntroducesPredecessorSelectorOnlyForJoin(t *testing.T) {
	fn := buildDiamond()
	tctx := term.NewContext()
	res, err := Encode(context.Background(), fn, tctx, config.Default())
	require.NoError(t, err)

	assert.NotContains(t, res.Preds, BlockID("entry"))
	assert.NotContains(t, res.Preds, BlockID("then"))
	assert.NotContains(t, res.Preds, BlockID("els"))
	require.Contains(t, res.Preds, BlockID("join"))
	assert.Equal(t, term.BvType{Width: 32}, res.Preds["join"].Type)
}

func TestEncodeDetectsTheErrorBlock(t *testing.T) {
	fn := buildDiamond()
	tctx := term.NewContext()
	res, err := Encode(context.Background(), fn, tctx, config.Default())
	require.NoError(t, err)

	require.Contains(t, res.ErrorFormulas, BlockID("join"))
	assert.NotContains(t, res.ErrorFormulas, BlockID("entry"))
}

func TestEncodeBindsPhiResultIntoValueMap(t *testing.T) {
	fn := buildDiamond()
	tctx := term.NewContext()
	res, err := Encode(context.Background(), fn, tctx, config.Default())
	require.NoError(t, err)

	variable, ok := res.ValueMap[ir.Value{ID: "v"}]
	require.True(t, ok)
	assert.Equal(t, term.BvType{Width: 8}, variable.Type)
}

func TestEncodeCancellationStopsTheDP(t *testing.T) {
	fn := buildDiamond()
	tctx := term.NewContext()
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Encode(cancelled, fn, tctx, config.Default())
	require.Error(t, err)
}

func TestEncodeSingleBlockEntryReachIsTrue(t *testing.T) {
	entry := &ir.BasicBlock{ID: "entry", Terminator: &ir.Return{}}
	fn := &ir.Function{Name: "f", Entry: entry, Blocks: []*ir.BasicBlock{entry}}
	ir.BuildEdges(fn)

	tctx := term.NewContext()
	b := term.NewBuilder(tctx)
	res, err := Encode(context.Background(), fn, tctx, config.Default())
	require.NoError(t, err)
	assert.True(t, res.Reach["entry"] == b.True())
}

func orderedByIndex(res *Result) []BlockID {
	out := make([]BlockID, len(res.Topo))
	copy(out, res.Topo)
	return out
}
