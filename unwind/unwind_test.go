package unwind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bmc/ir"
)

// buildSimpleLoop builds entry -> header -[branch]-> (body, exit);
// body -> header (the back edge). A minimal single, non-nested loop.
func buildSimpleLoop() *ir.Function {
	entry := &ir.BasicBlock{ID: "entry", Terminator: &ir.Jump{Target: "header"}}
	header := &ir.BasicBlock{ID: "header", Terminator: &ir.Branch{
		Cond: ir.Value{ID: "cond"}, TrueTarget: "body", FalseTarget: "exit",
	}}
	body := &ir.BasicBlock{ID: "body", Terminator: &ir.Jump{Target: "header"}}
	exit := &ir.BasicBlock{ID: "exit", Terminator: &ir.Return{}}

	fn := &ir.Function{Name: "f", Entry: entry, Blocks: []*ir.BasicBlock{entry, header, body, exit}}
	ir.BuildEdges(fn)
	return fn
}

func TestUnwindBoundZeroCutsFirstReentry(t *testing.T) {
	fn := buildSimpleLoop()
	out, err := Unwind(fn, 0)
	require.NoError(t, err)

	byID := blockIndex(out)
	header := byID["header"]
	require.NotNil(t, header)
	body := byID["body"]
	require.NotNil(t, body)

	jump, ok := body.Terminator.(*ir.Jump)
	require.True(t, ok)
	assert.Equal(t, DeadBlockID, jump.Target, "the only back-edge attempt must be cut to the dead block at bound 0")

	dead := byID[DeadBlockID]
	require.NotNil(t, dead, "dead block must be present when a loop actually used it")
}

func TestUnwindBoundTwoProducesTwoDuplicateCopies(t *testing.T) {
	fn := buildSimpleLoop()
	out, err := Unwind(fn, 2)
	require.NoError(t, err)

	byID := blockIndex(out)
	assert.NotNil(t, byID["header__unwind1"])
	assert.NotNil(t, byID["body__unwind1"])
	assert.NotNil(t, byID["header__unwind2"])
	assert.NotNil(t, byID["body__unwind2"])

	originalBody := byID["body"]
	jump, ok := originalBody.Terminator.(*ir.Jump)
	require.True(t, ok)
	assert.Equal(t, "header__unwind1", jump.Target, "the original body's back edge must retarget the first copy's header")

	lastCopyBody := byID["body__unwind2"]
	jump2, ok := lastCopyBody.Terminator.(*ir.Jump)
	require.True(t, ok)
	assert.Equal(t, DeadBlockID, jump2.Target, "the last copy's back edge is the (bound+1)-th re-entry and must be cut")
}

func TestUnwindPreservesExternalExitTargetAcrossCopies(t *testing.T) {
	fn := buildSimpleLoop()
	out, err := Unwind(fn, 1)
	require.NoError(t, err)

	byID := blockIndex(out)
	headerCopy := byID["header__unwind1"]
	require.NotNil(t, headerCopy)
	branch, ok := headerCopy.Terminator.(*ir.Branch)
	require.True(t, ok)
	assert.Equal(t, "exit", branch.FalseTarget, "an exit edge out of the loop is shared by every copy, not duplicated")
}

func TestUnwindRejectsNegativeBound(t *testing.T) {
	fn := buildSimpleLoop()
	_, err := Unwind(fn, -1)
	assert.Error(t, err)
}

func blockIndex(fn *ir.Function) map[string]*ir.BasicBlock {
	out := make(map[string]*ir.BasicBlock, len(fn.Blocks))
	for _, b := range fn.Blocks {
		out[b.ID] = b
	}
	return out
}
