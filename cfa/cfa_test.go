package cfa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bmc/term"
)

func TestCreateAssignTransitionMaintainsAdjacency(t *testing.T) {
	ctx := term.NewContext()
	c := NewCfa(ctx, "main", nil)
	b := term.NewBuilder(ctx)

	x, err := c.AddLocal("x", term.BvType{Width: 32})
	require.NoError(t, err)

	mid := c.CreateLocation("bb1")
	c.CreateAssignTransition(c.Entry(), mid, b.True(), []Assignment{
		{Variable: x, Value: b.BvConstU(32, 1)},
	})
	c.CreateAssignTransition(mid, c.Exit(), b.True(), nil)

	require.NoError(t, c.CheckAdjacencyInvariant())
	assert.Len(t, c.Entry().Outgoing, 1)
	assert.Len(t, c.Exit().Incoming, 1)
}

func TestVariableNamingIsQualifiedByCfaPath(t *testing.T) {
	ctx := term.NewContext()
	outer := NewCfa(ctx, "main", nil)
	x, err := outer.AddLocal("x", term.BoolType{})
	require.NoError(t, err)
	assert.Contains(t, x.Name, "main")
	assert.Contains(t, x.Name, "x")

	inner := NewCfa(ctx, "helper", outer)
	y, err := inner.AddLocal("x", term.BoolType{})
	require.NoError(t, err)

	assert.NotEqual(t, x.Name, y.Name, "nested Cfa variables must not collide with an outer Cfa's")
	assert.Contains(t, y.Name, "helper")
}

func TestCreateCallTransitionBindsCalleeInputsAndOutputs(t *testing.T) {
	ctx := term.NewContext()
	b := term.NewBuilder(ctx)

	callee := NewCfa(ctx, "callee", nil)
	in, err := callee.AddInput("in", term.BvType{Width: 8})
	require.NoError(t, err)
	out, err := callee.AddOutput("out", term.BvType{Width: 8})
	require.NoError(t, err)

	caller := NewCfa(ctx, "caller", nil)
	result, err := caller.AddLocal("result", term.BvType{Width: 8})
	require.NoError(t, err)

	mid := caller.CreateLocation("after_call")
	caller.CreateCallTransition(caller.Entry(), mid, b.True(), callee,
		[]InputBinding{{Formal: in, Value: b.BvConstU(8, 5)}},
		[]OutputBinding{{Formal: out, Result: result}},
	)

	require.NoError(t, caller.CheckAdjacencyInvariant())
	call := caller.Entry().Outgoing[0].Call
	require.NotNil(t, call)
	assert.Equal(t, callee, call.Callee)
	assert.Len(t, call.Inputs, 1)
	assert.Len(t, call.Outputs, 1)
}

func TestDuplicateLocalNameAcrossSameCfaIsRejected(t *testing.T) {
	ctx := term.NewContext()
	c := NewCfa(ctx, "main", nil)

	_, err := c.AddLocal("x", term.BoolType{})
	require.NoError(t, err)
	_, err = c.AddLocal("x", term.BoolType{})
	assert.Error(t, err)
}
