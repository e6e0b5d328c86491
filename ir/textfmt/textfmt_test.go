package textfmt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bmc/config"
	"bmc/encode"
	"bmc/solver/reference"
	"bmc/term"
	"bmc/trace"
)

const straightLineReachable = `
fn main {
  bb entry:
    %one = const i32 1
    %x = const i32 1
    %cond = eq i32 %x %one
    br %cond err ret
  bb err:
    call error_code(%x)
    ret
  bb ret:
    ret
}
`

const diamondWithPhi = `
fn f {
  bb entry:
    %cond = const bool true
    br %cond then els
  bb then:
    %a = const i8 1
    jmp join
  bb els:
    %b = const i8 2
    jmp join
  bb join:
    %v = phi i8 [then: %a], [els: %b]
    call error_code(%v)
    ret
}
`

func TestParseFunctionBuildsStraightLineCFG(t *testing.T) {
	fn, err := ParseFunction("fixture.bmc", straightLineReachable)
	require.NoError(t, err)

	assert.Equal(t, "main", fn.Name)
	require.Len(t, fn.Blocks, 3)
	assert.Equal(t, "entry", fn.Entry.ID)

	found := false
	for _, b := range fn.Blocks {
		if b.ID == "err" {
			found = true
			require.Len(t, b.Instructions, 1)
		}
	}
	assert.True(t, found)
}

func TestParsedStraightLineFunctionIsReachable(t *testing.T) {
	fn, err := ParseFunction("fixture.bmc", straightLineReachable)
	require.NoError(t, err)

	tctx := term.NewContext()
	res, err := encode.Encode(context.Background(), fn, tctx, config.Default())
	require.NoError(t, err)
	require.Contains(t, res.ErrorFormulas, encode.BlockID("err"))

	s := reference.New(tctx)
	require.NoError(t, s.Add(res.ErrorFormulas["err"]))
	status, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "SAT", status.String())

	tr, _, err := trace.Build(fn, res, "err", s.Model())
	require.NoError(t, err)
	assert.NotEmpty(t, tr)
}

func TestParsedDiamondWithPhiEncodesJoinSelector(t *testing.T) {
	fn, err := ParseFunction("fixture.bmc", diamondWithPhi)
	require.NoError(t, err)
	require.Len(t, fn.Blocks, 4)

	tctx := term.NewContext()
	res, err := encode.Encode(context.Background(), fn, tctx, config.Default())
	require.NoError(t, err)

	require.Contains(t, res.Preds, encode.BlockID("join"))
	assert.Equal(t, term.BvType{Width: 32}, res.Preds["join"].Type)
}

func TestParseFunctionRejectsMoreThanOneFunction(t *testing.T) {
	_, err := ParseFunction("fixture.bmc", straightLineReachable+diamondWithPhi)
	require.Error(t, err)
}

func TestParseProgramParsesEveryFunction(t *testing.T) {
	fns, err := ParseProgram("fixture.bmc", straightLineReachable+diamondWithPhi)
	require.NoError(t, err)
	require.Len(t, fns, 2)
	assert.Equal(t, "main", fns[0].Name)
	assert.Equal(t, "f", fns[1].Name)
}

func TestResolveTypeRefCoversDeclaredSpellings(t *testing.T) {
	cases := map[string]term.Type{
		"bool": term.BoolType{},
		"int":  term.IntType{},
		"i8":   term.BvType{Width: 8},
		"i32":  term.BvType{Width: 32},
		"f32":  term.FloatType{Format: term.Single},
		"f64":  term.FloatType{Format: term.Double},
	}
	for name, want := range cases {
		ref := &TypeRef{Name: name}
		got, err := ref.Resolve()
		require.NoError(t, err)
		assert.True(t, want.Equal(got), "type %q: want %s got %s", name, want, got)
	}

	_, err := (&TypeRef{Name: "bogus"}).Resolve()
	assert.Error(t, err)
}
