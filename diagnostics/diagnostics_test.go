package diagnostics

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"bmc/config"
	"bmc/solver"
	"bmc/term"
)

type fakeModel struct {
	bv map[string]*big.Int
}

func (m fakeModel) BoolValue(v *term.Variable) (bool, bool) { return false, false }
func (m fakeModel) BvValue(v *term.Variable) (*big.Int, bool) {
	n, ok := m.bv[v.Name]
	return n, ok
}
func (m fakeModel) IntValue(v *term.Variable) (*big.Int, bool) { return nil, false }

func TestLoggerMethodsDoNotPanicWithoutConfiguration(t *testing.T) {
	l := NewLogger()
	assert.NotPanics(t, func() {
		l.RunStarted("main", config.Default())
		l.CheckingBlock("err")
		l.BlockResult("err", solver.SAT)
		l.SolverSkipped("err", assertError{})
		l.TraceIncomplete("join")
		l.Summarize(Result{Safe: true})
		l.Summarize(Result{Safe: false, ErrorCode: 42, BlockID: "err"})
	})
}

func TestDumpFormulaOnlyLogsWhenEnabled(t *testing.T) {
	ctx := term.NewContext()
	b := term.NewBuilder(ctx)
	l := NewLogger()

	assert.NotPanics(t, func() {
		l.DumpFormula(config.Default(), "err", b.True())
	})
	cfg := config.Default()
	cfg.DumpFormula = true
	assert.NotPanics(t, func() {
		l.DumpFormula(cfg, "err", b.True())
	})
}

func TestDumpModelRendersKnownAndUnsetVariables(t *testing.T) {
	ctx := term.NewContext()
	v1, err := ctx.NewVariable("x", term.BvType{Width: 8})
	assert.NoError(t, err)
	v2, err := ctx.NewVariable("y", term.BvType{Width: 8})
	assert.NoError(t, err)

	model := fakeModel{bv: map[string]*big.Int{"x": big.NewInt(3)}}
	l := NewLogger()
	cfg := config.Default()
	cfg.DumpModel = true

	assert.NotPanics(t, func() {
		l.DumpModel(cfg, "err", []*term.Variable{v1, v2}, model)
	})
}

type assertError struct{}

func (assertError) Error() string { return "boom" }
