// Package diagnostics carries the checker's run-time narration: the
// progress messages gazer's BMC.cpp::run() used to print straight to
// mOS ("Checking for error block…", "Formula is SAT/UNSAT…", program
// size) become structured log lines here, backed by
// github.com/tliron/commonlog instead of bare stdout writes.
package diagnostics

import (
	"fmt"

	"github.com/segmentio/ksuid"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"

	"bmc/config"
	"bmc/solver"
	"bmc/term"
)

// loggerName namespaces every log line this package emits.
const loggerName = "bmc"

// Configure wires commonlog's global configuration. verbosity follows
// commonlog's own scale (0 disables logging, higher values are
// noisier); path, when non-nil, redirects log output to a file instead
// of stderr.
func Configure(verbosity int, path *string) {
	commonlog.Configure(verbosity, path)
}

// Logger narrates one verification run. It is a thin wrapper over a
// commonlog.Logger so the encoder/unwinder never depend on commonlog
// directly — only this package does. RunID is a fresh k-sortable
// identifier stamped on every log line so that two runs interleaved in
// the same log stream (e.g. the LSP server re-verifying several
// documents concurrently) can still be told apart and ordered by
// creation time.
type Logger struct {
	backend commonlog.Logger
	RunID   string
}

// NewLogger returns a Logger with commonlog's "bmc" logger as its
// backend and a freshly generated RunID. Call Configure before this if
// you want caller-specified verbosity; otherwise commonlog's own
// default applies.
func NewLogger() *Logger {
	return &Logger{backend: commonlog.GetLogger(loggerName), RunID: ksuid.New().String()}
}

// RunStarted narrates the start of a verification run: the function
// name and the options in force, mirroring BMC.cpp::run()'s opening
// "Program size: N" line.
func (l *Logger) RunStarted(functionName string, opts config.Options) {
	l.backend.Info("run started",
		"run", l.RunID,
		"function", functionName,
		"bound", opts.Bound,
		"intRepr", opts.IntRepr.String(),
		"assumeNoNaN", opts.AssumeNoNaN,
		"noElimVars", opts.NoElimVars,
	)
}

// CheckingBlock narrates that the encoder is about to hand one error
// block's formula to the solver — BMC.cpp's "Checking for error
// block…" line.
func (l *Logger) CheckingBlock(blockID string) {
	l.backend.Info("checking error block", "run", l.RunID, "block", blockID)
}

// BlockResult narrates the solver's verdict for one error block —
// BMC.cpp's "Formula is SAT/UNSAT" line.
func (l *Logger) BlockResult(blockID string, status solver.Status) {
	l.backend.Info("error block decided", "run", l.RunID, "block", blockID, "status", status.String())
}

// SolverSkipped narrates that a SolverError caused the encoder to move
// on to the next error block without aborting the run (§7).
func (l *Logger) SolverSkipped(blockID string, cause error) {
	l.backend.Warning("solver error, skipping block", "run", l.RunID, "block", blockID, "cause", cause.Error())
}

// TraceIncomplete narrates a partial counterexample reconstruction
// (§4.H "Failure semantics").
func (l *Logger) TraceIncomplete(blockID string) {
	l.backend.Warning("trace reconstruction incomplete", "run", l.RunID, "block", blockID)
}

// DumpFormula pretty-prints formula's s-expression form when
// cfg.DumpFormula is set (§7 "dump-formula"), grounded on gazer's
// commented-out FormatPrintExpr call.
func (l *Logger) DumpFormula(cfg config.Options, blockID string, formula *term.Expr) {
	if !cfg.DumpFormula || formula == nil {
		return
	}
	l.backend.Debug("formula", "block", blockID, "expr", formula.String())
}

// DumpModel renders a satisfying model's bindings for every variable
// the caller cares about, when cfg.DumpModel is set (§7 "dump-model").
// Variables are printed in the order given so callers control
// determinism (e.g. topological/declaration order) rather than map
// iteration order.
func (l *Logger) DumpModel(cfg config.Options, blockID string, vars []*term.Variable, model solver.Model) {
	if !cfg.DumpModel || model == nil {
		return
	}
	for _, v := range vars {
		l.backend.Debug("model binding", "block", blockID, "variable", v.Name, "value", modelValueString(v, model))
	}
}

func modelValueString(v *term.Variable, model solver.Model) string {
	switch v.Type.(type) {
	case term.BoolType:
		b, ok := model.BoolValue(v)
		if !ok {
			return "<unset>"
		}
		return fmt.Sprintf("%t", b)
	case term.BvType, term.IntType:
		var n interface{ String() string }
		if bv, ok := model.BvValue(v); ok {
			n = bv
		} else if i, ok := model.IntValue(v); ok {
			n = i
		} else {
			return "<unset>"
		}
		return n.String()
	default:
		return "<unset>"
	}
}

// Result is the final, diagnostics-friendly rendering of the core's
// produced SafetyResult (§6), used by cmd/bmc to print a human-readable
// summary and by cmd/bmc-lsp to translate a run into an LSP diagnostic.
type Result struct {
	Safe      bool
	ErrorCode uint32
	BlockID   string
}

// Summarize logs the final verdict of a run.
func (l *Logger) Summarize(r Result) {
	if r.Safe {
		l.backend.Info("result", "run", l.RunID, "verdict", "safe-up-to-bound")
		return
	}
	l.backend.Info("result", "run", l.RunID, "verdict", "unsafe", "errorCode", r.ErrorCode, "block", r.BlockID)
}
