package diagnostics

import (
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"bmc/ir"
)

// sourceName tags every diagnostic this package emits.
const sourceName = "bmc"

// FunctionVerdict is one function's worth of verification outcome,
// ready to be rendered as editor diagnostics: either every error block
// was proven unreachable up to the bound, or the first one found
// reachable, identified by its block ID and (when available) a source
// location drawn from its counterexample trace.
type FunctionVerdict struct {
	FunctionName string
	Safe         bool
	BlockID      string
	ErrorCode    uint32
	Loc          *ir.LocationInfo
	Detail       string
}

// ToDiagnostics renders a batch of FunctionVerdicts as LSP diagnostics,
// one per unsafe function. Safe verdicts produce no diagnostic — an
// empty result clears any diagnostics a client is still displaying for
// the document.
func ToDiagnostics(verdicts []FunctionVerdict) []protocol.Diagnostic {
	var out []protocol.Diagnostic
	for _, v := range verdicts {
		if v.Safe {
			continue
		}
		out = append(out, protocol.Diagnostic{
			Range:    rangeOf(v.Loc),
			Severity: ptrSeverity(protocol.DiagnosticSeverityError),
			Source:   ptrString(sourceName),
			Message:  message(v),
		})
	}
	return out
}

func message(v FunctionVerdict) string {
	msg := fmt.Sprintf("error block %s is reachable in function %s (error code %d)", v.BlockID, v.FunctionName, v.ErrorCode)
	if v.Detail != "" {
		msg += ": " + v.Detail
	}
	return msg
}

// rangeOf converts an optional IR source location into a one-character
// LSP range, defaulting to the document's first character when no
// location is known.
func rangeOf(loc *ir.LocationInfo) protocol.Range {
	if loc == nil || loc.Line <= 0 {
		return protocol.Range{
			Start: protocol.Position{Line: 0, Character: 0},
			End:   protocol.Position{Line: 0, Character: 1},
		}
	}
	line := uint32(loc.Line - 1)
	col := uint32(0)
	if loc.Column > 0 {
		col = uint32(loc.Column - 1)
	}
	return protocol.Range{
		Start: protocol.Position{Line: line, Character: col},
		End:   protocol.Position{Line: line, Character: col + 1},
	}
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity { return &s }
func ptrString(s string) *string                                           { return &s }
