// Package bmclsp implements the editor-facing side of the checker: an
// LSP handler that republishes each document's verification verdict as
// protocol.Diagnostic entries instead of parse/scan errors.
package bmclsp

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"bmc/config"
	"bmc/diagnostics"
	"bmc/encode"
	"bmc/ir"
	"bmc/ir/textfmt"
	"bmc/solver"
	"bmc/solver/reference"
	"bmc/term"
	"bmc/trace"
	"bmc/unwind"
)

// Handler implements the LSP server handlers for the textual IR
// format, tracking each open document's text for re-verification.
type Handler struct {
	mu      sync.RWMutex
	content map[string]string

	// Options is the verification configuration applied to every
	// document; the reference client has no way to set flags per
	// document so every run uses the same config.Options.
	Options config.Options
	logger  *diagnostics.Logger
}

// NewHandler returns a Handler that verifies every opened/changed
// document with opts.
func NewHandler(opts config.Options) *Handler {
	return &Handler{
		content: make(map[string]string),
		Options: opts,
		logger:  diagnostics.NewLogger(),
	}
}

// Initialize advertises this server's capabilities: full-document sync
// is all it needs, since every run re-verifies the whole document.
func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Println("bmc-lsp Initialize called")
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
		},
	}, nil
}

// Initialized is a no-op acknowledgement.
func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Println("bmc-lsp Initialized")
	return nil
}

// Shutdown is a no-op acknowledgement.
func (h *Handler) Shutdown(ctx *glsp.Context) error {
	log.Println("bmc-lsp Shutdown")
	return nil
}

// TextDocumentDidOpen verifies the newly opened document and publishes
// its diagnostics.
func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	return h.verifyAndPublish(ctx, params.TextDocument.URI, params.TextDocument.Text)
}

// TextDocumentDidChange re-verifies the document against its current
// on-disk text and republishes diagnostics, reading the file back from
// its URI rather than trusting the change payload's shape.
func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return err
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("bmc-lsp: failed to read %s: %w", path, err)
	}
	return h.verifyAndPublish(ctx, params.TextDocument.URI, string(source))
}

// TextDocumentDidClose forgets the document's cached source.
func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return err
	}
	h.mu.Lock()
	delete(h.content, path)
	h.mu.Unlock()
	return nil
}

// verifyAndPublish parses source into every function it defines, runs
// the full unwind/encode/solve/trace pipeline on each, and publishes
// the resulting diagnostics (empty when every function is safe,
// clearing any the client still shows).
func (h *Handler) verifyAndPublish(ctx *glsp.Context, uri protocol.DocumentUri, source string) error {
	path, err := uriToPath(uri)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.content[path] = source
	h.mu.Unlock()

	verdicts := h.verifySource(path, source)
	sendDiagnosticNotification(ctx, uri, diagnostics.ToDiagnostics(verdicts))
	return nil
}

func (h *Handler) verifySource(path, source string) []diagnostics.FunctionVerdict {
	fns, err := textfmt.ParseProgram(path, source)
	if err != nil {
		return []diagnostics.FunctionVerdict{{FunctionName: path, Safe: false, Detail: err.Error()}}
	}

	verdicts := make([]diagnostics.FunctionVerdict, 0, len(fns))
	for _, fn := range fns {
		verdicts = append(verdicts, h.verifyFunction(fn))
	}
	return verdicts
}

func (h *Handler) verifyFunction(fn *ir.Function) diagnostics.FunctionVerdict {
	h.logger.RunStarted(fn.Name, h.Options)

	unwound, err := unwind.Unwind(fn, h.Options.Bound)
	if err != nil {
		return diagnostics.FunctionVerdict{FunctionName: fn.Name, Safe: false, Detail: err.Error()}
	}

	tctx := term.NewContext()
	res, err := encode.Encode(context.Background(), unwound, tctx, h.Options)
	if err != nil {
		return diagnostics.FunctionVerdict{FunctionName: fn.Name, Safe: false, Detail: err.Error()}
	}

	blockIDs := make([]string, 0, len(res.ErrorFormulas))
	for id := range res.ErrorFormulas {
		blockIDs = append(blockIDs, id)
	}
	sort.Strings(blockIDs)

	for _, blockID := range blockIDs {
		s := reference.New(tctx)
		if err := s.Add(res.ErrorFormulas[blockID]); err != nil {
			continue
		}
		status, err := s.Run(context.Background())
		if err != nil || status != solver.SAT {
			continue
		}
		return h.unsafeVerdict(fn, res, blockID, s.Model())
	}

	h.logger.Summarize(diagnostics.Result{Safe: true})
	return diagnostics.FunctionVerdict{FunctionName: fn.Name, Safe: true}
}

func (h *Handler) unsafeVerdict(fn *ir.Function, res *encode.Result, blockID string, model solver.Model) diagnostics.FunctionVerdict {
	tr, errorCode, err := trace.Build(fn, res, blockID, model)
	h.logger.Summarize(diagnostics.Result{Safe: false, BlockID: blockID, ErrorCode: errorCode})

	verdict := diagnostics.FunctionVerdict{FunctionName: fn.Name, Safe: false, BlockID: blockID, ErrorCode: errorCode}
	if err != nil {
		verdict.Detail = err.Error()
	}
	for i := len(tr) - 1; i >= 0; i-- {
		if tr[i].Loc != nil {
			verdict.Loc = tr[i].Loc
			break
		}
	}
	return verdict
}

func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}
	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

func sendDiagnosticNotification(ctx *glsp.Context, uri protocol.URI, diags []protocol.Diagnostic) {
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diags,
	})
}

func ptrBool(b bool) *bool { return &b }

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind { return &k }
