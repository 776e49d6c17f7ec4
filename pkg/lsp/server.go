// Package lsp implements a language server for tinyscript. It publishes the
// first lexer or parser error of each open document as a diagnostic and
// serves semantic tokens for highlighting.
package lsp

import (
	"slices"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/lemonberrylabs/tinyscript/pkg/diag"
	"github.com/lemonberrylabs/tinyscript/pkg/lexer"
	"github.com/lemonberrylabs/tinyscript/pkg/parser"
)

const (
	lsName             = "tinyscript-lsp"
	publishDiagnostics = "textDocument/publishDiagnostics"
)

var source = "tinyscript"

// Server is a stdio language server.
type Server struct {
	handler protocol.Handler
	version string
	opts    []lexer.Option
	log     commonlog.Logger

	mu    sync.Mutex
	files map[string]string
}

// New creates a language server. The lexer options select the dialect.
func New(version string, opts ...lexer.Option) *Server {
	s := &Server{
		version: version,
		opts:    opts,
		log:     commonlog.GetLogger("tinyscript.lsp"),
		files:   make(map[string]string),
	}
	s.handler = protocol.Handler{
		Initialize:                     s.initialize,
		Initialized:                    s.initialized,
		Shutdown:                       s.shutdown,
		SetTrace:                       s.setTrace,
		TextDocumentDidOpen:            s.didOpen,
		TextDocumentDidChange:          s.didChange,
		TextDocumentDidClose:           s.didClose,
		TextDocumentSemanticTokensFull: s.semanticTokensFull,
	}
	return s
}

// RunStdio serves the protocol over stdin and stdout until the client exits.
func (s *Server) RunStdio() error {
	return server.NewServer(&s.handler, lsName, false).RunStdio()
}

func (s *Server) initialize(context *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.log.Infof("initializing %s %s", lsName, s.version)

	capabilities := s.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = protocol.TextDocumentSyncKindFull
	capabilities.SemanticTokensProvider = &protocol.SemanticTokensOptions{
		Legend: protocol.SemanticTokensLegend{
			TokenTypes:     tokenTypes,
			TokenModifiers: []string{},
		},
		Full: true,
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(context *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(context *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) didOpen(context *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.update(context, params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

func (s *Server) didChange(context *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	// Full sync: the last change holds the whole document.
	switch change := params.ContentChanges[len(params.ContentChanges)-1].(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		s.update(context, params.TextDocument.URI, change.Text)
	case protocol.TextDocumentContentChangeEvent:
		s.update(context, params.TextDocument.URI, change.Text)
	}
	return nil
}

func (s *Server) didClose(context *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.mu.Lock()
	delete(s.files, params.TextDocument.URI)
	s.mu.Unlock()

	context.Notify(publishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *Server) semanticTokensFull(context *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	s.mu.Lock()
	text := s.files[params.TextDocument.URI]
	s.mu.Unlock()
	return SemanticTokens(text, s.opts...), nil
}

func (s *Server) update(context *glsp.Context, uri, text string) {
	s.mu.Lock()
	s.files[uri] = text
	s.mu.Unlock()

	diagnostics := Diagnostics(text, s.opts...)
	s.log.Debugf("%s: %d diagnostic(s)", uri, len(diagnostics))
	context.Notify(publishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// Diagnostics parses text and reports the first lexer or parser error. The
// result is empty, not nil, for a clean document.
func Diagnostics(text string, opts ...lexer.Option) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}

	_, err := parser.ParseSource(text, opts...)
	d := diag.Describe(err)
	if d == nil || d.Span == nil {
		return diagnostics
	}

	loc := diag.NewLocator(text)
	severity := protocol.DiagnosticSeverityError
	return append(diagnostics, protocol.Diagnostic{
		Range:    toRange(loc, *d.Span),
		Severity: &severity,
		Source:   &source,
		Message:  d.Message,
	})
}

func toRange(loc *diag.Locator, span lexer.Span) protocol.Range {
	return protocol.Range{
		Start: toPosition(loc.Position(span.Start)),
		End:   toPosition(loc.Position(span.End)),
	}
}

func toPosition(p diag.Position) protocol.Position {
	return protocol.Position{Line: uint32(p.Line), Character: uint32(p.Column)}
}

var tokenTypes = []string{"keyword", "variable", "string", "number", "operator"}

func tokenType(kind lexer.Kind) (uint32, bool) {
	var name string
	switch kind {
	case lexer.Var, lexer.Func, lexer.Return, lexer.If, lexer.Else, lexer.While, lexer.For,
		lexer.True, lexer.False, lexer.Null:
		name = "keyword"
	case lexer.Identifier:
		name = "variable"
	case lexer.StringLiteral:
		name = "string"
	case lexer.NumberLiteral:
		name = "number"
	case lexer.Minus, lexer.Plus, lexer.Slash, lexer.Star, lexer.Percent, lexer.Equal,
		lexer.EqualEqual, lexer.Greater, lexer.GreaterEqual, lexer.Less, lexer.LessEqual,
		lexer.And, lexer.Or:
		name = "operator"
	default:
		return 0, false
	}
	return uint32(slices.Index(tokenTypes, name)), true
}

// SemanticTokens encodes the highlightable tokens of text in the relative
// format of the protocol. Lexing stops at the first error; tokens spanning
// lines are skipped.
func SemanticTokens(text string, opts ...lexer.Option) *protocol.SemanticTokens {
	data := []uint32{}
	loc := diag.NewLocator(text)
	l := lexer.New(text, opts...)

	var prev diag.Position
	for {
		tok, err := l.NextToken()
		if err != nil || tok.Kind == lexer.EOF {
			break
		}
		typ, ok := tokenType(tok.Kind)
		if !ok {
			continue
		}
		start, end := loc.Position(tok.Span.Start), loc.Position(tok.Span.End)
		if start.Line != end.Line {
			continue
		}

		deltaCol := start.Column
		if start.Line == prev.Line {
			deltaCol = start.Column - prev.Column
		}
		data = append(data,
			uint32(start.Line-prev.Line),
			uint32(deltaCol),
			uint32(end.Column-start.Column),
			typ,
			0,
		)
		prev = start
	}
	return &protocol.SemanticTokens{Data: data}
}
