// Package diag classifies pipeline errors into a stage-tagged form shared by
// the CLI, the HTTP and gRPC APIs, the playground and the language server.
package diag

import (
	"errors"
	"sort"
	"unicode/utf8"

	"github.com/lemonberrylabs/tinyscript/pkg/lexer"
	"github.com/lemonberrylabs/tinyscript/pkg/parser"
	"github.com/lemonberrylabs/tinyscript/pkg/types"
)

// Stage names the pipeline step that produced an error.
type Stage string

const (
	StageLex     Stage = "lex"
	StageParse   Stage = "parse"
	StageRuntime Stage = "runtime"
)

// Diagnostic is a classified error. Span is nil for runtime errors, which
// carry no source location.
type Diagnostic struct {
	Stage   Stage       `json:"stage" yaml:"stage"`
	Kind    string      `json:"kind" yaml:"kind"`
	Message string      `json:"message" yaml:"message"`
	Span    *lexer.Span `json:"span,omitempty" yaml:"span,omitempty"`
	Name    string      `json:"name,omitempty" yaml:"name,omitempty"`
}

// Describe classifies err. It returns nil for errors that did not come from
// the lexer, parser or interpreter.
func Describe(err error) *Diagnostic {
	var lerr *lexer.Error
	if errors.As(err, &lerr) {
		span := lerr.Span
		return &Diagnostic{Stage: StageLex, Kind: lerr.Kind.String(), Message: lerr.Error(), Span: &span}
	}
	var perr *parser.Error
	if errors.As(err, &perr) {
		span := perr.Span
		return &Diagnostic{Stage: StageParse, Kind: perr.Kind.String(), Message: perr.Message, Span: &span}
	}
	var rerr *types.Error
	if errors.As(err, &rerr) {
		return &Diagnostic{Stage: StageRuntime, Kind: rerr.Kind.String(), Message: rerr.Message, Name: rerr.Name}
	}
	return nil
}

// Position is a zero-based line and column. Column counts UTF-16 code units,
// the unit used by editors speaking the language server protocol.
type Position struct {
	Line   int
	Column int
}

// PositionAt converts a byte offset in src to a Position. Offsets past the end
// clamp to the end of input.
func PositionAt(src string, offset int) Position {
	return NewLocator(src).Position(offset)
}

// Locator converts byte offsets to positions for one source text. Build one
// when converting many offsets in the same text.
type Locator struct {
	src        string
	lineStarts []int
}

// NewLocator indexes the line starts of src.
func NewLocator(src string) *Locator {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Locator{src: src, lineStarts: starts}
}

// Position converts a byte offset to a Position.
func (l *Locator) Position(offset int) Position {
	if offset > len(l.src) {
		offset = len(l.src)
	}
	if offset < 0 {
		offset = 0
	}
	line := sort.Search(len(l.lineStarts), func(i int) bool { return l.lineStarts[i] > offset }) - 1

	col := 0
	for i := l.lineStarts[line]; i < offset; {
		r, width := utf8.DecodeRuneInString(l.src[i:])
		i += width
		if r >= 0x10000 {
			col += 2
		} else {
			col++
		}
	}
	return Position{Line: line, Column: col}
}
