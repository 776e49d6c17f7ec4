package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lemonberrylabs/tinyscript/pkg/lexer"
)

// ErrorKind classifies a parse failure.
type ErrorKind int

const (
	// UnexpectedToken means a specific token kind was required and another was found.
	UnexpectedToken ErrorKind = iota
	// UnexpectedEOF means the input ended where more tokens were required.
	UnexpectedEOF
	// Custom covers productions with no single expected kind.
	Custom
)

func (k ErrorKind) String() string {
	switch k {
	case UnexpectedToken:
		return "UnexpectedToken"
	case UnexpectedEOF:
		return "UnexpectedEOF"
	case Custom:
		return "Custom"
	default:
		return "Unknown"
	}
}

// Error is a parse failure. Span is the span of the offending token.
type Error struct {
	Kind     ErrorKind
	Message  string
	Expected []lexer.Kind
	Found    lexer.Kind
	Span     lexer.Span
}

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "parse error at %s: %s", e.Span, e.Message)
	if e.Kind == UnexpectedToken {
		names := make([]string, len(e.Expected))
		for i, k := range e.Expected {
			names[i] = k.String()
		}
		fmt.Fprintf(&sb, " (expected %s, found %s)", strings.Join(names, " or "), e.Found)
	}
	return sb.String()
}

// IsIncomplete reports whether err means the token stream ended too early,
// so appending more input could make it parse.
func IsIncomplete(err error) bool {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind == UnexpectedEOF
	}
	return lexer.IsIncomplete(err)
}
