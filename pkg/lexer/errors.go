package lexer

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a lexer failure.
type ErrorKind int

const (
	UnexpectedCharacter ErrorKind = iota
	UnterminatedString
)

func (k ErrorKind) String() string {
	switch k {
	case UnexpectedCharacter:
		return "UnexpectedCharacter"
	case UnterminatedString:
		return "UnterminatedString"
	default:
		return "Unknown"
	}
}

// Error is returned by NextToken. Found is only set for UnexpectedCharacter.
type Error struct {
	Kind  ErrorKind
	Found rune
	Span  Span
}

func (e *Error) Error() string {
	switch e.Kind {
	case UnexpectedCharacter:
		return fmt.Sprintf("unexpected character %q at %s", e.Found, e.Span)
	case UnterminatedString:
		return fmt.Sprintf("unterminated string at %s", e.Span)
	default:
		return fmt.Sprintf("lexer error at %s", e.Span)
	}
}

// IsIncomplete reports whether err means the input ended in the middle of a token,
// so more input could make it valid.
func IsIncomplete(err error) bool {
	var lerr *Error
	return errors.As(err, &lerr) && lerr.Kind == UnterminatedString
}
