package types

import "fmt"

// ErrorKind classifies a runtime failure.
type ErrorKind int

const (
	// KindUndefinedVariable is a read or assignment of a name bound in no enclosing scope.
	KindUndefinedVariable ErrorKind = iota
	// KindTypeMismatch is an operator applied to operands of the wrong types.
	KindTypeMismatch
	// KindUnsupported is a construct the interpreter parses but does not execute.
	KindUnsupported
)

func (k ErrorKind) String() string {
	switch k {
	case KindUndefinedVariable:
		return "UndefinedVariable"
	case KindTypeMismatch:
		return "TypeMismatch"
	case KindUnsupported:
		return "Unsupported"
	default:
		return "Unknown"
	}
}

// Error is a runtime error. Name is the variable involved, when there is one.
type Error struct {
	Kind    ErrorKind
	Message string
	Name    string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error of the same kind, so errors.Is(err, &Error{Kind: k}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// NewUndefinedVariableError creates an UndefinedVariable error for name.
func NewUndefinedVariableError(name string) *Error {
	return &Error{
		Kind:    KindUndefinedVariable,
		Message: fmt.Sprintf("Undefined variable '%s'", name),
		Name:    name,
	}
}

// NewTypeMismatchError creates a TypeMismatch error.
func NewTypeMismatchError(msg string) *Error {
	return &Error{Kind: KindTypeMismatch, Message: msg}
}

// NewUnsupportedError creates an Unsupported error.
func NewUnsupportedError(msg string) *Error {
	return &Error{Kind: KindUnsupported, Message: msg}
}
