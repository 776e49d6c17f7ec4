// Package lexer turns tinyscript source text into tokens.
package lexer

import "strconv"

// Kind identifies the type of a lexical token. Two tokens of the same Kind
// are interchangeable for grammar purposes regardless of their payload.
type Kind int

const (
	// Structural punctuation
	LeftParen  Kind = iota // (
	RightParen             // )
	LeftBrace              // {
	RightBrace             // }
	Comma                  // ,
	Dot                    // .
	Minus                  // -
	Plus                   // +
	Semicolon              // ;
	Slash                  // /
	Star                   // *
	Percent                // %
	Colon                  // :

	// Keywords
	Var
	Func
	Return
	If
	Else
	While
	For
	True
	False
	Null

	// Literals
	Identifier
	StringLiteral
	NumberLiteral

	// Comparison and logical operators
	Equal        // =
	EqualEqual   // ==
	Greater      // >
	GreaterEqual // >=
	Less         // <
	LessEqual    // <=
	And          // &&
	Or           // ||

	EOF
)

// Token is a single lexical token. Text holds the identifier name or the
// decoded string literal; Number holds the value of a number literal.
type Token struct {
	Kind   Kind
	Text   string
	Number float64
	Span   Span
}

// String returns a debug-friendly name for the token kind.
func (k Kind) String() string {
	switch k {
	case LeftParen:
		return "LeftParen"
	case RightParen:
		return "RightParen"
	case LeftBrace:
		return "LeftBrace"
	case RightBrace:
		return "RightBrace"
	case Comma:
		return "Comma"
	case Dot:
		return "Dot"
	case Minus:
		return "Minus"
	case Plus:
		return "Plus"
	case Semicolon:
		return "Semicolon"
	case Slash:
		return "Slash"
	case Star:
		return "Star"
	case Percent:
		return "Percent"
	case Colon:
		return "Colon"
	case Var:
		return "Var"
	case Func:
		return "Func"
	case Return:
		return "Return"
	case If:
		return "If"
	case Else:
		return "Else"
	case While:
		return "While"
	case For:
		return "For"
	case True:
		return "True"
	case False:
		return "False"
	case Null:
		return "Null"
	case Identifier:
		return "Identifier"
	case StringLiteral:
		return "StringLiteral"
	case NumberLiteral:
		return "NumberLiteral"
	case Equal:
		return "Equal"
	case EqualEqual:
		return "EqualEqual"
	case Greater:
		return "Greater"
	case GreaterEqual:
		return "GreaterEqual"
	case Less:
		return "Less"
	case LessEqual:
		return "LessEqual"
	case And:
		return "And"
	case Or:
		return "Or"
	case EOF:
		return "Eof"
	default:
		return "Unknown"
	}
}

// String renders the token with its payload, e.g. Identifier("x") [4,5).
func (t Token) String() string {
	switch t.Kind {
	case Identifier, StringLiteral:
		return t.Kind.String() + "(" + strconv.Quote(t.Text) + ") " + t.Span.String()
	case NumberLiteral:
		return t.Kind.String() + "(" + strconv.FormatFloat(t.Number, 'g', -1, 64) + ") " + t.Span.String()
	default:
		return t.Kind.String() + " " + t.Span.String()
	}
}

// Map converts the token into plain values for JSON, YAML and protobuf Struct
// encoding. Payload keys are only present for the kinds that carry them.
func (t Token) Map() map[string]any {
	m := map[string]any{
		"kind": t.Kind.String(),
		"span": map[string]any{"start": t.Span.Start, "end": t.Span.End},
	}
	switch t.Kind {
	case Identifier, StringLiteral:
		m["text"] = t.Text
	case NumberLiteral:
		m["number"] = t.Number
	}
	return m
}

// keywords is the core keyword table.
var keywords = map[string]Kind{
	"var":    Var,
	"func":   Func,
	"return": Return,
	"if":     If,
	"else":   Else,
	"true":   True,
	"false":  False,
	"null":   Null,
}

// extendedKeywords are only recognized with WithExtendedSyntax.
var extendedKeywords = map[string]Kind{
	"while": While,
	"for":   For,
}
