package lexer

import (
	"strconv"
	"unicode"
)

// Option configures a Lexer.
type Option func(*Lexer)

// WithExtendedSyntax enables number literals, the remaining punctuation and
// operators, and the while/for keywords. Without it the lexer only accepts
// whitespace, strings, identifiers, keywords and ( ) { } ;.
func WithExtendedSyntax() Option {
	return func(l *Lexer) {
		l.extended = true
	}
}

// Lexer produces tokens from source text on demand.
type Lexer struct {
	cursor   *Cursor
	extended bool
}

// New creates a lexer over src.
func New(src string, opts ...Option) *Lexer {
	l := &Lexer{cursor: NewCursor(src)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Tokenize scans the entire input and returns all tokens, ending with EOF.
// Scanning stops at the first error.
func Tokenize(src string, opts ...Option) ([]Token, error) {
	l := New(src, opts...)
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == EOF {
			return tokens, nil
		}
	}
}

// NextToken returns the next token. Once the input is exhausted every call returns EOF.
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()
	start := l.cursor.Position()

	ch, ok := l.cursor.Advance()
	if !ok {
		return Token{Kind: EOF, Span: Span{Start: start, End: start}}, nil
	}

	switch {
	case ch == '"':
		return l.readString(start)
	case isIdentStart(ch):
		return l.readIdentifier(start, ch), nil
	}

	switch ch {
	case '(':
		return l.single(LeftParen, start), nil
	case ')':
		return l.single(RightParen, start), nil
	case '{':
		return l.single(LeftBrace, start), nil
	case '}':
		return l.single(RightBrace, start), nil
	case ';':
		return l.single(Semicolon, start), nil
	}

	if l.extended {
		if tok, ok := l.readExtended(ch, start); ok {
			return tok, nil
		}
	}

	return Token{}, &Error{
		Kind:  UnexpectedCharacter,
		Found: ch,
		Span:  Span{Start: start, End: l.cursor.Position()},
	}
}

// readString reads a double-quoted literal. The opening quote is already consumed.
// Characters are taken verbatim; there are no escape sequences.
func (l *Lexer) readString(start int) (Token, error) {
	var text []rune
	for {
		ch, ok := l.cursor.Advance()
		if !ok {
			return Token{}, &Error{
				Kind: UnterminatedString,
				Span: Span{Start: start, End: l.cursor.Position()},
			}
		}
		if ch == '"' {
			return Token{
				Kind: StringLiteral,
				Text: string(text),
				Span: Span{Start: start, End: l.cursor.Position()},
			}, nil
		}
		text = append(text, ch)
	}
}

// readIdentifier reads the maximal identifier run starting with first and
// classifies it against the keyword table.
func (l *Lexer) readIdentifier(start int, first rune) Token {
	word := []rune{first}
	for {
		ch, ok := l.cursor.Peek()
		if !ok || !isIdentPart(ch) {
			break
		}
		l.cursor.Advance()
		word = append(word, ch)
	}

	text := string(word)
	span := Span{Start: start, End: l.cursor.Position()}
	if kind, ok := keywords[text]; ok {
		return Token{Kind: kind, Span: span}
	}
	if l.extended {
		if kind, ok := extendedKeywords[text]; ok {
			return Token{Kind: kind, Span: span}
		}
	}
	return Token{Kind: Identifier, Text: text, Span: span}
}

// readExtended handles numbers and operators. ch has already been consumed.
func (l *Lexer) readExtended(ch rune, start int) (Token, bool) {
	if isDigit(ch) {
		return l.readNumber(start), true
	}

	switch ch {
	case ',':
		return l.single(Comma, start), true
	case '.':
		return l.single(Dot, start), true
	case ':':
		return l.single(Colon, start), true
	case '+':
		return l.single(Plus, start), true
	case '-':
		return l.single(Minus, start), true
	case '*':
		return l.single(Star, start), true
	case '/':
		return l.single(Slash, start), true
	case '%':
		return l.single(Percent, start), true
	case '=':
		return l.oneOrTwo('=', EqualEqual, Equal, start), true
	case '>':
		return l.oneOrTwo('=', GreaterEqual, Greater, start), true
	case '<':
		return l.oneOrTwo('=', LessEqual, Less, start), true
	case '&':
		if l.match('&') {
			return l.spanned(And, start), true
		}
	case '|':
		if l.match('|') {
			return l.spanned(Or, start), true
		}
	}
	return Token{}, false
}

// readNumber reads digits with an optional fractional part. The first digit is consumed.
func (l *Lexer) readNumber(start int) Token {
	l.skipDigits()
	if ch, ok := l.cursor.Peek(); ok && ch == '.' {
		// Only treat the dot as a decimal point when a digit follows.
		rest := NewCursor(l.cursor.src[l.cursor.Position():])
		rest.Advance()
		if next, ok := rest.Peek(); ok && isDigit(next) {
			l.cursor.Advance()
			l.skipDigits()
		}
	}

	end := l.cursor.Position()
	raw := l.cursor.src[start:end]
	// raw only holds ASCII digits and at most one inner dot, so parsing cannot fail.
	n, _ := strconv.ParseFloat(raw, 64)
	return Token{Kind: NumberLiteral, Number: n, Span: Span{Start: start, End: end}}
}

func (l *Lexer) skipDigits() {
	for {
		ch, ok := l.cursor.Peek()
		if !ok || !isDigit(ch) {
			return
		}
		l.cursor.Advance()
	}
}

// oneOrTwo emits two if the next character is next, otherwise one.
func (l *Lexer) oneOrTwo(next rune, two, one Kind, start int) Token {
	if l.match(next) {
		return l.spanned(two, start)
	}
	return l.spanned(one, start)
}

func (l *Lexer) match(want rune) bool {
	ch, ok := l.cursor.Peek()
	if !ok || ch != want {
		return false
	}
	l.cursor.Advance()
	return true
}

// single emits a one-character token.
func (l *Lexer) single(kind Kind, start int) Token {
	return Token{Kind: kind, Span: Span{Start: start, End: start + 1}}
}

func (l *Lexer) spanned(kind Kind, start int) Token {
	return Token{Kind: kind, Span: Span{Start: start, End: l.cursor.Position()}}
}

func (l *Lexer) skipWhitespace() {
	for {
		ch, ok := l.cursor.Peek()
		if !ok || !unicode.IsSpace(ch) {
			return
		}
		l.cursor.Advance()
	}
}

// isAlphabetic reports whether ch has the Unicode Alphabetic property.
func isAlphabetic(ch rune) bool {
	return unicode.In(ch, unicode.Letter, unicode.Nl, unicode.Other_Alphabetic)
}

func isIdentStart(ch rune) bool {
	return isAlphabetic(ch) || ch == '_'
}

func isIdentPart(ch rune) bool {
	return isAlphabetic(ch) || unicode.IsNumber(ch) || ch == '_'
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}
