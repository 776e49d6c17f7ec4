package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhitespaceOnlyYieldsEOF(t *testing.T) {
	tests := []string{"", " ", "\t\n  ", "\r\n "}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			tok, err := New(input).NextToken()
			require.NoError(t, err)
			assert.Equal(t, EOF, tok.Kind)
			assert.Equal(t, Span{Start: len(input), End: len(input)}, tok.Span)
		})
	}
}

func TestEOFIsSticky(t *testing.T) {
	l := New("x")
	_, err := l.NextToken()
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		tok, err := l.NextToken()
		require.NoError(t, err)
		assert.Equal(t, EOF, tok.Kind)
		assert.Equal(t, Span{Start: 1, End: 1}, tok.Span)
	}
}

func TestStringLiteral(t *testing.T) {
	tok, err := New(`  "abc" `).NextToken()
	require.NoError(t, err)
	assert.Equal(t, Token{Kind: StringLiteral, Text: "abc", Span: Span{Start: 2, End: 7}}, tok)
}

func TestStringLiteralIsVerbatim(t *testing.T) {
	tok, err := New(`"a\nb é"`).NextToken()
	require.NoError(t, err)
	assert.Equal(t, `a\nb é`, tok.Text)
	assert.Equal(t, Span{Start: 0, End: 9}, tok.Span)
}

func TestUnterminatedString(t *testing.T) {
	_, err := New(`"abc`).NextToken()
	require.Error(t, err)

	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, UnterminatedString, lerr.Kind)
	assert.Equal(t, Span{Start: 0, End: 4}, lerr.Span)
	assert.Equal(t, "unterminated string at [0,4)", lerr.Error())
	assert.True(t, IsIncomplete(err))
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	tests := []struct {
		input string
		want  Token
	}{
		{"var", Token{Kind: Var, Span: Span{0, 3}}},
		{"variable", Token{Kind: Identifier, Text: "variable", Span: Span{0, 8}}},
		{"func", Token{Kind: Func, Span: Span{0, 4}}},
		{"return", Token{Kind: Return, Span: Span{0, 6}}},
		{"if", Token{Kind: If, Span: Span{0, 2}}},
		{"else", Token{Kind: Else, Span: Span{0, 4}}},
		{"true", Token{Kind: True, Span: Span{0, 4}}},
		{"false", Token{Kind: False, Span: Span{0, 5}}},
		{"null", Token{Kind: Null, Span: Span{0, 4}}},
		{"while", Token{Kind: Identifier, Text: "while", Span: Span{0, 5}}},
		{"for", Token{Kind: Identifier, Text: "for", Span: Span{0, 3}}},
		{"_x1", Token{Kind: Identifier, Text: "_x1", Span: Span{0, 3}}},
		{"héllo", Token{Kind: Identifier, Text: "héllo", Span: Span{0, 6}}},
		{"कि", Token{Kind: Identifier, Text: "कि", Span: Span{0, 6}}},
		{"Ⅷ", Token{Kind: Identifier, Text: "Ⅷ", Span: Span{0, 3}}},
		{"x\u0345", Token{Kind: Identifier, Text: "x\u0345", Span: Span{0, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok, err := New(tt.input).NextToken()
			require.NoError(t, err)
			assert.Equal(t, tt.want, tok)
		})
	}
}

func TestStructuralTokens(t *testing.T) {
	tokens, err := Tokenize("( ) {} ;")
	require.NoError(t, err)

	want := []Token{
		{Kind: LeftParen, Span: Span{0, 1}},
		{Kind: RightParen, Span: Span{2, 3}},
		{Kind: LeftBrace, Span: Span{4, 5}},
		{Kind: RightBrace, Span: Span{5, 6}},
		{Kind: Semicolon, Span: Span{7, 8}},
		{Kind: EOF, Span: Span{8, 8}},
	}
	assert.Equal(t, want, tokens)
}

func TestCoreRejectsOperators(t *testing.T) {
	tests := []struct {
		input string
		found rune
		span  Span
	}{
		{"var x = 1;", '=', Span{6, 7}},
		{"1", '1', Span{0, 1}},
		{"a + b", '+', Span{2, 3}},
		{"€", '€', Span{0, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			var lerr *Error
			require.ErrorAs(t, err, &lerr)
			assert.Equal(t, UnexpectedCharacter, lerr.Kind)
			assert.Equal(t, tt.found, lerr.Found)
			assert.Equal(t, tt.span, lerr.Span)
			assert.False(t, IsIncomplete(err))
		})
	}
}

func TestUnexpectedCharacterMessage(t *testing.T) {
	_, err := Tokenize("a @")
	require.Error(t, err)
	assert.Equal(t, "unexpected character '@' at [2,3)", err.Error())
}

func TestTokenizeDeclaration(t *testing.T) {
	tokens, err := Tokenize(`var greeting = "hi";`, WithExtendedSyntax())
	require.NoError(t, err)

	want := []Token{
		{Kind: Var, Span: Span{0, 3}},
		{Kind: Identifier, Text: "greeting", Span: Span{4, 12}},
		{Kind: Equal, Span: Span{13, 14}},
		{Kind: StringLiteral, Text: "hi", Span: Span{15, 19}},
		{Kind: Semicolon, Span: Span{19, 20}},
		{Kind: EOF, Span: Span{20, 20}},
	}
	assert.Equal(t, want, tokens)
}

func TestExtendedOperators(t *testing.T) {
	tokens, err := Tokenize(", . : + - * / % = == > >= < <= && || while for", WithExtendedSyntax())
	require.NoError(t, err)

	var kinds []Kind
	for _, tok := range tokens {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []Kind{
		Comma, Dot, Colon, Plus, Minus, Star, Slash, Percent,
		Equal, EqualEqual, Greater, GreaterEqual, Less, LessEqual,
		And, Or, While, For, EOF,
	}, kinds)
	assert.Equal(t, Span{Start: 18, End: 20}, tokens[9].Span)
}

func TestExtendedNumbers(t *testing.T) {
	tests := []struct {
		input string
		want  []Token
	}{
		{"42", []Token{{Kind: NumberLiteral, Number: 42, Span: Span{0, 2}}}},
		{"3.25", []Token{{Kind: NumberLiteral, Number: 3.25, Span: Span{0, 4}}}},
		{"7.", []Token{
			{Kind: NumberLiteral, Number: 7, Span: Span{0, 1}},
			{Kind: Dot, Span: Span{1, 2}},
		}},
		{"1-2", []Token{
			{Kind: NumberLiteral, Number: 1, Span: Span{0, 1}},
			{Kind: Minus, Span: Span{1, 2}},
			{Kind: NumberLiteral, Number: 2, Span: Span{2, 3}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tokens, err := Tokenize(tt.input, WithExtendedSyntax())
			require.NoError(t, err)
			require.NotEmpty(t, tokens)
			assert.Equal(t, tt.want, tokens[:len(tokens)-1])
		})
	}
}

func TestExtendedLoneAmpersand(t *testing.T) {
	_, err := Tokenize("a & b", WithExtendedSyntax())
	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, '&', lerr.Found)
	assert.Equal(t, Span{2, 3}, lerr.Span)
}

func TestTokenString(t *testing.T) {
	assert.Equal(t, `Identifier("x") [4,5)`, Token{Kind: Identifier, Text: "x", Span: Span{4, 5}}.String())
	assert.Equal(t, "NumberLiteral(2.5) [0,3)", Token{Kind: NumberLiteral, Number: 2.5, Span: Span{0, 3}}.String())
	assert.Equal(t, "Eof [9,9)", Token{Kind: EOF, Span: Span{9, 9}}.String())
}

func TestNewSpanOrdersBounds(t *testing.T) {
	assert.Equal(t, Span{Start: 2, End: 5}, NewSpan(5, 2))
	assert.Equal(t, 3, NewSpan(2, 5).Len())
}

func TestTokenMap(t *testing.T) {
	tokens, err := Tokenize(`x = 1.5;`, WithExtendedSyntax())
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"kind": "Identifier",
		"text": "x",
		"span": map[string]any{"start": 0, "end": 1},
	}, tokens[0].Map())
	assert.Equal(t, map[string]any{
		"kind":   "NumberLiteral",
		"number": 1.5,
		"span":   map[string]any{"start": 4, "end": 7},
	}, tokens[2].Map())
	assert.NotContains(t, tokens[1].Map(), "text")
}
