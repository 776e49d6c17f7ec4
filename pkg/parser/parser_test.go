package parser

import (
	"testing"

	"github.com/lemonberrylabs/tinyscript/pkg/ast"
	"github.com/lemonberrylabs/tinyscript/pkg/lexer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) []ast.Stmt {
	t.Helper()
	stmts, err := ParseSource(src, lexer.WithExtendedSyntax())
	require.NoError(t, err)
	return stmts
}

func parseErr(t *testing.T, src string) *Error {
	t.Helper()
	_, err := ParseSource(src, lexer.WithExtendedSyntax())
	require.Error(t, err)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	return perr
}

func num(n float64) ast.Expr { return &ast.LiteralExpr{Value: ast.NumberLit(n)} }
func str(s string) ast.Expr { return &ast.LiteralExpr{Value: ast.StringLit(s)} }
func ident(n string) ast.Expr { return &ast.VariableExpr{Name: n} }
func neg(e ast.Expr) ast.Expr { return &ast.BinaryExpr{Left: num(0), Op: lexer.Minus, Right: e} }

func TestParseVarDeclRoundTrip(t *testing.T) {
	stmts := parse(t, `var x = "hi";`)
	want := []ast.Stmt{
		&ast.VarDecl{Name: "x", Initializer: str("hi")},
	}
	assert.Equal(t, want, stmts)
}

func TestParseUnaryMinusDesugars(t *testing.T) {
	stmts := parse(t, `var x = 1 - -2;`)
	want := []ast.Stmt{
		&ast.VarDecl{
			Name: "x",
			Initializer: &ast.BinaryExpr{
				Left:  num(1),
				Op:    lexer.Minus,
				Right: neg(num(2)),
			},
		},
	}
	assert.Equal(t, want, stmts)
}

func TestParseAdditiveIsLeftAssociative(t *testing.T) {
	stmts := parse(t, `a + b - c;`)
	want := []ast.Stmt{
		&ast.ExprStmt{Expr: &ast.BinaryExpr{
			Left:  &ast.BinaryExpr{Left: ident("a"), Op: lexer.Plus, Right: ident("b")},
			Op:    lexer.Minus,
			Right: ident("c"),
		}},
	}
	assert.Equal(t, want, stmts)
}

func TestParseNestedNegation(t *testing.T) {
	stmts := parse(t, `--x;`)
	assert.Equal(t, []ast.Stmt{&ast.ExprStmt{Expr: neg(neg(ident("x")))}}, stmts)
}

func TestParsePrimaryLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want ast.Expr
	}{
		{`"s";`, str("s")},
		{`2.5;`, num(2.5)},
		{`true;`, &ast.LiteralExpr{Value: ast.BoolLit(true)}},
		{`false;`, &ast.LiteralExpr{Value: ast.BoolLit(false)}},
		{`null;`, &ast.LiteralExpr{Value: ast.NullLit()}},
		{`name;`, ident("name")},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			stmts := parse(t, tt.src)
			require.Len(t, stmts, 1)
			assert.Equal(t, &ast.ExprStmt{Expr: tt.want}, stmts[0])
		})
	}
}

func TestParseTypedVarDecl(t *testing.T) {
	stmts := parse(t, `var n: number = 3;`)
	assert.Equal(t, []ast.Stmt{
		&ast.VarDecl{Name: "n", Type: &ast.Type{Name: "number"}, Initializer: num(3)},
	}, stmts)
}

func TestParseCalls(t *testing.T) {
	tests := []struct {
		src  string
		want ast.Expr
	}{
		{`f();`, &ast.CallExpr{Callee: ident("f")}},
		{`f(1);`, &ast.CallExpr{Callee: ident("f"), Args: []ast.Expr{num(1)}}},
		{`f(a, "b" + c, -1);`, &ast.CallExpr{Callee: ident("f"), Args: []ast.Expr{
			ident("a"),
			&ast.BinaryExpr{Left: str("b"), Op: lexer.Plus, Right: ident("c")},
			neg(num(1)),
		}}},
		{`f(g(x));`, &ast.CallExpr{Callee: ident("f"), Args: []ast.Expr{
			&ast.CallExpr{Callee: ident("g"), Args: []ast.Expr{ident("x")}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			stmts := parse(t, tt.src)
			require.Len(t, stmts, 1)
			assert.Equal(t, &ast.ExprStmt{Expr: tt.want}, stmts[0])
		})
	}
}

func TestParseFuncDecl(t *testing.T) {
	stmts := parse(t, `
func add(a: number, b): number {
	var sum = a + b;
	sum;
}
func noop() {}
`)

	want := []ast.Stmt{
		&ast.FuncDecl{
			Name: "add",
			Params: []ast.Parameter{
				{Name: "a", Type: &ast.Type{Name: "number"}},
				{Name: "b"},
			},
			ReturnType: &ast.Type{Name: "number"},
			Body: []ast.Stmt{
				&ast.VarDecl{Name: "sum", Initializer: &ast.BinaryExpr{Left: ident("a"), Op: lexer.Plus, Right: ident("b")}},
				&ast.ExprStmt{Expr: ident("sum")},
			},
		},
		&ast.FuncDecl{Name: "noop"},
	}
	assert.Equal(t, want, stmts)
}

func TestParseEmptyInput(t *testing.T) {
	stmts, err := ParseSource("   ")
	require.NoError(t, err)
	assert.Empty(t, stmts)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		src     string
		kind    ErrorKind
		message string
		span    lexer.Span
	}{
		{`var = 1;`, Custom, "Expected variable name.", lexer.Span{Start: 4, End: 5}},
		{`var x 1;`, UnexpectedToken, "Expected '=' after variable name.", lexer.Span{Start: 6, End: 7}},
		{`var x = 1`, UnexpectedEOF, "Expected ';' after variable declaration.", lexer.Span{Start: 9, End: 9}},
		{`var x: = 1;`, Custom, "Expected type name after ':'", lexer.Span{Start: 7, End: 8}},
		{`func () {}`, Custom, "Expected function name.", lexer.Span{Start: 5, End: 6}},
		{`func f {}`, UnexpectedToken, "Expected '(' after function name.", lexer.Span{Start: 7, End: 8}},
		{`func f(1) {}`, Custom, "Expected parameter name.", lexer.Span{Start: 7, End: 8}},
		{`func f(a b) {}`, UnexpectedToken, "Expected ')' after parameters.", lexer.Span{Start: 9, End: 10}},
		{`func f() x`, UnexpectedToken, "Expected '{' before function body.", lexer.Span{Start: 9, End: 10}},
		{`func f() { x;`, UnexpectedEOF, "Expected '}' after function body.", lexer.Span{Start: 13, End: 13}},
		{`x`, UnexpectedEOF, "Expected ';' after expression.", lexer.Span{Start: 1, End: 1}},
		{`x y;`, UnexpectedToken, "Expected ';' after expression.", lexer.Span{Start: 2, End: 3}},
		{`f(1;`, UnexpectedToken, "Expected ')' after function arguments.", lexer.Span{Start: 3, End: 4}},
		{`(1);`, Custom, "Expected expression.", lexer.Span{Start: 0, End: 1}},
		{`1 + ;`, Custom, "Expected expression.", lexer.Span{Start: 4, End: 5}},
		{`var x = `, UnexpectedEOF, "Expected expression.", lexer.Span{Start: 8, End: 8}},
		{`while;`, Custom, "Expected expression.", lexer.Span{Start: 0, End: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			perr := parseErr(t, tt.src)
			assert.Equal(t, tt.kind, perr.Kind)
			assert.Equal(t, tt.message, perr.Message)
			assert.Equal(t, tt.span, perr.Span)
		})
	}
}

func TestParseErrorDetails(t *testing.T) {
	perr := parseErr(t, `var x 1;`)
	assert.Equal(t, []lexer.Kind{lexer.Equal}, perr.Expected)
	assert.Equal(t, lexer.NumberLiteral, perr.Found)
	assert.Equal(t,
		"parse error at [6,7): Expected '=' after variable name. (expected Equal, found NumberLiteral)",
		perr.Error())

	perr = parseErr(t, `;`)
	assert.Equal(t, "parse error at [0,1): Expected expression.", perr.Error())
}

func TestParseStopsAtFirstError(t *testing.T) {
	stmts, err := ParseSource(`var a = 1; var = 2; var c = 3;`, lexer.WithExtendedSyntax())
	assert.Nil(t, stmts)
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, lexer.Span{Start: 15, End: 16}, perr.Span)
}

func TestParseSourceReturnsLexerErrors(t *testing.T) {
	_, err := ParseSource(`var x = 1;`)
	var lerr *lexer.Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, lexer.UnexpectedCharacter, lerr.Kind)
	assert.Equal(t, '=', lerr.Found)
}

func TestMatchingIgnoresPayload(t *testing.T) {
	tokens := []lexer.Token{
		{Kind: lexer.Identifier, Text: "first"},
		{Kind: lexer.Identifier, Text: "second"},
	}
	p := New(tokens)
	assert.True(t, p.check(lexer.Identifier))
	assert.True(t, p.match(lexer.Identifier))
	assert.Equal(t, "second", p.current().Text)
	assert.True(t, p.check(lexer.Identifier))
}

func TestNewAppendsEOF(t *testing.T) {
	p := New([]lexer.Token{{Kind: lexer.Semicolon, Span: lexer.Span{Start: 0, End: 1}}})
	_, err := p.Parse()
	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, Custom, perr.Kind)

	stmts, err := New(nil).Parse()
	require.NoError(t, err)
	assert.Empty(t, stmts)
}

func TestNewLeavesCallerBufferIntact(t *testing.T) {
	buf := make([]lexer.Token, 1, 4)
	buf[0] = lexer.Token{Kind: lexer.Semicolon, Span: lexer.Span{Start: 0, End: 1}}

	New(buf)
	assert.Len(t, buf, 1)
	assert.Equal(t, lexer.Token{}, buf[:2][1])
}

func TestIsIncomplete(t *testing.T) {
	_, err := ParseSource(`func f() {`, lexer.WithExtendedSyntax())
	assert.True(t, IsIncomplete(err))

	_, err = ParseSource(`var s = "open`, lexer.WithExtendedSyntax())
	assert.True(t, IsIncomplete(err))

	_, err = ParseSource(`var = 1;`, lexer.WithExtendedSyntax())
	assert.False(t, IsIncomplete(err))
}
