// Package parser builds tinyscript syntax trees from tokens using recursive descent.
package parser

import (
	"slices"

	"github.com/lemonberrylabs/tinyscript/pkg/ast"
	"github.com/lemonberrylabs/tinyscript/pkg/lexer"
)

// Parser is a single-lookahead recursive descent parser over a token buffer.
type Parser struct {
	tokens []lexer.Token
	pos    int
}

// New creates a parser over tokens. A trailing EOF token is appended if missing.
func New(tokens []lexer.Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != lexer.EOF {
		end := 0
		if len(tokens) > 0 {
			end = tokens[len(tokens)-1].Span.End
		}
		tokens = append(slices.Clip(tokens), lexer.Token{Kind: lexer.EOF, Span: lexer.Span{Start: end, End: end}})
	}
	return &Parser{tokens: tokens}
}

// ParseSource tokenizes and parses src. Lexer errors are returned unchanged.
func ParseSource(src string, opts ...lexer.Option) ([]ast.Stmt, error) {
	tokens, err := lexer.Tokenize(src, opts...)
	if err != nil {
		return nil, err
	}
	return New(tokens).Parse()
}

// Parse parses statements until EOF. The first error aborts the parse.
func (p *Parser) Parse() ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for !p.isAtEnd() {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

// statement := varDecl | funcDecl | exprStmt
func (p *Parser) parseStatement() (ast.Stmt, error) {
	switch {
	case p.match(lexer.Var):
		return p.parseVarDecl()
	case p.match(lexer.Func):
		return p.parseFuncDecl()
	default:
		return p.parseExprStmt()
	}
}

// varDecl := 'var' IDENT typeAnnotation? '=' expression ';'
func (p *Parser) parseVarDecl() (ast.Stmt, error) {
	name, err := p.identifier("Expected variable name.")
	if err != nil {
		return nil, err
	}

	ty, err := p.parseTypeAnnotation()
	if err != nil {
		return nil, err
	}

	if err := p.consume(lexer.Equal, "Expected '=' after variable name."); err != nil {
		return nil, err
	}
	initializer, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.consume(lexer.Semicolon, "Expected ';' after variable declaration."); err != nil {
		return nil, err
	}

	return &ast.VarDecl{Name: name, Type: ty, Initializer: initializer}, nil
}

// funcDecl := 'func' IDENT '(' params? ')' typeAnnotation? '{' statement* '}'
func (p *Parser) parseFuncDecl() (ast.Stmt, error) {
	name, err := p.identifier("Expected function name.")
	if err != nil {
		return nil, err
	}
	if err := p.consume(lexer.LeftParen, "Expected '(' after function name."); err != nil {
		return nil, err
	}

	var params []ast.Parameter
	if !p.check(lexer.RightParen) {
		for {
			paramName, err := p.identifier("Expected parameter name.")
			if err != nil {
				return nil, err
			}
			paramType, err := p.parseTypeAnnotation()
			if err != nil {
				return nil, err
			}
			params = append(params, ast.Parameter{Name: paramName, Type: paramType})
			if !p.match(lexer.Comma) {
				break
			}
		}
	}
	if err := p.consume(lexer.RightParen, "Expected ')' after parameters."); err != nil {
		return nil, err
	}

	returnType, err := p.parseTypeAnnotation()
	if err != nil {
		return nil, err
	}

	if err := p.consume(lexer.LeftBrace, "Expected '{' before function body."); err != nil {
		return nil, err
	}
	var body []ast.Stmt
	for !p.check(lexer.RightBrace) && !p.isAtEnd() {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	if err := p.consume(lexer.RightBrace, "Expected '}' after function body."); err != nil {
		return nil, err
	}

	return &ast.FuncDecl{Name: name, Params: params, ReturnType: returnType, Body: body}, nil
}

// exprStmt := expression ';'
func (p *Parser) parseExprStmt() (ast.Stmt, error) {
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.consume(lexer.Semicolon, "Expected ';' after expression."); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Expr: expr}, nil
}

// typeAnnotation := (':' IDENT)?
func (p *Parser) parseTypeAnnotation() (*ast.Type, error) {
	if !p.match(lexer.Colon) {
		return nil, nil
	}
	name, err := p.identifier("Expected type name after ':'")
	if err != nil {
		return nil, err
	}
	return &ast.Type{Name: name}, nil
}

// expression := additive
func (p *Parser) parseExpression() (ast.Expr, error) {
	return p.parseAdditive()
}

// additive := unary (('+' | '-') unary)*
func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.check(lexer.Plus) || p.check(lexer.Minus) {
		op := p.advance().Kind
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Left: left, Op: op, Right: right}
	}
	return left, nil
}

// unary := '-' unary | primary
// Negation is represented as 0 - operand.
func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.match(lexer.Minus) {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{
			Left:  &ast.LiteralExpr{Value: ast.NumberLit(0)},
			Op:    lexer.Minus,
			Right: operand,
		}, nil
	}
	return p.parsePrimary()
}

// primary := IDENT ('(' args? ')')? | STRING | NUMBER | 'true' | 'false' | 'null'
func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.current()

	switch tok.Kind {
	case lexer.Identifier:
		p.advance()
		if !p.match(lexer.LeftParen) {
			return &ast.VariableExpr{Name: tok.Text}, nil
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &ast.CallExpr{Callee: &ast.VariableExpr{Name: tok.Text}, Args: args}, nil
	case lexer.StringLiteral:
		p.advance()
		return &ast.LiteralExpr{Value: ast.StringLit(tok.Text)}, nil
	case lexer.NumberLiteral:
		p.advance()
		return &ast.LiteralExpr{Value: ast.NumberLit(tok.Number)}, nil
	case lexer.True:
		p.advance()
		return &ast.LiteralExpr{Value: ast.BoolLit(true)}, nil
	case lexer.False:
		p.advance()
		return &ast.LiteralExpr{Value: ast.BoolLit(false)}, nil
	case lexer.Null:
		p.advance()
		return &ast.LiteralExpr{Value: ast.NullLit()}, nil
	default:
		return nil, p.fail("Expected expression.")
	}
}

// parseArgs parses call arguments after the opening parenthesis.
func (p *Parser) parseArgs() ([]ast.Expr, error) {
	var args []ast.Expr
	if !p.check(lexer.RightParen) {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.match(lexer.Comma) {
				break
			}
		}
	}
	if err := p.consume(lexer.RightParen, "Expected ')' after function arguments."); err != nil {
		return nil, err
	}
	return args, nil
}

// identifier consumes an identifier and returns its text.
func (p *Parser) identifier(message string) (string, error) {
	tok := p.current()
	if tok.Kind != lexer.Identifier {
		return "", p.fail(message)
	}
	p.advance()
	return tok.Text, nil
}

// current returns the token under the cursor. The buffer always ends in EOF.
func (p *Parser) current() lexer.Token {
	return p.tokens[p.pos]
}

// advance consumes the current token and returns it. EOF is never consumed.
func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if !p.isAtEnd() {
		p.pos++
	}
	return tok
}

// check compares kinds only; payloads are ignored.
func (p *Parser) check(kind lexer.Kind) bool {
	if p.isAtEnd() {
		return false
	}
	return p.current().Kind == kind
}

func (p *Parser) match(kind lexer.Kind) bool {
	if !p.check(kind) {
		return false
	}
	p.advance()
	return true
}

// consume advances past a token of the given kind or fails with message.
func (p *Parser) consume(kind lexer.Kind, message string) error {
	if p.check(kind) {
		p.advance()
		return nil
	}
	tok := p.current()
	err := &Error{
		Kind:     UnexpectedToken,
		Message:  message,
		Expected: []lexer.Kind{kind},
		Found:    tok.Kind,
		Span:     tok.Span,
	}
	if tok.Kind == lexer.EOF {
		err.Kind = UnexpectedEOF
	}
	return err
}

// fail reports a failure at the current token for productions without a single expected kind.
func (p *Parser) fail(message string) error {
	tok := p.current()
	kind := Custom
	if tok.Kind == lexer.EOF {
		kind = UnexpectedEOF
	}
	return &Error{Kind: kind, Message: message, Found: tok.Kind, Span: tok.Span}
}

func (p *Parser) isAtEnd() bool {
	return p.current().Kind == lexer.EOF
}
