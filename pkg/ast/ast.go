// Package ast defines the tinyscript syntax tree produced by the parser.
// Every node exclusively owns its children; trees are never shared or cyclic.
package ast

import "github.com/lemonberrylabs/tinyscript/pkg/lexer"

// LiteralKind identifies which field of a Literal is meaningful.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralBool
	LiteralNull
)

func (k LiteralKind) String() string {
	switch k {
	case LiteralString:
		return "String"
	case LiteralNumber:
		return "Number"
	case LiteralBool:
		return "Bool"
	case LiteralNull:
		return "Null"
	default:
		return "Unknown"
	}
}

// Literal is a constant value written in the source.
type Literal struct {
	Kind    LiteralKind
	StrVal  string
	NumVal  float64
	BoolVal bool
}

// StringLit returns a string literal.
func StringLit(s string) Literal { return Literal{Kind: LiteralString, StrVal: s} }

// NumberLit returns a number literal.
func NumberLit(n float64) Literal { return Literal{Kind: LiteralNumber, NumVal: n} }

// BoolLit returns a boolean literal.
func BoolLit(b bool) Literal { return Literal{Kind: LiteralBool, BoolVal: b} }

// NullLit returns the null literal.
func NullLit() Literal { return Literal{Kind: LiteralNull} }

// Type is a type annotation. The name is not validated.
type Type struct {
	Name string
}

// Parameter is a function parameter. Type is nil when unannotated.
type Parameter struct {
	Name string
	Type *Type
}

// Expr is implemented by all expression nodes.
type Expr interface {
	exprNode()
}

// LiteralExpr is a literal value.
type LiteralExpr struct {
	Value Literal
}

// VariableExpr is a reference to a named binding.
type VariableExpr struct {
	Name string
}

// BinaryExpr is a binary operation. Unary minus is parsed as 0 - operand.
type BinaryExpr struct {
	Left  Expr
	Op    lexer.Kind
	Right Expr
}

// CallExpr is a call. The parser only produces bare identifier callees.
type CallExpr struct {
	Callee Expr
	Args   []Expr
}

func (*LiteralExpr) exprNode() {}
func (*VariableExpr) exprNode() {}
func (*BinaryExpr) exprNode() {}
func (*CallExpr) exprNode() {}

// Stmt is implemented by all statement nodes.
type Stmt interface {
	stmtNode()
}

// VarDecl declares a variable: var name [: Type] = initializer;
type VarDecl struct {
	Name        string
	Type        *Type
	Initializer Expr
}

// FuncDecl declares a function. Declarations parse fully but are not executed.
type FuncDecl struct {
	Name       string
	Params     []Parameter
	ReturnType *Type
	Body       []Stmt
}

// ExprStmt is an expression evaluated for its effect.
type ExprStmt struct {
	Expr Expr
}

func (*VarDecl) stmtNode() {}
func (*FuncDecl) stmtNode() {}
func (*ExprStmt) stmtNode() {}
