package ast

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Tree converts statements into plain maps and slices, suitable for YAML,
// JSON and protobuf Struct encoding. Each node is a map with a "node" key.
func Tree(stmts []Stmt) []any {
	out := make([]any, len(stmts))
	for i, s := range stmts {
		out[i] = StmtTree(s)
	}
	return out
}

// StmtTree converts a single statement.
func StmtTree(s Stmt) map[string]any {
	switch n := s.(type) {
	case *VarDecl:
		m := map[string]any{
			"node":        "VarDecl",
			"name":        n.Name,
			"initializer": ExprTree(n.Initializer),
		}
		if n.Type != nil {
			m["type"] = n.Type.Name
		}
		return m
	case *FuncDecl:
		params := make([]any, len(n.Params))
		for i, p := range n.Params {
			pm := map[string]any{"name": p.Name}
			if p.Type != nil {
				pm["type"] = p.Type.Name
			}
			params[i] = pm
		}
		m := map[string]any{
			"node":   "FuncDecl",
			"name":   n.Name,
			"params": params,
			"body":   Tree(n.Body),
		}
		if n.ReturnType != nil {
			m["returnType"] = n.ReturnType.Name
		}
		return m
	case *ExprStmt:
		return map[string]any{
			"node": "ExprStmt",
			"expr": ExprTree(n.Expr),
		}
	default:
		return map[string]any{"node": fmt.Sprintf("%T", s)}
	}
}

// ExprTree converts a single expression.
func ExprTree(e Expr) map[string]any {
	switch n := e.(type) {
	case *LiteralExpr:
		m := map[string]any{"node": "Literal", "kind": n.Value.Kind.String()}
		switch n.Value.Kind {
		case LiteralString:
			m["value"] = n.Value.StrVal
		case LiteralNumber:
			m["value"] = n.Value.NumVal
		case LiteralBool:
			m["value"] = n.Value.BoolVal
		case LiteralNull:
			m["value"] = nil
		}
		return m
	case *VariableExpr:
		return map[string]any{"node": "Variable", "name": n.Name}
	case *BinaryExpr:
		return map[string]any{
			"node":  "Binary",
			"op":    n.Op.String(),
			"left":  ExprTree(n.Left),
			"right": ExprTree(n.Right),
		}
	case *CallExpr:
		args := make([]any, len(n.Args))
		for i, a := range n.Args {
			args[i] = ExprTree(a)
		}
		return map[string]any{
			"node":   "Call",
			"callee": ExprTree(n.Callee),
			"args":   args,
		}
	default:
		return map[string]any{"node": fmt.Sprintf("%T", e)}
	}
}

// EncodeYAML renders statements as a YAML document.
func EncodeYAML(stmts []Stmt) ([]byte, error) {
	return yaml.Marshal(Tree(stmts))
}
