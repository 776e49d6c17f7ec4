package runtime

import (
	"fmt"

	"github.com/lemonberrylabs/tinyscript/pkg/ast"
	"github.com/lemonberrylabs/tinyscript/pkg/lexer"
	"github.com/lemonberrylabs/tinyscript/pkg/types"
)

// Evaluator reduces expressions to values.
type Evaluator struct{}

// NewEvaluator creates an evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate evaluates an expression node within the given environment.
func (ev *Evaluator) Evaluate(expr ast.Expr, env *Environment) (types.Value, error) {
	switch n := expr.(type) {
	case *ast.LiteralExpr:
		return ValueOf(n.Value), nil
	case *ast.VariableExpr:
		v, ok := env.Get(n.Name)
		if !ok {
			return types.Null, types.NewUndefinedVariableError(n.Name)
		}
		return v, nil
	case *ast.BinaryExpr:
		return ev.evalBinary(n, env)
	case *ast.CallExpr:
		return ev.evalCall(n, env)
	default:
		return types.Null, types.NewUnsupportedError(fmt.Sprintf("unsupported expression node type: %T", expr))
	}
}

// ValueOf converts a literal to its runtime value.
func ValueOf(lit ast.Literal) types.Value {
	switch lit.Kind {
	case ast.LiteralString:
		return types.NewString(lit.StrVal)
	case ast.LiteralNumber:
		return types.NewNumber(lit.NumVal)
	case ast.LiteralBool:
		return types.NewBool(lit.BoolVal)
	default:
		return types.Null
	}
}

func (ev *Evaluator) evalBinary(n *ast.BinaryExpr, env *Environment) (types.Value, error) {
	left, err := ev.Evaluate(n.Left, env)
	if err != nil {
		return types.Null, err
	}
	right, err := ev.Evaluate(n.Right, env)
	if err != nil {
		return types.Null, err
	}

	switch n.Op {
	case lexer.Plus:
		return evalAdd(left, right)
	case lexer.Minus:
		return evalSubtract(left, right)
	default:
		return types.Null, types.NewUnsupportedError(fmt.Sprintf("unsupported binary operator: %s", n.Op))
	}
}

func evalAdd(left, right types.Value) (types.Value, error) {
	if left.Type() == types.TypeNumber && right.Type() == types.TypeNumber {
		return types.NewNumber(left.AsNumber() + right.AsNumber()), nil
	}
	if left.Type() == types.TypeString && right.Type() == types.TypeString {
		return types.NewString(left.AsString() + right.AsString()), nil
	}
	return types.Null, types.NewTypeMismatchError(
		fmt.Sprintf("unsupported operand types for +: %s and %s", left.Type(), right.Type()))
}

func evalSubtract(left, right types.Value) (types.Value, error) {
	if left.Type() == types.TypeNumber && right.Type() == types.TypeNumber {
		return types.NewNumber(left.AsNumber() - right.AsNumber()), nil
	}
	return types.Null, types.NewTypeMismatchError(
		fmt.Sprintf("unsupported operand types for -: %s and %s", left.Type(), right.Type()))
}

// evalCall resolves the callee so unknown names report as undefined.
// No value is callable yet, so a resolved callee always fails.
func (ev *Evaluator) evalCall(n *ast.CallExpr, env *Environment) (types.Value, error) {
	callee, err := ev.Evaluate(n.Callee, env)
	if err != nil {
		return types.Null, err
	}
	rerr := types.NewUnsupportedError(fmt.Sprintf("value of type %s is not callable", callee.Type()))
	if v, ok := n.Callee.(*ast.VariableExpr); ok {
		rerr.Name = v.Name
		rerr.Message = fmt.Sprintf("'%s' is not callable: function calls are not supported", v.Name)
	}
	return types.Null, rerr
}
