package runtime

import (
	"github.com/tliron/commonlog"

	"github.com/lemonberrylabs/tinyscript/pkg/ast"
	"github.com/lemonberrylabs/tinyscript/pkg/types"
)

// Executor runs statements against an environment.
type Executor struct {
	evaluator *Evaluator
	log       commonlog.Logger
}

// NewExecutor creates an executor with its own evaluator.
func NewExecutor() *Executor {
	return &Executor{
		evaluator: NewEvaluator(),
		log:       commonlog.GetLogger("tinyscript.runtime"),
	}
}

// Execute runs a single statement.
func (x *Executor) Execute(stmt ast.Stmt, env *Environment) error {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		value, err := x.evaluator.Evaluate(s.Initializer, env)
		if err != nil {
			return err
		}
		env.Define(s.Name, value)
		x.log.Debugf("defined %s = %s", s.Name, value)
		return nil
	case *ast.ExprStmt:
		_, err := x.evaluator.Evaluate(s.Expr, env)
		return err
	case *ast.FuncDecl:
		// Declarations are accepted but not bound until function execution exists.
		x.log.Debugf("skipping declaration of func %s", s.Name)
		return nil
	default:
		return types.NewUnsupportedError("unsupported statement")
	}
}

// ExecuteBlock runs statements in order, stopping at the first failure.
// Bindings made before the failure are kept.
func (x *Executor) ExecuteBlock(stmts []ast.Stmt, env *Environment) error {
	for _, stmt := range stmts {
		if err := x.Execute(stmt, env); err != nil {
			return err
		}
	}
	return nil
}
