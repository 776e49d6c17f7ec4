package runtime

import (
	"github.com/lemonberrylabs/tinyscript/pkg/ast"
	"github.com/lemonberrylabs/tinyscript/pkg/lexer"
	"github.com/lemonberrylabs/tinyscript/pkg/parser"
)

// Interpreter owns one global environment and one executor for its lifetime.
type Interpreter struct {
	env      *Environment
	executor *Executor
}

// NewInterpreter creates an interpreter with an empty global environment.
func NewInterpreter() *Interpreter {
	return &Interpreter{
		env:      NewEnvironment(),
		executor: NewExecutor(),
	}
}

// Interpret executes statements in the global environment.
func (i *Interpreter) Interpret(stmts []ast.Stmt) error {
	return i.executor.ExecuteBlock(stmts, i.env)
}

// Environment returns the interpreter's global environment.
func (i *Interpreter) Environment() *Environment {
	return i.env
}

// RunSource tokenizes, parses and executes src in this interpreter.
// Nothing is executed if tokenizing or parsing fails.
func (i *Interpreter) RunSource(src string, opts ...lexer.Option) error {
	stmts, err := parser.ParseSource(src, opts...)
	if err != nil {
		return err
	}
	return i.Interpret(stmts)
}

// Run executes src in a fresh interpreter and returns it for inspection.
// The interpreter is returned even when execution fails part way.
func Run(src string, opts ...lexer.Option) (*Interpreter, error) {
	interp := NewInterpreter()
	return interp, interp.RunSource(src, opts...)
}
