// Package repl implements the interactive read-eval-print loop.
package repl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/lemonberrylabs/tinyscript/pkg/ast"
	"github.com/lemonberrylabs/tinyscript/pkg/diag"
	"github.com/lemonberrylabs/tinyscript/pkg/lexer"
	"github.com/lemonberrylabs/tinyscript/pkg/parser"
	"github.com/lemonberrylabs/tinyscript/pkg/runtime"
)

const (
	promptMain = "> "
	promptCont = ". "
)

// LineReader reads one line of input after showing a prompt.
// *liner.State satisfies it.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// REPL evaluates entries in one interpreter, so bindings persist.
type REPL struct {
	in      LineReader
	out     io.Writer
	errOut  io.Writer
	interp  *runtime.Interpreter
	opts    []lexer.Option
	history func(entry string)
}

// New creates a REPL reading from in.
func New(in LineReader, out, errOut io.Writer, opts ...lexer.Option) *REPL {
	return &REPL{
		in:      in,
		out:     out,
		errOut:  errOut,
		interp:  runtime.NewInterpreter(),
		opts:    opts,
		history: func(string) {},
	}
}

// Interpreter returns the interpreter entries run in.
func (r *REPL) Interpreter() *runtime.Interpreter {
	return r.interp
}

// Run reads and evaluates entries until end of input or :quit.
func (r *REPL) Run() error {
	for {
		entry, err := r.read()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(r.out)
			return nil
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(entry)
		switch {
		case trimmed == "":
			continue
		case strings.HasPrefix(trimmed, ":"):
			if r.command(trimmed) {
				return nil
			}
			continue
		}

		r.eval(entry)
		r.history(strings.ReplaceAll(entry, "\n", " "))
	}
}

// read collects lines until they form a complete entry. Input that fails only
// because it ended early keeps reading; a blank continuation line submits it.
func (r *REPL) read() (string, error) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := r.in.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			b.Reset()
			continue
		}
		if err != nil {
			return "", err
		}

		if b.Len() > 0 {
			if strings.TrimSpace(line) == "" {
				return b.String(), nil
			}
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			return src, nil
		}
		if _, perr := parser.ParseSource(src, r.opts...); perr != nil && parser.IsIncomplete(perr) {
			continue
		}
		return src, nil
	}
}

// command runs a colon command and reports whether the REPL should exit.
func (r *REPL) command(cmd string) bool {
	switch strings.ToLower(cmd) {
	case ":quit", ":q":
		return true
	case ":env":
		env := r.interp.Environment()
		names := env.Names()
		if len(names) == 0 {
			fmt.Fprintln(r.out, "(no bindings)")
		}
		for _, name := range names {
			v, _ := env.Get(name)
			fmt.Fprintf(r.out, "%s = %s\n", name, v.Repr())
		}
	case ":help":
		fmt.Fprintln(r.out, ":env   show bindings\n:quit  exit")
	default:
		fmt.Fprintf(r.out, "unknown command %s. Type :help for commands.\n", cmd)
	}
	return false
}

func (r *REPL) eval(src string) {
	stmts, err := parser.ParseSource(src, r.opts...)
	if err != nil {
		r.report(err)
		return
	}
	if err := r.interp.Interpret(stmts); err != nil {
		r.report(err)
		return
	}

	env := r.interp.Environment()
	for _, stmt := range stmts {
		decl, ok := stmt.(*ast.VarDecl)
		if !ok {
			continue
		}
		if v, ok := env.Get(decl.Name); ok {
			fmt.Fprintf(r.out, "%s = %s\n", decl.Name, v.Repr())
		}
	}
}

func (r *REPL) report(err error) {
	if d := diag.Describe(err); d != nil {
		fmt.Fprintf(r.errOut, "%s error: %s\n", d.Stage, err)
		return
	}
	fmt.Fprintf(r.errOut, "error: %s\n", err)
}

// Interactive runs a REPL on the terminal with line editing. History is
// loaded from and saved to historyPath when it is not empty.
func Interactive(historyPath string, opts ...lexer.Option) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(historyPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	fmt.Println("tinyscript REPL. Type :help for commands.")
	r := New(ln, os.Stdout, os.Stderr, opts...)
	r.history = ln.AppendHistory
	return r.Run()
}
