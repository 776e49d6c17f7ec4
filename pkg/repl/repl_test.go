package repl

import (
	"bytes"
	"io"
	"testing"

	"github.com/peterh/liner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemonberrylabs/tinyscript/pkg/lexer"
)

// scriptedReader replays lines and records the prompts shown.
type scriptedReader struct {
	lines   []string
	errs    map[int]error
	prompts []string
}

func (s *scriptedReader) Prompt(prompt string) (string, error) {
	i := len(s.prompts)
	s.prompts = append(s.prompts, prompt)
	if err, ok := s.errs[i]; ok {
		return "", err
	}
	if i >= len(s.lines) {
		return "", io.EOF
	}
	return s.lines[i], nil
}

func runLines(t *testing.T, lines ...string) (*scriptedReader, string, string, *REPL) {
	t.Helper()
	in := &scriptedReader{lines: lines}
	var out, errOut bytes.Buffer
	r := New(in, &out, &errOut, lexer.WithExtendedSyntax())
	require.NoError(t, r.Run())
	return in, out.String(), errOut.String(), r
}

func TestBindingsPersistAcrossEntries(t *testing.T) {
	_, out, errOut, r := runLines(t,
		`var a = "x";`,
		`var b = a + "y";`,
	)

	assert.Empty(t, errOut)
	assert.Equal(t, "a = \"x\"\nb = \"xy\"\n\n", out)
	assert.True(t, r.Interpreter().Environment().Exists("b"))
}

func TestMultiLineEntry(t *testing.T) {
	in, out, _, _ := runLines(t,
		`var total =`,
		`  1 + 2`,
		`;`,
	)

	assert.Equal(t, []string{"> ", ". ", ". ", "> "}, in.prompts)
	assert.Contains(t, out, "total = 3\n")
}

func TestUnterminatedStringContinues(t *testing.T) {
	in, out, _, _ := runLines(t,
		`var s = "line one`,
		`line two";`,
	)

	assert.Equal(t, ". ", in.prompts[1])
	assert.Contains(t, out, `s = "line one\nline two"`)
}

func TestBlankContinuationSubmits(t *testing.T) {
	_, _, errOut, _ := runLines(t,
		`var a = 1`,
		``,
	)

	assert.Contains(t, errOut, "parse error: parse error at [9,9): Expected ';' after variable declaration.")
}

func TestErrorsAreReported(t *testing.T) {
	_, out, errOut, r := runLines(t,
		`var a = b;`,
		`var c = 1 @ 2;`,
		`var ok = 1;`,
	)

	assert.Contains(t, errOut, "runtime error: Undefined variable 'b'")
	assert.Contains(t, errOut, "lex error: unexpected character '@' at [10,11)")
	assert.Contains(t, out, "ok = 1")
	assert.False(t, r.Interpreter().Environment().Exists("a"))
}

func TestCommands(t *testing.T) {
	_, out, _, _ := runLines(t,
		`:env`,
		`var z = null;`,
		`var a = true;`,
		`:env`,
		`:bogus`,
		`:quit`,
		`var never = 1;`,
	)

	assert.Contains(t, out, "(no bindings)\n")
	assert.Contains(t, out, "a = true\nz = null\n")
	assert.Contains(t, out, "unknown command :bogus")
	assert.NotContains(t, out, "never")
}

func TestCtrlCDiscardsPartialEntry(t *testing.T) {
	in := &scriptedReader{
		lines: []string{`var a =`, "", `var b = 2;`},
		errs:  map[int]error{1: liner.ErrPromptAborted},
	}
	var out, errOut bytes.Buffer
	r := New(in, &out, &errOut, lexer.WithExtendedSyntax())
	require.NoError(t, r.Run())

	assert.Empty(t, errOut.String())
	assert.Equal(t, "> ", in.prompts[2])
	assert.Contains(t, out.String(), "b = 2")
}

func TestHistory(t *testing.T) {
	in := &scriptedReader{lines: []string{"var a =", "1;", ":env"}}
	var out bytes.Buffer
	r := New(in, &out, io.Discard, lexer.WithExtendedSyntax())

	var entries []string
	r.history = func(e string) { entries = append(entries, e) }
	require.NoError(t, r.Run())

	assert.Equal(t, []string{"var a = 1;"}, entries)
}
