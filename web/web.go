// Package web provides the embedded playground UI.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"github.com/lemonberrylabs/tinyscript/pkg/ast"
	"github.com/lemonberrylabs/tinyscript/pkg/diag"
	"github.com/lemonberrylabs/tinyscript/pkg/lexer"
	"github.com/lemonberrylabs/tinyscript/pkg/parser"
	"github.com/lemonberrylabs/tinyscript/pkg/runtime"
	"github.com/lemonberrylabs/tinyscript/pkg/store"
	"github.com/lemonberrylabs/tinyscript/pkg/types"
)

//go:embed templates/*.html
var templateFS embed.FS

const sampleSource = `var greeting = "hello";
var name = "world";
var message = greeting + ", " + name;
var answer = 50 - 8;
`

// Handler serves the web UI pages.
type Handler struct {
	store   *store.Store
	funcMap template.FuncMap
}

// pageData wraps all page-specific data with common fields.
type pageData struct {
	NavActive string
	Syntax    string
	Data      interface{}
}

// New creates a new web UI handler. Scripts run with the store's lexer options.
func New(s *store.Store) *Handler {
	return &Handler{
		store: s,
		funcMap: template.FuncMap{
			"timeAgo":    timeAgo,
			"formatTime": formatTime,
			"valueClass": valueClass,
			"truncate":   truncate,
			"countLines": countLines,
		},
	}
}

func (h *Handler) render(c *fiber.Ctx, page string, navActive string, data interface{}) error {
	// Parse templates fresh each time for the page-specific template
	tmpl, err := template.New("").Funcs(h.funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
	if err != nil {
		return c.Status(500).SendString(fmt.Sprintf("template error: %v", err))
	}

	syntax := "core"
	if len(h.store.LexerOptions()) > 0 {
		syntax = "extended"
	}
	pd := pageData{
		NavActive: navActive,
		Syntax:    syntax,
		Data:      data,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, page, pd); err != nil {
		return c.Status(500).SendString(fmt.Sprintf("template error: %v", err))
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Send(buf.Bytes())
}

// Register adds web UI routes to the Fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/ui", h.playground)
	app.Post("/ui", h.runPlayground)
	app.Get("/ui/sessions", h.sessionList)
	app.Get("/ui/sessions/:id", h.sessionDetail)

	// Redirect root to UI
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/ui")
	})
}

// --- Page Data Types ---

type playgroundContent struct {
	Source   string
	Session  string
	Sessions []string
	Ran      bool
	Tokens   []lexer.Token
	AST      string
	Bindings []bindingView
	Error    *diag.Diagnostic
}

type bindingView struct {
	Name  string
	Type  string
	Value string
}

type sessionView struct {
	ID         string
	CreateTime time.Time
	UpdateTime time.Time
	Runs       int
	Bindings   []bindingView
}

type sessionListContent struct {
	Sessions []*sessionView
}

// --- Handlers ---

func (h *Handler) playground(c *fiber.Ctx) error {
	return h.render(c, "playground.html", "playground", &playgroundContent{
		Source:   sampleSource,
		Session:  c.Query("session"),
		Sessions: h.sessionIDs(),
	})
}

func (h *Handler) runPlayground(c *fiber.Ctx) error {
	content := &playgroundContent{
		Source:   c.FormValue("source"),
		Session:  c.FormValue("session"),
		Sessions: h.sessionIDs(),
		Ran:      true,
	}
	opts := h.store.LexerOptions()

	// Tokens and tree are shown up to the first failing stage.
	tokens, err := lexer.Tokenize(content.Source, opts...)
	if err != nil {
		content.Error = describe(err)
		return h.render(c, "playground.html", "playground", content)
	}
	content.Tokens = tokens

	stmts, err := parser.New(tokens).Parse()
	if err != nil {
		content.Error = describe(err)
		return h.render(c, "playground.html", "playground", content)
	}
	if out, err := ast.EncodeYAML(stmts); err == nil {
		content.AST = string(out)
	}

	var bindings map[string]types.Value
	if content.Session != "" {
		sess, err := h.store.GetSession(content.Session)
		if err != nil {
			return c.Status(404).SendString(err.Error())
		}
		res := sess.Run(content.Source)
		bindings, err = res.Bindings, res.Err
		if err != nil {
			content.Error = describe(err)
		}
	} else {
		interp := runtime.NewInterpreter()
		if err := interp.Interpret(stmts); err != nil {
			content.Error = describe(err)
		}
		bindings = interp.Environment().Bindings()
	}
	content.Bindings = bindingViews(bindings)

	return h.render(c, "playground.html", "playground", content)
}

func (h *Handler) sessionList(c *fiber.Ctx) error {
	sessions := h.store.ListSessions()
	views := make([]*sessionView, len(sessions))
	for i, sess := range sessions {
		views[i] = newSessionView(sess)
	}
	return h.render(c, "sessions.html", "sessions", &sessionListContent{Sessions: views})
}

func (h *Handler) sessionDetail(c *fiber.Ctx) error {
	sess, err := h.store.GetSession(c.Params("id"))
	if err != nil {
		return c.Status(404).SendString(err.Error())
	}
	return h.render(c, "session_detail.html", "sessions", newSessionView(sess))
}

// --- Helpers ---

func (h *Handler) sessionIDs() []string {
	sessions := h.store.ListSessions()
	ids := make([]string, len(sessions))
	for i, sess := range sessions {
		ids[i] = sess.ID
	}
	return ids
}

func newSessionView(sess *store.Session) *sessionView {
	return &sessionView{
		ID:         sess.ID,
		CreateTime: sess.CreateTime,
		UpdateTime: sess.UpdateTime(),
		Runs:       sess.Runs(),
		Bindings:   bindingViews(sess.Bindings()),
	}
}

func bindingViews(bindings map[string]types.Value) []bindingView {
	views := make([]bindingView, 0, len(bindings))
	for name, v := range bindings {
		views = append(views, bindingView{Name: name, Type: v.Type().String(), Value: v.Repr()})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	return views
}

func describe(err error) *diag.Diagnostic {
	if d := diag.Describe(err); d != nil {
		return d
	}
	return &diag.Diagnostic{Kind: "Internal", Message: err.Error()}
}

// --- Template Helpers ---

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case d < 24*time.Hour:
		h := int(d.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func valueClass(typ string) string {
	switch typ {
	case "string":
		return "value-string"
	case "number":
		return "value-number"
	case "bool":
		return "value-bool"
	default:
		return "value-null"
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}
