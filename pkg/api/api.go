// Package api implements the REST API over the tokenize, parse and run
// pipeline and over stored interpreter sessions.
package api

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/tliron/commonlog"

	"github.com/lemonberrylabs/tinyscript/pkg/ast"
	"github.com/lemonberrylabs/tinyscript/pkg/diag"
	"github.com/lemonberrylabs/tinyscript/pkg/lexer"
	"github.com/lemonberrylabs/tinyscript/pkg/parser"
	"github.com/lemonberrylabs/tinyscript/pkg/runtime"
	"github.com/lemonberrylabs/tinyscript/pkg/store"
)

// ScriptExt is the file extension of scripts loaded by LoadDir.
const ScriptExt = ".tiny"

// Server is the HTTP API server.
type Server struct {
	app   *fiber.App
	store *store.Store
	log   commonlog.Logger
}

// New creates a new API server. Stateless endpoints use the store's lexer options.
func New(s *store.Store) *Server {
	srv := &Server{
		store: s,
		log:   commonlog.GetLogger("tinyscript.api"),
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	// Pipeline API
	app.Post("/v1/tokenize", srv.tokenize)
	app.Post("/v1/parse", srv.parse)
	app.Post("/v1/run", srv.run)

	// Sessions API
	app.Post("/v1/sessions", srv.createSession)
	app.Get("/v1/sessions", srv.listSessions)
	app.Get("/v1/sessions/:id", srv.getSession)
	app.Delete("/v1/sessions/:id", srv.deleteSession)
	app.Post("/v1/sessions/:id\\:run", srv.runSession)

	srv.app = app
	return srv
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

type sourceRequest struct {
	Source string `json:"source"`
}

type createSessionRequest struct {
	ID     string `json:"id"`
	Source string `json:"source"`
}

// --- Pipeline Handlers ---

func (s *Server) tokenize(c *fiber.Ctx) error {
	var req sourceRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	tokens, err := lexer.Tokenize(req.Source, s.store.LexerOptions()...)
	if err != nil {
		return stageError(c, err)
	}

	items := make([]map[string]any, len(tokens))
	for i, tok := range tokens {
		items[i] = tok.Map()
	}
	return c.JSON(fiber.Map{"tokens": items})
}

func (s *Server) parse(c *fiber.Ctx) error {
	var req sourceRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	stmts, err := parser.ParseSource(req.Source, s.store.LexerOptions()...)
	if err != nil {
		return stageError(c, err)
	}
	return c.JSON(fiber.Map{"statements": ast.Tree(stmts)})
}

func (s *Server) run(c *fiber.Ctx) error {
	var req sourceRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	interp, err := runtime.Run(req.Source, s.store.LexerOptions()...)
	if err != nil {
		return stageError(c, err)
	}
	return c.JSON(fiber.Map{"bindings": interp.Environment().Bindings()})
}

// --- Session Handlers ---

func (s *Server) createSession(c *fiber.Ctx) error {
	var req createSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidBody(c, err)
		}
	}

	sess, err := s.store.CreateSession(req.ID)
	if err != nil {
		return storeError(c, err)
	}
	if req.Source != "" {
		if res := sess.Run(req.Source); res.Err != nil {
			// The session stays, holding whatever ran before the failure.
			return stageError(c, res.Err)
		}
	}
	return c.Status(fiber.StatusOK).JSON(sessionToJSON(sess))
}

func (s *Server) listSessions(c *fiber.Ctx) error {
	sessions := s.store.ListSessions()

	items := make([]fiber.Map, len(sessions))
	for i, sess := range sessions {
		items[i] = sessionToJSON(sess)
	}
	return c.JSON(fiber.Map{"sessions": items})
}

func (s *Server) getSession(c *fiber.Ctx) error {
	sess, err := s.store.GetSession(c.Params("id"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(sessionToJSON(sess))
}

func (s *Server) deleteSession(c *fiber.Ctx) error {
	if err := s.store.DeleteSession(c.Params("id")); err != nil {
		return storeError(c, err)
	}
	return c.JSON(fiber.Map{})
}

func (s *Server) runSession(c *fiber.Ctx) error {
	sess, err := s.store.GetSession(c.Params("id"))
	if err != nil {
		return storeError(c, err)
	}

	var req sourceRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	if res := sess.Run(req.Source); res.Err != nil {
		return stageError(c, res.Err)
	}
	return c.JSON(sessionToJSON(sess))
}

// LoadDir creates one session per script file in dir and runs the file in it.
// The session ID is the lowercased file name without its extension. Files that
// fail to load are logged and skipped.
func (s *Server) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading scripts directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ScriptExt {
			continue
		}
		name := entry.Name()
		id := strings.ToLower(strings.TrimSuffix(name, ScriptExt))

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			s.log.Warningf("could not read %q: %v", name, err)
			continue
		}

		sess, err := s.store.CreateSession(id)
		if err != nil {
			s.log.Warningf("skipping %q: %v", name, err)
			continue
		}
		if res := sess.Run(string(data)); res.Err != nil {
			s.log.Warningf("running %q: %v", name, res.Err)
		}
		loaded++
		s.log.Infof("loaded session %q from %s", id, name)
	}

	s.log.Infof("loaded %d session(s) from %s", loaded, dir)
	return nil
}

// --- Helpers ---

func errorJSON(c *fiber.Ctx, code int, status, message string, details any) error {
	body := fiber.Map{
		"code":    code,
		"message": message,
		"status":  status,
	}
	if details != nil {
		body["details"] = details
	}
	return c.Status(code).JSON(fiber.Map{"error": body})
}

func invalidBody(c *fiber.Ctx, err error) error {
	return errorJSON(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err), nil)
}

// stageError reports a lexer, parser or runtime failure as INVALID_ARGUMENT.
func stageError(c *fiber.Ctx, err error) error {
	d := diag.Describe(err)
	if d == nil {
		return errorJSON(c, fiber.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
	return errorJSON(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", err.Error(), d)
}

func storeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errorJSON(c, fiber.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, store.ErrAlreadyExists):
		return errorJSON(c, fiber.StatusConflict, "ALREADY_EXISTS", err.Error(), nil)
	case errors.Is(err, store.ErrInvalidID):
		return errorJSON(c, fiber.StatusBadRequest, "INVALID_ARGUMENT", err.Error(), nil)
	default:
		return errorJSON(c, fiber.StatusInternalServerError, "INTERNAL", err.Error(), nil)
	}
}

func sessionToJSON(sess *store.Session) fiber.Map {
	return fiber.Map{
		"id":         sess.ID,
		"createTime": sess.CreateTime.Format(time.RFC3339),
		"updateTime": sess.UpdateTime().Format(time.RFC3339),
		"runs":       sess.Runs(),
		"bindings":   sess.Bindings(),
	}
}
