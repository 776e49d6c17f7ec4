// Package store provides in-memory storage for interpreter sessions.
package store

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/lemonberrylabs/tinyscript/pkg/lexer"
	"github.com/lemonberrylabs/tinyscript/pkg/runtime"
	"github.com/lemonberrylabs/tinyscript/pkg/types"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

// ErrAlreadyExists is returned when creating a session with a taken ID.
var ErrAlreadyExists = errors.New("session already exists")

// ErrInvalidID is returned for session IDs that are not valid resource names.
var ErrInvalidID = errors.New("invalid session ID")

var validSessionID = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,62}$`)

// Session is a named interpreter whose global environment persists across runs.
type Session struct {
	ID         string
	CreateTime time.Time

	mu         sync.Mutex
	interp     *runtime.Interpreter
	opts       []lexer.Option
	updateTime time.Time
	runs       int
}

// RunResult describes one run of source inside a session.
type RunResult struct {
	Bindings map[string]types.Value
	Err      error
}

// Run executes src in the session's interpreter. Bindings made before a
// failure are kept, matching the interpreter's own behavior.
func (s *Session) Run(src string) RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.interp.RunSource(src, s.opts...)
	s.runs++
	s.updateTime = time.Now()
	return RunResult{Bindings: s.interp.Environment().Bindings(), Err: err}
}

// Bindings returns a snapshot of the session's global bindings.
func (s *Session) Bindings() map[string]types.Value {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interp.Environment().Bindings()
}

// Runs returns how many times source was run in this session.
func (s *Session) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// UpdateTime returns the time of the last run, or the creation time.
func (s *Session) UpdateTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateTime
}

// Store is a thread-safe in-memory storage for sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     []lexer.Option

	// Counter for generating unique IDs
	counter int64
}

// New creates a new empty store. The lexer options apply to every session.
func New(opts ...lexer.Option) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		opts:     opts,
	}
}

// LexerOptions returns the lexer options every session runs with.
func (s *Store) LexerOptions() []lexer.Option {
	return s.opts
}

// CreateSession creates a session. An empty id is replaced by a generated one.
func (s *Store) CreateSession(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		for {
			s.counter++
			id = fmt.Sprintf("session-%d", s.counter)
			if _, taken := s.sessions[id]; !taken {
				break
			}
		}
	}
	if !validSessionID.MatchString(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if _, exists := s.sessions[id]; exists {
		return nil, fmt.Errorf("%w: %q", ErrAlreadyExists, id)
	}

	now := time.Now()
	sess := &Session{
		ID:         id,
		CreateTime: now,
		interp:     runtime.NewInterpreter(),
		opts:       s.opts,
		updateTime: now,
	}
	s.sessions[id] = sess
	return sess, nil
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return sess, nil
}

// ListSessions returns all sessions ordered by ID.
func (s *Store) ListSessions() []*Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		result = append(result, sess)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// DeleteSession removes a session.
func (s *Store) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	delete(s.sessions, id)
	return nil
}
