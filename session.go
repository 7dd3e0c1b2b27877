package main

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is one player's puzzle: an engine holding the equation being built
// and the outcome of its last evaluation.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	engine *Engine

	mu      sync.Mutex
	last    *Outcome
	lastErr string
}

// SessionView is the JSON shape of a session.
type SessionView struct {
	ID          string    `json:"id"`
	Tiles       []Tile    `json:"tiles"`
	Equation    string    `json:"equation"`
	State       State     `json:"state"`
	LastOutcome *Outcome  `json:"last_outcome,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Engine returns the session's evaluation engine.
func (s *Session) Engine() *Engine { return s.engine }

// Record stores the result of an evaluation attempt. ErrBusy attempts are
// not recorded since they did nothing.
func (s *Session) Record(out *Outcome, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = out
	s.lastErr = ""
	if err != nil {
		s.lastErr = err.Error()
	}
}

// View returns a snapshot of the session.
func (s *Session) View() SessionView {
	tiles := s.engine.Tiles()
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionView{
		ID:          s.ID,
		Tiles:       tiles,
		Equation:    NewEquation(tiles...).String(),
		State:       s.engine.State(),
		LastOutcome: s.last,
		LastError:   s.lastErr,
		CreatedAt:   s.CreatedAt,
	}
}

// SessionRegistry holds all puzzle sessions in memory.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	lookup   LetterLookup
	log      *zap.Logger
}

// NewSessionRegistry creates an empty registry whose sessions resolve letters
// through lookup.
func NewSessionRegistry(lookup LetterLookup, log *zap.Logger) *SessionRegistry {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionRegistry{
		sessions: make(map[string]*Session),
		lookup:   lookup,
		log:      log,
	}
}

// Create starts a new session with an empty equation.
func (r *SessionRegistry) Create() *Session {
	id := uuid.NewString()
	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
		engine:    NewEngine(r.lookup, r.log.With(zap.String("session", id))),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()

	return s
}

// Get returns a session by ID, or nil if not found.
func (r *SessionRegistry) Get(id string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

// List returns all sessions, most recent first.
func (r *SessionRegistry) List() []*Session {
	r.mu.RLock()
	list := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		list = append(list, s)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list
}

// Delete removes a session.
func (r *SessionRegistry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}
