// Package chat owns the conversational surface: per-session history,
// deterministic prompt assembly, and the assistant that drives the
// enrichment pipeline into the generation backend.
package chat

import (
	"sync"

	"github.com/google/uuid"

	"github.com/seenimoa/finchat/pkg/models"
)

// NewSessionID mints an identifier for clients that did not supply one.
func NewSessionID() string {
	return uuid.NewString()
}

// Session holds the ordered conversation history for one session.
// Appends serialize on the session lock so concurrent requests for the
// same session never lose turns.
type Session struct {
	mu       sync.Mutex
	id       string
	turns    []models.ConversationTurn
	maxTurns int
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// History returns a copy of the conversation turns in order.
func (s *Session) History() []models.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ConversationTurn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Append records one completed exchange. When the history exceeds the
// turn cap the oldest turns are dropped.
func (s *Session) Append(user, bot string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, models.ConversationTurn{User: user, Bot: bot})
	if s.maxTurns > 0 && len(s.turns) > s.maxTurns {
		s.turns = s.turns[len(s.turns)-s.maxTurns:]
	}
}

// Clear discards the conversation history.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
}

// Len returns the number of recorded turns.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// Store is the in-memory session store. Sessions are created empty on
// first access and live for the life of the process.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	maxTurns int
}

// NewStore creates a session store. maxTurns caps the history kept per
// session; zero means unbounded.
func NewStore(maxTurns int) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		maxTurns: maxTurns,
	}
}

// Get returns the session for id, creating it empty on first access.
func (st *Store) Get(id string) *Session {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		return s
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		return s
	}
	s = &Session{id: id, maxTurns: st.maxTurns}
	st.sessions[id] = s
	return s
}

// Clear empties the history for id. Unknown ids are a no-op.
func (st *Store) Clear(id string) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		s.Clear()
	}
}
