package services

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/nathan-eagle/MiM/internal/domain"
)

// Session holds one conversation's resolution memory. Access is serialized
// through the session's own mutex so duplicate suppression is an atomic
// compare against the previous request.
type Session struct {
	mu     sync.Mutex
	memory domain.SessionMemory
}

// ID returns the session identifier.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memory.SessionID
}

// Memory returns a copy of the session memory.
func (s *Session) Memory() domain.SessionMemory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memory
}

// SessionStore keeps per-conversation memory in process. Sessions never
// survive a restart.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	clock    func() time.Time
	entropy  *ulid.MonotonicEntropy
}

// NewSessionStore constructs an empty store. A nil clock defaults to time.Now.
func NewSessionStore(clock func() time.Time) *SessionStore {
	if clock == nil {
		clock = time.Now
	}
	return &SessionStore{
		sessions: make(map[string]*Session),
		clock:    clock,
		entropy:  ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// Get returns the session for the given id, creating it on first use. An
// empty id mints a new ULID-identified session.
func (s *SessionStore) Get(sessionID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sessionID == "" {
		sessionID = s.mintLocked()
	}
	if session, ok := s.sessions[sessionID]; ok {
		return session
	}

	now := s.clock()
	session := &Session{
		memory: domain.SessionMemory{
			SessionID: sessionID,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	s.sessions[sessionID] = session
	return session
}

// Lookup returns an existing session without creating one.
func (s *SessionStore) Lookup(sessionID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

// Reset clears a session's memory back to its initial empty state. The
// session id and creation time are preserved.
func (s *SessionStore) Reset(sessionID string) bool {
	session, ok := s.Lookup(sessionID)
	if !ok {
		return false
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	created := session.memory.CreatedAt
	session.memory = domain.SessionMemory{
		SessionID: sessionID,
		CreatedAt: created,
		UpdatedAt: s.clock(),
	}
	return true
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionStore) mintLocked() string {
	return ulid.MustNew(ulid.Timestamp(s.clock()), s.entropy).String()
}
