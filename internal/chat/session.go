package chat

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ErrSessionNotFound is returned for unknown or evicted session IDs.
var ErrSessionNotFound = errors.New("chat session not found")

// maxHistory bounds the messages kept per session; older turns are dropped first.
const maxHistory = 40

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type session struct {
	history    []Message
	lastActive time.Time
}

// SessionStore keeps conversation history per session in memory. Callers own
// the lifecycle: sessions are created explicitly or on first use, and removed
// by Evict or by EvictIdle once they have been inactive for longer than the TTL.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	clock    clockwork.Clock
}

// NewSessionStore creates an empty store. A nil clock uses real time.
func NewSessionStore(ttl time.Duration, clock clockwork.Clock) *SessionStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SessionStore{
		sessions: make(map[string]*session),
		ttl:      ttl,
		clock:    clock,
	}
}

// Create starts a new session and returns its ID.
func (s *SessionStore) Create() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(uuid.NewString())
}

// GetOrCreate returns id and a copy of its history if the session exists,
// otherwise creates it. An empty id always creates a session with a fresh ID.
func (s *SessionStore) GetOrCreate(id string) (string, []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		return s.createLocked(uuid.NewString()), nil
	}
	if sess, ok := s.sessions[id]; ok {
		sess.lastActive = s.clock.Now()
		return id, slices.Clone(sess.history)
	}
	return s.createLocked(id), nil
}

func (s *SessionStore) createLocked(id string) string {
	s.sessions[id] = &session{lastActive: s.clock.Now()}
	return id
}

// History returns a copy of the session's messages, oldest first.
func (s *SessionStore) History(id string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return slices.Clone(sess.history), nil
}

// Append adds messages to the session and marks it active.
func (s *SessionStore) Append(id string, msgs ...Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	sess.history = append(sess.history, msgs...)
	if over := len(sess.history) - maxHistory; over > 0 {
		sess.history = slices.Delete(sess.history, 0, over)
	}
	sess.lastActive = s.clock.Now()
	return nil
}

// Clear drops the session's history but keeps the session.
func (s *SessionStore) Clear(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	sess.history = nil
	sess.lastActive = s.clock.Now()
	return nil
}

// Evict removes a session. It reports whether the session existed.
func (s *SessionStore) Evict(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// EvictIdle removes sessions inactive for longer than the TTL and returns how
// many were removed. A non-positive TTL disables idle eviction.
func (s *SessionStore) EvictIdle() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.clock.Now().Add(-s.ttl)
	n := 0
	for id, sess := range s.sessions {
		if sess.lastActive.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
