package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is an in-memory registry of sessions keyed by id
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewStore creates a store whose sessions expire after ttl of inactivity.
// A non-positive ttl disables expiry.
func NewStore(ttl time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "session_store")),
	}
}

// TTL returns the idle timeout
func (s *Store) TTL() time.Duration { return s.ttl }

// Get retrieves a session by id
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// GetOrCreate returns the session for id, creating a new one with a fresh id
// when id is empty or unknown. created reports whether a session was made.
// The returned session is marked as in use before the store lock is released,
// so a concurrent Sweep cannot expire it.
func (s *Store) GetOrCreate(id string) (sess *Session, created bool) {
	if id != "" {
		s.mu.RLock()
		sess, ok := s.sessions[id]
		if ok {
			sess.Touch()
		}
		s.mu.RUnlock()
		if ok {
			return sess, false
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess = newSession(uuid.New().String(), s.now)
	s.sessions[sess.ID] = sess

	s.logger.Debug("session created", slog.String("session_id", sess.ID))
	return sess, true
}

// Delete removes a session
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Store) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.idleSince().Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("expired sessions removed",
			slog.Int("removed", removed),
			slog.Int("remaining", len(s.sessions)))
	}
	return removed
}
