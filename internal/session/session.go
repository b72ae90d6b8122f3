// Package session keeps per-client dataset state in memory.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"dscleaner/internal/dataset"
)

// State is the dataset state of one client
type State struct {
	Current  *dataset.Table
	Train    *dataset.Table
	Test     *dataset.Table
	Outliers *dataset.OutlierFlags
}

// Session serialises operations on one client's state
type Session struct {
	ID string

	mu    sync.Mutex
	state State
	now   func() time.Time
	// unix nanoseconds of the last request or operation; read by Sweep
	// without taking mu
	lastUsed atomic.Int64
}

func newSession(id string, now func() time.Time) *Session {
	s := &Session{ID: id, now: now}
	s.Touch()
	return s
}

// Touch marks the session as in use
func (s *Session) Touch() {
	s.lastUsed.Store(s.now().UnixNano())
}

// Do runs fn against a copy of the state while holding the session lock.
// The copy replaces the stored state only when fn returns nil, so a failed
// operation leaves the session untouched.
func (s *Session) Do(fn func(st *State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state
	s.Touch()
	if err := fn(&st); err != nil {
		return err
	}
	s.state = st
	return nil
}

// Snapshot returns the current state
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// idleSince returns the time of the last request or operation. It never
// waits for a running operation.
func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}
