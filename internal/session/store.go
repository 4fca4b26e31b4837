package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is a concurrency-safe in-memory registry of sessions.
type Store struct {
	mu   sync.RWMutex
	data map[string]*Session

	// maxIdle is how long a session may go untouched (0 = forever).
	maxIdle time.Duration
	now     func() time.Time
}

// NewStore creates a Store. A nil clock uses time.Now.
func NewStore(maxIdle time.Duration, clock func() time.Time) *Store {
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		data:    make(map[string]*Session),
		maxIdle: maxIdle,
		now:     clock,
	}
}

// Create registers a new session whose date defaults to today.
func (s *Store) Create() *Session {
	sess := newSession(uuid.NewString(), s.now)

	s.mu.Lock()
	s.data[sess.id] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session for id and marks it active.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.data[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	sess.touch()
	return sess, nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// SweepIdle removes sessions idle for longer than maxIdle.
func (s *Store) SweepIdle() int {
	if s.maxIdle <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.maxIdle)

	s.mu.Lock()
	var removed []*Session
	for id, sess := range s.data {
		if sess.idleSince().Before(cutoff) {
			removed = append(removed, sess)
			delete(s.data, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range removed {
		sess.close()
	}
	return len(removed)
}

// SweepNotices drops expired notices from every session.
func (s *Store) SweepNotices() int {
	now := s.now()

	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.data))
	for _, sess := range s.data {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	total := 0
	for _, sess := range sessions {
		total += sess.sweepNotices(now)
	}
	return total
}
