package session

import (
	"time"

	"github.com/google/uuid"
)

// NoticeKind distinguishes auto-dismissing toasts from alerts.
type NoticeKind string

const (
	NoticeToast NoticeKind = "toast"
	NoticeAlert NoticeKind = "alert"
)

// Notice is a short user-visible message.
type Notice struct {
	ID        string     `json:"id"`
	Kind      NoticeKind `json:"kind"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"createdAt"`
	// ExpiresAt is zero for notices that stay until dismissed.
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

func (n Notice) expired(now time.Time) bool {
	return !n.ExpiresAt.IsZero() && !now.Before(n.ExpiresAt)
}

// Notify posts a notice. A ttl <= 0 keeps it until Dismiss.
func (s *Session) Notify(kind NoticeKind, message string, ttl time.Duration) Notice {
	now := s.now()
	n := Notice{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		CreatedAt: now,
	}
	if ttl > 0 {
		n.ExpiresAt = now.Add(ttl)
	}

	s.mu.Lock()
	s.notices = append(s.notices, n)
	s.mu.Unlock()
	return n
}

// Notices returns the notices that are still visible.
func (s *Session) Notices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeNoticesLocked(s.now())
}

// Dismiss removes a notice and reports whether it existed.
func (s *Session) Dismiss(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notices {
		if n.ID == id {
			s.notices = append(s.notices[:i], s.notices[i+1:]...)
			return true
		}
	}
	return false
}

// sweepNotices drops expired notices and returns how many were removed.
func (s *Session) sweepNotices(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.notices[:0]
	for _, n := range s.notices {
		if !n.expired(now) {
			kept = append(kept, n)
		}
	}
	removed := len(s.notices) - len(kept)
	s.notices = kept
	return removed
}

func (s *Session) activeNoticesLocked(now time.Time) []Notice {
	out := make([]Notice, 0, len(s.notices))
	for _, n := range s.notices {
		if !n.expired(now) {
			out = append(out, n)
		}
	}
	return out
}
