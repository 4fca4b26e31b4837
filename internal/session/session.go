// Package session holds the per-user dashboard state: the selected location,
// the selected date, busy controls, notices, and observers of that state.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weather-dashboard/internal/geo"
)

var (
	// ErrNotFound is returned when no session exists for an ID.
	ErrNotFound = errors.New("session not found")
	// ErrBusy is returned when a control is already resolving.
	ErrBusy = errors.New("control is busy")
	// ErrSuperseded is returned when a newer flow started after this one.
	ErrSuperseded = errors.New("superseded by a newer selection")
)

// Control identifies the UI action that triggered a resolution flow.
type Control string

const (
	ControlSearch Control = "search"
	ControlLocate Control = "locate"
	ControlPick   Control = "pick"
)

// DateLayout is the wire format of SelectedDate.
const DateLayout = "2006-01-02"

// Observer receives a read-only snapshot after the location or date changes.
type Observer func(Snapshot)

// Snapshot is a copy of the session state safe to hand to observers and clients.
type Snapshot struct {
	ID        string        `json:"id"`
	Location  *geo.Location `json:"location"`
	Date      string        `json:"date"`
	Searching bool          `json:"searching"`
	Locating  bool          `json:"locating"`
	Notices   []Notice      `json:"notices"`
}

// Session is the single owner of a user's location and date.
type Session struct {
	id  string
	now func() time.Time

	mu         sync.Mutex
	location   *geo.Location
	date       time.Time
	seq        uint64
	cancelLast context.CancelCauseFunc
	busy       map[Control]bool
	notices    []Notice
	observers  map[int]Observer
	nextObsID  int
	lastActive time.Time
}

func newSession(id string, now func() time.Time) *Session {
	t := now()
	return &Session{
		id:         id,
		now:        now,
		date:       truncateDay(t),
		busy:       make(map[Control]bool),
		observers:  make(map[int]Observer),
		lastActive: t,
	}
}

func (s *Session) ID() string {
	return s.id
}

// Location returns the current location and whether one is set.
func (s *Session) Location() (geo.Location, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.location == nil {
		return geo.Location{}, false
	}
	return *s.location, true
}

// Date returns the selected calendar date at midnight UTC.
func (s *Session) Date() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.date
}

// PublishDate replaces the selected date.
func (s *Session) PublishDate(d time.Time) {
	s.mu.Lock()
	s.date = truncateDay(d)
	s.lastActive = s.now()
	snap, obs := s.snapshotLocked(), s.observerList()
	s.mu.Unlock()

	notify(obs, snap)
}

// Begin starts a resolution flow for control. It rejects a second flow on a
// busy control, and cancels any other in-flight flow: only the newest ticket
// may publish.
func (s *Session) Begin(parent context.Context, control Control) (*Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy[control] {
		return nil, ErrBusy
	}
	if s.cancelLast != nil {
		s.cancelLast(ErrSuperseded)
	}

	ctx, cancel := context.WithCancelCause(parent)
	s.seq++
	s.cancelLast = cancel
	s.busy[control] = true
	s.lastActive = s.now()

	return &Ticket{
		Seq:     s.seq,
		Control: control,
		ctx:     ctx,
		cancel:  cancel,
		session: s,
	}, nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Observe registers fn and returns a function that removes it.
func (s *Session) Observe(fn Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextObsID
	s.nextObsID++
	s.observers[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActive = s.now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// close cancels the in-flight flow, if any.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelLast != nil {
		s.cancelLast(ErrNotFound)
		s.cancelLast = nil
	}
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:        s.id,
		Date:      s.date.Format(DateLayout),
		Searching: s.busy[ControlSearch],
		Locating:  s.busy[ControlLocate],
		Notices:   s.activeNoticesLocked(s.now()),
	}
	if s.location != nil {
		loc := *s.location
		snap.Location = &loc
	}
	return snap
}

func (s *Session) observerList() []Observer {
	obs := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		obs = append(obs, fn)
	}
	return obs
}

func notify(obs []Observer, snap Snapshot) {
	for _, fn := range obs {
		fn(snap)
	}
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// Ticket is the right of one flow to publish a location.
type Ticket struct {
	Seq     uint64
	Control Control

	ctx     context.Context
	cancel  context.CancelCauseFunc
	session *Session
}

// Context is cancelled when the flow is superseded or finished.
func (t *Ticket) Context() context.Context {
	return t.ctx
}

// Superseded reports whether a newer flow has taken over.
func (t *Ticket) Superseded() bool {
	return errors.Is(context.Cause(t.ctx), ErrSuperseded)
}

// Publish replaces the session location unless a newer ticket was issued.
func (t *Ticket) Publish(loc geo.Location) error {
	if _, err := geo.NewLocation(loc.Coordinate, loc.Name); err != nil {
		return err
	}

	s := t.session
	s.mu.Lock()
	if t.Seq != s.seq {
		s.mu.Unlock()
		return ErrSuperseded
	}
	s.location = &loc
	s.lastActive = s.now()
	snap, obs := s.snapshotLocked(), s.observerList()
	s.mu.Unlock()

	notify(obs, snap)
	return nil
}

// Done returns the control to idle and releases the flow's context.
// It is safe to call more than once.
func (t *Ticket) Done() {
	s := t.session
	s.mu.Lock()
	s.busy[t.Control] = false
	if t.Seq == s.seq {
		s.cancelLast = nil
	}
	s.mu.Unlock()

	t.cancel(context.Canceled)
}
