package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/i474232898/weather-dashboard/internal/geo"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestStore(maxIdle time.Duration) (*Store, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 10, 4, 15, 30, 0, 0, time.UTC)}
	return NewStore(maxIdle, clock.Now), clock
}

var tokyo = geo.Location{Coordinate: geo.Coordinate{Latitude: 35.6762, Longitude: 139.6503}, Name: "Tokyo, Japan"}

func TestNewSessionDefaults(t *testing.T) {
	store, _ := newTestStore(0)
	sess := store.Create()

	if _, ok := sess.Location(); ok {
		t.Fatal("new session must not have a location")
	}
	snap := sess.Snapshot()
	if snap.Date != "2025-10-04" {
		t.Fatalf("Date = %s; want today 2025-10-04", snap.Date)
	}
	if snap.Location != nil || snap.Searching || snap.Locating {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	got, err := store.Get(sess.ID())
	if err != nil || got != sess {
		t.Fatalf("Get returned %v, %v", got, err)
	}
	if _, err := store.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTicketPublish(t *testing.T) {
	store, _ := newTestStore(0)
	sess := store.Create()

	var seen []Snapshot
	unsubscribe := sess.Observe(func(s Snapshot) { seen = append(seen, s) })
	defer unsubscribe()

	ticket, err := sess.Begin(context.Background(), ControlSearch)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if !sess.Snapshot().Searching {
		t.Fatal("search control should be busy while resolving")
	}
	if err := ticket.Publish(tokyo); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	ticket.Done()

	loc, ok := sess.Location()
	if !ok || loc != tokyo {
		t.Fatalf("Location = %+v, %v; want %+v", loc, ok, tokyo)
	}
	if sess.Snapshot().Searching {
		t.Fatal("search control should be idle after Done")
	}
	if len(seen) != 1 || seen[0].Location == nil || *seen[0].Location != tokyo {
		t.Fatalf("observer saw %+v", seen)
	}
}

func TestPublishRejectsInvalidLocation(t *testing.T) {
	store, _ := newTestStore(0)
	sess := store.Create()

	ticket, _ := sess.Begin(context.Background(), ControlPick)
	defer ticket.Done()

	if err := ticket.Publish(geo.Location{Coordinate: geo.Coordinate{Latitude: 91}, Name: "x"}); !errors.Is(err, geo.ErrInvalidCoordinate) {
		t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
	}
	if err := ticket.Publish(geo.Location{Name: ""}); !errors.Is(err, geo.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if _, ok := sess.Location(); ok {
		t.Fatal("invalid location must not be published")
	}
}

func TestBusyControlRejectsSecondFlow(t *testing.T) {
	store, _ := newTestStore(0)
	sess := store.Create()

	first, err := sess.Begin(context.Background(), ControlLocate)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := sess.Begin(context.Background(), ControlLocate); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	first.Done()

	second, err := sess.Begin(context.Background(), ControlLocate)
	if err != nil {
		t.Fatalf("Begin after Done: %v", err)
	}
	second.Done()
}

func TestStaleFlowCannotOverwriteNewerSelection(t *testing.T) {
	store, _ := newTestStore(0)
	sess := store.Create()

	locate, _ := sess.Begin(context.Background(), ControlLocate)
	search, _ := sess.Begin(context.Background(), ControlSearch)

	if !locate.Superseded() {
		t.Fatal("older flow should be marked superseded")
	}
	if locate.Context().Err() == nil {
		t.Fatal("older flow context should be cancelled")
	}

	if err := search.Publish(tokyo); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	search.Done()

	london := geo.Location{Coordinate: geo.Coordinate{Latitude: 51.5, Longitude: -0.12}, Name: "London, United Kingdom"}
	if err := locate.Publish(london); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
	locate.Done()

	if loc, _ := sess.Location(); loc != tokyo {
		t.Fatalf("Location = %+v; want %+v", loc, tokyo)
	}
}

func TestRepeatedPublishIsIdempotent(t *testing.T) {
	store, _ := newTestStore(0)
	sess := store.Create()

	for i := 0; i < 2; i++ {
		ticket, err := sess.Begin(context.Background(), ControlSearch)
		if err != nil {
			t.Fatalf("Begin: %v", err)
		}
		if err := ticket.Publish(tokyo); err != nil {
			t.Fatalf("Publish: %v", err)
		}
		ticket.Done()
		if loc, _ := sess.Location(); loc != tokyo {
			t.Fatalf("iteration %d: Location = %+v", i, loc)
		}
	}
}

func TestPublishDate(t *testing.T) {
	store, _ := newTestStore(0)
	sess := store.Create()

	calls := 0
	sess.Observe(func(Snapshot) { calls++ })

	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	sess.PublishDate(d.Add(13 * time.Hour))

	if got := sess.Snapshot().Date; got != "2024-02-29" {
		t.Fatalf("Date = %s; want 2024-02-29", got)
	}
	if calls != 1 {
		t.Fatalf("observer called %d times; want 1", calls)
	}
	if _, err := ParseDate("2024-13-01"); err == nil {
		t.Fatal("expected error for invalid date")
	}
}

func TestNoticesExpire(t *testing.T) {
	store, clock := newTestStore(0)
	sess := store.Create()

	toast := sess.Notify(NoticeToast, "Unable to detect location. Please use the search instead.", 4*time.Second)
	alert := sess.Notify(NoticeAlert, "Location not found. Please try a different search term.", 0)

	if got := len(sess.Notices()); got != 2 {
		t.Fatalf("expected 2 notices, got %d", got)
	}

	clock.Advance(4 * time.Second)
	active := sess.Notices()
	if len(active) != 1 || active[0].ID != alert.ID {
		t.Fatalf("expected only the alert to remain, got %+v", active)
	}

	if removed := store.SweepNotices(); removed != 1 {
		t.Fatalf("SweepNotices removed %d; want 1", removed)
	}
	if sess.Dismiss(toast.ID) {
		t.Fatal("swept toast should no longer be dismissable")
	}
	if !sess.Dismiss(alert.ID) {
		t.Fatal("expected alert to be dismissed")
	}
	if got := len(sess.Notices()); got != 0 {
		t.Fatalf("expected no notices, got %d", got)
	}
}

func TestSweepIdle(t *testing.T) {
	store, clock := newTestStore(30 * time.Minute)
	idle := store.Create()
	active := store.Create()

	ticket, _ := idle.Begin(context.Background(), ControlLocate)

	clock.Advance(20 * time.Minute)
	if _, err := store.Get(active.ID()); err != nil {
		t.Fatalf("Get: %v", err)
	}
	clock.Advance(15 * time.Minute)

	if removed := store.SweepIdle(); removed != 1 {
		t.Fatalf("SweepIdle removed %d; want 1", removed)
	}
	if _, err := store.Get(idle.ID()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("idle session should be gone, got %v", err)
	}
	if ticket.Context().Err() == nil {
		t.Fatal("in-flight flow of swept session should be cancelled")
	}
	if store.Len() != 1 {
		t.Fatalf("Len = %d; want 1", store.Len())
	}
}
