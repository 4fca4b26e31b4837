// Package resolve turns user actions (search text, "use my location", map
// picks) into a published session location.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weather-dashboard/internal/geo"
	"github.com/i474232898/weather-dashboard/internal/session"
)

var (
	ErrReverseGeocode = errors.New("reverse geocoding failed")
	ErrIPLookup       = errors.New("ip geolocation failed")
	ErrLocateFailed   = errors.New("unable to detect location")
	ErrNotFound       = errors.New("location not found")
	ErrSearch         = errors.New("search failed")
	ErrEmptyQuery     = errors.New("empty search query")
)

// User-facing notice texts.
const (
	MsgLocateFailed = "Unable to detect location. Please use the search instead."
	MsgNotFound     = "Location not found. Please try a different search term."
	MsgSearchError  = "Error searching for location. Please try again."
)

// Config holds the timing knobs of the resolver.
type Config struct {
	// DeviceTimeout bounds the device geolocation attempt.
	DeviceTimeout time.Duration
	// DeviceMaxAge is the oldest cached device fix accepted.
	DeviceMaxAge time.Duration
	// NoticeTTL is how long the locate failure toast stays visible.
	NoticeTTL time.Duration
	// ReverseTimeout bounds each reverse geocoder call.
	ReverseTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.DeviceTimeout <= 0 {
		c.DeviceTimeout = 2 * time.Second
	}
	if c.DeviceMaxAge <= 0 {
		c.DeviceMaxAge = time.Minute
	}
	if c.NoticeTTL <= 0 {
		c.NoticeTTL = 4 * time.Second
	}
	if c.ReverseTimeout <= 0 {
		c.ReverseTimeout = 10 * time.Second
	}
	return c
}

// Resolver owns the location resolution flows. It is safe for concurrent use.
type Resolver struct {
	searcher geo.Searcher
	reverse  []geo.ReverseGeocoder
	ip       geo.IPLocator
	cfg      Config
}

// NewResolver creates a Resolver. Reverse geocoders are tried in order.
func NewResolver(searcher geo.Searcher, reverse []geo.ReverseGeocoder, ip geo.IPLocator, cfg Config) *Resolver {
	return &Resolver{
		searcher: searcher,
		reverse:  reverse,
		ip:       ip,
		cfg:      cfg.withDefaults(),
	}
}

// LocateRequest carries what the client supplied for "use my location".
type LocateRequest struct {
	// Device is nil when the client has no geolocation support.
	Device   geo.DeviceLocator
	ClientIP string
}

// Locate resolves the caller's current location and publishes it to sess.
// If every strategy fails a toast notice is posted and nothing is published.
func (r *Resolver) Locate(ctx context.Context, sess *session.Session, req LocateRequest) (geo.Location, error) {
	ticket, err := sess.Begin(ctx, session.ControlLocate)
	if err != nil {
		return geo.Location{}, err
	}
	defer ticket.Done()

	loc, err := r.locate(ticket.Context(), req)
	if err != nil {
		if ticket.Superseded() {
			return geo.Location{}, session.ErrSuperseded
		}
		log.Printf("ERROR: resolver: location detection failed for session %s: %v", sess.ID(), err)
		sess.Notify(session.NoticeToast, MsgLocateFailed, r.cfg.NoticeTTL)
		return geo.Location{}, err
	}

	if err := ticket.Publish(loc); err != nil {
		return geo.Location{}, err
	}
	return loc, nil
}

func (r *Resolver) locate(ctx context.Context, req LocateRequest) (geo.Location, error) {
	// The prefetch is abandoned once the flow returns.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prefetch := startFuture(ctx, func(ctx context.Context) (geo.IPLocation, error) {
		if r.ip == nil {
			return geo.IPLocation{}, errors.New("ip locator not configured")
		}
		return r.ip.Lookup(ctx, req.ClientIP)
	})

	chain := []Strategy{
		strategyFunc{name: "device", fn: func(ctx context.Context) (geo.Location, error) {
			return r.fromDevice(ctx, req.Device)
		}},
		strategyFunc{name: "ip", fn: func(ctx context.Context) (geo.Location, error) {
			return fromIP(ctx, prefetch)
		}},
	}

	out, attempts := runChain(ctx, chain)
	for _, a := range attempts {
		if !a.OK() {
			log.Printf("INFO: resolver: strategy %s failed: %v", a.Strategy, a.Err)
		}
	}
	if !out.OK() {
		return geo.Location{}, fmt.Errorf("%w: %w", ErrLocateFailed, out.Err)
	}
	log.Printf("DEBUG: resolver: resolved %q via %s", out.Location.Name, out.Strategy)
	return out.Location, nil
}

func (r *Resolver) fromDevice(ctx context.Context, device geo.DeviceLocator) (geo.Location, error) {
	if device == nil {
		return geo.Location{}, geo.ErrUnsupported
	}

	opts := geo.PositionOptions{
		HighAccuracy: false,
		Timeout:      r.cfg.DeviceTimeout,
		MaximumAge:   r.cfg.DeviceMaxAge,
	}
	c, err := raceDeadline(ctx, r.cfg.DeviceTimeout, func(ctx context.Context) (geo.Coordinate, error) {
		return device.CurrentPosition(ctx, opts)
	})
	if err != nil {
		return geo.Location{}, err
	}
	if err := c.Validate(); err != nil {
		return geo.Location{}, fmt.Errorf("%w: %v", geo.ErrPositionUnavailable, err)
	}

	addr, err := r.reverseGeocode(ctx, c)
	if err != nil {
		return geo.Location{}, err
	}
	return geo.NewLocation(c, geo.ComposeName(addr, c))
}

func (r *Resolver) reverseGeocode(ctx context.Context, c geo.Coordinate) (geo.Address, error) {
	if len(r.reverse) == 0 {
		return geo.Address{}, fmt.Errorf("%w: no reverse geocoder configured", ErrReverseGeocode)
	}

	var errs []error
	for _, rg := range r.reverse {
		callCtx, cancel := context.WithTimeout(ctx, r.cfg.ReverseTimeout)
		addr, err := rg.Reverse(callCtx, c)
		cancel()
		if err == nil {
			return addr, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", rg.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	return geo.Address{}, fmt.Errorf("%w: %w", ErrReverseGeocode, errors.Join(errs...))
}

func fromIP(ctx context.Context, prefetch *future[geo.IPLocation]) (geo.Location, error) {
	ipl, err := prefetch.Wait(ctx)
	if err != nil {
		return geo.Location{}, fmt.Errorf("%w: %w", ErrIPLookup, err)
	}
	loc, err := geo.NewLocation(ipl.Coordinate, geo.ComposeName(ipl.Address(), ipl.Coordinate))
	if err != nil {
		return geo.Location{}, fmt.Errorf("%w: %w", ErrIPLookup, err)
	}
	return loc, nil
}

// Search geocodes query and publishes the first match to sess. A blank
// query is a no-op and returns ErrEmptyQuery without touching sess.
func (r *Resolver) Search(ctx context.Context, sess *session.Session, query string) (geo.Location, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return geo.Location{}, ErrEmptyQuery
	}

	ticket, err := sess.Begin(ctx, session.ControlSearch)
	if err != nil {
		return geo.Location{}, err
	}
	defer ticket.Done()

	loc, err := r.search(ticket.Context(), q)
	if err != nil {
		if ticket.Superseded() {
			return geo.Location{}, session.ErrSuperseded
		}
		if errors.Is(err, ErrNotFound) {
			sess.Notify(session.NoticeAlert, MsgNotFound, 0)
		} else {
			log.Printf("ERROR: resolver: search %q failed: %v", q, err)
			sess.Notify(session.NoticeAlert, MsgSearchError, 0)
		}
		return geo.Location{}, err
	}

	if err := ticket.Publish(loc); err != nil {
		return geo.Location{}, err
	}
	return loc, nil
}

func (r *Resolver) search(ctx context.Context, q string) (geo.Location, error) {
	if r.searcher == nil {
		return geo.Location{}, fmt.Errorf("%w: searcher not configured", ErrSearch)
	}

	places, err := r.searcher.Search(ctx, q, 1)
	if err != nil {
		return geo.Location{}, fmt.Errorf("%w: %w", ErrSearch, err)
	}
	if len(places) == 0 {
		return geo.Location{}, fmt.Errorf("%w: %q", ErrNotFound, q)
	}

	first := places[0]
	lat, err := strconv.ParseFloat(strings.TrimSpace(first.Lat), 64)
	if err != nil {
		return geo.Location{}, fmt.Errorf("%w: latitude %q: %v", ErrSearch, first.Lat, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(first.Lon), 64)
	if err != nil {
		return geo.Location{}, fmt.Errorf("%w: longitude %q: %v", ErrSearch, first.Lon, err)
	}
	c, err := geo.NewCoordinate(lat, lng)
	if err != nil {
		return geo.Location{}, fmt.Errorf("%w: %v", ErrSearch, err)
	}

	name := first.DisplayName
	if strings.TrimSpace(name) == "" {
		name = c.Label()
	}
	return geo.Location{Coordinate: c, Name: name}, nil
}

// Pick publishes a location chosen directly on the map. An empty name is
// replaced by the coordinate label.
func (r *Resolver) Pick(ctx context.Context, sess *session.Session, c geo.Coordinate, name string) (geo.Location, error) {
	if err := c.Validate(); err != nil {
		return geo.Location{}, err
	}
	if strings.TrimSpace(name) == "" {
		name = c.Label()
	}

	ticket, err := sess.Begin(ctx, session.ControlPick)
	if err != nil {
		return geo.Location{}, err
	}
	defer ticket.Done()

	loc := geo.Location{Coordinate: c, Name: name}
	if err := ticket.Publish(loc); err != nil {
		return geo.Location{}, err
	}
	return loc, nil
}
