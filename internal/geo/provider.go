package geo

import (
	"context"
	"errors"
	"time"
)

// Device geolocation failures. All of them are expected and non-fatal.
var (
	ErrPermissionDenied    = errors.New("geolocation permission denied")
	ErrPositionUnavailable = errors.New("geolocation position unavailable")
	ErrTimeout             = errors.New("geolocation timed out")
	ErrUnsupported         = errors.New("geolocation not supported")
)

// PositionOptions mirrors the hints a device geolocation request carries.
type PositionOptions struct {
	HighAccuracy bool
	Timeout      time.Duration
	// MaximumAge is how old a cached fix may be and still be accepted.
	MaximumAge time.Duration
}

// DeviceLocator abstracts the device (browser) geolocation sensor.
type DeviceLocator interface {
	CurrentPosition(ctx context.Context, opts PositionOptions) (Coordinate, error)
}

// ReverseGeocoder turns a coordinate into structured address fields.
type ReverseGeocoder interface {
	Name() string
	Reverse(ctx context.Context, c Coordinate) (Address, error)
}

// Searcher performs forward geocoding of free text.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Place, error)
}

// IPLocator estimates a location from a network address. An empty ip asks
// the service to locate the caller.
type IPLocator interface {
	Lookup(ctx context.Context, ip string) (IPLocation, error)
}
