package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/i474232898/weather-dashboard/internal/geo"
)

// Device error codes a client may report instead of a fix.
const (
	DeviceErrDenied      = "denied"
	DeviceErrUnavailable = "unavailable"
	DeviceErrTimeout     = "timeout"
)

// ReportedPosition is a geo.DeviceLocator backed by what the client's
// browser reported with the request. A nil *ReportedPosition means the
// client has no geolocation support.
type ReportedPosition struct {
	Coordinate geo.Coordinate
	// Timestamp is when the device acquired the fix. Zero means "now".
	Timestamp time.Time
	// Error is one of the DeviceErr* codes; a non-empty value wins over the fix.
	Error string
	// Now is overridable for tests.
	Now func() time.Time
}

func (r *ReportedPosition) CurrentPosition(ctx context.Context, opts geo.PositionOptions) (geo.Coordinate, error) {
	if r == nil {
		return geo.Coordinate{}, geo.ErrUnsupported
	}
	if err := ctx.Err(); err != nil {
		return geo.Coordinate{}, err
	}

	switch r.Error {
	case "":
	case DeviceErrDenied:
		return geo.Coordinate{}, geo.ErrPermissionDenied
	case DeviceErrTimeout:
		return geo.Coordinate{}, geo.ErrTimeout
	case DeviceErrUnavailable:
		return geo.Coordinate{}, geo.ErrPositionUnavailable
	default:
		return geo.Coordinate{}, fmt.Errorf("%w: %s", geo.ErrPositionUnavailable, r.Error)
	}

	if opts.MaximumAge > 0 && !r.Timestamp.IsZero() {
		now := time.Now
		if r.Now != nil {
			now = r.Now
		}
		age := now().Sub(r.Timestamp)
		if age < 0 {
			// Device clock ahead of ours; the fix is as fresh as it gets.
			age = 0
		}
		if age > opts.MaximumAge {
			return geo.Coordinate{}, fmt.Errorf("%w: cached fix is %s old", geo.ErrPositionUnavailable, age.Round(time.Second))
		}
	}

	if err := r.Coordinate.Validate(); err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: %v", geo.ErrPositionUnavailable, err)
	}
	return r.Coordinate, nil
}
