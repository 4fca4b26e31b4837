package providers

import (
	"context"
	"errors"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-dashboard/internal/geo"
)

// geocoder keeps its API key in a package variable.
var googleKeyMu sync.Mutex

var errGoogleBusy = errors.New("google geocoder busy with a previous request")

// Google implements geo.ReverseGeocoder with the Google Geocoding API.
// It is only used as a second reverse geocoder when a key is configured.
type Google struct {
	apiKey string
}

func NewGoogle(apiKey string) *Google {
	return &Google{apiKey: apiKey}
}

func (g *Google) Name() string {
	return "google"
}

// Reverse resolves c. The geocoder library has no context support, so the
// call runs in a goroutine and ctx only bounds how long we wait for it.
func (g *Google) Reverse(ctx context.Context, c geo.Coordinate) (geo.Address, error) {
	if g.apiKey == "" {
		return geo.Address{}, errors.New("google geocoder api key is not configured")
	}

	type result struct {
		addrs []geocoder.Address
		err   error
	}
	ch := make(chan result, 1)

	// A call still stuck upstream holds the key; fail fast instead of queueing.
	if !googleKeyMu.TryLock() {
		return geo.Address{}, errGoogleBusy
	}

	go func() {
		geocoder.ApiKey = g.apiKey
		addrs, err := geocoder.GeocodingReverse(geocoder.Location{
			Latitude:  c.Latitude,
			Longitude: c.Longitude,
		})
		googleKeyMu.Unlock()
		ch <- result{addrs: addrs, err: err}
	}()

	select {
	case <-ctx.Done():
		return geo.Address{}, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return geo.Address{}, r.err
		}
		if len(r.addrs) == 0 {
			return geo.Address{}, errors.New("google geocoder returned no address")
		}
		a := r.addrs[0]
		return geo.Address{
			Locality: firstNonEmpty(a.City, a.County),
			Region:   a.State,
			Country:  a.Country,
		}, nil
	}
}
