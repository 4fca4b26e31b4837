package resolve

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/i474232898/weather-dashboard/internal/geo"
	"github.com/i474232898/weather-dashboard/internal/geo/providers"
	"github.com/i474232898/weather-dashboard/internal/upstream"
)

type slowReverse struct {
	delay time.Duration
	addr  geo.Address
}

func (s slowReverse) Name() string { return "slow" }

func (s slowReverse) Reverse(ctx context.Context, c geo.Coordinate) (geo.Address, error) {
	select {
	case <-time.After(s.delay):
		return s.addr, nil
	case <-ctx.Done():
		return geo.Address{}, ctx.Err()
	}
}

// Device wins cancel the IP prefetch; that must not shut the IP fallback
// off for later flows.
func TestCancelledPrefetchKeepsIPFallbackAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(150 * time.Millisecond):
		case <-r.Context().Done():
			return
		}
		io.WriteString(w, `{"latitude":51.5074,"longitude":-0.1278,"city":"London","country_name":"United Kingdom"}`)
	}))
	defer srv.Close()

	ip := providers.NewIPAPI(upstream.NewClient("ipapi", srv.Client(), upstream.NoRetry, ""), srv.URL)
	rev := slowReverse{delay: 30 * time.Millisecond, addr: geo.Address{Locality: "Paris", Country: "France"}}
	r := NewResolver(nil, []geo.ReverseGeocoder{rev}, ip, Config{DeviceTimeout: time.Second})

	for i := 0; i < 10; i++ {
		loc, err := r.Locate(context.Background(), newSession(), LocateRequest{Device: fixedDevice(48.85, 2.35)})
		if err != nil || loc.Name != "Paris, France" {
			t.Fatalf("locate %d: got %q, %v", i, loc.Name, err)
		}
	}

	loc, err := r.Locate(context.Background(), newSession(), LocateRequest{Device: failingDevice(geo.ErrPermissionDenied)})
	if err != nil {
		t.Fatalf("IP fallback failed: %v", err)
	}
	if loc.Name != "London, United Kingdom" {
		t.Fatalf("Name = %q; want London, United Kingdom", loc.Name)
	}
}

func TestHangingReverseGeocoderFallsBackToIP(t *testing.T) {
	hang := slowReverse{delay: time.Hour}
	cfg := testConfig()
	cfg.ReverseTimeout = 50 * time.Millisecond
	r := NewResolver(nil, []geo.ReverseGeocoder{hang}, newFakeIP(london, nil), cfg)

	done := make(chan struct{})
	var (
		loc geo.Location
		err error
	)
	go func() {
		defer close(done)
		loc, err = r.Locate(context.Background(), newSession(), LocateRequest{Device: fixedDevice(45.76, 4.83)})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Locate did not return while the reverse geocoder hangs")
	}
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.Name != "London, United Kingdom" {
		t.Fatalf("Name = %q; want IP fallback", loc.Name)
	}
}
