package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/netip"
	"strings"

	"github.com/i474232898/weather-dashboard/internal/geo"
	"github.com/i474232898/weather-dashboard/internal/upstream"
)

// IPAPI implements geo.IPLocator using ipapi.co.
type IPAPI struct {
	baseURL string
	client  *upstream.Client
}

func NewIPAPI(client *upstream.Client, baseURL string) *IPAPI {
	if baseURL == "" {
		baseURL = "https://ipapi.co"
	}
	return &IPAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

type ipapiResponse struct {
	Error       bool     `json:"error"`
	Reason      string   `json:"reason"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	City        string   `json:"city"`
	Region      string   `json:"region"`
	CountryName string   `json:"country_name"`
}

// Lookup locates ip. Addresses that cannot be geolocated publicly (loopback,
// private ranges, unparsable) are replaced by the caller endpoint.
func (p *IPAPI) Lookup(ctx context.Context, ip string) (geo.IPLocation, error) {
	u := p.baseURL + "/json/"
	if addr, ok := publicAddr(ip); ok {
		u = fmt.Sprintf("%s/%s/json/", p.baseURL, addr)
	}

	resp, err := p.client.Get(ctx, u)
	if err != nil {
		return geo.IPLocation{}, err
	}
	defer resp.Body.Close()

	var payload ipapiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return geo.IPLocation{}, fmt.Errorf("decode ipapi: %w", err)
	}
	if payload.Error {
		return geo.IPLocation{}, fmt.Errorf("ipapi: %s", payload.Reason)
	}
	if payload.Latitude == nil || payload.Longitude == nil {
		return geo.IPLocation{}, fmt.Errorf("ipapi: response has no coordinates")
	}

	c, err := geo.NewCoordinate(*payload.Latitude, *payload.Longitude)
	if err != nil {
		return geo.IPLocation{}, err
	}

	return geo.IPLocation{
		Coordinate: c,
		City:       payload.City,
		Region:     payload.Region,
		Country:    payload.CountryName,
	}, nil
}

func publicAddr(ip string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return "", false
	}
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() || addr.IsLinkLocalUnicast() {
		return "", false
	}
	return addr.Unmap().String(), true
}
