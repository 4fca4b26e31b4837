package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/i474232898/weather-dashboard/internal/geo"
	"github.com/i474232898/weather-dashboard/internal/upstream"
)

// Nominatim implements geo.Searcher and geo.ReverseGeocoder against an
// OpenStreetMap Nominatim instance.
type Nominatim struct {
	baseURL string
	client  *upstream.Client
}

func NewNominatim(client *upstream.Client, baseURL string) *Nominatim {
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	return &Nominatim{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (n *Nominatim) Name() string {
	return "nominatim"
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Search returns up to limit matches for q, best match first.
func (n *Nominatim) Search(ctx context.Context, q string, limit int) ([]geo.Place, error) {
	values := url.Values{}
	values.Set("format", "json")
	values.Set("q", q)
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}

	resp, err := n.client.Get(ctx, fmt.Sprintf("%s/search?%s", n.baseURL, values.Encode()))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode nominatim search: %w", err)
	}

	places := make([]geo.Place, 0, len(payload))
	for _, r := range payload {
		places = append(places, geo.Place{
			Lat:         r.Lat,
			Lon:         r.Lon,
			DisplayName: r.DisplayName,
		})
	}
	return places, nil
}

type reverseResult struct {
	Error   string `json:"error"`
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		County  string `json:"county"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

// Reverse resolves the address around c at city zoom level.
func (n *Nominatim) Reverse(ctx context.Context, c geo.Coordinate) (geo.Address, error) {
	values := url.Values{}
	values.Set("format", "json")
	values.Set("lat", fmt.Sprintf("%f", c.Latitude))
	values.Set("lon", fmt.Sprintf("%f", c.Longitude))
	values.Set("zoom", "10")
	values.Set("addressdetails", "1")

	resp, err := n.client.Get(ctx, fmt.Sprintf("%s/reverse?%s", n.baseURL, values.Encode()))
	if err != nil {
		return geo.Address{}, err
	}
	defer resp.Body.Close()

	var payload reverseResult
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return geo.Address{}, fmt.Errorf("decode nominatim reverse: %w", err)
	}
	// Nominatim answers 200 with {"error": "Unable to geocode"} over open water.
	if payload.Error != "" {
		return geo.Address{}, fmt.Errorf("nominatim reverse: %s", payload.Error)
	}

	a := payload.Address
	return geo.Address{
		Locality: firstNonEmpty(a.City, a.Town, a.Village, a.County),
		Region:   a.State,
		Country:  a.Country,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
