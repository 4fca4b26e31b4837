package geo

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrInvalidCoordinate is returned when a latitude/longitude pair is out of range.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	// ErrEmptyName is returned when a location is built without a display name.
	ErrEmptyName = errors.New("location name is empty")
)

// Coordinate is a WGS84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// NewCoordinate validates lat/lng and returns the pair.
func NewCoordinate(lat, lng float64) (Coordinate, error) {
	c := Coordinate{Latitude: lat, Longitude: lng}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// Validate reports whether the coordinate is inside [-90,90] x [-180,180].
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return fmt.Errorf("%w: NaN component", ErrInvalidCoordinate)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %f out of range", ErrInvalidCoordinate, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %f out of range", ErrInvalidCoordinate, c.Longitude)
	}
	return nil
}

// Label formats the coordinate for display when no place name is known,
// e.g. "Location (35.68°, 139.65°)".
func (c Coordinate) Label() string {
	return fmt.Sprintf("Location (%.2f°, %.2f°)", c.Latitude, c.Longitude)
}

// Location is a coordinate with a human-readable name. It is a value type;
// a new selection replaces it as a whole.
type Location struct {
	Coordinate
	Name string `json:"name"`
}

// NewLocation builds a fully populated Location or returns an error.
func NewLocation(c Coordinate, name string) (Location, error) {
	if err := c.Validate(); err != nil {
		return Location{}, err
	}
	if strings.TrimSpace(name) == "" {
		return Location{}, ErrEmptyName
	}
	return Location{Coordinate: c, Name: name}, nil
}

// Address holds the structured fields a reverse geocoder resolved.
// Locality is already collapsed from city/town/village/county by the provider.
type Address struct {
	Locality string
	Region   string
	Country  string
}

// ComposeName builds a display name with locality priority:
// "locality, region, country" with empty parts dropped; without a locality
// the country alone; with neither, the coordinate label.
func ComposeName(addr Address, c Coordinate) string {
	locality := strings.TrimSpace(addr.Locality)
	region := strings.TrimSpace(addr.Region)
	country := strings.TrimSpace(addr.Country)

	if locality != "" {
		parts := []string{locality}
		if region != "" {
			parts = append(parts, region)
		}
		if country != "" {
			parts = append(parts, country)
		}
		return strings.Join(parts, ", ")
	}
	if country != "" {
		return country
	}
	return c.Label()
}

// Place is a single forward-geocoding match. Coordinates are kept as the
// provider's raw strings and parsed by the caller.
type Place struct {
	Lat         string
	Lon         string
	DisplayName string
}

// IPLocation is an IP-geolocation estimate.
type IPLocation struct {
	Coordinate
	City    string
	Region  string
	Country string
}

// Address returns the naming fields of the estimate.
func (l IPLocation) Address() Address {
	return Address{Locality: l.City, Region: l.Region, Country: l.Country}
}
