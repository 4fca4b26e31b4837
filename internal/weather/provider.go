package weather

import (
	"context"
	"time"

	"github.com/i474232898/weather-dashboard/internal/geo"
)

// DailyReading represents a single provider's normalized reading for one day
// that can be aggregated into a DailySummary.
type DailyReading struct {
	ProviderName string
	FetchedAt    time.Time

	TempMaxC     float64
	TempMinC     float64
	HumidityPct  float64
	WindSpeedMax float64 // m/s
	PrecipMm     float64
	Condition    Condition
}

// Provider abstracts a weather data source (e.g. Open-Meteo, WeatherAPI).
// date is a calendar day at midnight UTC.
type Provider interface {
	Name() string
	FetchDaily(ctx context.Context, c geo.Coordinate, date time.Time) (DailyReading, error)
}
