package weather

import (
	"time"

	"github.com/i474232898/weather-dashboard/internal/geo"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// DailySummary is the aggregated weather view of one location on one date.
type DailySummary struct {
	Location     geo.Location `json:"location"`
	Date         string       `json:"date"`
	TempMaxC     float64      `json:"temperatureMaxC"`
	TempMinC     float64      `json:"temperatureMinC"`
	HumidityPct  float64      `json:"humidityPercent"`
	WindSpeedMax float64      `json:"windSpeedMaxMs"`
	PrecipMM     float64      `json:"precipMm"`
	Condition    Condition    `json:"condition"`

	// Providers contributing to this summary.
	Providers []ProviderContribution `json:"providers,omitempty"`
}

// ProviderContribution describes data coming from a single provider used in aggregation.
type ProviderContribution struct {
	ProviderName string    `json:"provider"`
	FetchedAt    time.Time `json:"fetchedAt"`
}
