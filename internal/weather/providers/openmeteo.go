package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/i474232898/weather-dashboard/internal/geo"
	"github.com/i474232898/weather-dashboard/internal/upstream"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// OpenMeteoProvider implements the weather.Provider interface for Open-Meteo.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	client  *upstream.Client
}

func NewOpenMeteoProvider(client *upstream.Client, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = "https://api.open-meteo.com/v1/forecast"
	}
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: baseURL,
		client:  client,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

func (p *OpenMeteoProvider) FetchDaily(ctx context.Context, c geo.Coordinate, date time.Time) (weather.DailyReading, error) {
	day := date.UTC().Format("2006-01-02")

	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%f", c.Latitude))
	values.Set("longitude", fmt.Sprintf("%f", c.Longitude))
	values.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,wind_speed_10m_max,relative_humidity_2m_mean,weather_code")
	values.Set("wind_speed_unit", "ms")
	values.Set("timezone", "UTC")
	values.Set("start_date", day)
	values.Set("end_date", day)

	resp, err := p.client.Get(ctx, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()))
	if err != nil {
		return weather.DailyReading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Daily struct {
			Time        []string   `json:"time"`
			TempMax     []*float64 `json:"temperature_2m_max"`
			TempMin     []*float64 `json:"temperature_2m_min"`
			Precip      []*float64 `json:"precipitation_sum"`
			WindMax     []*float64 `json:"wind_speed_10m_max"`
			Humidity    []*float64 `json:"relative_humidity_2m_mean"`
			WeatherCode []*int     `json:"weather_code"`
		} `json:"daily"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.DailyReading{}, err
	}

	idx := -1
	for i, t := range payload.Daily.Time {
		if t == day {
			idx = i
			break
		}
	}
	if idx < 0 {
		return weather.DailyReading{}, fmt.Errorf("openmeteo returned no data for %s", day)
	}

	cond := weather.ConditionUnknown
	if idx < len(payload.Daily.WeatherCode) && payload.Daily.WeatherCode[idx] != nil {
		cond = mapOpenMeteoCondition(*payload.Daily.WeatherCode[idx])
	}

	return weather.DailyReading{
		ProviderName: p.name,
		FetchedAt:    time.Now().UTC(),
		TempMaxC:     at(payload.Daily.TempMax, idx),
		TempMinC:     at(payload.Daily.TempMin, idx),
		HumidityPct:  at(payload.Daily.Humidity, idx),
		WindSpeedMax: at(payload.Daily.WindMax, idx),
		PrecipMm:     at(payload.Daily.Precip, idx),
		Condition:    cond,
	}, nil
}

// at returns values[i], treating missing or null entries as zero.
func at(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return 0
	}
	return *values[i]
}

func mapOpenMeteoCondition(code int) weather.Condition {
	// Mapping based on WMO weather codes (simplified).
	switch {
	case code == 0:
		return weather.ConditionClear
	case code >= 1 && code <= 3:
		return weather.ConditionCloudy
	case code == 45 || code == 48:
		return weather.ConditionMist
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return weather.ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return weather.ConditionSnow
	case code >= 95:
		return weather.ConditionStorm
	default:
		return weather.ConditionUnknown
	}
}
