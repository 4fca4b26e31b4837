package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/geo"
	"github.com/i474232898/weather-dashboard/internal/upstream"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *upstream.Client
	now     func() time.Time
}

func NewWeatherAPIProvider(client *upstream.Client, apiKey, baseURL string) *WeatherAPIProvider {
	if baseURL == "" {
		baseURL = "https://api.weatherapi.com/v1"
	}
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		now:     time.Now,
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

// FetchDaily uses history.json for past days and forecast.json otherwise.
func (p *WeatherAPIProvider) FetchDaily(ctx context.Context, c geo.Coordinate, date time.Time) (weather.DailyReading, error) {
	if p.apiKey == "" {
		return weather.DailyReading{}, fmt.Errorf("weatherapi api key is not configured")
	}

	day := date.UTC().Format("2006-01-02")
	today := p.now().UTC().Format("2006-01-02")
	endpoint := "forecast.json"
	if day < today {
		endpoint = "history.json"
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	values.Set("q", fmt.Sprintf("%f,%f", c.Latitude, c.Longitude))
	values.Set("dt", day)
	if endpoint == "forecast.json" {
		values.Set("days", "1")
	}

	resp, err := p.client.Get(ctx, fmt.Sprintf("%s/%s?%s", p.baseURL, endpoint, values.Encode()))
	if err != nil {
		return weather.DailyReading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Forecast struct {
			ForecastDay []struct {
				Date string `json:"date"`
				Day  struct {
					MaxTempC      float64 `json:"maxtemp_c"`
					MinTempC      float64 `json:"mintemp_c"`
					MaxWindKph    float64 `json:"maxwind_kph"`
					TotalPrecipMm float64 `json:"totalprecip_mm"`
					AvgHumidity   float64 `json:"avghumidity"`
					Condition     struct {
						Text string `json:"text"`
					} `json:"condition"`
				} `json:"day"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.DailyReading{}, err
	}

	for _, fd := range payload.Forecast.ForecastDay {
		if fd.Date != day {
			continue
		}
		return weather.DailyReading{
			ProviderName: p.name,
			FetchedAt:    p.now().UTC(),
			TempMaxC:     fd.Day.MaxTempC,
			TempMinC:     fd.Day.MinTempC,
			HumidityPct:  fd.Day.AvgHumidity,
			// Convert wind from kph to m/s (approx).
			WindSpeedMax: fd.Day.MaxWindKph / 3.6,
			PrecipMm:     fd.Day.TotalPrecipMm,
			Condition:    mapWeatherAPICondition(fd.Day.Condition.Text),
		}, nil
	}
	return weather.DailyReading{}, fmt.Errorf("weatherapi returned no data for %s", day)
}

func mapWeatherAPICondition(text string) weather.Condition {
	switch {
	case text == "":
		return weather.ConditionUnknown
	case common.ContainsAnyFold(text, "thunder", "storm"):
		return weather.ConditionStorm
	case common.ContainsAnyFold(text, "snow", "sleet", "blizzard", "ice pellets"):
		return weather.ConditionSnow
	case common.ContainsAnyFold(text, "rain", "shower", "drizzle"):
		return weather.ConditionRain
	case common.ContainsAnyFold(text, "mist", "fog"):
		return weather.ConditionMist
	case common.ContainsAnyFold(text, "cloud", "overcast"):
		return weather.ConditionCloudy
	case common.ContainsAnyFold(text, "sunny", "clear"):
		return weather.ConditionClear
	default:
		return weather.ConditionUnknown
	}
}
