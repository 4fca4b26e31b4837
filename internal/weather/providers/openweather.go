package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/i474232898/weather-dashboard/internal/geo"
	"github.com/i474232898/weather-dashboard/internal/upstream"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// OpenWeatherProvider implements the weather.Provider interface for
// OpenWeatherMap. The free 5 day / 3 hour forecast is folded into one day,
// so only today and the next few days have data.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *upstream.Client
}

func NewOpenWeatherProvider(client *upstream.Client, apiKey, baseURL string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = "https://api.openweathermap.org/data/2.5/forecast"
	}
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

type openWeatherSlot struct {
	Dt   int64 `json:"dt"`
	Main struct {
		TempMin  float64 `json:"temp_min"`
		TempMax  float64 `json:"temp_max"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Rain struct {
		ThreeH float64 `json:"3h"`
	} `json:"rain"`
	Snow struct {
		ThreeH float64 `json:"3h"`
	} `json:"snow"`
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
}

func (p *OpenWeatherProvider) FetchDaily(ctx context.Context, c geo.Coordinate, date time.Time) (weather.DailyReading, error) {
	if p.apiKey == "" {
		return weather.DailyReading{}, fmt.Errorf("openweather api key is not configured")
	}

	values := url.Values{}
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")
	values.Set("lat", fmt.Sprintf("%f", c.Latitude))
	values.Set("lon", fmt.Sprintf("%f", c.Longitude))

	resp, err := p.client.Get(ctx, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()))
	if err != nil {
		return weather.DailyReading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		List []openWeatherSlot `json:"list"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.DailyReading{}, err
	}

	day := date.UTC().Format("2006-01-02")
	var slots []openWeatherSlot
	for _, s := range payload.List {
		if time.Unix(s.Dt, 0).UTC().Format("2006-01-02") == day {
			slots = append(slots, s)
		}
	}
	if len(slots) == 0 {
		return weather.DailyReading{}, fmt.Errorf("openweather has no forecast for %s", day)
	}

	return foldOpenWeatherDay(p.name, slots), nil
}

// foldOpenWeatherDay reduces 3-hour slots to a daily reading: extreme
// temperatures, mean humidity, peak wind, summed precipitation and the most
// frequent condition.
func foldOpenWeatherDay(name string, slots []openWeatherSlot) weather.DailyReading {
	r := weather.DailyReading{
		ProviderName: name,
		FetchedAt:    time.Now().UTC(),
		TempMaxC:     slots[0].Main.TempMax,
		TempMinC:     slots[0].Main.TempMin,
	}

	counts := map[weather.Condition]int{}
	var order []weather.Condition
	var humidity float64
	for _, s := range slots {
		if s.Main.TempMax > r.TempMaxC {
			r.TempMaxC = s.Main.TempMax
		}
		if s.Main.TempMin < r.TempMinC {
			r.TempMinC = s.Main.TempMin
		}
		if s.Wind.Speed > r.WindSpeedMax {
			r.WindSpeedMax = s.Wind.Speed
		}
		humidity += s.Main.Humidity
		r.PrecipMm += s.Rain.ThreeH + s.Snow.ThreeH

		cond := weather.ConditionUnknown
		if len(s.Weather) > 0 {
			cond = mapOpenWeatherCondition(s.Weather[0].Main)
		}
		if counts[cond] == 0 {
			order = append(order, cond)
		}
		counts[cond]++
	}
	r.HumidityPct = humidity / float64(len(slots))

	r.Condition = order[0]
	for _, cond := range order[1:] {
		if counts[cond] > counts[r.Condition] {
			r.Condition = cond
		}
	}
	return r
}

func mapOpenWeatherCondition(main string) weather.Condition {
	switch main {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionCloudy
	case "Rain", "Drizzle":
		return weather.ConditionRain
	case "Snow":
		return weather.ConditionSnow
	case "Thunderstorm":
		return weather.ConditionStorm
	case "Mist", "Fog", "Haze":
		return weather.ConditionMist
	default:
		return weather.ConditionUnknown
	}
}
