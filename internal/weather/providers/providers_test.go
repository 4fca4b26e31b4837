package providers

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/i474232898/weather-dashboard/internal/geo"
	"github.com/i474232898/weather-dashboard/internal/upstream"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

var berlin = geo.Coordinate{Latitude: 52.52, Longitude: 13.405}

func testClient(srv *httptest.Server) *upstream.Client {
	return upstream.NewClient("test", srv.Client(), upstream.NoRetry, "")
}

func TestOpenMeteoFetchDaily(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("start_date") != "2025-10-04" || q.Get("end_date") != "2025-10-04" {
			t.Errorf("unexpected dates %s", r.URL.RawQuery)
		}
		if q.Get("latitude") != "52.520000" || q.Get("longitude") != "13.405000" {
			t.Errorf("unexpected coordinates %s", r.URL.RawQuery)
		}
		if q.Get("wind_speed_unit") != "ms" {
			t.Errorf("expected wind speed in m/s")
		}
		w.Write([]byte(`{"daily":{"time":["2025-10-04"],"temperature_2m_max":[18.5],"temperature_2m_min":[9.1],
			"precipitation_sum":[2.4],"wind_speed_10m_max":[6.2],"relative_humidity_2m_mean":[null],"weather_code":[61]}}`))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(testClient(srv), srv.URL)
	got, err := p.FetchDaily(context.Background(), berlin, time.Date(2025, 10, 4, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ProviderName != "openmeteo" || got.TempMaxC != 18.5 || got.TempMinC != 9.1 || got.PrecipMm != 2.4 || got.WindSpeedMax != 6.2 {
		t.Fatalf("unexpected reading %+v", got)
	}
	if got.HumidityPct != 0 {
		t.Fatalf("null humidity should read as 0, got %f", got.HumidityPct)
	}
	if got.Condition != weather.ConditionRain {
		t.Fatalf("Condition = %s; want rain", got.Condition)
	}
}

func TestOpenMeteoMissingDay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"daily":{"time":[]}}`))
	}))
	defer srv.Close()

	if _, err := NewOpenMeteoProvider(testClient(srv), srv.URL).FetchDaily(context.Background(), berlin, time.Now()); err == nil {
		t.Fatal("expected error for missing day")
	}
}

func TestWeatherAPIEndpointByDate(t *testing.T) {
	now := time.Date(2025, 10, 4, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		date     time.Time
		wantPath string
	}{
		{"past uses history", now.AddDate(0, 0, -3), "/history.json"},
		{"today uses forecast", now, "/forecast.json"},
		{"future uses forecast", now.AddDate(0, 0, 2), "/forecast.json"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			day := tc.date.Format("2006-01-02")
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != tc.wantPath {
					t.Errorf("path = %s; want %s", r.URL.Path, tc.wantPath)
				}
				if r.URL.Query().Get("key") != "secret" || r.URL.Query().Get("dt") != day {
					t.Errorf("unexpected query %s", r.URL.RawQuery)
				}
				w.Write([]byte(`{"forecast":{"forecastday":[{"date":"` + day + `","day":{"maxtemp_c":20,"mintemp_c":10,
					"maxwind_kph":36,"totalprecip_mm":0,"avghumidity":55,"condition":{"text":"Partly Cloudy"}}}]}}`))
			}))
			defer srv.Close()

			p := NewWeatherAPIProvider(testClient(srv), "secret", srv.URL)
			p.now = func() time.Time { return now }

			got, err := p.FetchDaily(context.Background(), berlin, tc.date)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got.WindSpeedMax-10) > 1e-9 || got.HumidityPct != 55 || got.Condition != weather.ConditionCloudy {
				t.Fatalf("unexpected reading %+v", got)
			}
		})
	}
}

func TestWeatherAPIRequiresKey(t *testing.T) {
	p := NewWeatherAPIProvider(upstream.NewClient("x", http.DefaultClient, upstream.NoRetry, ""), "", "")
	if _, err := p.FetchDaily(context.Background(), berlin, time.Now()); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestConditionMapping(t *testing.T) {
	openMeteo := map[int]weather.Condition{
		0: weather.ConditionClear, 2: weather.ConditionCloudy, 45: weather.ConditionMist,
		63: weather.ConditionRain, 75: weather.ConditionSnow, 96: weather.ConditionStorm, 90: weather.ConditionUnknown,
	}
	for code, want := range openMeteo {
		if got := mapOpenMeteoCondition(code); got != want {
			t.Errorf("mapOpenMeteoCondition(%d) = %s; want %s", code, got, want)
		}
	}

	weatherAPI := map[string]weather.Condition{
		"Sunny": weather.ConditionClear, "Overcast": weather.ConditionCloudy, "Patchy light drizzle": weather.ConditionRain,
		"Moderate snow": weather.ConditionSnow, "Thundery outbreaks possible": weather.ConditionStorm, "Fog": weather.ConditionMist,
		"": weather.ConditionUnknown,
	}
	for text, want := range weatherAPI {
		if got := mapWeatherAPICondition(text); got != want {
			t.Errorf("mapWeatherAPICondition(%q) = %s; want %s", text, got, want)
		}
	}
}
