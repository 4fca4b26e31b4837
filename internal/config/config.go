package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port        string
	HTTPTimeout time.Duration
	UserAgent   string

	// Geocoding and IP geolocation upstreams.
	NominatimBaseURL string
	IPAPIBaseURL     string
	GeocoderAPIKey   string // Google reverse geocoding; empty disables it

	// Device geolocation race.
	DeviceTimeout time.Duration
	DeviceMaxAge  time.Duration

	// Session housekeeping.
	NoticeTTL            time.Duration
	SessionIdleTTL       time.Duration
	NoticeSweepInterval  time.Duration
	SessionSweepInterval time.Duration

	// Weather providers.
	OpenMeteoBaseURL  string
	WeatherAPIKey     string
	OpenWeatherAPIKey string

	// Assistant.
	AssistantBaseURL     string
	AssistantAPIKey      string
	AssistantModel       string
	AssistantTemperature float64
	AssistantMaxTokens   int
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}
	var err error

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.UserAgent = getenvDefault("USER_AGENT", "weather-dashboard/1.0")
	cfg.NominatimBaseURL = getenvDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org")
	cfg.IPAPIBaseURL = getenvDefault("IPAPI_BASE_URL", "https://ipapi.co")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")
	cfg.OpenMeteoBaseURL = getenvDefault("OPENMETEO_BASE_URL", "https://api.open-meteo.com/v1/forecast")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"HTTP_TIMEOUT", "10s", &cfg.HTTPTimeout},
		{"DEVICE_TIMEOUT", "2s", &cfg.DeviceTimeout},
		{"DEVICE_MAX_AGE", "60s", &cfg.DeviceMaxAge},
		{"NOTICE_TTL", "4s", &cfg.NoticeTTL},
		{"SESSION_IDLE_TTL", "30m", &cfg.SessionIdleTTL},
		{"NOTICE_SWEEP_INTERVAL", "1s", &cfg.NoticeSweepInterval},
		{"SESSION_SWEEP_INTERVAL", "1m", &cfg.SessionSweepInterval},
	}
	for _, d := range durations {
		if *d.dst, err = getenvDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	cfg.AssistantBaseURL = getenvDefault("ASSISTANT_BASE_URL", "https://api.groq.com/openai/v1")
	cfg.AssistantAPIKey = getenvDefault("ASSISTANT_API_KEY", os.Getenv("GROQ_API_KEY"))
	cfg.AssistantModel = getenvDefault("ASSISTANT_MODEL", "llama-3.3-70b-versatile")

	temp, err := strconv.ParseFloat(getenvDefault("ASSISTANT_TEMPERATURE", "0.7"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ASSISTANT_TEMPERATURE: %w", err)
	}
	cfg.AssistantTemperature = temp
	if cfg.AssistantMaxTokens, err = getenvInt("ASSISTANT_MAX_TOKENS", 500); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
