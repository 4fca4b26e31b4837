package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-dashboard/internal/api/http"
	"github.com/i474232898/weather-dashboard/internal/assistant"
	"github.com/i474232898/weather-dashboard/internal/config"
	"github.com/i474232898/weather-dashboard/internal/geo"
	geoproviders "github.com/i474232898/weather-dashboard/internal/geo/providers"
	"github.com/i474232898/weather-dashboard/internal/resolve"
	"github.com/i474232898/weather-dashboard/internal/scheduler"
	"github.com/i474232898/weather-dashboard/internal/session"
	"github.com/i474232898/weather-dashboard/internal/upstream"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/i474232898/weather-dashboard/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Geocoding: one attempt each, the resolver falls back across strategies.
	nominatim := geoproviders.NewNominatim(
		upstream.NewClient("nominatim", httpClient, upstream.NoRetry, cfg.UserAgent),
		cfg.NominatimBaseURL,
	)
	reverse := []geo.ReverseGeocoder{nominatim}
	if cfg.GeocoderAPIKey != "" {
		reverse = append(reverse, geoproviders.NewGoogle(cfg.GeocoderAPIKey))
	}
	ipapi := geoproviders.NewIPAPI(
		upstream.NewClient("ipapi", httpClient, upstream.NoRetry, cfg.UserAgent),
		cfg.IPAPIBaseURL,
	)

	resolver := resolve.NewResolver(nominatim, reverse, ipapi, resolve.Config{
		DeviceTimeout:  cfg.DeviceTimeout,
		DeviceMaxAge:   cfg.DeviceMaxAge,
		NoticeTTL:      cfg.NoticeTTL,
		ReverseTimeout: cfg.HTTPTimeout,
	})

	sessions := session.NewStore(cfg.SessionIdleTTL, nil)

	// Scheduler that expires notices and idle sessions.
	sched := scheduler.New(sessions, cfg.NoticeSweepInterval, cfg.SessionSweepInterval)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Weather providers with resilience (backoff + circuit breaker).
	provs := []weather.Provider{
		providers.NewOpenMeteoProvider(
			upstream.NewClient("open-meteo", httpClient, upstream.DefaultBackoff, cfg.UserAgent),
			cfg.OpenMeteoBaseURL,
		),
	}
	if cfg.WeatherAPIKey != "" {
		provs = append(provs, providers.NewWeatherAPIProvider(
			upstream.NewClient("weatherapi", httpClient, upstream.DefaultBackoff, cfg.UserAgent),
			cfg.WeatherAPIKey, "",
		))
	}
	if cfg.OpenWeatherAPIKey != "" {
		provs = append(provs, providers.NewOpenWeatherProvider(
			upstream.NewClient("openweather", httpClient, upstream.DefaultBackoff, cfg.UserAgent),
			cfg.OpenWeatherAPIKey, "",
		))
	}
	log.Printf("INFO: %d weather providers configured", len(provs))
	weatherService := weather.NewService(provs)

	// The completion stream outlives any fixed client timeout; ctx bounds it.
	chat := assistant.NewClient(
		upstream.NewClient("assistant", &http.Client{}, upstream.NoRetry, cfg.UserAgent),
		assistant.Config{
			BaseURL:     cfg.AssistantBaseURL,
			APIKey:      cfg.AssistantAPIKey,
			Model:       cfg.AssistantModel,
			Temperature: cfg.AssistantTemperature,
			MaxTokens:   cfg.AssistantMaxTokens,
		},
	)
	if cfg.AssistantAPIKey == "" {
		log.Printf("INFO: ASSISTANT_API_KEY not set, chat requests will fail")
	}

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-dashboard",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "weather-dashboard",
			"sessions": sessions.Len(),
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Sessions:  sessions,
		Resolver:  resolver,
		Weather:   weatherService,
		Assistant: chat,
	})

	go func() {
		log.Printf("INFO: listening on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("INFO: fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("ERROR: error during shutdown: %v", err)
	}
}
