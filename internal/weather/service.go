package weather

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/i474232898/weather-dashboard/internal/geo"
)

// ErrNoData is returned when no provider produced a reading.
var ErrNoData = errors.New("no weather data available")

// Service fans out to providers and aggregates their daily readings.
type Service struct {
	providers []Provider
}

// NewService creates a new Service.
func NewService(providers []Provider) *Service {
	return &Service{
		providers: providers,
	}
}

// Daily fetches a reading for loc on date from all providers concurrently
// and aggregates the successful ones.
func (s *Service) Daily(ctx context.Context, loc geo.Location, date time.Time) (DailySummary, error) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		readings []DailyReading
		day      = date.UTC().Format("2006-01-02")
	)

	if len(s.providers) == 0 {
		log.Printf("ERROR: No providers available to fetch weather data for %s", loc.Name)
		return DailySummary{}, errors.New("no weather providers configured")
	}

	for _, p := range s.providers {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()

			r, err := p.FetchDaily(ctx, loc.Coordinate, date)
			if err != nil {
				// Log and continue; we want partial success when possible.
				log.Printf("ERROR: provider %s fetch failed for %s on %s: %v", p.Name(), loc.Name, day, err)
				return
			}

			mu.Lock()
			readings = append(readings, r)
			mu.Unlock()
		}()
	}

	wg.Wait()

	if len(readings) == 0 {
		return DailySummary{}, ErrNoData
	}

	// Keep provider order stable in the output.
	sortByProvider(readings, s.providers)
	return AggregateReadings(loc, day, readings), nil
}

func sortByProvider(readings []DailyReading, providers []Provider) {
	rank := make(map[string]int, len(providers))
	for i, p := range providers {
		rank[p.Name()] = i
	}
	for i := 1; i < len(readings); i++ {
		for j := i; j > 0 && rank[readings[j].ProviderName] < rank[readings[j-1].ProviderName]; j-- {
			readings[j], readings[j-1] = readings[j-1], readings[j]
		}
	}
}
