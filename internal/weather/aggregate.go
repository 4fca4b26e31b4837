package weather

import (
	"github.com/i474232898/weather-dashboard/internal/geo"
)

// AggregateReadings combines provider readings into a single DailySummary.
// Numeric fields are averaged; the condition is the majority, ties going to
// the condition seen first.
func AggregateReadings(loc geo.Location, date string, readings []DailyReading) DailySummary {
	if len(readings) == 0 {
		return DailySummary{
			Location:  loc,
			Date:      date,
			Condition: ConditionUnknown,
		}
	}

	var (
		sumMax      float64
		sumMin      float64
		sumHumidity float64
		sumWind     float64
		sumPrecip   float64
	)

	conditionCounts := make(map[Condition]int)
	var order []Condition
	providers := make([]ProviderContribution, 0, len(readings))

	for _, r := range readings {
		sumMax += r.TempMaxC
		sumMin += r.TempMinC
		sumHumidity += r.HumidityPct
		sumWind += r.WindSpeedMax
		sumPrecip += r.PrecipMm

		if _, seen := conditionCounts[r.Condition]; !seen {
			order = append(order, r.Condition)
		}
		conditionCounts[r.Condition]++

		providers = append(providers, ProviderContribution{
			ProviderName: r.ProviderName,
			FetchedAt:    r.FetchedAt,
		})
	}

	n := float64(len(readings))

	bestCond := ConditionUnknown
	bestCount := 0
	for _, cond := range order {
		if count := conditionCounts[cond]; count > bestCount {
			bestCount = count
			bestCond = cond
		}
	}

	return DailySummary{
		Location:     loc,
		Date:         date,
		TempMaxC:     sumMax / n,
		TempMinC:     sumMin / n,
		HumidityPct:  sumHumidity / n,
		WindSpeedMax: sumWind / n,
		PrecipMM:     sumPrecip / n,
		Condition:    bestCond,
		Providers:    providers,
	}
}
