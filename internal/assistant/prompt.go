package assistant

import (
	"fmt"
	"strings"

	"github.com/i474232898/weather-dashboard/internal/geo"
)

const promptIntro = `You are a helpful NASA Weather Assistant specializing in Earth observation data and weather predictions.
You help users understand weather patterns, climate data, and predictions based on NASA's Earth observation systems.`

const promptTopics = `Provide clear, concise, and scientifically accurate information about:
- Weather predictions and patterns
- NASA Earth observation data sources (GES DISC, Giovanni, Worldview)
- Climate trends and historical data
- How to interpret weather parameters (temperature, precipitation, wind speed, humidity, air quality, cloud cover, solar radiation)
- Probability distributions and bell curves
- Severe weather alerts and safety

Keep responses friendly, informative, and under 150 words unless more detail is specifically requested.`

// SystemPrompt builds the assistant's instructions for the selected location.
// loc is nil when nothing is selected.
func SystemPrompt(loc *geo.Location) string {
	var b strings.Builder
	b.WriteString(promptIntro)
	b.WriteString("\n\n")
	if loc != nil {
		fmt.Fprintf(&b, "The user is currently viewing data for: %s (%.4f°, %.4f°)", loc.Name, loc.Latitude, loc.Longitude)
	} else {
		b.WriteString("No location is currently selected.")
	}
	b.WriteString("\n\n")
	b.WriteString(promptTopics)
	return b.String()
}
