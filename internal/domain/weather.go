package domain

import (
	"fmt"

	"github.com/mgcnb666/Predictive-AI-agent/internal/llmjson"
)

// Weather predicts forecast conditions for a location and date.
type Weather struct{}

func (Weather) Name() string { return "weather" }

func (Weather) BuildQueries(params Params) []string {
	location := str(params, "location")
	date := str(params, "date")
	daysAhead := 7
	if v, ok := params["days_ahead"]; ok {
		switch n := v.(type) {
		case int:
			daysAhead = n
		case float64:
			daysAhead = int(n)
		}
	}
	currentDate := nowFunc().Format("2006-01-02")

	queries := []string{
		fmt.Sprintf("%s weather forecast %s latest update", location, date),
		fmt.Sprintf("%s weather prediction next %d days current", location, daysAhead),
		fmt.Sprintf("%s real-time weather forecast %s", location, date),
		fmt.Sprintf("%s weather trends analysis latest", location),
		fmt.Sprintf("%s meteorological data %s", location, currentDate),
		fmt.Sprintf("weather models prediction %s updated", location),
	}

	if event := str(params, "event"); event != "" {
		queries = append(queries, fmt.Sprintf("%s weather forecast for %s latest", location, event))
	}
	return queries
}

func (Weather) SystemPrompt() string {
	return `You are a professional meteorological analyst.
When analyzing weather, consider:
1. Historical weather data and trends
2. Current conditions
3. Seasonal factors
4. Geographic influences
5. Meteorological model output
6. Probability of extreme weather
Provide well-reasoned forecasts grounded in scientific data.`
}

func (Weather) BuildPrompt(evidence string, params Params) string {
	location := str(params, "location")
	date := strDefault(params, "date", "unspecified")

	return fmt.Sprintf(`Based on the data below, predict the weather in %s on %s:

Data: %s

Return the forecast as JSON:
{
  "temperature": {
    "high": 0,
    "low": 0,
    "unit": "celsius"
  },
  "precipitation_prob": 0.0,
  "condition": "sunny/cloudy/rain/snow/etc",
  "wind_speed": {
    "speed": 0,
    "unit": "km/h"
  },
  "humidity": 0.0,
  "confidence": 0.0,
  "analysis": "detailed analysis",
  "key_factors": ["factor 1", "factor 2"],
  "warnings": ["warning 1"]
}
`, location, date, evidence)
}

func (Weather) Normalize(raw map[string]interface{}) Result {
	temperature, _ := raw["temperature"].(map[string]interface{})
	windSpeed, _ := raw["wind_speed"].(map[string]interface{})
	if temperature == nil {
		temperature = map[string]interface{}{}
	}
	if windSpeed == nil {
		windSpeed = map[string]interface{}{}
	}
	return Result{
		"domain":          "weather",
		"prediction_type": "weather_forecast",
		"forecast": map[string]interface{}{
			"temperature_range":  temperature,
			"precipitation_prob": llmjson.Float(raw, "precipitation_prob", 0),
			"weather_condition":  llmjson.String(raw, "condition", "unknown"),
			"wind_speed":         windSpeed,
			"humidity":           llmjson.Float(raw, "humidity", 0),
		},
		"confidence":  llmjson.Float(raw, "confidence", 0),
		"analysis":    llmjson.String(raw, "analysis", ""),
		"key_factors": llmjson.StringSlice(raw, "key_factors"),
		"warnings":    llmjson.StringSlice(raw, "warnings"),
	}
}
