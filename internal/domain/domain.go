// Package domain defines the per-domain prediction contract: each
// supported domain declares how to build search queries, how to prompt
// the model, and how to normalize its raw reply into a stable result
// shape. The orchestrator dispatches over a closed set of variants.
package domain

import (
	"fmt"
	"time"
)

// Params carries the caller-supplied prediction parameters. Field
// shape differs per domain (team1/team2 for sports, location/date for
// weather, and so on).
type Params map[string]interface{}

// Result is a normalized prediction payload. Keys differ per domain
// but every domain emits "domain", "prediction_type" and "confidence".
type Result map[string]interface{}

// Domain is the capability set each prediction domain implements.
// Normalize must tolerate arbitrary raw input and never fail: missing
// keys become zero or empty defaults.
type Domain interface {
	Name() string
	BuildQueries(params Params) []string
	SystemPrompt() string
	BuildPrompt(evidence string, params Params) string
	Normalize(raw map[string]interface{}) Result
}

// ErrUnknownDomain signals a caller contract violation: the requested
// domain is not one of the supported variants.
var ErrUnknownDomain = fmt.Errorf("unknown prediction domain")

// nowFunc is swapped in tests for deterministic query building.
var nowFunc = time.Now

// Lookup returns the descriptor for a domain name. Unknown names are
// a hard error, unlike every other failure in the prediction path.
func Lookup(name string) (Domain, error) {
	switch name {
	case "sports":
		return Sports{}, nil
	case "weather":
		return Weather{}, nil
	case "election":
		return Election{}, nil
	case "general":
		return General{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDomain, name)
	}
}

// Names lists the supported domains in a stable order.
func Names() []string {
	return []string{"sports", "weather", "election", "general"}
}

func str(p Params, key string) string {
	if v, ok := p[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func strDefault(p Params, key, def string) string {
	if s := str(p, key); s != "" {
		return s
	}
	return def
}
