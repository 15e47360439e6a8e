// Package llmjson extracts structured data from free-form LLM output.
// Models wrap JSON in markdown fences, prepend commentary, or emit
// partial objects; callers get a best-effort map and decide fallbacks.
package llmjson

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when no balanced JSON object can be found.
var ErrNoJSON = fmt.Errorf("no JSON object found in text")

// Extract finds the first balanced top-level JSON object in text and
// unmarshals it into a generic map. Markdown code fences are stripped
// first. Returns ErrNoJSON when no balanced object exists.
func Extract(text string) (map[string]interface{}, error) {
	cleaned := StripCodeFences(text)

	raw, ok := firstObject(cleaned)
	if !ok {
		return nil, ErrNoJSON
	}

	var out map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("unmarshaling extracted object: %w", err)
	}
	return out, nil
}

// StripCodeFences removes ```json ... ``` (or plain ```) fencing,
// keeping the inner content. Text without fences passes through.
func StripCodeFences(text string) string {
	s := strings.TrimSpace(text)
	start := strings.Index(s, "```")
	if start < 0 {
		return s
	}
	rest := s[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		// Drop the language tag line ("json", "JSON", or empty).
		tag := strings.TrimSpace(rest[:nl])
		if tag == "" || strings.EqualFold(tag, "json") {
			rest = rest[nl+1:]
		}
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// firstObject scans for the first '{' and returns the substring up to
// its matching '}', tracking string literals and escapes so braces
// inside values do not break the balance count.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}

// Float reads a numeric field from a decoded map, tolerating values
// that arrive as strings. Returns def when absent or unparseable.
func Float(m map[string]interface{}, key string, def float64) float64 {
	v, ok := m[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(n), "%g", &f); err == nil {
			return f
		}
	}
	return def
}

// String reads a string field from a decoded map, returning def when
// the key is absent or the value is not a string.
func String(m map[string]interface{}, key, def string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// StringSlice reads a []string field from a decoded map. Non-string
// elements are skipped; an absent or wrongly typed field yields nil.
func StringSlice(m map[string]interface{}, key string) []string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	arr, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, e := range arr {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// FloatMap reads a map[string]float64 field from a decoded map,
// coercing numeric-ish values. Non-numeric entries are skipped.
func FloatMap(m map[string]interface{}, key string) map[string]float64 {
	v, ok := m[key]
	if !ok {
		return nil
	}
	inner, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(inner))
	for k := range inner {
		out[k] = Float(inner, k, 0)
	}
	return out
}
