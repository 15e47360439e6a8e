package llmjson

import "testing"

func TestExtractPlainObject(t *testing.T) {
	m, err := Extract(`{"confidence": 0.72, "analysis": "ok"}`)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got := Float(m, "confidence", 0); got != 0.72 {
		t.Fatalf("confidence = %v, want 0.72", got)
	}
	if got := String(m, "analysis", ""); got != "ok" {
		t.Fatalf("analysis = %q, want %q", got, "ok")
	}
}

func TestExtractFencedWithPreamble(t *testing.T) {
	text := "Here is my assessment:\n```json\n{\"probability\": 0.4}\n```\nHope that helps."
	m, err := Extract(text)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got := Float(m, "probability", 0); got != 0.4 {
		t.Fatalf("probability = %v, want 0.4", got)
	}
}

func TestExtractNestedBraces(t *testing.T) {
	text := `Prediction: {"probabilities": {"home_win": 0.5, "draw": 0.2, "away_win": 0.3}, "note": "brace } in string"}`
	m, err := Extract(text)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	probs := FloatMap(m, "probabilities")
	if probs["home_win"] != 0.5 || probs["draw"] != 0.2 || probs["away_win"] != 0.3 {
		t.Fatalf("unexpected probabilities: %v", probs)
	}
	if got := String(m, "note", ""); got != "brace } in string" {
		t.Fatalf("note = %q", got)
	}
}

func TestExtractNoObject(t *testing.T) {
	if _, err := Extract("the model declined to answer"); err == nil {
		t.Fatalf("expected error for text without JSON")
	}
}

func TestExtractUnbalanced(t *testing.T) {
	if _, err := Extract(`{"cut": 0.5, "off`); err == nil {
		t.Fatalf("expected error for truncated object")
	}
}

func TestFloatCoercions(t *testing.T) {
	m := map[string]interface{}{
		"f": 1.5,
		"s": "2.25",
		"x": "not a number",
	}
	if got := Float(m, "f", 0); got != 1.5 {
		t.Fatalf("f = %v", got)
	}
	if got := Float(m, "s", 0); got != 2.25 {
		t.Fatalf("s = %v", got)
	}
	if got := Float(m, "x", 9); got != 9 {
		t.Fatalf("x fallback = %v, want 9", got)
	}
	if got := Float(m, "missing", 3); got != 3 {
		t.Fatalf("missing fallback = %v, want 3", got)
	}
}

func TestStringSlice(t *testing.T) {
	m := map[string]interface{}{
		"risks": []interface{}{"injury doubt", 42, "weather"},
	}
	got := StringSlice(m, "risks")
	if len(got) != 2 || got[0] != "injury doubt" || got[1] != "weather" {
		t.Fatalf("risks = %v", got)
	}
}
