package agent

import (
	"context"
	"fmt"
	"time"
)

// clarifyConfidence is the intent-confidence floor below which the
// agent asks for clarification instead of predicting.
const clarifyConfidence = 0.3

// ChatResponse is the result of one conversational turn.
type ChatResponse struct {
	SessionID  string                 `json:"session_id"`
	Reply      string                 `json:"reply"`
	Domain     string                 `json:"domain,omitempty"`
	Prediction map[string]interface{} `json:"prediction,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// Chat handles one conversational message: the text is recorded to
// the session, the intent parsed, missing parameters completed from
// session memory, and the prediction recorded back. Parameter
// completion runs before the confidence gate so completed parameters,
// not raw ones, are evaluated.
func (a *UniversalAgent) Chat(ctx context.Context, sessionID, message string) ChatResponse {
	store := a.registry.Get(sessionID)
	store.AddMessage("user", message, nil)
	if a.metrics != nil {
		a.metrics.ActiveSessions.Set(float64(len(a.registry.Sessions())))
	}

	resp := ChatResponse{SessionID: store.SessionID(), Timestamp: time.Now()}

	intent := a.ParseIntent(ctx, message)
	if intent.Error != "" {
		resp.Error = intent.Error
		resp.Reply = "I could not understand that request: " + intent.Error
		store.AddMessage("assistant", resp.Reply, nil)
		return resp
	}

	completed := store.SmartCompleteParams(intent.Domain, intent.Params)

	if intent.Confidence < clarifyConfidence {
		resp.Reply = "I am not sure what you want predicted. Could you rephrase, naming the event and its key details?"
		store.AddMessage("assistant", resp.Reply, nil)
		return resp
	}

	result, err := a.PredictForSession(ctx, store, intent.Domain, completed, true)
	if err != nil {
		resp.Error = err.Error()
		resp.Reply = fmt.Sprintf("I cannot predict that: %v", err)
		store.AddMessage("assistant", resp.Reply, nil)
		return resp
	}

	resp.Domain = intent.Domain
	resp.Prediction = result
	resp.Reply = summarizeResult(intent.Domain, result)
	store.AddMessage("assistant", resp.Reply, map[string]interface{}{"domain": intent.Domain})
	return resp
}

func summarizeResult(domainName string, result map[string]interface{}) string {
	confidence, _ := result["confidence"].(float64)
	switch domainName {
	case "sports":
		if outcomes, ok := result["outcomes"].(map[string]float64); ok {
			return fmt.Sprintf("home %.0f%%, draw %.0f%%, away %.0f%% (confidence %.0f%%)",
				outcomes["home_win"]*100, outcomes["draw"]*100, outcomes["away_win"]*100, confidence*100)
		}
	case "general":
		if pred, ok := result["result"].(string); ok && pred != "" {
			probability, _ := result["probability"].(float64)
			return fmt.Sprintf("%s (probability %.0f%%, confidence %.0f%%)", pred, probability*100, confidence*100)
		}
	}
	return fmt.Sprintf("prediction ready (confidence %.0f%%)", confidence*100)
}
