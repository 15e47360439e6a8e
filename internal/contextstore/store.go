// Package contextstore holds per-session conversational memory: the
// message log, user preferences, recent prediction parameters, and
// per-domain prediction history. Stores are identity-shared through a
// process-wide registry so independent agents on the same session
// observe each other's state.
package contextstore

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Message is one conversation entry.
type Message struct {
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// PredictionRecord is one stored prediction per domain.
type PredictionRecord struct {
	Domain    string                 `json:"domain"`
	Params    map[string]interface{} `json:"params"`
	Result    map[string]interface{} `json:"result"`
	Timestamp time.Time              `json:"timestamp"`
}

// Store is the mutable per-session state. All methods are safe for
// concurrent use; read-modify-write sequences hold the lock for their
// full duration.
type Store struct {
	mu sync.RWMutex

	sessionID           string
	conversationHistory []Message
	preferences         map[string]interface{}
	contextVars         map[string]interface{}
	recentParams        map[string]interface{}
	domainHistory       map[string][]PredictionRecord

	evidence *evidenceIndex
}

// New builds a Store; an empty sessionID gets a generated one.
func New(sessionID string) *Store {
	if sessionID == "" {
		sessionID = uuid.NewString()[:8]
	}
	return &Store{
		sessionID: sessionID,
		preferences: map[string]interface{}{
			"default_location": nil,
			"timezone":         "Asia/Shanghai",
			"language":         "zh",
			"favorite_teams":   []interface{}{},
		},
		contextVars:   map[string]interface{}{},
		recentParams:  map[string]interface{}{},
		domainHistory: map[string][]PredictionRecord{},
	}
}

// SessionID returns the session identifier.
func (s *Store) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

// AddMessage appends a conversation entry. History is unbounded;
// truncation for display is the caller's concern.
func (s *Store) AddMessage(role, content string, metadata map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	s.conversationHistory = append(s.conversationHistory, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Metadata:  metadata,
	})
}

// AddPrediction records a prediction under its domain and overlays
// the parameters into the shared recent-params map.
func (s *Store) AddPrediction(domain string, params map[string]interface{}, result map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.domainHistory[domain] = append(s.domainHistory[domain], PredictionRecord{
		Domain:    domain,
		Params:    params,
		Result:    result,
		Timestamp: time.Now(),
	})
	s.overlayRecentParams(params)
}

// overlayRecentParams merges params into the global last-write-wins
// overlay. The overlay is deliberately cross-domain: a sports team1
// write is visible to a later weather lookup. Kept behind this
// function so the scope can be narrowed later without a refactor.
func (s *Store) overlayRecentParams(params map[string]interface{}) {
	for k, v := range params {
		s.recentParams[k] = v
	}
}

// DomainContext bundles everything the orchestrator wants when
// handling a request for one domain.
type DomainContext struct {
	History      []PredictionRecord     `json:"history"`
	RecentParams map[string]interface{} `json:"recent_params"`
	Preferences  map[string]interface{} `json:"preferences"`
	Conversation []Message              `json:"conversation"`
}

// ContextForDomain returns the domain history, the recent-params
// overlay, preferences, and the last five conversation entries.
func (s *Store) ContextForDomain(domain string) DomainContext {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv := s.conversationHistory
	if len(conv) > 5 {
		conv = conv[len(conv)-5:]
	}
	return DomainContext{
		History:      append([]PredictionRecord(nil), s.domainHistory[domain]...),
		RecentParams: copyMap(s.recentParams),
		Preferences:  copyMap(s.preferences),
		Conversation: append([]Message(nil), conv...),
	}
}

// SmartCompleteParams fills missing parameters from session memory.
// Weather gets its location from the recent-params overlay, then the
// default-location preference, then the literal "Beijing". Sports
// recalls the opponent from the most recent record with a matching
// team1. Completion is best-effort and must run before any
// confidence gate in the calling flow.
func (s *Store) SmartCompleteParams(domain string, params map[string]interface{}) map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	completed := copyMap(params)

	switch domain {
	case "weather":
		if isEmptyValue(completed["location"]) {
			if v, ok := s.recentParams["location"]; ok && !isEmptyValue(v) {
				completed["location"] = v
			} else if v, ok := s.preferences["default_location"]; ok && !isEmptyValue(v) {
				completed["location"] = v
			} else {
				completed["location"] = "Beijing"
			}
		}
	case "sports":
		if !isEmptyValue(completed["team1"]) && isEmptyValue(completed["team2"]) {
			records := s.domainHistory["sports"]
			for i := len(records) - 1; i >= 0; i-- {
				if records[i].Params["team1"] == completed["team1"] {
					if t2, ok := records[i].Params["team2"]; ok {
						completed["team2"] = t2
					}
					break
				}
			}
		}
	}
	return completed
}

// SetPreference stores a user preference.
func (s *Store) SetPreference(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preferences[key] = value
}

// Preference reads a user preference; missing keys return def.
func (s *Store) Preference(key string, def interface{}) interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.preferences[key]; ok {
		return v
	}
	return def
}

// SetContextVar stores a free-form context variable.
func (s *Store) SetContextVar(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contextVars[key] = value
}

// ContextVar reads a context variable; missing keys return def.
func (s *Store) ContextVar(key string, def interface{}) interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.contextVars[key]; ok {
		return v
	}
	return def
}

// ConversationContext renders the last maxTurns exchanges as plain
// "role: content" lines for prompt embedding.
func (s *Store) ConversationContext(maxTurns int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recent := s.conversationHistory
	if n := maxTurns * 2; len(recent) > n {
		recent = recent[len(recent)-n:]
	}
	lines := make([]string, 0, len(recent))
	for _, msg := range recent {
		lines = append(lines, msg.Role+": "+msg.Content)
	}
	return strings.Join(lines, "\n")
}

// Summary is the lightweight session overview.
type Summary struct {
	SessionID         string                 `json:"session_id"`
	ConversationCount int                    `json:"conversation_count"`
	Predictions       map[string]int         `json:"predictions"`
	RecentParams      map[string]interface{} `json:"recent_params"`
	Preferences       map[string]interface{} `json:"preferences"`
}

// Summarize reports session counts and the current parameter overlay.
func (s *Store) Summarize() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	predictions := make(map[string]int, len(s.domainHistory))
	for domain, records := range s.domainHistory {
		predictions[domain] = len(records)
	}
	return Summary{
		SessionID:         s.sessionID,
		ConversationCount: len(s.conversationHistory),
		Predictions:       predictions,
		RecentParams:      copyMap(s.recentParams),
		Preferences:       copyMap(s.preferences),
	}
}

// snapshot is the persisted wire form of a session.
type snapshot struct {
	SessionID           string                        `json:"session_id"`
	ConversationHistory []Message                     `json:"conversation_history"`
	Preferences         map[string]interface{}        `json:"preferences"`
	ContextVars         map[string]interface{}        `json:"context_vars"`
	RecentParams        map[string]interface{}        `json:"recent_params"`
	DomainHistory       map[string][]PredictionRecord `json:"domain_history"`
}

// Snapshot serializes the full session state.
func (s *Store) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := snapshot{
		SessionID:           s.sessionID,
		ConversationHistory: s.conversationHistory,
		Preferences:         s.preferences,
		ContextVars:         s.contextVars,
		RecentParams:        s.recentParams,
		DomainHistory:       s.domainHistory,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling session snapshot: %w", err)
	}
	return data, nil
}

// Restore replaces the store's visible state from a snapshot
// document, re-keying the domain history index.
func (s *Store) Restore(data []byte) error {
	var doc snapshot
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("unmarshaling session snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.SessionID != "" {
		s.sessionID = doc.SessionID
	}
	s.conversationHistory = doc.ConversationHistory
	if doc.Preferences != nil {
		s.preferences = doc.Preferences
	}
	s.contextVars = doc.ContextVars
	if s.contextVars == nil {
		s.contextVars = map[string]interface{}{}
	}
	s.recentParams = doc.RecentParams
	if s.recentParams == nil {
		s.recentParams = map[string]interface{}{}
	}
	s.domainHistory = map[string][]PredictionRecord{}
	for domain, records := range doc.DomainHistory {
		s.domainHistory[domain] = records
	}
	return nil
}

// SaveToFile writes the snapshot document to disk.
func (s *Store) SaveToFile(path string) error {
	data, err := s.Snapshot()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}

// LoadFromFile restores the store from a snapshot file.
func (s *Store) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading session file: %w", err)
	}
	return s.Restore(data)
}

// Clear drops everything except the session ID and preferences.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversationHistory = nil
	s.contextVars = map[string]interface{}{}
	s.recentParams = map[string]interface{}{}
	s.domainHistory = map[string][]PredictionRecord{}
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func isEmptyValue(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	return false
}
