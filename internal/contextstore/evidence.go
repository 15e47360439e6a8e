package contextstore

import (
	"fmt"
	"time"

	"github.com/blevesearch/bleve"
	"github.com/google/uuid"
)

// evidenceIndex is a memory-only full-text index over the search
// snippets collected for a session, so follow-up questions can be
// answered against evidence already gathered.
type evidenceIndex struct {
	index bleve.Index
}

type evidenceDoc struct {
	Query   string `json:"query"`
	Text    string `json:"text"`
	AddedAt string `json:"added_at"`
}

// EvidenceHit is one search result from the session evidence index.
type EvidenceHit struct {
	Query string  `json:"query"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

func newEvidenceIndex() (*evidenceIndex, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating evidence index: %w", err)
	}
	return &evidenceIndex{index: idx}, nil
}

// AddEvidence indexes one collected snippet under the query that
// produced it.
func (s *Store) AddEvidence(query, text string) error {
	s.mu.Lock()
	if s.evidence == nil {
		idx, err := newEvidenceIndex()
		if err != nil {
			s.mu.Unlock()
			return err
		}
		s.evidence = idx
	}
	idx := s.evidence
	s.mu.Unlock()

	doc := evidenceDoc{
		Query:   query,
		Text:    text,
		AddedAt: time.Now().Format(time.RFC3339),
	}
	if err := idx.index.Index(uuid.NewString(), doc); err != nil {
		return fmt.Errorf("indexing evidence: %w", err)
	}
	return nil
}

// SearchEvidence runs a full-text query over the session's collected
// snippets. A session without evidence returns no hits.
func (s *Store) SearchEvidence(q string, limit int) ([]EvidenceHit, error) {
	s.mu.RLock()
	idx := s.evidence
	s.mu.RUnlock()
	if idx == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	req := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(q), limit, 0, false)
	req.Fields = []string{"query", "text"}
	res, err := idx.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching evidence: %w", err)
	}

	hits := make([]EvidenceHit, 0, len(res.Hits))
	for _, hit := range res.Hits {
		eh := EvidenceHit{Score: hit.Score}
		if v, ok := hit.Fields["query"].(string); ok {
			eh.Query = v
		}
		if v, ok := hit.Fields["text"].(string); ok {
			eh.Text = v
		}
		hits = append(hits, eh)
	}
	return hits, nil
}
