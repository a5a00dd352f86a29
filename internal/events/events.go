// Package events defines the Kafka message types flowing through the
// resolution pipeline and the publisher that emits them.
package events

import "time"

// DocumentEvent arrives on the ingest topic: one document to resolve.
type DocumentEvent struct {
	DocumentID string    `json:"document_id"`
	Text       string    `json:"text"`
	ReceivedAt time.Time `json:"received_at"`
}

// RunOutcome is one run's result inside a ResolutionEvent.
type RunOutcome struct {
	RunText      string `json:"run_text"`
	Start        int    `json:"start"`
	MatchedToken string `json:"matched_token_id,omitempty"`
	TierResolved int    `json:"tier_resolved"`
	Resolved     bool   `json:"resolved"`
}

// ResolutionEvent is published per document once its runs are resolved.
type ResolutionEvent struct {
	DocumentID     string       `json:"document_id"`
	TotalRuns      int          `json:"total_runs"`
	ResolvedRuns   int          `json:"resolved_runs"`
	UnresolvedRuns int          `json:"unresolved_runs"`
	Passes         int          `json:"passes"`
	TotalTimeMs    int64        `json:"total_time_ms"`
	Outcomes       []RunOutcome `json:"outcomes"`
	ResolvedAt     time.Time    `json:"resolved_at"`
}

// MintEvent is published for every word newly minted into the lexicon.
type MintEvent struct {
	Word       string    `json:"word"`
	TokenID    string    `json:"token_id"`
	DocumentID string    `json:"document_id,omitempty"`
	MintedAt   time.Time `json:"minted_at"`
}
