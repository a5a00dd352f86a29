package resolver

// Result is the per-run outcome reported in the manifest. TierResolved is -1
// for unresolved runs.
type Result struct {
	RunText      string `json:"run_text"`
	MatchedWord  string `json:"matched_word,omitempty"`
	MatchedToken string `json:"matched_token_id,omitempty"`
	TierResolved int    `json:"tier_resolved"`
	Resolved     bool   `json:"resolved"`
}

// Manifest aggregates one Resolve call: per-run results plus pass-level
// counters. Owned by the caller once returned.
type Manifest struct {
	TotalRuns        int      `json:"total_runs"`
	ResolvedRuns     int      `json:"resolved_runs"`
	UnresolvedRuns   int      `json:"unresolved_runs"`
	TotalTimeMs      int64    `json:"total_time_ms"`
	Passes           int      `json:"passes"`
	OverflowRuns     int      `json:"overflow_runs"`
	SettleSteps      int      `json:"settle_steps"`
	CompoundResolved int      `json:"compound_resolved"`
	SegmentResolved  int      `json:"segment_resolved"`
	Results          []Result `json:"results"`
}

// UnresolvedWords returns the distinct texts of unresolved runs, in first
// appearance order. Consumers feed these into the vocabulary minting path.
func (m *Manifest) UnresolvedWords() []string {
	seen := make(map[string]struct{})
	var words []string
	for _, r := range m.Results {
		if r.Resolved {
			continue
		}
		if _, dup := seen[r.RunText]; dup {
			continue
		}
		seen[r.RunText] = struct{}{}
		words = append(words, r.RunText)
	}
	return words
}
