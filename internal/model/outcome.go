package model

import (
	"encoding/json"
	"time"
)

// Skip records why one requested indicator was not computed.
// Library is the backend that produced the failure, or "none" when no
// backend was attempted (unknown name, bar-count gate).
type Skip struct {
	Name    string `json:"name"`
	Reason  string `json:"reason"`
	Library string `json:"library"`
}

// AnalysisResult summarizes one dispatch over a bar table: which indicators
// were computed, which were skipped and why, and how long it took.
type AnalysisResult struct {
	Symbol   string        `json:"symbol"`
	Rows     int           `json:"rows"`
	Computed []string      `json:"computed_indicators"`
	Skipped  []Skip        `json:"skipped_indicators"`
	Took     time.Duration `json:"took_ns"`
	TS       time.Time     `json:"ts"` // when the analysis ran
}

// JSON returns the JSON-encoded result.
func (r *AnalysisResult) JSON() []byte {
	out, _ := json.Marshal(r)
	return out
}
