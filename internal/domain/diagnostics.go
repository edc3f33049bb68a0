package domain

import "time"

// IndexerDiagnostics summarizes the recent request outcomes of one indexer.
type IndexerDiagnostics struct {
	ID                  string     `json:"id"`
	ConsecutiveFailures int        `json:"consecutiveFailures"`
	LastError           string     `json:"lastError,omitempty"`
	LastSuccessAt       *time.Time `json:"lastSuccessAt,omitempty"`
	LastFailureAt       *time.Time `json:"lastFailureAt,omitempty"`
	LastLatencyMS       int64      `json:"lastLatencyMs"`
	LastTimeout         bool       `json:"lastTimeout"`
	LastQuery           string     `json:"lastQuery,omitempty"`
	TotalRequests       int64      `json:"totalRequests"`
	TotalFailures       int64      `json:"totalFailures"`
	TimeoutCount        int64      `json:"timeoutCount"`
}
