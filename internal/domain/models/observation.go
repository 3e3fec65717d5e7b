package models

import "time"

// Observation is a raw APR sample for one lending market.
type Observation struct {
	Currency  string    `json:"currency"`
	Timestamp time.Time `json:"timestamp"`
	APR       float64   `json:"apr"`
	TVL       float64   `json:"tvl"`
	Source    string    `json:"source"`
}

// IngestRun records the outcome of one observation ingest batch.
type IngestRun struct {
	RunID      string
	Source     string
	StartedAt  time.Time
	FinishedAt time.Time
	Rows       int
	Status     string // "ok" | "error"
	Error      string
}
