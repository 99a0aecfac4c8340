package model

import "time"

type PriceObservation struct {
	ID        string    `json:"id"`
	SourceID  string    `json:"sourceId"`
	Price     float64   `json:"price"`
	Currency  string    `json:"currency"`
	Timestamp time.Time `json:"fetchedAt"`
}

// ScrapeStatus is the transient outcome of the latest scrape attempt of a Source.
type ScrapeStatus struct {
	SourceID    string    `json:"sourceId"`
	OK          bool      `json:"ok"`
	Price       float64   `json:"price,omitempty"`
	Error       string    `json:"error,omitempty"`
	AttemptedAt time.Time `json:"attemptedAt"`
	Duration    int64     `json:"durationMs"`
}

// Snapshot is everything persisted, as loaded at startup.
type Snapshot struct {
	Products     []Product
	Sources      []Source
	Observations []PriceObservation
	Alerts       []Alert
	Settings     map[string]string
}
