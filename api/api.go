// Copyright (c) 2025 StratX21

// Package api defines the http endpoint paths and the JSON types exchanged
// between the scraperbot server and its clients.
package api

import "time"

const (
	// PidPath responds with the server process id in plain text.
	PidPath = "/pid"

	// StatusPath responds with a StatusResponse.
	StatusPath = "/status"

	// EventsPath upgrades to a websocket that streams Event values as JSON
	// messages.
	EventsPath = "/events/ws"

	// DBPath serves the key-value database over http.
	DBPath = "/db/"
)

// ScraperStatus describes one running scraper.
type ScraperStatus struct {
	Ticker           string `json:"ticker"`
	Equity           int64  `json:"equity"`
	MaintainedEquity int64  `json:"maintained_equity"`
	WorkingBuy       bool   `json:"working_buy"`
	WorkingSell      bool   `json:"working_sell"`
	Draining         bool   `json:"draining"`
}

type StatusResponse struct {
	Pid       int       `json:"pid"`
	StartTime time.Time `json:"start_time"`

	CPUPercent          float64 `json:"cpu_percent"`
	ResidentMemoryBytes uint64  `json:"resident_memory_bytes"`

	Scrapers []*ScraperStatus `json:"scrapers"`
}

// Event mirrors a scraper event on the websocket stream. Side, Price and
// Quantity are set only on fill events.
type Event struct {
	Time   time.Time `json:"time"`
	Ticker string    `json:"ticker"`
	Kind   string    `json:"kind"`

	Side     string `json:"side,omitempty"`
	Price    string `json:"price,omitempty"`
	Quantity int64  `json:"quantity,omitempty"`

	Message string `json:"message,omitempty"`
}
