// Copyright (c) 2025 StratX21

package scraper

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stratx21/scraperbot/broker"
)

type EventKind string

const (
	// EventStopped reports that a scraper has drained its position and
	// exited.
	EventStopped EventKind = "stopped"

	// EventFill reports an order that is assumed to have filled.
	EventFill EventKind = "fill"

	// EventError reports a non-fatal per-iteration failure.
	EventError EventKind = "error"

	// EventRareError reports an unexpected condition that should never
	// happen in normal operation.
	EventRareError EventKind = "rare-error"

	// EventOversold reports a sell placement that was rejected because it
	// would take the position negative.
	EventOversold EventKind = "oversold"
)

// Event is an outbound notification from a scraper. Side, Price and Quantity
// are set only on fill events.
type Event struct {
	Time   time.Time
	Ticker string
	Kind   EventKind

	Side     broker.Side
	Price    decimal.Decimal
	Quantity int64

	Message string
}

func (e *Event) String() string {
	if e.Kind == EventFill {
		return fmt.Sprintf("%s %s: %s %d @ %s (%s)", e.Ticker, e.Kind, e.Side, e.Quantity, e.Price.StringFixed(2), e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Ticker, e.Kind, e.Message)
}
