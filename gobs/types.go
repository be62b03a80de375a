// Copyright (c) 2025 StratX21

// Package gobs holds types that are gob-encoded into the datastore. Fields
// can only be added; existing fields must never be removed or renamed.
package gobs

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeEvent records one outbound scraper event in the history log.
type TradeEvent struct {
	Time   time.Time
	Ticker string

	// Kind is one of the scraper event kinds (fill, error, etc.).
	Kind string

	// Side, Price and Quantity are set only for fill events.
	Side     string
	Price    decimal.Decimal
	Quantity int64

	Message string
}

// TelegramState remembers the authorized chat ids across restarts.
type TelegramState struct {
	UserChatIDMap map[string]int64
}

// ServerState holds miscellaneous server-scoped values.
type ServerState struct {
	// IDGenOffset is the next unused client-order-id offset.
	IDGenOffset uint64
}
