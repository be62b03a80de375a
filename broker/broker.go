// Copyright (c) 2025 StratX21

// Package broker defines the brokerage capability set consumed by the
// scraping engine, along with the credential and error types shared between
// the engine and the brokerage implementations.
package broker

import (
	"context"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderID identifies a working order at the brokerage.
type OrderID string

// Quote is a top-of-book snapshot for one instrument.
type Quote struct {
	Bid decimal.Decimal
	Ask decimal.Decimal
}

func (q *Quote) Spread() decimal.Decimal {
	return q.Ask.Sub(q.Bid)
}

// Credentials is the bearer token pair for brokerage requests. The api token
// authorizes order-status operations (cancels) and the update token
// authorizes trading operations (quotes, placements). Credentials are passed
// by value on every call; holders keep their own copy and replace it
// wholesale when a refreshed pair is handed to them.
type Credentials struct {
	APIToken    string
	UpdateToken string
}

// Order describes a bracketed entry to be placed: a limit order at
// LimitPrice paired with a trailing-stop exit offset by StopOffset.
type Order struct {
	ClientOrderID string
	Ticker        string
	Side          Side
	Quantity      int64
	LimitPrice    decimal.Decimal
	StopOffset    decimal.Decimal
}

// Client is the brokerage capability set. Implementations must be safe for
// concurrent use; every call takes the caller's credentials copy.
type Client interface {
	// GetQuote returns the current bid/ask for the ticker.
	GetQuote(ctx context.Context, creds Credentials, ticker string) (*Quote, error)

	// PlaceBracketedOrder places a limit entry paired with a trailing-stop
	// exit and returns the id of the working limit order. Rejections are
	// returned as *PlacementError.
	PlaceBracketedOrder(ctx context.Context, creds Credentials, order *Order) (OrderID, error)

	// CancelOrder cancels a working order. The price is the limit price that
	// was used when the order was placed. Failures are returned as
	// *CancelError with the brokerage's reason code.
	CancelOrder(ctx context.Context, creds Credentials, id OrderID, ticker string, side Side, price decimal.Decimal, quantity int64) error

	// RefreshCredentials exchanges the current pair for a fresh one.
	RefreshCredentials(ctx context.Context, creds Credentials) (Credentials, error)
}
