// Copyright (c) 2025 StratX21

package scraper

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

var (
	two  = decimal.New(2, 0)
	cent = decimal.New(1, -2)
)

type Options struct {
	// Quantity is the number of shares per order.
	Quantity int64

	// ProfitMargin is the target gap in dollars between the buy and sell
	// limit prices.
	ProfitMargin decimal.Decimal

	// MinSpread is the minimum bid/ask spread required to start a new
	// scrape while the position is flat.
	MinSpread decimal.Decimal

	// MaintainedEquity is the share count held at start. The scraper keeps
	// the position oscillating around this count and returns to it before
	// stopping.
	MaintainedEquity int64

	// TimeBeforeCancel is how long a working order is given to fill before
	// its cancel is dispatched.
	TimeBeforeCancel time.Duration

	// LoopMinimumRuntime is the minimum duration of one scraping iteration.
	LoopMinimumRuntime time.Duration

	// TrailingStopOffset is the dollar offset of the trailing-stop exit in
	// each bracketed placement.
	TrailingStopOffset decimal.Decimal
}

func (v *Options) setDefaults() {
	if v.Quantity == 0 {
		v.Quantity = 1
	}
	if v.ProfitMargin.IsZero() {
		v.ProfitMargin = decimal.New(2, -2)
	}
	if v.MinSpread.IsZero() {
		v.MinSpread = decimal.New(1, -1)
	}
	if v.TimeBeforeCancel == 0 {
		v.TimeBeforeCancel = 3 * time.Second
	}
	if v.LoopMinimumRuntime == 0 {
		v.LoopMinimumRuntime = 1500 * time.Millisecond
	}
	if v.TrailingStopOffset.IsZero() {
		v.TrailingStopOffset = decimal.New(7, -2)
	}
}

func (v *Options) Check() error {
	if v.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive: %w", os.ErrInvalid)
	}
	if v.ProfitMargin.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("profit margin must be positive: %w", os.ErrInvalid)
	}
	if !v.ProfitMargin.Mod(cent).IsZero() {
		return fmt.Errorf("profit margin must be a whole number of cents: %w", os.ErrInvalid)
	}
	if v.MinSpread.IsNegative() {
		return fmt.Errorf("minimum spread cannot be negative: %w", os.ErrInvalid)
	}
	if v.MaintainedEquity < 0 {
		return fmt.Errorf("maintained equity cannot be negative: %w", os.ErrInvalid)
	}
	if v.TimeBeforeCancel <= 0 || v.LoopMinimumRuntime <= 0 {
		return fmt.Errorf("durations must be positive: %w", os.ErrInvalid)
	}
	return nil
}

// buySellAdjustments splits the profit margin into the buy-side and
// sell-side distances from the spread midpoint. An even number of cents
// splits equally; an odd number of cents gives the extra cent to the buy
// side.
func buySellAdjustments(margin decimal.Decimal) (buy, sell decimal.Decimal) {
	cents := margin.Div(cent)
	if cents.Mod(two).IsZero() {
		half := margin.Div(two)
		return half, half
	}
	half := margin.Sub(cent).Div(two)
	return half.Add(cent), half
}
