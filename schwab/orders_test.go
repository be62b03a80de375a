// Copyright (c) 2025 StratX21

package schwab

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stratx21/scraperbot/broker"
)

func TestBracketRequest(t *testing.T) {
	c, err := New("12345678", nil)
	if err != nil {
		t.Fatal(err)
	}

	order := &broker.Order{
		ClientOrderID: "client-id-1",
		Ticker:        "TEST",
		Side:          broker.SideBuy,
		Quantity:      2,
		LimitPrice:    decimal.RequireFromString("9.955"),
		StopOffset:    decimal.RequireFromString("0.07"),
	}
	req := c.newBracketRequest(order)

	if req.OrderStrategy.OrderStrategyType != orderStrategyTypeOCO {
		t.Errorf("strategy type: got %d, want %d", req.OrderStrategy.OrderStrategyType, orderStrategyTypeOCO)
	}
	if n := len(req.OrderStrategy.ChildOrders); n != 2 {
		t.Fatalf("child orders: got %d, want 2", n)
	}

	entry, exit := req.OrderStrategy.ChildOrders[0], req.OrderStrategy.ChildOrders[1]
	if entry.OrderType != orderTypeLimit {
		t.Errorf("entry order type: got %s, want %s", entry.OrderType, orderTypeLimit)
	}
	if entry.LimitPrice != "9.96" {
		t.Errorf("entry limit price: got %s, want 9.96", entry.LimitPrice)
	}
	if exit.TrailingStop == nil {
		t.Fatalf("exit child has no trailing stop")
	}
	if exit.TrailingStop.StopPriceOffset != "0.07" {
		t.Errorf("trailing stop offset: got %s, want 0.07", exit.TrailingStop.StopPriceOffset)
	}
	if entry.OrderLegs[0].Instruction != instructionBuy {
		t.Errorf("instruction: got %d, want %d", entry.OrderLegs[0].Instruction, instructionBuy)
	}
	if entry.OrderLegs[0].Quantity != "2" {
		t.Errorf("quantity: got %s, want 2", entry.OrderLegs[0].Quantity)
	}
	if req.OrderProcessingControl != 1 {
		t.Errorf("processing control: got %d, want 1", req.OrderProcessingControl)
	}
}

func TestSubDollarPricePrecision(t *testing.T) {
	c, err := New("12345678", nil)
	if err != nil {
		t.Fatal(err)
	}

	order := &broker.Order{
		Ticker:     "PENY",
		Side:       broker.SideSell,
		Quantity:   1,
		LimitPrice: decimal.RequireFromString("0.12345"),
	}
	req := c.newBracketRequest(order)
	if v := req.OrderStrategy.ChildOrders[0].LimitPrice; v != "0.1235" {
		t.Errorf("limit price: got %s, want 0.1235", v)
	}
	if v := req.OrderStrategy.OrderLegs[0].Instruction; v != instructionSell {
		t.Errorf("instruction: got %d, want %d", v, instructionSell)
	}
}

func TestCancelErrorReason(t *testing.T) {
	err := newCancelError("100", 400, []byte(`{"ReasonCode":"UnsupportedApiVersion","Messages":["version mismatch"]}`))
	var cerr *broker.CancelError
	if !errors.As(err, &cerr) {
		t.Fatalf("got %T, want *broker.CancelError", err)
	}
	if cerr.Reason != broker.CancelReasonUnsupportedAPIVersion {
		t.Errorf("reason: got %q, want %q", cerr.Reason, broker.CancelReasonUnsupportedAPIVersion)
	}

	err = newCancelError("100", 500, []byte("internal error"))
	if !errors.As(err, &cerr) {
		t.Fatalf("got %T, want *broker.CancelError", err)
	}
	if cerr.Reason == broker.CancelReasonUnsupportedAPIVersion {
		t.Errorf("plain failure must not map to the unsupported version reason")
	}
}
