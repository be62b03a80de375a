// Copyright (c) 2025 StratX21

package server

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stratx21/scraperbot/broker"
	"github.com/stratx21/scraperbot/scraper"
)

func TestParseSeconds(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"3s", 3 * time.Second},
		{"1500ms", 1500 * time.Millisecond},
		{"3", 3 * time.Second},
		{"0.5", 500 * time.Millisecond},
	}
	for _, c := range cases {
		got, err := parseSeconds(c.in)
		if err != nil {
			t.Fatalf("parseSeconds(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("parseSeconds(%q): got %v, want %v", c.in, got, c.want)
		}
	}
	if _, err := parseSeconds("soon"); err == nil {
		t.Errorf("parseSeconds(\"soon\"): wanted an error")
	}
}

func TestAPIEvent(t *testing.T) {
	at := time.Now()
	fill := &scraper.Event{
		Time:     at,
		Ticker:   "AAA",
		Kind:     scraper.EventFill,
		Side:     broker.SideBuy,
		Price:    decimal.RequireFromString("9.99"),
		Quantity: 2,
		Message:  "assumed filled",
	}
	v := apiEvent(fill)
	if v.Kind != "fill" || v.Side != "BUY" || v.Price != "9.99" || v.Quantity != 2 {
		t.Errorf("unexpected fill event: %+v", v)
	}

	oversold := &scraper.Event{
		Time:   at,
		Ticker: "AAA",
		Kind:   scraper.EventOversold,
	}
	v = apiEvent(oversold)
	if v.Side != "" || v.Price != "" || v.Quantity != 0 {
		t.Errorf("non-fill event should not carry order fields: %+v", v)
	}
}
