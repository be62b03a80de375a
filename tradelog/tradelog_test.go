// Copyright (c) 2025 StratX21

package tradelog

import (
	"context"
	"testing"
	"time"

	"github.com/bvkgo/kv/kvmemdb"
	"github.com/shopspring/decimal"
	"github.com/stratx21/scraperbot/broker"
	"github.com/stratx21/scraperbot/scraper"
)

func TestDayAnalysis(t *testing.T) {
	ctx := context.Background()
	db := kvmemdb.New()
	l := New(db)

	day := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	events := []*scraper.Event{
		{Time: day, Ticker: "AAA", Kind: scraper.EventFill, Side: broker.SideBuy, Price: decimal.RequireFromString("9.99"), Quantity: 1},
		{Time: day.Add(time.Minute), Ticker: "AAA", Kind: scraper.EventFill, Side: broker.SideSell, Price: decimal.RequireFromString("10.01"), Quantity: 1},
		{Time: day.Add(2 * time.Minute), Ticker: "AAA", Kind: scraper.EventError, Message: "quote failed"},
		{Time: day.Add(3 * time.Minute), Ticker: "AAA", Kind: scraper.EventOversold},
		// Different ticker and different day are excluded.
		{Time: day, Ticker: "BBB", Kind: scraper.EventFill, Side: broker.SideBuy, Price: decimal.RequireFromString("5"), Quantity: 1},
		{Time: day.AddDate(0, 0, 1), Ticker: "AAA", Kind: scraper.EventFill, Side: broker.SideBuy, Price: decimal.RequireFromString("1"), Quantity: 1},
	}
	for _, ev := range events {
		if err := l.Record(ctx, ev); err != nil {
			t.Fatal(err)
		}
	}

	summary, err := l.DayAnalysis(ctx, "AAA", day)
	if err != nil {
		t.Fatal(err)
	}
	if summary.NumBuys != 1 || summary.NumSells != 1 {
		t.Errorf("buys/sells: got %d/%d, want 1/1", summary.NumBuys, summary.NumSells)
	}
	if v := summary.GrossScraped(); !v.Equal(decimal.RequireFromString("0.02")) {
		t.Errorf("gross scraped: got %s, want 0.02", v)
	}
	if summary.NetQuantity() != 0 {
		t.Errorf("net quantity: got %d, want 0", summary.NetQuantity())
	}
	if summary.NumErrors != 1 || summary.NumOversold != 1 {
		t.Errorf("errors/oversold: got %d/%d, want 1/1", summary.NumErrors, summary.NumOversold)
	}
}

func TestRecordEventWithoutTicker(t *testing.T) {
	ctx := context.Background()
	db := kvmemdb.New()
	l := New(db)

	ev := &scraper.Event{
		Time:    time.Now(),
		Kind:    scraper.EventRareError,
		Message: "unknown command",
	}
	if err := l.Record(ctx, ev); err != nil {
		t.Fatal(err)
	}
}
