// Copyright (c) 2025 StratX21

// Package tradelog records outbound scraper events in the datastore and
// summarizes a ticker's activity for a day. The log is post-hoc history
// only; nothing in the order-management path reads it back.
package tradelog

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/bvkgo/kv"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stratx21/scraperbot/broker"
	"github.com/stratx21/scraperbot/gobs"
	"github.com/stratx21/scraperbot/kvutil"
	"github.com/stratx21/scraperbot/scraper"
)

const Keyspace = "/tradelog"

type Log struct {
	db kv.Database
}

func New(db kv.Database) *Log {
	return &Log{db: db}
}

// Record saves one event. Keys sort by time within a ticker; a random
// suffix keeps same-timestamp events from colliding.
func (l *Log) Record(ctx context.Context, ev *scraper.Event) error {
	record := &gobs.TradeEvent{
		Time:     ev.Time,
		Ticker:   ev.Ticker,
		Kind:     string(ev.Kind),
		Side:     string(ev.Side),
		Price:    ev.Price,
		Quantity: ev.Quantity,
		Message:  ev.Message,
	}
	ticker := ev.Ticker
	if len(ticker) == 0 {
		ticker = "_"
	}
	key := path.Join(Keyspace, ticker, fmt.Sprintf("%s-%s", ev.Time.UTC().Format(time.RFC3339Nano), uuid.NewString()))
	if err := kvutil.SetDB(ctx, l.db, key, record); err != nil {
		return fmt.Errorf("could not save trade event: %w", err)
	}
	return nil
}

// DaySummary aggregates one ticker's assumed fills and failures for a
// calendar day.
type DaySummary struct {
	Ticker string
	Day    time.Time

	NumBuys  int64
	NumSells int64

	BoughtValue decimal.Decimal
	SoldValue   decimal.Decimal

	NumErrors   int64
	NumOversold int64
}

// NetQuantity is the day's position delta in shares.
func (s *DaySummary) NetQuantity() int64 {
	return s.NumBuys - s.NumSells
}

// GrossScraped is the sold value minus the bought value. It is only
// meaningful when the net quantity is close to zero.
func (s *DaySummary) GrossScraped() decimal.Decimal {
	return s.SoldValue.Sub(s.BoughtValue)
}

// DayAnalysis summarizes the ticker's events for the calendar day that
// contains the given time, in that time's location.
func (l *Log) DayAnalysis(ctx context.Context, ticker string, day time.Time) (*DaySummary, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	summary := &DaySummary{Ticker: ticker, Day: dayStart}

	begin, end := kvutil.PathRange(path.Join(Keyspace, ticker))
	collect := func(ctx context.Context, r kv.Reader, key string, ev *gobs.TradeEvent) error {
		if ev.Time.Before(dayStart) || !ev.Time.Before(dayEnd) {
			return nil
		}
		switch scraper.EventKind(ev.Kind) {
		case scraper.EventFill:
			value := ev.Price.Mul(decimal.NewFromInt(ev.Quantity))
			if ev.Side == string(broker.SideBuy) {
				summary.NumBuys += ev.Quantity
				summary.BoughtValue = summary.BoughtValue.Add(value)
			} else {
				summary.NumSells += ev.Quantity
				summary.SoldValue = summary.SoldValue.Add(value)
			}
		case scraper.EventError:
			summary.NumErrors++
		case scraper.EventOversold:
			summary.NumOversold++
		}
		return nil
	}
	if err := kvutil.AscendDB(ctx, l.db, begin, end, collect); err != nil {
		return nil, fmt.Errorf("could not scan trade log: %w", err)
	}
	return summary, nil
}
