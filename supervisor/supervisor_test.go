// Copyright (c) 2025 StratX21

package supervisor

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stratx21/scraperbot/broker"
	"github.com/stratx21/scraperbot/scraper"
)

type fakeBroker struct {
	mu sync.Mutex

	nextID     int64
	refreshes  int64
	placeToken string
}

func (f *fakeBroker) GetQuote(ctx context.Context, creds broker.Credentials, ticker string) (*broker.Quote, error) {
	return &broker.Quote{
		Bid: decimal.RequireFromString("9.95"),
		Ask: decimal.RequireFromString("10.05"),
	}, nil
}

func (f *fakeBroker) PlaceBracketedOrder(ctx context.Context, creds broker.Credentials, order *broker.Order) (broker.OrderID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.placeToken = creds.APIToken
	return broker.OrderID(fmt.Sprintf("%d", f.nextID)), nil
}

func (f *fakeBroker) CancelOrder(ctx context.Context, creds broker.Credentials, id broker.OrderID, ticker string, side broker.Side, price decimal.Decimal, quantity int64) error {
	return nil
}

func (f *fakeBroker) RefreshCredentials(ctx context.Context, creds broker.Credentials) (broker.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return broker.Credentials{
		APIToken:    fmt.Sprintf("api-%d", f.refreshes),
		UpdateToken: fmt.Sprintf("update-%d", f.refreshes),
	}, nil
}

func (f *fakeBroker) lastPlaceToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.placeToken
}

func fastOptions() *Options {
	return &Options{
		TickInterval:    5 * time.Millisecond,
		RefreshInterval: time.Hour,
	}
}

func scraperOptions() *scraper.Options {
	return &scraper.Options{
		MaintainedEquity:   1,
		TimeBeforeCancel:   5 * time.Millisecond,
		LoopMinimumRuntime: 10 * time.Millisecond,
	}
}

func waitFor(t *testing.T, timeout time.Duration, what string, f func() bool) {
	t.Helper()
	for deadline := time.Now().Add(timeout); time.Now().Before(deadline); {
		if f() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func status(t *testing.T, s *Supervisor) []*Status {
	t.Helper()
	replyCh := make(chan []*Status, 1)
	s.CommandCh() <- StatusCommand{ReplyCh: replyCh}
	select {
	case v := <-replyCh:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("no status reply")
		return nil
	}
}

func collectEvents(t *testing.T, s *Supervisor) (func(kind scraper.EventKind) []*scraper.Event, func()) {
	t.Helper()
	ch, unsubscribe, err := s.Subscribe(100)
	if err != nil {
		t.Fatal(err)
	}
	var mu sync.Mutex
	var events []*scraper.Event
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range ch {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
		}
	}()
	byKind := func(kind scraper.EventKind) []*scraper.Event {
		mu.Lock()
		defer mu.Unlock()
		var out []*scraper.Event
		for _, e := range events {
			if e.Kind == kind {
				out = append(out, e)
			}
		}
		return out
	}
	return byKind, unsubscribe
}

func TestSpawnStopLifecycle(t *testing.T) {
	fake := new(fakeBroker)
	s := New(fake, broker.Credentials{APIToken: "a", UpdateToken: "u"}, fastOptions())
	byKind, unsubscribe := collectEvents(t, s)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(ctx)
	}()

	s.CommandCh() <- SpawnCommand{Ticker: "AAA", Options: scraperOptions()}
	waitFor(t, 5*time.Second, "AAA to appear in status", func() bool {
		v := status(t, s)
		return len(v) == 1 && v[0].Ticker == "AAA"
	})

	// A duplicate spawn is rejected with a rare error.
	s.CommandCh() <- SpawnCommand{Ticker: "AAA", Options: scraperOptions()}
	waitFor(t, 5*time.Second, "duplicate spawn rare error", func() bool {
		return len(byKind(scraper.EventRareError)) >= 1
	})

	s.CommandCh() <- StopCommand{Ticker: "AAA"}
	waitFor(t, 5*time.Second, "AAA to drain", func() bool {
		return len(status(t, s)) == 0
	})
	waitFor(t, 5*time.Second, "stopped event", func() bool {
		return len(byKind(scraper.EventStopped)) == 1
	})

	cancel()
	select {
	case <-errCh:
	case <-time.After(5 * time.Second):
		t.Fatalf("supervisor did not exit after context cancel")
	}
}

func TestStopUnknownTicker(t *testing.T) {
	fake := new(fakeBroker)
	s := New(fake, broker.Credentials{}, fastOptions())
	byKind, unsubscribe := collectEvents(t, s)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(ctx)
	}()

	s.CommandCh() <- StopCommand{Ticker: "NOPE"}
	waitFor(t, 5*time.Second, "rare error for unknown ticker", func() bool {
		return len(byKind(scraper.EventRareError)) == 1
	})

	cancel()
	<-errCh
}

func TestStopAllDrainsEverything(t *testing.T) {
	fake := new(fakeBroker)
	s := New(fake, broker.Credentials{}, fastOptions())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(ctx)
	}()

	s.CommandCh() <- SpawnCommand{Ticker: "AAA", Options: scraperOptions()}
	s.CommandCh() <- SpawnCommand{Ticker: "BBB", Options: scraperOptions()}
	waitFor(t, 5*time.Second, "both tickers running", func() bool {
		return len(status(t, s)) == 2
	})

	s.CommandCh() <- StopAllCommand{}
	waitFor(t, 5*time.Second, "all tickers drained", func() bool {
		return len(status(t, s)) == 0
	})

	cancel()
	<-errCh
}

func TestCredentialRefreshReachesScrapers(t *testing.T) {
	fake := new(fakeBroker)
	opts := fastOptions()
	opts.RefreshInterval = 10 * time.Millisecond
	s := New(fake, broker.Credentials{APIToken: "boot", UpdateToken: "boot"}, opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(ctx)
	}()

	s.CommandCh() <- SpawnCommand{Ticker: "AAA", Options: scraperOptions()}

	// Placements eventually carry a refreshed token instead of the
	// bootstrap pair.
	waitFor(t, 5*time.Second, "refreshed token in placement", func() bool {
		tok := fake.lastPlaceToken()
		return len(tok) > 0 && tok != "boot"
	})

	cancel()
	<-errCh
}

type bogusCommand struct{}

func (bogusCommand) isCommand() {}

func TestUnknownCommandReportsRareError(t *testing.T) {
	fake := new(fakeBroker)
	s := New(fake, broker.Credentials{}, fastOptions())
	byKind, unsubscribe := collectEvents(t, s)
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(ctx)
	}()

	s.CommandCh() <- bogusCommand{}
	waitFor(t, 5*time.Second, "rare error for unknown command", func() bool {
		return len(byKind(scraper.EventRareError)) == 1
	})

	cancel()
	<-errCh
}
