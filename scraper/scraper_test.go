// Copyright (c) 2025 StratX21

package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stratx21/scraperbot/broker"
)

type placedOrder struct {
	Order *broker.Order
	Creds broker.Credentials
}

type canceledOrder struct {
	ID    broker.OrderID
	Side  broker.Side
	Price decimal.Decimal
}

type fakeBroker struct {
	mu sync.Mutex

	quote broker.Quote

	nextID int64

	places  []placedOrder
	cancels []canceledOrder

	placeErr  func(o *broker.Order) error
	cancelErr func(id broker.OrderID, side broker.Side) error
}

func (f *fakeBroker) GetQuote(ctx context.Context, creds broker.Credentials, ticker string) (*broker.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := f.quote
	return &q, nil
}

func (f *fakeBroker) PlaceBracketedOrder(ctx context.Context, creds broker.Credentials, order *broker.Order) (broker.OrderID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.placeErr != nil {
		if err := f.placeErr(order); err != nil {
			return "", err
		}
	}
	f.nextID++
	f.places = append(f.places, placedOrder{Order: order, Creds: creds})
	return broker.OrderID(fmt.Sprintf("%d", f.nextID)), nil
}

func (f *fakeBroker) CancelOrder(ctx context.Context, creds broker.Credentials, id broker.OrderID, ticker string, side broker.Side, price decimal.Decimal, quantity int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelErr != nil {
		if err := f.cancelErr(id, side); err != nil {
			return err
		}
	}
	f.cancels = append(f.cancels, canceledOrder{ID: id, Side: side, Price: price})
	return nil
}

func (f *fakeBroker) RefreshCredentials(ctx context.Context, creds broker.Credentials) (broker.Credentials, error) {
	return creds, nil
}

func (f *fakeBroker) placed(side broker.Side) []placedOrder {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []placedOrder
	for _, p := range f.places {
		if p.Order.Side == side {
			out = append(out, p)
		}
	}
	return out
}

func (f *fakeBroker) canceled(side broker.Side) []canceledOrder {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []canceledOrder
	for _, c := range f.cancels {
		if c.Side == side {
			out = append(out, c)
		}
	}
	return out
}

type eventLog struct {
	mu     sync.Mutex
	events []*Event
}

func (l *eventLog) add(e *Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) byKind(kind EventKind) []*Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*Event
	for _, e := range l.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func fastOptions() *Options {
	return &Options{
		Quantity:           1,
		ProfitMargin:       decimal.RequireFromString("0.02"),
		MinSpread:          decimal.RequireFromString("0.1"),
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

func TestBuySellAdjustments(t *testing.T) {
	tests := []struct {
		margin, buy, sell string
	}{
		{"0.02", "0.01", "0.01"},
		{"0.03", "0.02", "0.01"},
		{"0.05", "0.03", "0.02"},
		{"0.1", "0.05", "0.05"},
	}
	for _, tc := range tests {
		buy, sell := buySellAdjustments(decimal.RequireFromString(tc.margin))
		if !buy.Equal(decimal.RequireFromString(tc.buy)) || !sell.Equal(decimal.RequireFromString(tc.sell)) {
			t.Errorf("adjustments(%s): got %s/%s, want %s/%s", tc.margin, buy, sell, tc.buy, tc.sell)
		}
		if !buy.Add(sell).Equal(decimal.RequireFromString(tc.margin)) {
			t.Errorf("adjustments(%s) do not add up to the margin", tc.margin)
		}
	}
}

func TestScrapeAndStop(t *testing.T) {
	fake := &fakeBroker{
		quote: broker.Quote{
			Bid: decimal.RequireFromString("9.95"),
			Ask: decimal.RequireFromString("10.05"),
		},
	}
	log := new(eventLog)

	s, err := New("TEST", fake, broker.Credentials{APIToken: "a", UpdateToken: "u"}, fastOptions(), log.add)
	if err != nil {
		t.Fatal(err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(context.Background())
	}()

	waitFor(t, 5*time.Second, "both sides placed and canceled", func() bool {
		return len(fake.canceled(broker.SideBuy)) > 0 && len(fake.canceled(broker.SideSell)) > 0
	})

	s.ControlCh() <- StopRequest{}
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("scraper did not stop")
	}

	// Midpoint is 10.00 and the 2 cent margin splits evenly.
	buys, sells := fake.placed(broker.SideBuy), fake.placed(broker.SideSell)
	if len(buys) == 0 || len(sells) == 0 {
		t.Fatalf("both sides must be placed (buys=%d sells=%d)", len(buys), len(sells))
	}
	if v := buys[0].Order.LimitPrice; !v.Equal(decimal.RequireFromString("9.99")) {
		t.Errorf("buy price: got %s, want 9.99", v)
	}
	if v := sells[0].Order.LimitPrice; !v.Equal(decimal.RequireFromString("10.01")) {
		t.Errorf("sell price: got %s, want 10.01", v)
	}
	if v := fake.canceled(broker.SideBuy)[0].Price; !v.Equal(decimal.RequireFromString("9.99")) {
		t.Errorf("buy cancel price: got %s, want the placement price 9.99", v)
	}

	if stopped := log.byKind(EventStopped); len(stopped) != 1 {
		t.Errorf("stopped events: got %d, want 1", len(stopped))
	}
	if v := s.Equity(); v != 1 {
		t.Errorf("equity after stop: got %d, want 1", v)
	}
}

func TestTightSpreadSkipsScraping(t *testing.T) {
	fake := &fakeBroker{
		quote: broker.Quote{
			Bid: decimal.RequireFromString("10.00"),
			Ask: decimal.RequireFromString("10.04"),
		},
	}
	log := new(eventLog)

	s, err := New("TEST", fake, broker.Credentials{}, fastOptions(), log.add)
	if err != nil {
		t.Fatal(err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(context.Background())
	}()

	time.Sleep(100 * time.Millisecond)
	fake.mu.Lock()
	nplaces := len(fake.places)
	fake.mu.Unlock()
	if nplaces != 0 {
		t.Errorf("tight spread must not place orders (got %d places)", nplaces)
	}

	s.ControlCh() <- StopRequest{}
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("scraper did not stop")
	}
}

func TestDrainFlattensPosition(t *testing.T) {
	fake := &fakeBroker{
		quote: broker.Quote{
			Bid: decimal.RequireFromString("9.95"),
			Ask: decimal.RequireFromString("10.05"),
		},
		// Every cancel fails, so every placed order is assumed filled.
		cancelErr: func(id broker.OrderID, side broker.Side) error {
			return errors.New("order not found")
		},
	}
	log := new(eventLog)

	s, err := New("TEST", fake, broker.Credentials{}, fastOptions(), log.add)
	if err != nil {
		t.Fatal(err)
	}

	// Start one share above the maintained equity with a stop already
	// requested; the scraper must sell exactly once to flatten.
	s.equity.Store(2)
	s.ControlCh() <- StopRequest{}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(context.Background())
	}()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("scraper did not drain")
	}

	if v := s.Equity(); v != 1 {
		t.Errorf("equity after drain: got %d, want 1", v)
	}
	if buys := fake.placed(broker.SideBuy); len(buys) != 0 {
		t.Errorf("draining from above must not buy (got %d buys)", len(buys))
	}
	if sells := fake.placed(broker.SideSell); len(sells) != 1 {
		t.Errorf("draining from one share above must sell once (got %d sells)", len(sells))
	}
	fills := log.byKind(EventFill)
	if len(fills) != 1 || fills[0].Side != broker.SideSell {
		t.Errorf("fill events: got %v, want one sell fill", fills)
	}
}

func TestContextCancelRequestsStop(t *testing.T) {
	fake := &fakeBroker{
		quote: broker.Quote{
			Bid: decimal.RequireFromString("9.95"),
			Ask: decimal.RequireFromString("10.05"),
		},
	}
	log := new(eventLog)

	s, err := New("TEST", fake, broker.Credentials{}, fastOptions(), log.add)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Run(ctx)
	}()

	waitFor(t, 5*time.Second, "first placement", func() bool {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		return len(fake.places) > 0
	})
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("scraper did not stop after context cancel")
	}
	if v := s.Equity(); v != 1 {
		t.Errorf("equity after stop: got %d, want 1", v)
	}
}

func newTestSideWorker(side broker.Side, client broker.Client, log *eventLog) (*sideWorker, *atomic.Int64, *atomic.Pointer[workingOrder]) {
	opts := fastOptions()
	opts.setDefaults()
	equity := new(atomic.Int64)
	equity.Store(1)
	order := new(atomic.Pointer[workingOrder])
	w := newSideWorker(side, "TEST", opts, client, broker.Credentials{}, equity, order, log.add)
	return w, equity, order
}

func TestAssumeFilledOnCancelFailure(t *testing.T) {
	fake := &fakeBroker{
		cancelErr: func(id broker.OrderID, side broker.Side) error {
			return errors.New("order not found")
		},
	}
	log := new(eventLog)
	w, equity, order := newTestSideWorker(broker.SideBuy, fake, log)
	go w.run(context.Background())

	price := decimal.RequireFromString("9.99")
	w.cmdCh <- placeCmd{price: price}
	w.cmdCh <- cancelCmd{price: price}
	w.cmdCh <- stopCmd{}
	<-w.doneCh

	if v := equity.Load(); v != 2 {
		t.Errorf("equity: got %d, want 2", v)
	}
	if order.Load() != nil {
		t.Errorf("working order must be cleared after an assumed fill")
	}
	fills := log.byKind(EventFill)
	if len(fills) != 1 {
		t.Fatalf("fill events: got %d, want 1", len(fills))
	}
	if fills[0].Side != broker.SideBuy || !fills[0].Price.Equal(price) {
		t.Errorf("fill event: got %s %s, want BUY %s", fills[0].Side, fills[0].Price, price)
	}
}

func TestUnsupportedVersionCancelLeavesOrder(t *testing.T) {
	fake := &fakeBroker{
		cancelErr: func(id broker.OrderID, side broker.Side) error {
			return &broker.CancelError{OrderID: id, Reason: broker.CancelReasonUnsupportedAPIVersion}
		},
	}
	log := new(eventLog)
	w, equity, order := newTestSideWorker(broker.SideSell, fake, log)
	go w.run(context.Background())

	price := decimal.RequireFromString("10.01")
	w.cmdCh <- placeCmd{price: price}
	w.cmdCh <- cancelCmd{price: price}
	w.cmdCh <- stopCmd{}
	<-w.doneCh

	if v := equity.Load(); v != 1 {
		t.Errorf("equity must be unchanged: got %d, want 1", v)
	}
	if order.Load() == nil {
		t.Errorf("working order must survive an unsupported version cancel failure")
	}
	if fills := log.byKind(EventFill); len(fills) != 0 {
		t.Errorf("fill events: got %d, want 0", len(fills))
	}
}

func TestOversoldSellPlacement(t *testing.T) {
	fake := &fakeBroker{
		placeErr: func(o *broker.Order) error {
			return &broker.PlacementError{
				Ticker:   o.Ticker,
				Side:     o.Side,
				Messages: []string{"This order could result in an oversold position."},
			}
		},
	}
	log := new(eventLog)
	w, equity, order := newTestSideWorker(broker.SideSell, fake, log)
	go w.run(context.Background())

	w.cmdCh <- placeCmd{price: decimal.RequireFromString("10.01")}
	w.cmdCh <- stopCmd{}
	<-w.doneCh

	if order.Load() != nil {
		t.Errorf("rejected placement must not record a working order")
	}
	if v := equity.Load(); v != 1 {
		t.Errorf("equity must be unchanged: got %d, want 1", v)
	}
	if events := log.byKind(EventOversold); len(events) != 1 {
		t.Fatalf("oversold events: got %d, want 1", len(events))
	}
	if events := log.byKind(EventError); len(events) != 0 {
		t.Errorf("oversold rejection must not double-report as a plain error")
	}
}

func TestWorkerIgnoresDuplicatePlace(t *testing.T) {
	fake := new(fakeBroker)
	log := new(eventLog)
	w, _, order := newTestSideWorker(broker.SideBuy, fake, log)
	go w.run(context.Background())

	price := decimal.RequireFromString("9.99")
	w.cmdCh <- placeCmd{price: price}
	w.cmdCh <- placeCmd{price: price}
	w.cmdCh <- stopCmd{}
	<-w.doneCh

	if n := len(fake.placed(broker.SideBuy)); n != 1 {
		t.Errorf("places: got %d, want 1", n)
	}
	if order.Load() == nil {
		t.Errorf("working order must be recorded")
	}
}
