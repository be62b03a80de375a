// Copyright (c) 2025 StratX21

package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stratx21/scraperbot/broker"
	"github.com/stratx21/scraperbot/idgen"
)

// command is the closed set of requests a side worker consumes. Commands are
// processed one at a time in FIFO order, which is what keeps the
// one-working-order-per-side invariant without any locking.
type command interface {
	isCommand()
}

type placeCmd struct {
	price decimal.Decimal
}

type cancelCmd struct {
	price decimal.Decimal
}

type credsCmd struct {
	creds broker.Credentials
}

type stopCmd struct{}

func (placeCmd) isCommand()  {}
func (cancelCmd) isCommand() {}
func (credsCmd) isCommand()  {}
func (stopCmd) isCommand()   {}

// workingOrder is the live order on one side, along with the limit price
// that was used when it was placed.
type workingOrder struct {
	ID    broker.OrderID
	Price decimal.Decimal
}

// sideWorker owns the brokerage traffic for one side of the spread. The
// scraper loop writes commands; the worker is the only goroutine that
// mutates the working-order pointer, and it adjusts the shared equity
// counter when an order is assumed to have filled.
type sideWorker struct {
	side     broker.Side
	ticker   string
	quantity int64

	stopOffset decimal.Decimal

	client broker.Client
	creds  broker.Credentials

	equity *atomic.Int64
	order  *atomic.Pointer[workingOrder]

	idgen *idgen.Generator

	eventFn func(*Event)

	cmdCh  chan command
	doneCh chan struct{}
}

func newSideWorker(side broker.Side, ticker string, opts *Options, client broker.Client, creds broker.Credentials, equity *atomic.Int64, order *atomic.Pointer[workingOrder], eventFn func(*Event)) *sideWorker {
	return &sideWorker{
		side:       side,
		ticker:     ticker,
		quantity:   opts.Quantity,
		stopOffset: opts.TrailingStopOffset,
		client:     client,
		creds:      creds,
		equity:     equity,
		order:      order,
		idgen:      idgen.New(fmt.Sprintf("%s-%s-%d", ticker, side, time.Now().UnixNano()), 0),
		eventFn:    eventFn,
		cmdCh:      make(chan command, 16),
		doneCh:     make(chan struct{}),
	}
}

func (w *sideWorker) run(ctx context.Context) {
	defer close(w.doneCh)
	for cmd := range w.cmdCh {
		switch c := cmd.(type) {
		case placeCmd:
			w.place(ctx, c.price)
		case cancelCmd:
			w.cancel(ctx, c.price)
		case credsCmd:
			w.creds = c.creds
		case stopCmd:
			return
		}
	}
}

func (w *sideWorker) place(ctx context.Context, price decimal.Decimal) {
	if w.order.Load() != nil {
		slog.Warn("skipping place because a working order already exists", "ticker", w.ticker, "side", w.side)
		return
	}

	order := &broker.Order{
		ClientOrderID: w.idgen.NextID(),
		Ticker:        w.ticker,
		Side:          w.side,
		Quantity:      w.quantity,
		LimitPrice:    price,
		StopOffset:    w.stopOffset,
	}
	id, err := w.client.PlaceBracketedOrder(ctx, w.creds, order)
	if err != nil {
		var perr *broker.PlacementError
		if w.side == broker.SideSell && errors.As(err, &perr) && perr.IsOversold() {
			w.eventFn(&Event{
				Time:    time.Now(),
				Ticker:  w.ticker,
				Kind:    EventOversold,
				Message: "placing a sell would cause a negative position",
			})
			return
		}
		w.eventFn(&Event{
			Time:    time.Now(),
			Ticker:  w.ticker,
			Kind:    EventError,
			Message: fmt.Sprintf("could not place %s order: %v", w.side, err),
		})
		return
	}
	w.order.Store(&workingOrder{ID: id, Price: price})
}

func (w *sideWorker) cancel(ctx context.Context, price decimal.Decimal) {
	wo := w.order.Load()
	if wo == nil {
		return
	}

	err := w.client.CancelOrder(ctx, w.creds, wo.ID, w.ticker, w.side, price, w.quantity)
	if err == nil {
		w.order.Store(nil)
		return
	}

	var cerr *broker.CancelError
	if errors.As(err, &cerr) && cerr.Reason == broker.CancelReasonUnsupportedAPIVersion {
		// The request was rejected before reaching the order, so the order
		// is still working. The next iteration retries the cancel.
		slog.Warn("cancel request was rejected without reaching the order (will retry)", "ticker", w.ticker, "side", w.side, "order-id", wo.ID, "err", err)
		return
	}

	// Any other cancel failure means the order is no longer working, which
	// almost always means it filled. Adjust equity as if it did.
	if w.side == broker.SideBuy {
		w.equity.Add(w.quantity)
	} else {
		w.equity.Add(-w.quantity)
	}
	w.order.Store(nil)
	w.eventFn(&Event{
		Time:     time.Now(),
		Ticker:   w.ticker,
		Kind:     EventFill,
		Side:     w.side,
		Price:    wo.Price,
		Quantity: w.quantity,
		Message:  fmt.Sprintf("assumed filled after cancel failure: %v", err),
	})
}
