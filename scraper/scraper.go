// Copyright (c) 2025 StratX21

// Package scraper implements the per-instrument spread scraping loop. One
// scraper runs three goroutines: the decision loop and a dedicated worker
// for each order side. The loop decides what to do each iteration and the
// side workers carry the slow brokerage calls so that the loop never blocks
// on the network.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stratx21/scraperbot/broker"
)

// Control is the closed set of messages a supervisor can send to a running
// scraper. Controls are drained non-blockingly at the top of every
// iteration.
type Control interface {
	isControl()
}

// CredentialUpdate hands a refreshed token pair to the scraper, which
// forwards its own copies to both side workers.
type CredentialUpdate struct {
	Credentials broker.Credentials
}

// StopRequest asks the scraper to drain its position back to the maintained
// equity and exit. Stopping is cooperative and has no deadline.
type StopRequest struct{}

func (CredentialUpdate) isControl() {}
func (StopRequest) isControl()      {}

type Scraper struct {
	ticker string
	opts   Options

	client broker.Client

	buyAdjustment  decimal.Decimal
	sellAdjustment decimal.Decimal

	// creds and stopRequested are owned by the decision loop.
	creds         broker.Credentials
	stopRequested bool

	// equity and the working-order pointers are written by the side workers
	// and read by the decision loop and status reporters.
	equity    atomic.Int64
	buyOrder  atomic.Pointer[workingOrder]
	sellOrder atomic.Pointer[workingOrder]

	buy  *sideWorker
	sell *sideWorker

	controlCh chan Control

	eventFn func(*Event)
}

// New creates a scraper for one instrument. The eventFn callback receives
// all outbound events and may be invoked from any of the scraper's
// goroutines.
func New(ticker string, client broker.Client, creds broker.Credentials, opts *Options, eventFn func(*Event)) (*Scraper, error) {
	if len(ticker) == 0 {
		return nil, fmt.Errorf("ticker cannot be empty: %w", os.ErrInvalid)
	}
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}

	s := &Scraper{
		ticker:    ticker,
		opts:      *opts,
		client:    client,
		creds:     creds,
		controlCh: make(chan Control, 16),
		eventFn:   eventFn,
	}
	s.buyAdjustment, s.sellAdjustment = buySellAdjustments(opts.ProfitMargin)
	s.equity.Store(opts.MaintainedEquity)
	s.buy = newSideWorker(broker.SideBuy, ticker, opts, client, creds, &s.equity, &s.buyOrder, eventFn)
	s.sell = newSideWorker(broker.SideSell, ticker, opts, client, creds, &s.equity, &s.sellOrder, eventFn)
	return s, nil
}

func (s *Scraper) Ticker() string {
	return s.ticker
}

// Equity returns the current share count estimate.
func (s *Scraper) Equity() int64 {
	return s.equity.Load()
}

func (s *Scraper) MaintainedEquity() int64 {
	return s.opts.MaintainedEquity
}

func (s *Scraper) HasWorkingBuy() bool {
	return s.buyOrder.Load() != nil
}

func (s *Scraper) HasWorkingSell() bool {
	return s.sellOrder.Load() != nil
}

// ControlCh returns the channel for supervisor controls. Sends must not
// block forever; the channel is buffered and drained every iteration.
func (s *Scraper) ControlCh() chan<- Control {
	return s.controlCh
}

// Run executes the scraping loop until a stop request arrives and the
// position is flattened back to the maintained equity. Canceling the context
// is treated as a stop request; the drain still runs to completion, so
// brokerage calls are made on a detached context.
func (s *Scraper) Run(ctx context.Context) error {
	callCtx := context.WithoutCancel(ctx)
	go s.buy.run(callCtx)
	go s.sell.run(callCtx)

	slog.Info("started spread scraper", "ticker", s.ticker, "quantity", s.opts.Quantity, "profit-margin", s.opts.ProfitMargin, "maintained-equity", s.opts.MaintainedEquity)

	for {
		loopStart := time.Now()

		s.drainControls()
		if ctx.Err() != nil {
			s.stopRequested = true
		}

		if s.stopRequested && s.equity.Load() == s.opts.MaintainedEquity && s.buyOrder.Load() == nil && s.sellOrder.Load() == nil {
			s.buy.cmdCh <- stopCmd{}
			s.sell.cmdCh <- stopCmd{}
			<-s.buy.doneCh
			<-s.sell.doneCh
			slog.Info("spread scraper has drained and stopped", "ticker", s.ticker, "equity", s.equity.Load())
			s.eventFn(&Event{
				Time:    time.Now(),
				Ticker:  s.ticker,
				Kind:    EventStopped,
				Message: "stopped successfully",
			})
			return nil
		}

		skipped, err := s.step(callCtx, loopStart)
		if err != nil {
			s.eventFn(&Event{
				Time:    time.Now(),
				Ticker:  s.ticker,
				Kind:    EventError,
				Message: fmt.Sprintf("scraping iteration failed: %v", err),
			})
		}
		if skipped {
			continue
		}

		if d := s.opts.LoopMinimumRuntime - time.Since(loopStart); d > 0 {
			time.Sleep(d)
		}
	}
}

func (s *Scraper) drainControls() {
	for {
		select {
		case c := <-s.controlCh:
			switch v := c.(type) {
			case CredentialUpdate:
				s.creds = v.Credentials
				s.buy.cmdCh <- credsCmd{creds: v.Credentials}
				s.sell.cmdCh <- credsCmd{creds: v.Credentials}
			case StopRequest:
				if !s.stopRequested {
					slog.Info("stop requested; draining position to maintained equity", "ticker", s.ticker, "equity", s.equity.Load())
				}
				s.stopRequested = true
			default:
				s.eventFn(&Event{
					Time:    time.Now(),
					Ticker:  s.ticker,
					Kind:    EventRareError,
					Message: fmt.Sprintf("unknown control message %T is ignored", c),
				})
			}
		default:
			return
		}
	}
}

// step runs one scraping iteration: fetch a quote, place the eligible sides
// around the midpoint, give the orders time to fill, then dispatch cancels
// for whatever is still working. Returns skipped=true when the iteration
// was abandoned early because the spread is too tight to scrape.
func (s *Scraper) step(ctx context.Context, loopStart time.Time) (skipped bool, err error) {
	q, err := s.client.GetQuote(ctx, s.creds, s.ticker)
	if err != nil {
		return false, fmt.Errorf("could not fetch quote: %w", err)
	}

	mid := q.Bid.Add(q.Ask).Div(two).Round(2)
	buyPrice := mid.Sub(s.buyAdjustment)
	sellPrice := mid.Add(s.sellAdjustment)

	equity := s.equity.Load()
	if equity == s.opts.MaintainedEquity && q.Spread().LessThan(s.opts.MinSpread) {
		// Too tight to profit. Check again after half an iteration.
		if d := s.opts.LoopMinimumRuntime/2 - time.Since(loopStart); d > 0 {
			time.Sleep(d)
		}
		return true, nil
	}

	investStart := time.Now()

	if s.sellEligible(equity) && s.sellOrder.Load() == nil {
		s.sell.cmdCh <- placeCmd{price: sellPrice}
	}
	if s.buyEligible(equity) && s.buyOrder.Load() == nil {
		s.buy.cmdCh <- placeCmd{price: buyPrice}
	}

	if d := s.opts.TimeBeforeCancel - time.Since(investStart); d > 0 {
		time.Sleep(d)
	}

	if wo := s.buyOrder.Load(); wo != nil {
		s.buy.cmdCh <- cancelCmd{price: wo.Price}
	}
	if wo := s.sellOrder.Load(); wo != nil {
		s.sell.cmdCh <- cancelCmd{price: wo.Price}
	}
	return false, nil
}

// sellEligible reports whether a sell may be placed at the given equity.
// While draining, sells only run the position down to the maintained count.
func (s *Scraper) sellEligible(equity int64) bool {
	if s.stopRequested {
		return equity > s.opts.MaintainedEquity
	}
	return equity > 0
}

// buyEligible reports whether a buy may be placed at the given equity.
// While draining, buys only run the position up to the maintained count.
func (s *Scraper) buyEligible(equity int64) bool {
	if s.stopRequested {
		return equity < s.opts.MaintainedEquity
	}
	return equity <= s.opts.MaintainedEquity
}
