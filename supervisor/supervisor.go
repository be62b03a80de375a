// Copyright (c) 2025 StratX21

// Package supervisor runs and manages the per-ticker scrapers. A single
// scheduler goroutine multiplexes operator commands, reaps finished
// scrapers and periodically refreshes the brokerage credentials, handing
// fresh copies to every running scraper.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/bvkgo/topic"
	"github.com/stratx21/scraperbot/broker"
	"github.com/stratx21/scraperbot/ctxutil"
	"github.com/stratx21/scraperbot/scraper"
)

// Command is the closed set of operator requests. Unknown command types are
// reported as rare errors and ignored.
type Command interface {
	isCommand()
}

// SpawnCommand starts a scraper for a ticker. Options may be nil for
// defaults.
type SpawnCommand struct {
	Ticker  string
	Options *scraper.Options
}

// StopCommand asks one ticker's scraper to drain and exit.
type StopCommand struct {
	Ticker string
}

// StopAllCommand asks every running scraper to drain and exit.
type StopAllCommand struct{}

// StatusCommand requests a snapshot of all running scrapers. The reply
// channel should be buffered.
type StatusCommand struct {
	ReplyCh chan []*Status
}

func (SpawnCommand) isCommand()   {}
func (StopCommand) isCommand()    {}
func (StopAllCommand) isCommand() {}
func (StatusCommand) isCommand()  {}

// Status describes one running scraper.
type Status struct {
	Ticker           string
	Equity           int64
	MaintainedEquity int64
	WorkingBuy       bool
	WorkingSell      bool
	Draining         bool
}

type Options struct {
	// TickInterval is the scheduler period.
	TickInterval time.Duration

	// RefreshInterval is the credential refresh period. It must be well
	// under the token validity window.
	RefreshInterval time.Duration
}

func (v *Options) setDefaults() {
	if v.TickInterval == 0 {
		v.TickInterval = 2 * time.Second
	}
	if v.RefreshInterval == 0 {
		v.RefreshInterval = 25 * time.Second
	}
}

type worker struct {
	scraper  *scraper.Scraper
	draining bool
	doneCh   chan struct{}
}

type Supervisor struct {
	opts Options

	client broker.Client

	// creds and lastRefresh are owned by the scheduler goroutine.
	creds       broker.Credentials
	lastRefresh time.Time

	cmdCh chan Command

	events *topic.Topic[*scraper.Event]

	workers map[string]*worker
}

func New(client broker.Client, creds broker.Credentials, opts *Options) *Supervisor {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()

	return &Supervisor{
		opts:        *opts,
		client:      client,
		creds:       creds,
		lastRefresh: time.Now(),
		cmdCh:       make(chan Command, 16),
		events:      topic.New[*scraper.Event](),
		workers:     make(map[string]*worker),
	}
}

// CommandCh returns the operator command channel. The channel is buffered
// and drained on every scheduler tick.
func (s *Supervisor) CommandCh() chan<- Command {
	return s.cmdCh
}

// Subscribe returns a channel of outbound scraper events and a function to
// unsubscribe it.
func (s *Supervisor) Subscribe(limit int) (<-chan *scraper.Event, func(), error) {
	r, ch, err := s.events.Subscribe(limit, false /* includeRecent */)
	if err != nil {
		return nil, nil, err
	}
	return ch, r.Unsubscribe, nil
}

func (s *Supervisor) publish(e *scraper.Event) {
	s.events.SendCh() <- e
}

func (s *Supervisor) publishRareError(ticker, msg string) {
	slog.Error("rare error", "ticker", ticker, "message", msg)
	s.publish(&scraper.Event{
		Time:    time.Now(),
		Ticker:  ticker,
		Kind:    scraper.EventRareError,
		Message: msg,
	})
}

// Run executes the scheduler loop until the context is canceled. On
// cancellation every running scraper is asked to drain and Run waits for
// all of them to exit before returning.
func (s *Supervisor) Run(ctx context.Context) error {
	slog.Info("started scraper supervisor", "tick-interval", s.opts.TickInterval, "refresh-interval", s.opts.RefreshInterval)

	for ctx.Err() == nil {
		s.reapFinished()
		s.handleCommands(ctx)
		s.maybeRefreshCredentials(ctx)
		ctxutil.Sleep(ctx, s.opts.TickInterval)
	}

	s.stopAll()
	for ticker, w := range s.workers {
		<-w.doneCh
		slog.Info("scraper has drained and exited", "ticker", ticker)
	}
	s.events.Close()
	return context.Cause(ctx)
}

func (s *Supervisor) reapFinished() {
	for ticker, w := range s.workers {
		select {
		case <-w.doneCh:
			delete(s.workers, ticker)
			slog.Info("scraper has exited", "ticker", ticker)
		default:
		}
	}
}

func (s *Supervisor) handleCommands(ctx context.Context) {
	for {
		select {
		case cmd := <-s.cmdCh:
			switch v := cmd.(type) {
			case SpawnCommand:
				s.spawn(ctx, v)
			case StopCommand:
				s.stopTicker(v.Ticker)
			case StopAllCommand:
				s.stopAll()
			case StatusCommand:
				s.replyStatus(v)
			default:
				s.publishRareError("", fmt.Sprintf("unknown command %T is ignored", cmd))
			}
		default:
			return
		}
	}
}

func (s *Supervisor) spawn(ctx context.Context, cmd SpawnCommand) {
	if _, ok := s.workers[cmd.Ticker]; ok {
		s.publishRareError(cmd.Ticker, "a scraper is already running for this ticker")
		return
	}

	sc, err := scraper.New(cmd.Ticker, s.client, s.creds, cmd.Options, s.publish)
	if err != nil {
		s.publishRareError(cmd.Ticker, fmt.Sprintf("could not create scraper: %v", err))
		return
	}

	w := &worker{scraper: sc, doneCh: make(chan struct{})}
	s.workers[cmd.Ticker] = w
	go func() {
		defer close(w.doneCh)
		if err := sc.Run(ctx); err != nil {
			slog.Error("scraper run has failed", "ticker", cmd.Ticker, "err", err)
		}
	}()
	slog.Info("spawned scraper", "ticker", cmd.Ticker)
}

func (s *Supervisor) stopTicker(ticker string) {
	w, ok := s.workers[ticker]
	if !ok {
		s.publishRareError(ticker, "no scraper is running for this ticker")
		return
	}
	if w.draining {
		return
	}
	select {
	case w.scraper.ControlCh() <- scraper.StopRequest{}:
		w.draining = true
	default:
		s.publishRareError(ticker, "scraper control channel is full; stop will be retried")
	}
}

func (s *Supervisor) stopAll() {
	for ticker, w := range s.workers {
		if !w.draining {
			s.stopTicker(ticker)
		}
	}
}

func (s *Supervisor) replyStatus(cmd StatusCommand) {
	var statuses []*Status
	for ticker, w := range s.workers {
		statuses = append(statuses, &Status{
			Ticker:           ticker,
			Equity:           w.scraper.Equity(),
			MaintainedEquity: w.scraper.MaintainedEquity(),
			WorkingBuy:       w.scraper.HasWorkingBuy(),
			WorkingSell:      w.scraper.HasWorkingSell(),
			Draining:         w.draining,
		})
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Ticker < statuses[j].Ticker
	})
	select {
	case cmd.ReplyCh <- statuses:
	default:
		slog.Warn("status reply channel is full or unbuffered; reply is dropped")
	}
}

func (s *Supervisor) maybeRefreshCredentials(ctx context.Context) {
	if time.Since(s.lastRefresh) < s.opts.RefreshInterval {
		return
	}
	s.lastRefresh = time.Now()

	fresh, err := s.client.RefreshCredentials(ctx, s.creds)
	if err != nil {
		s.publishRareError("", fmt.Sprintf("could not refresh credentials: %v", err))
		return
	}
	s.creds = fresh

	// Every scraper gets its own copy of the fresh pair.
	for ticker, w := range s.workers {
		select {
		case w.scraper.ControlCh() <- scraper.CredentialUpdate{Credentials: fresh}:
		default:
			s.publishRareError(ticker, "scraper control channel is full; credential update is dropped")
		}
	}
}
