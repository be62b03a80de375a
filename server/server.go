// Copyright (c) 2025 StratX21

// Package server ties the scraper supervisor to the outside world. It owns
// the brokerage client, records every scraper event in the trade log and
// forwards the interesting ones to telegram, pushover and the websocket
// stream.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/bvkgo/kv"
	"github.com/stratx21/scraperbot/api"
	"github.com/stratx21/scraperbot/ctxutil"
	"github.com/stratx21/scraperbot/pushover"
	"github.com/stratx21/scraperbot/schwab"
	"github.com/stratx21/scraperbot/scraper"
	"github.com/stratx21/scraperbot/supervisor"
	"github.com/stratx21/scraperbot/telegram"
	"github.com/stratx21/scraperbot/tradelog"
)

type Server struct {
	cg ctxutil.CloseGroup

	opts Options

	db kv.Database

	broker *schwab.Client

	supervisor *supervisor.Supervisor

	tradeLog *tradelog.Log

	telegramClient *telegram.Client
	pushoverClient *pushover.Client

	hub *wsHub

	startTime time.Time
}

func New(ctx context.Context, secrets *Secrets, db kv.Database, opts *Options) (_ *Server, status error) {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}
	if err := secrets.Check(); err != nil {
		return nil, err
	}

	broker, err := schwab.New(secrets.Schwab.AccountID, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if status != nil {
			broker.Close()
		}
	}()

	s := &Server{
		opts:       *opts,
		db:         db,
		broker:     broker,
		supervisor: supervisor.New(broker, secrets.Schwab.Credentials(), &opts.Supervisor),
		tradeLog:   tradelog.New(db),
		hub:        newWSHub(),
		startTime:  time.Now(),
	}

	if secrets.Pushover != nil {
		p, err := pushover.New(secrets.Pushover)
		if err != nil {
			return nil, err
		}
		s.pushoverClient = p
	}

	if secrets.Telegram != nil {
		t, err := telegram.New(ctx, db, secrets.Telegram)
		if err != nil {
			return nil, err
		}
		defer func() {
			if status != nil {
				t.Close()
			}
		}()
		s.telegramClient = t
		if err := s.addTelegramCommands(ctx); err != nil {
			return nil, err
		}
	}

	eventCh, unsubscribe, err := s.supervisor.Subscribe(16)
	if err != nil {
		return nil, err
	}

	s.cg.Go(func(ctx context.Context) {
		if err := s.supervisor.Run(ctx); err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, os.ErrClosed) {
				slog.Error("supervisor has failed", "err", err)
			}
		}
	})
	s.cg.Go(func(ctx context.Context) {
		s.eventPump(ctx, eventCh, unsubscribe)
	})
	return s, nil
}

func (s *Server) Close() error {
	s.cg.Close()
	if s.telegramClient != nil {
		s.telegramClient.Close()
	}
	s.hub.closeAll()
	s.broker.Close()
	return nil
}

// HandlerMap returns the http handlers exported by the server.
func (s *Server) HandlerMap() map[string]http.Handler {
	return map[string]http.Handler{
		api.StatusPath: http.HandlerFunc(s.handleStatus),
		api.EventsPath: http.HandlerFunc(s.handleEvents),
	}
}

func (s *Server) sendCommand(cmd supervisor.Command) error {
	select {
	case s.supervisor.CommandCh() <- cmd:
		return nil
	default:
		return errors.New("supervisor command queue is full")
	}
}

func (s *Server) eventPump(ctx context.Context, ch <-chan *scraper.Event, unsubscribe func()) {
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			s.handleEvent(ctx, ev)
		}
	}
}

func (s *Server) handleEvent(ctx context.Context, ev *scraper.Event) {
	if err := s.tradeLog.Record(ctx, ev); err != nil {
		slog.Error("could not record scraper event (ignored)", "ticker", ev.Ticker, "kind", ev.Kind, "err", err)
	}

	s.hub.broadcast(apiEvent(ev))

	// Per-iteration errors can repeat every couple of seconds. They stay in
	// the trade log and the server log only.
	if ev.Kind == scraper.EventError {
		slog.Warn("scraper reported an error", "ticker", ev.Ticker, "message", ev.Message)
		return
	}

	msg := ev.String()
	if s.telegramClient != nil {
		if err := s.telegramClient.SendMessage(ctx, ev.Time, msg); err != nil {
			slog.Error("could not send telegram notification (ignored)", "err", err)
		}
	}
	if s.pushoverClient != nil {
		if err := s.pushoverClient.SendMessage(ctx, ev.Time, msg); err != nil {
			slog.Error("could not send pushover notification (ignored)", "err", err)
		}
	}
}

func apiEvent(ev *scraper.Event) *api.Event {
	v := &api.Event{
		Time:    ev.Time,
		Ticker:  ev.Ticker,
		Kind:    string(ev.Kind),
		Message: ev.Message,
	}
	if ev.Kind == scraper.EventFill {
		v.Side = string(ev.Side)
		v.Price = ev.Price.StringFixed(2)
		v.Quantity = ev.Quantity
	}
	return v
}
