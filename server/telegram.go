// Copyright (c) 2025 StratX21

package server

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stratx21/scraperbot/scraper"
	"github.com/stratx21/scraperbot/supervisor"
	"github.com/stratx21/scraperbot/telegram"
	"github.com/visvasity/cli"
)

func (s *Server) addTelegramCommands(ctx context.Context) error {
	cmds := []struct {
		name, purpose string
		handler       telegram.CmdFunc
	}{
		{"spawn", "Starts a scraper for a ticker", s.spawnTelegramCmd},
		{"stop", "Stops and drains the scraper for a ticker", s.stopTelegramCmd},
		{"stopall", "Stops and drains every scraper", s.stopAllTelegramCmd},
		{"status", "Prints a summary of every running scraper", s.statusTelegramCmd},
		{"analysis", "Prints a day's trade summary for a ticker", s.analysisTelegramCmd},
	}
	for _, c := range cmds {
		if err := s.telegramClient.AddCommand(ctx, c.name, c.purpose, c.handler); err != nil {
			return fmt.Errorf("could not add telegram command %q: %w", c.name, err)
		}
	}
	return nil
}

// spawnTelegramCmd starts a scraper. The optional positional arguments are
// the profit margin, maintained equity, minimum bid/ask spread, quantity and
// time before cancel, in that order.
func (s *Server) spawnTelegramCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("ticker argument is required")
	}
	if len(args) > 6 {
		return fmt.Errorf("too many arguments")
	}
	ticker := strings.ToUpper(args[0])

	opts := &scraper.Options{
		ProfitMargin:     decimal.New(2, -2),
		MaintainedEquity: 1,
		MinSpread:        decimal.New(1, -1),
		Quantity:         1,
		TimeBeforeCancel: 3 * time.Second,
	}
	if len(args) > 1 {
		v, err := decimal.NewFromString(args[1])
		if err != nil {
			return fmt.Errorf("invalid profit margin %q: %w", args[1], err)
		}
		opts.ProfitMargin = v
	}
	if len(args) > 2 {
		v, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid maintained equity %q: %w", args[2], err)
		}
		opts.MaintainedEquity = v
	}
	if len(args) > 3 {
		v, err := decimal.NewFromString(args[3])
		if err != nil {
			return fmt.Errorf("invalid minimum spread %q: %w", args[3], err)
		}
		opts.MinSpread = v
	}
	if len(args) > 4 {
		v, err := strconv.ParseInt(args[4], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid quantity %q: %w", args[4], err)
		}
		opts.Quantity = v
	}
	if len(args) > 5 {
		v, err := parseSeconds(args[5])
		if err != nil {
			return fmt.Errorf("invalid time before cancel %q: %w", args[5], err)
		}
		opts.TimeBeforeCancel = v
	}
	if err := opts.Check(); err != nil {
		return err
	}

	if err := s.sendCommand(supervisor.SpawnCommand{Ticker: ticker, Options: opts}); err != nil {
		return err
	}
	fmt.Fprintf(cli.Stdout(ctx), "spawn requested for %s", ticker)
	return nil
}

func (s *Server) stopTelegramCmd(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("this command takes one (ticker) argument")
	}
	ticker := strings.ToUpper(args[0])
	if err := s.sendCommand(supervisor.StopCommand{Ticker: ticker}); err != nil {
		return err
	}
	fmt.Fprintf(cli.Stdout(ctx), "stop requested for %s", ticker)
	return nil
}

func (s *Server) stopAllTelegramCmd(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}
	if err := s.sendCommand(supervisor.StopAllCommand{}); err != nil {
		return err
	}
	fmt.Fprintf(cli.Stdout(ctx), "stop requested for all scrapers")
	return nil
}

func (s *Server) statusTelegramCmd(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}
	statuses, err := s.ScraperStatuses(ctx)
	if err != nil {
		return err
	}
	stdout := cli.Stdout(ctx)
	if len(statuses) == 0 {
		fmt.Fprintf(stdout, "no scrapers are running")
		return nil
	}
	for _, v := range statuses {
		state := "scraping"
		if v.Draining {
			state = "draining"
		}
		fmt.Fprintf(stdout, "%s: equity %d (maintained %d) buy=%v sell=%v %s\n",
			v.Ticker, v.Equity, v.MaintainedEquity, v.WorkingBuy, v.WorkingSell, state)
	}
	return nil
}

// analysisTelegramCmd summarizes one day of trade log entries for a ticker.
// The optional second argument is a date in YYYY-MM-DD form; the default is
// today.
func (s *Server) analysisTelegramCmd(ctx context.Context, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return fmt.Errorf("this command takes a ticker and an optional date argument")
	}
	ticker := strings.ToUpper(args[0])
	day := time.Now()
	if len(args) == 2 {
		v, err := time.ParseInLocation("2006-01-02", args[1], time.Local)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", args[1], err)
		}
		day = v
	}

	summary, err := s.tradeLog.DayAnalysis(ctx, ticker, day)
	if err != nil {
		return err
	}

	stdout := cli.Stdout(ctx)
	fmt.Fprintf(stdout, "%s on %s\n", ticker, day.Format("2006-01-02"))
	fmt.Fprintf(stdout, "buys: %d ($%s)\n", summary.NumBuys, summary.BoughtValue.StringFixed(2))
	fmt.Fprintf(stdout, "sells: %d ($%s)\n", summary.NumSells, summary.SoldValue.StringFixed(2))
	fmt.Fprintf(stdout, "gross scraped: $%s\n", summary.GrossScraped().StringFixed(2))
	fmt.Fprintf(stdout, "net quantity: %d\n", summary.NetQuantity())
	fmt.Fprintf(stdout, "errors: %d oversold: %d", summary.NumErrors, summary.NumOversold)
	return nil
}

func parseSeconds(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(v * float64(time.Second)), nil
}
