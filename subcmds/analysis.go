// Copyright (c) 2025 StratX21

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/stratx21/scraperbot/cli"
	"github.com/stratx21/scraperbot/subcmds/cmdutil"
	"github.com/stratx21/scraperbot/tradelog"
)

type Analysis struct {
	cmdutil.DBFlags

	date string
}

func (c *Analysis) Synopsis() string {
	return "Analysis prints a day's trade summary for a ticker"
}

func (c *Analysis) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("analysis", flag.ContinueOnError)
	c.DBFlags.SetFlags(fset)
	fset.StringVar(&c.date, "date", "", "day to summarize in YYYY-MM-DD form (default today)")
	return fset, cli.CmdFunc(c.run)
}

func (c *Analysis) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("this command takes one (ticker) argument")
	}
	ticker := strings.ToUpper(args[0])

	day := time.Now()
	if len(c.date) != 0 {
		v, err := time.ParseInLocation("2006-01-02", c.date, time.Local)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", c.date, err)
		}
		day = v
	}

	db, closer, err := c.DBFlags.GetDatabase(ctx)
	if err != nil {
		return err
	}
	defer closer()

	summary, err := tradelog.New(db).DayAnalysis(ctx, ticker, day)
	if err != nil {
		return err
	}

	fmt.Printf("Ticker: %s\n", ticker)
	fmt.Printf("Day: %s\n", day.Format("2006-01-02"))
	fmt.Printf("Num Buys: %d\n", summary.NumBuys)
	fmt.Printf("Num Sells: %d\n", summary.NumSells)
	fmt.Printf("Bought: %s\n", summary.BoughtValue.StringFixed(2))
	fmt.Printf("Sold: %s\n", summary.SoldValue.StringFixed(2))
	fmt.Printf("Gross Scraped: %s\n", summary.GrossScraped().StringFixed(2))
	fmt.Printf("Net Quantity: %d\n", summary.NetQuantity())
	fmt.Printf("Num Errors: %d\n", summary.NumErrors)
	fmt.Printf("Num Oversold: %d\n", summary.NumOversold)
	return nil
}
