// Copyright (c) 2025 StratX21

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/stratx21/scraperbot/api"
	"github.com/stratx21/scraperbot/cli"
	"github.com/stratx21/scraperbot/subcmds/cmdutil"
)

type Status struct {
	cmdutil.ClientFlags
}

func (c *Status) Synopsis() string {
	return "Status prints a summary of the server and its scrapers"
}

func (c *Status) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("status", flag.ContinueOnError)
	c.ClientFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Status) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}

	resp, err := cmdutil.Get[api.StatusResponse](ctx, &c.ClientFlags, api.StatusPath)
	if err != nil {
		return err
	}

	fmt.Printf("Pid: %d\n", resp.Pid)
	fmt.Printf("Uptime: %s\n", time.Since(resp.StartTime).Round(time.Second))
	fmt.Printf("CPU: %.1f%%\n", resp.CPUPercent)
	fmt.Printf("Memory: %d MiB\n", resp.ResidentMemoryBytes/(1024*1024))

	if len(resp.Scrapers) == 0 {
		fmt.Println("No scrapers are running.")
		return nil
	}

	fmt.Println()
	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "TICKER\tEQUITY\tMAINTAINED\tBUY\tSELL\tSTATE\n")
	for _, s := range resp.Scrapers {
		state := "scraping"
		if s.Draining {
			state = "draining"
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%v\t%v\t%s\n",
			s.Ticker, s.Equity, s.MaintainedEquity, s.WorkingBuy, s.WorkingSell, state)
	}
	return tw.Flush()
}
