// Copyright (c) 2025 StratX21

// Package db implements subcommands to inspect and edit the key-value
// database directly.
package db

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/stratx21/scraperbot/cli"
	"github.com/stratx21/scraperbot/gobs"
	"github.com/stratx21/scraperbot/subcmds/cmdutil"
)

type Get struct {
	cmdutil.DBFlags

	asTradeEvent bool
}

func (c *Get) Synopsis() string {
	return "Prints the value of a key in the database"
}

func (c *Get) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("get", flag.ContinueOnError)
	c.DBFlags.SetFlags(fset)
	fset.BoolVar(&c.asTradeEvent, "trade-event", false, "when true, decodes the value as a trade log event")
	return fset, cli.CmdFunc(c.run)
}

func (c *Get) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("this command takes one (key) argument")
	}

	db, closer, err := c.DBFlags.GetDatabase(ctx)
	if err != nil {
		return err
	}
	defer closer()

	snap, err := db.NewSnapshot(ctx)
	if err != nil {
		return err
	}
	defer snap.Discard(ctx)

	v, err := snap.Get(ctx, args[0])
	if err != nil {
		return err
	}

	if c.asTradeEvent {
		ev := new(gobs.TradeEvent)
		if err := gob.NewDecoder(v).Decode(ev); err != nil {
			return fmt.Errorf("could not gob-decode value at key %q: %w", args[0], err)
		}
		data, _ := json.Marshal(ev)
		fmt.Printf("%s\n", data)
		return nil
	}

	data, err := io.ReadAll(v)
	if err != nil {
		return err
	}
	fmt.Printf("%x\n", data)
	return nil
}
