// Copyright (c) 2025 StratX21

package db

import (
	"context"
	"flag"
	"fmt"
	"regexp"

	"github.com/bvkgo/kv"
	"github.com/stratx21/scraperbot/cli"
	"github.com/stratx21/scraperbot/subcmds/cmdutil"
)

type List struct {
	cmdutil.DBFlags

	keyRe string
}

func (c *List) Synopsis() string {
	return "Prints keys in the database"
}

func (c *List) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("list", flag.ContinueOnError)
	c.DBFlags.SetFlags(fset)
	fset.StringVar(&c.keyRe, "key-regexp", "", "when non-empty, only prints matching keys")
	return fset, cli.CmdFunc(c.run)
}

func (c *List) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}

	var keyRe *regexp.Regexp
	if len(c.keyRe) != 0 {
		re, err := regexp.Compile(c.keyRe)
		if err != nil {
			return fmt.Errorf("could not compile key-regexp value: %w", err)
		}
		keyRe = re
	}

	db, closer, err := c.DBFlags.GetDatabase(ctx)
	if err != nil {
		return err
	}
	defer closer()

	list := func(ctx context.Context, r kv.Reader) error {
		it, err := r.Scan(ctx)
		if err != nil {
			return err
		}
		defer kv.Close(it)

		for k, _, err := it.Fetch(ctx, false); err == nil; k, _, err = it.Fetch(ctx, true) {
			if keyRe != nil && !keyRe.MatchString(k) {
				continue
			}
			fmt.Println(k)
		}
		return nil
	}
	return kv.WithReader(ctx, db, list)
}
