// Copyright (c) 2025 StratX21

package db

import (
	"context"
	"flag"
	"fmt"

	"github.com/bvkgo/kv"
	"github.com/stratx21/scraperbot/cli"
	"github.com/stratx21/scraperbot/subcmds/cmdutil"
)

type Delete struct {
	cmdutil.DBFlags
}

func (c *Delete) Synopsis() string {
	return "Removes a key from the database"
}

func (c *Delete) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("delete", flag.ContinueOnError)
	c.DBFlags.SetFlags(fset)
	return fset, cli.CmdFunc(c.run)
}

func (c *Delete) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("this command takes one (key) argument")
	}

	db, closer, err := c.DBFlags.GetDatabase(ctx)
	if err != nil {
		return err
	}
	defer closer()

	del := func(ctx context.Context, rw kv.ReadWriter) error {
		return rw.Delete(ctx, args[0])
	}
	return kv.WithReadWriter(ctx, db, del)
}
