// Copyright (c) 2025 StratX21

package subcmds

import (
	"context"
	"flag"
	"fmt"

	"github.com/stratx21/scraperbot/cli"
	"github.com/stratx21/scraperbot/idgen"
)

type IDGen struct {
	from  uint64
	count int
}

func (c *IDGen) Synopsis() string {
	return "Prints client-order-ids for a seed string"
}

func (c *IDGen) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("idgen", flag.ContinueOnError)
	fset.Uint64Var(&c.from, "from", 0, "initial id offset")
	fset.IntVar(&c.count, "count", 10, "number of uuids")
	return fset, cli.CmdFunc(c.run)
}

func (c *IDGen) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("this command takes one (idgen seed) argument")
	}
	seed := args[0]
	gen := idgen.New(seed, c.from)
	for i := 0; i < c.count; i++ {
		offset, id := gen.Offset(), gen.NextID()
		fmt.Printf("%d: %s\n", offset, id)
	}
	return nil
}
