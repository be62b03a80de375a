// Copyright (c) 2025 StratX21

package main

import (
	"context"
	"log"
	"os"

	"github.com/stratx21/scraperbot/cli"
	"github.com/stratx21/scraperbot/subcmds"
	"github.com/stratx21/scraperbot/subcmds/db"
)

func main() {
	dbCmds := []cli.Command{
		new(db.Get),
		new(db.List),
		new(db.Delete),
	}

	cmds := []cli.Command{
		new(subcmds.Run),
		new(subcmds.Status),
		new(subcmds.Analysis),
		new(subcmds.IDGen),
		cli.CommandGroup("db", "View/update database directly", dbCmds...),
	}
	if err := cli.Run(context.Background(), cmds, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
