// Copyright (c) 2025 StratX21

// Package cli implements a minimalistic command-line parsing layer over the
// standard library's flag.FlagSets. Commands can be grouped into subcommands
// of arbitrary depth.
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
)

// CmdFunc defines the signature for command execution functions.
type CmdFunc func(ctx context.Context, args []string) error

// Command interface defines the requirements for Command implementations.
// The returned flag.FlagSet must be non-nil and carry the command name.
type Command interface {
	Command() (*flag.FlagSet, CmdFunc)
}

// Commands can optionally implement Synopsis to provide a short one-line
// description for the help listing.
type synopsiser interface {
	Synopsis() string
}

type cmdGroup struct {
	name     string
	synopsis string
	subcmds  []Command
}

// CommandGroup groups a collection of commands under a parent command name.
func CommandGroup(name, synopsis string, cmds ...Command) Command {
	return &cmdGroup{
		name:     name,
		synopsis: synopsis,
		subcmds:  cmds,
	}
}

func (cg *cmdGroup) Command() (*flag.FlagSet, CmdFunc) {
	fset := flag.NewFlagSet(cg.name, flag.ContinueOnError)
	return fset, cg.run
}

func (cg *cmdGroup) Synopsis() string {
	return cg.synopsis
}

func (cg *cmdGroup) run(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "commands" {
		cg.printCommands(os.Stderr)
		if len(args) == 0 {
			return fmt.Errorf("no subcommand given")
		}
		return nil
	}

	name := args[0]
	for _, sub := range cg.subcmds {
		fset, run := sub.Command()
		if fset.Name() != name {
			continue
		}
		if err := fset.Parse(args[1:]); err != nil {
			return err
		}
		if err := run(ctx, fset.Args()); err != nil {
			return fmt.Errorf("%s: %w", cmdName(cg.name, name), err)
		}
		return nil
	}

	cg.printCommands(os.Stderr)
	return fmt.Errorf("unknown subcommand %q", name)
}

func (cg *cmdGroup) printCommands(w *os.File) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	if len(cg.name) == 0 {
		fmt.Fprintf(tw, "Commands:\n")
	} else {
		fmt.Fprintf(tw, "Subcommands of %q:\n", cg.name)
	}
	for _, sub := range cg.subcmds {
		fset, _ := sub.Command()
		if v, ok := sub.(synopsiser); ok {
			fmt.Fprintf(tw, "\t%s\t%s\n", fset.Name(), v.Synopsis())
			continue
		}
		fmt.Fprintf(tw, "\t%s\t\n", fset.Name())
	}
	tw.Flush()
}

func cmdName(parent, name string) string {
	if parent == "" {
		return name
	}
	return strings.TrimSpace(parent + " " + name)
}

// Run parses command-line arguments from args into flags and subcommands and
// picks the best command to execute from cmds.
func Run(ctx context.Context, cmds []Command, args []string) error {
	if cmds == nil {
		return os.ErrInvalid
	}
	root := &cmdGroup{
		name:    "",
		subcmds: cmds,
	}
	return root.run(ctx, args)
}
