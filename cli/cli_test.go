// Copyright (c) 2025 StratX21

package cli

import (
	"context"
	"flag"
	"testing"
)

type echoCmd struct {
	name string

	upper bool

	gotArgs []string
}

func (c *echoCmd) Command() (*flag.FlagSet, CmdFunc) {
	fset := flag.NewFlagSet(c.name, flag.ContinueOnError)
	fset.BoolVar(&c.upper, "upper", false, "uppercases the output")
	return fset, func(ctx context.Context, args []string) error {
		c.gotArgs = args
		return nil
	}
}

func (c *echoCmd) Synopsis() string {
	return "Echoes its arguments"
}

func TestRunResolvesCommand(t *testing.T) {
	ctx := context.Background()
	cmd := &echoCmd{name: "echo"}

	if err := Run(ctx, []Command{cmd}, []string{"echo", "-upper", "a", "b"}); err != nil {
		t.Fatal(err)
	}
	if !cmd.upper {
		t.Errorf("flag -upper was not parsed")
	}
	if len(cmd.gotArgs) != 2 || cmd.gotArgs[0] != "a" || cmd.gotArgs[1] != "b" {
		t.Errorf("unexpected args: %v", cmd.gotArgs)
	}
}

func TestRunResolvesSubcommand(t *testing.T) {
	ctx := context.Background()
	cmd := &echoCmd{name: "echo"}
	group := CommandGroup("tools", "Misc tools", cmd)

	if err := Run(ctx, []Command{group}, []string{"tools", "echo", "x"}); err != nil {
		t.Fatal(err)
	}
	if len(cmd.gotArgs) != 1 || cmd.gotArgs[0] != "x" {
		t.Errorf("unexpected args: %v", cmd.gotArgs)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	ctx := context.Background()
	cmd := &echoCmd{name: "echo"}

	if err := Run(ctx, []Command{cmd}, []string{"bogus"}); err == nil {
		t.Errorf("wanted an error for an unknown command")
	}
}
