// Command memsim builds and inspects a RISC-V, SweRV-class physical
// memory subsystem: define ICCM/DCCM/memory-mapped-register regions, load
// a hex or ELF image, and poke around with an interactive monitor.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/swervsim/memsim/internal/cli"
	"github.com/swervsim/memsim/internal/cli/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	commands := []cli.Command{
		cmd.Info(),
		cmd.Load(),
		cmd.Monitor(),
	}

	runner := cli.New(ctx).
		WithLogger(os.Stderr).
		WithCommands(commands).
		WithHelp(cmd.Help(commands))

	os.Exit(runner.Execute(os.Args[1:]))
}
