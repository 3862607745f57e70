// Package cli contains the command-line interface.
package cli

import (
	"context"
	"flag"
	"io"
	"os"

	"github.com/swervsim/memsim/internal/log"
)

// Command represents a sub-command in the CLI. Each sub-command can have its
// own flags, config, and action to perform.
type Command interface {
	// FlagSet returns a set of command options the command accepts.
	FlagSet() *flag.FlagSet

	// Description returns a brief description of the command's function.
	Description() string

	// Usage prints detailed command documentation.
	Usage(out io.Writer) error

	// Run executes the command with arguments. Command output should be
	// written to out. It returns an exit code.
	Run(ctx context.Context, args []string, out io.Writer, logger *log.Logger) int
}

// Commander is a CLI command-runner that handles the life cycle of a CLI
// command execution.
type Commander struct {
	ctx context.Context
	log *log.Logger

	help     Command
	commands []Command
}

// New creates a new Commander that can start sub-commands.
func New(ctx context.Context) *Commander {
	return &Commander{
		ctx: ctx,
		log: log.DefaultLogger(),
	}
}

// Execute runs a command, if configured.
func (c *Commander) Execute(args []string) int {
	// If the CLI is started with no arguments, use the default "help" command.
	if len(args) == 0 {
		flag.Parse()
		c.help.Run(c.ctx, nil, os.Stdout, c.log)

		return 1
	}

	// Find a command with the same name as the word on the CLI arguments.
	found := c.help // Default, if no match.

	for _, cmd := range c.commands {
		if args[0] == cmd.FlagSet().Name() {
			found = cmd
		}
	}

	// The command to run (or the help command) is found. Slice off the
	// first argument, the subcommand name itself, and parse its flags.
	fs := found.FlagSet()
	args = args[1:]

	if err := fs.Parse(args); err != nil {
		c.log.Error("parse error", "err", err)
		return 1
	}

	return found.Run(c.ctx, fs.Args(), os.Stdout, c.log)
}

// WithCommands adds a list of commands as sub-commands.
func (c *Commander) WithCommands(cmds []Command) *Commander {
	c.commands = append([]Command(nil), cmds...)
	return c
}

// WithHelp configures the help command.
func (c *Commander) WithHelp(cmd Command) *Commander {
	c.help = cmd
	return c
}

// WithLogger configures the logger for the CLI. Logs are written to
// os.Stderr to leave os.Stdout for program output.
func (c *Commander) WithLogger(out *os.File) *Commander {
	logger := log.NewFormattedLogger(out)
	c.log = logger

	log.SetDefault(logger)

	return c
}

// Type aliases from the standard library.
type (
	Flag    = flag.Flag
	FlagSet = flag.FlagSet
)
