package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/swervsim/memsim/internal/cli"
	"github.com/swervsim/memsim/internal/console"
	"github.com/swervsim/memsim/internal/image"
	"github.com/swervsim/memsim/internal/log"
	"github.com/swervsim/memsim/internal/mem"
)

// Monitor starts an interactive memory-monitor REPL against a memory
// subsystem built from the given region definitions.
func Monitor() cli.Command {
	return &monitor{harts: 1}
}

type monitor struct {
	size  regionSizeFlag
	harts int
	iccm  regionSpecList
	dccm  regionSpecList
	mmr   regionSpecList
}

func (monitor) Description() string {
	return "start an interactive memory monitor"
}

func (monitor) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `monitor [-size bytes] [-harts n] [-iccm region:offset:size]...

Start an interactive REPL (read, write, poke, dump, loadhex, loadelf, sym)
against a memory subsystem built from the given region definitions.`)

	return err
}

func (m *monitor) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	fs.Var(&m.size, "size", "address space `size` in bytes (hex), default 0x800000")
	fs.IntVar(&m.harts, "harts", 1, "number of harts")
	fs.Var(&m.iccm, "iccm", "ICCM region as region:offset:size (hex), repeatable")
	fs.Var(&m.dccm, "dccm", "DCCM region as region:offset:size (hex), repeatable")
	fs.Var(&m.mmr, "mmr", "memory-mapped register region as region:offset:size (hex), repeatable")

	return fs
}

func (m *monitor) Run(ctx context.Context, _ []string, _ io.Writer, logger *log.Logger) int {
	size := m.size.value
	if size == 0 {
		size = 8 * 1024 * 1024
	}

	mm, err := buildMemory(mem.Addr(size), m.harts, m.iccm, m.dccm, m.mmr)
	if err != nil {
		logger.Error("building memory", "err", err)
		return 1
	}

	loader := image.NewLoader(mm, image.WithLogger(logger))

	con, err := console.New(mm, loader)
	if err != nil {
		if errors.Is(err, console.ErrNoTTY) {
			logger.Error("monitor requires an interactive terminal", "err", err)
		} else {
			logger.Error("starting console", "err", err)
		}

		return 1
	}
	defer con.Restore()

	if err := con.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("console exited", "err", err)
		return 1
	}

	return 0
}

// regionSizeFlag implements flag.Value for a single hex-encoded size.
type regionSizeFlag struct {
	value uint64
}

func (f *regionSizeFlag) String() string {
	if f == nil {
		return ""
	}

	return fmt.Sprintf("%#x", f.value)
}

func (f *regionSizeFlag) Set(s string) error {
	v, err := parseHexAddr(s)
	f.value = uint64(v)

	return err
}
