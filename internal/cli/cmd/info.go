package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/swervsim/memsim/internal/cli"
	"github.com/swervsim/memsim/internal/image"
	"github.com/swervsim/memsim/internal/log"
)

// Info probes a hex or ELF image without loading it into a memory
// subsystem: for an ELF file it reports the address bounds of its
// loadable segments, its class validity for the requested register width,
// and whether a given symbol, if asked for, is present.
func Info() cli.Command {
	return &info{width: 32}
}

type info struct {
	width int
	sym   string
}

func (info) Description() string {
	return "probe a hex or ELF image without loading it"
}

func (info) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `info [-width 32|64] [-sym name] <hex-file|elf-file>

Probe an image file: for an ELF file, print its loadable address bounds
and validate its class against -width; for a hex file, print its size in
bytes. With -sym, additionally report whether the named symbol is present
in an ELF file's symbol table.`)

	return err
}

func (i *info) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	fs.IntVar(&i.width, "width", 32, "register width, 32 or 64")
	fs.StringVar(&i.sym, "sym", "", "report whether `name` is defined in the image's symbol table")

	return fs
}

func (i *info) Run(_ context.Context, args []string, out io.Writer, logger *log.Logger) int {
	if len(args) != 1 {
		logger.Error("info requires exactly one image file argument")
		return 1
	}

	path := args[0]

	if strings.HasSuffix(path, ".hex") {
		st, err := os.Stat(path)
		if err != nil {
			logger.Error("stat failed", "path", path, "err", err)
			return 1
		}

		fmt.Fprintf(out, "hex image %s: %d bytes\n", path, st.Size())

		return 0
	}

	if !image.CheckElfFile(path, i.width) {
		logger.Error("not a loadable ELF of the requested class", "path", path, "width", i.width)
		return 1
	}

	lo, hi, err := image.GetElfFileAddressBounds(path)
	if err != nil {
		logger.Error("reading ELF bounds", "path", path, "err", err)
		return 1
	}

	fmt.Fprintf(out, "elf image %s: width=%d lo=%#x hi=%#x\n", path, i.width, lo, hi)

	if i.sym != "" {
		fmt.Fprintf(out, "symbol %q present: %v\n", i.sym, image.IsSymbolInElfFile(path, i.sym))
	}

	return 0
}
