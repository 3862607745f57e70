package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/swervsim/memsim/internal/cli"
	"github.com/swervsim/memsim/internal/image"
	"github.com/swervsim/memsim/internal/log"
	"github.com/swervsim/memsim/internal/mem"
)

// Load builds a memory subsystem sized and regioned to fit an image, loads
// the image into it, and reports the entry point, end address, and
// symbol table. For an ELF file, unless -size or -iccm/-dccm/-mmr override
// it, the memory is sized and a single ICCM region is defined to exactly
// cover the file's loadable segments; a .hex file has no header to size
// from, so without -size or region flags it is loaded into an 8 MiB
// memory with no regions defined.
func Load() cli.Command {
	return &load{harts: 1, width: 32}
}

type load struct {
	size  regionSizeFlag
	harts int
	width int
	iccm  regionSpecList
	dccm  regionSpecList
	mmr   regionSpecList
}

func (load) Description() string {
	return "load a hex or ELF image into a memory subsystem"
}

func (load) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `load [-width 32|64] [-size bytes] [-iccm region:offset:size]... <hex-file|elf-file>

Load a .hex or .elf image (chosen by file extension). For an ELF file,
the memory is auto-sized and an ICCM region auto-defined to cover the
file's loadable segments unless -size or region flags are given explicitly.`)

	return err
}

func (l *load) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	fs.Var(&l.size, "size", "address space `size` in bytes (hex); auto-computed for ELF if omitted")
	fs.IntVar(&l.harts, "harts", 1, "number of harts")
	fs.IntVar(&l.width, "width", 32, "register width, 32 or 64")
	fs.Var(&l.iccm, "iccm", "ICCM region as region:offset:size (hex), repeatable")
	fs.Var(&l.dccm, "dccm", "DCCM region as region:offset:size (hex), repeatable")
	fs.Var(&l.mmr, "mmr", "memory-mapped register region as region:offset:size (hex), repeatable")

	return fs
}

func (l *load) Run(_ context.Context, args []string, out io.Writer, logger *log.Logger) int {
	if len(args) != 1 {
		logger.Error("load requires exactly one image file argument")
		return 1
	}

	path := args[0]

	m, err := l.buildMemoryForImage(path)
	if err != nil {
		logger.Error("building memory", "err", err)
		return 1
	}

	loader := image.NewLoader(m, image.WithLogger(logger))

	if strings.HasSuffix(path, ".hex") {
		if !loader.LoadHexFile(path) {
			return 1
		}

		fmt.Fprintf(out, "loaded hex image %s\n", path)

		return 0
	}

	result, err := loader.LoadElfFile(path, l.width)
	if err != nil {
		logger.Error("loading elf image", "err", err)
		return 1
	}

	fmt.Fprintf(out, "loaded elf image %s: entry=%#x end=%#x\n", path, result.Entry, result.End)

	if err := loader.Symbols().PrintSymbols(out); err != nil {
		logger.Error("printing symbols", "err", err)
	}

	return 0
}

// buildMemoryForImage constructs the memory for the load command. If no
// explicit size or region was given and path is an ELF file, it sizes the memory
// and defines a single ICCM region to exactly (page-aligned) cover the
// image's loadable segments.
func (l *load) buildMemoryForImage(path string) (*mem.Memory, error) {
	if len(l.iccm) > 0 || len(l.dccm) > 0 || len(l.mmr) > 0 || l.size.value != 0 {
		size := mem.Addr(l.size.value)
		if size == 0 {
			size = 8 * 1024 * 1024
		}

		return buildMemory(size, l.harts, l.iccm, l.dccm, l.mmr)
	}

	if strings.HasSuffix(path, ".hex") {
		return buildMemory(8*1024*1024, l.harts, nil, nil, nil)
	}

	lo, hi, err := image.GetElfFileAddressBounds(path)
	if err != nil {
		return nil, err
	}

	const pageSize = mem.DefaultPageSize

	pageLo := lo &^ (pageSize - 1)
	pageHi := (hi + pageSize - 1) &^ (pageSize - 1)

	size := pageHi
	if size < 8*1024*1024 {
		size = 8 * 1024 * 1024
	}

	return buildMemory(size, l.harts, regionSpecList{{region: 0, offset: pageLo, size: pageHi - pageLo}}, nil, nil)
}
