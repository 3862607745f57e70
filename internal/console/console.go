// Package console implements an interactive memory-monitor REPL: a serial
// console, adapted for inspecting and mutating a [mem.Memory] instead of
// driving a simulated keyboard and display.
package console

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/swervsim/memsim/internal/image"
	"github.com/swervsim/memsim/internal/log"
	"github.com/swervsim/memsim/internal/mem"
)

// ErrNoTTY is returned if standard input is not a terminal. In this case
// the console cannot enter raw mode and does not start.
var ErrNoTTY = errors.New("console: not a TTY")

// Console is an interactive, line-oriented REPL for a memory subsystem,
// run over the process's own standard streams using Unix terminal I/O.
type Console struct {
	fd    int
	state *term.State
	term  *term.Terminal

	mem    *mem.Memory
	loader *image.Loader
	hart   int

	log *log.Logger
}

// New creates a Console attached to os.Stdin/os.Stdout, reading and
// writing m through the given loader. If standard input is not a
// terminal, ErrNoTTY is returned. Callers must call Restore to return the
// terminal to its initial state.
func New(m *mem.Memory, loader *image.Loader) (*Console, error) {
	fd := int(os.Stdin.Fd())

	if !term.IsTerminal(fd) {
		return nil, ErrNoTTY
	}

	saved, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoTTY, err)
	}

	c := &Console{
		fd:     fd,
		state:  saved,
		term:   term.NewTerminal(os.Stdin, "memsim> "),
		mem:    m,
		loader: loader,
		log:    log.DefaultLogger(),
	}

	if err := c.setBlockingRead(); err != nil {
		term.Restore(fd, saved)
		return nil, err
	}

	return c, nil
}

// setBlockingRead sets the raw (non-canonical) terminal to blocking reads
// (VMIN=1, VTIME=0): each read waits for at least one keystroke, which
// ReadLine's line editor consumes, rather than the REPL busy-polling.
func (c *Console) setBlockingRead() error {
	termIO, err := unix.IoctlGetTermios(c.fd, getTermiosIoctl)
	if err != nil {
		return err
	}

	termIO.Cc[unix.VMIN] = 1
	termIO.Cc[unix.VTIME] = 0

	return unix.IoctlSetTermios(c.fd, setTermiosIoctl, termIO)
}

// Restore returns the terminal to its initial state.
func (c *Console) Restore() {
	_ = os.Stdin.SetReadDeadline(time.Now())
	_ = term.Restore(c.fd, c.state)
}

// Run reads and dispatches commands until the context is cancelled, the
// input stream closes, or a "quit"/"exit" command is given.
func (c *Console) Run(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		_ = os.Stdin.SetReadDeadline(time.Now())
		close(done)
	}()

	for {
		line, err := c.term.ReadLine()
		if err != nil {
			select {
			case <-done:
				return ctx.Err()
			default:
				return err
			}
		}

		if c.dispatch(line) {
			return nil
		}
	}
}

// dispatch runs one command line and reports whether the REPL should
// exit.
func (c *Console) dispatch(line string) (exit bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	cmd, args := fields[0], fields[1:]

	var err error

	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		c.printHelp()
	case "read":
		err = c.cmdRead(args)
	case "write":
		err = c.cmdWrite(args)
	case "poke":
		err = c.cmdPoke(args)
	case "dump":
		err = c.cmdDump(args)
	case "loadhex":
		err = c.cmdLoadHex(args)
	case "loadelf":
		err = c.cmdLoadElf(args)
	case "sym":
		err = c.cmdSym(args)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		fmt.Fprintf(c.term, "error: %s\n", err)
	}

	return false
}

func (c *Console) printHelp() {
	fmt.Fprint(c.term, `commands:
  read  <addr> <width>
  write <addr> <width> <value>
  poke  <addr> <width> <value>
  dump  <addr> <count>
  sym   <name>
  loadhex <path>
  loadelf <path> [width]
  quit | exit
widths: 1, 2, 4, 8
addresses, values and counts are hexadecimal; the loadelf width is decimal.
`)
}

func parseAddr(s string) (mem.Addr, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
	return mem.Addr(v), err
}

func (c *Console) cmdRead(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: read <addr> <width>")
	}

	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}

	val, ok := readWidth(c.mem, addr, args[1])
	if !ok {
		return fmt.Errorf("read failed at %#x", addr)
	}

	fmt.Fprintf(c.term, "%#x\n", val)

	return nil
}

func (c *Console) cmdWrite(args []string) error {
	if len(args) != 3 {
		return errors.New("usage: write <addr> <width> <value>")
	}

	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}

	val, err := strconv.ParseUint(strings.TrimPrefix(args[2], "0x"), 16, 64)
	if err != nil {
		return err
	}

	if !writeWidth(c.mem, c.hart, addr, args[1], val) {
		return fmt.Errorf("write failed at %#x", addr)
	}

	return nil
}

func (c *Console) cmdPoke(args []string) error {
	if len(args) != 3 {
		return errors.New("usage: poke <addr> <width> <value>")
	}

	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}

	val, err := strconv.ParseUint(strings.TrimPrefix(args[2], "0x"), 16, 64)
	if err != nil {
		return err
	}

	if !pokeWidth(c.mem, addr, args[1], val) {
		return fmt.Errorf("poke failed at %#x", addr)
	}

	return nil
}

func (c *Console) cmdDump(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: dump <addr> <count>")
	}

	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}

	count, err := strconv.ParseUint(args[1], 16, 64)
	if err != nil {
		return err
	}

	for i := mem.Addr(0); i < mem.Addr(count); i += 16 {
		fmt.Fprintf(c.term, "%#010x: ", addr+i)

		for j := mem.Addr(0); j < 16 && i+j < mem.Addr(count); j++ {
			if b, ok := mem.ReadByte(c.mem, addr+i+j); ok {
				fmt.Fprintf(c.term, "%02x ", b)
			} else {
				fmt.Fprint(c.term, ".. ")
			}
		}

		fmt.Fprintln(c.term)
	}

	return nil
}

func (c *Console) cmdLoadHex(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: loadhex <path>")
	}

	if !c.loader.LoadHexFile(args[0]) {
		return fmt.Errorf("loading %s failed", args[0])
	}

	return nil
}

func (c *Console) cmdLoadElf(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: loadelf <path> [width]")
	}

	width := 32

	if len(args) == 2 {
		w, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}

		width = w
	}

	result, err := c.loader.LoadElfFile(args[0], width)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.term, "entry=%#x end=%#x\n", result.Entry, result.End)

	return nil
}

func (c *Console) cmdSym(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: sym <name>")
	}

	sym, ok := c.loader.FindSymbol(args[0])
	if !ok {
		return fmt.Errorf("symbol %q not found", args[0])
	}

	fmt.Fprintf(c.term, "%s: addr=%#x size=%#x\n", sym.Name, sym.Addr, sym.Size)

	return nil
}

func readWidth(m *mem.Memory, addr mem.Addr, width string) (uint64, bool) {
	switch width {
	case "1":
		v, ok := mem.ReadByte(m, addr)
		return uint64(v), ok
	case "2":
		v, ok := mem.Read[uint16](m, addr)
		return uint64(v), ok
	case "4":
		v, ok := mem.Read[uint32](m, addr)
		return uint64(v), ok
	case "8":
		return mem.Read[uint64](m, addr)
	default:
		return 0, false
	}
}

func writeWidth(m *mem.Memory, hart int, addr mem.Addr, width string, val uint64) bool {
	switch width {
	case "1":
		return mem.WriteByte(m, hart, addr, uint8(val))
	case "2":
		return mem.Write[uint16](m, hart, addr, uint16(val))
	case "4":
		return mem.Write[uint32](m, hart, addr, uint32(val))
	case "8":
		return mem.Write[uint64](m, hart, addr, val)
	default:
		return false
	}
}

func pokeWidth(m *mem.Memory, addr mem.Addr, width string, val uint64) bool {
	switch width {
	case "1":
		return mem.Poke[uint8](m, addr, uint8(val))
	case "2":
		return mem.Poke[uint16](m, addr, uint16(val))
	case "4":
		return mem.Poke[uint32](m, addr, uint32(val))
	case "8":
		return mem.Poke[uint64](m, addr, val)
	default:
		return false
	}
}
