package image

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/swervsim/memsim/internal/mem"
)

// LoadHex reads a line-oriented Intel-hex-style image from r: a line
// beginning with '@' sets the write cursor to the hexadecimal address that
// follows; any other non-blank line is a run of whitespace-separated
// two-hex-digit byte tokens written starting at the current cursor, which
// then advances past them. There is no comment syntax -- a line that isn't
// blank, a cursor directive, or a run of byte tokens fails to parse. It
// returns the number of bytes written.
func (l *Loader) LoadHex(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)

	var (
		cursor  mem.Addr
		written int
		lineNo  int
	)

	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "@") {
			addr, err := strconv.ParseUint(strings.TrimSpace(line[1:]), 16, 64)
			if err != nil {
				return written, fmt.Errorf("image: line %d: %w: bad cursor %q", lineNo, mem.ErrMalformedImage, line)
			}

			cursor = mem.Addr(addr)

			continue
		}

		for _, tok := range strings.Fields(line) {
			b, err := strconv.ParseUint(tok, 16, 8)
			if err != nil {
				return written, fmt.Errorf("image: line %d: %w: bad byte %q", lineNo, mem.ErrMalformedImage, tok)
			}

			if !mem.WriteByteNoAccessCheck(l.mem, cursor, uint8(b)) {
				return written, fmt.Errorf("image: line %d, addr %#x: %w", lineNo, cursor, mem.ErrUnmappedImageByte)
			}

			cursor++
			written++
		}
	}

	if err := scanner.Err(); err != nil {
		return written, err
	}

	return written, nil
}

// LoadHexFile opens path and loads it as a hex image, logging the outcome.
func (l *Loader) LoadHexFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		l.log.Error("hex load failed", "path", path, "err", err)
		return false
	}
	defer f.Close()

	n, err := l.LoadHex(f)
	if err != nil {
		l.log.Error("hex load failed", "path", path, "bytes", n, "err", err)
		return false
	}

	l.log.Info("hex image loaded", "path", path, "bytes", n)

	return true
}
