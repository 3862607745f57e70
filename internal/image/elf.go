package image

import (
	"debug/elf"
	"fmt"
	"io"

	"github.com/swervsim/memsim/internal/mem"
)

// LoadResult summarizes a completed ELF load: the entry point and the
// exclusive upper bound of the highest address any PT_LOAD segment wrote
// to.
type LoadResult struct {
	Entry mem.Addr
	End   mem.Addr
}

// LoadElfFile opens path as a 32- or 64-bit RISC-V ELF and copies every
// PT_LOAD segment's bytes into the loader's Memory using the
// access-check-bypassing byte writer, since a loadable segment routinely
// targets ICCM (execute, not write) or a read-only page. registerWidth
// must be 32 or 64; it must match the file's declared class, and the file
// must target the RISC-V machine type.
func (l *Loader) LoadElfFile(path string, registerWidth int) (LoadResult, error) {
	f, err := elf.Open(path)
	if err != nil {
		return LoadResult{}, fmt.Errorf("image: open %s: %w", path, err)
	}
	defer f.Close()

	wantClass := elf.ELFCLASS32
	if registerWidth == 64 {
		wantClass = elf.ELFCLASS64
	}

	if f.Class != wantClass {
		return LoadResult{}, fmt.Errorf("image: %s: %w: file is %s, register width is %d",
			path, mem.ErrClassMismatch, f.Class, registerWidth)
	}

	if f.Machine != elf.EM_RISCV {
		return LoadResult{}, fmt.Errorf("image: %s: %w: machine is %s, want RISC-V",
			path, mem.ErrMalformedImage, f.Machine)
	}

	result := LoadResult{Entry: mem.Addr(f.Entry)}

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}

		if err := l.loadSegment(prog, &result); err != nil {
			return LoadResult{}, fmt.Errorf("image: %s: %w", path, err)
		}
	}

	if err := l.loadElfSymbols(f); err != nil {
		l.log.Warn("elf symbol table unavailable", "path", path, "err", err)
	}

	l.log.Info("elf image loaded", "path", path, "entry", result.Entry, "end", result.End)

	return result, nil
}

func (l *Loader) loadSegment(prog *elf.Prog, result *LoadResult) error {
	base := mem.Addr(prog.Vaddr)

	r := prog.Open()

	buf := make([]byte, prog.Filesz)
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("reading segment at %#x: %w", base, err)
	}

	for i, b := range buf {
		addr := base + mem.Addr(i)

		if l.checkUnmappedElf {
			if attrs, ok := l.mem.PageAttributesAt(addr); !ok || !attrs.Mapped() {
				return fmt.Errorf("segment byte at %#x: %w", addr, mem.ErrUnmappedImageByte)
			}
		}

		if !mem.WriteByteNoAccessCheck(l.mem, addr, b) {
			return fmt.Errorf("segment byte at %#x: %w", addr, mem.ErrUnmappedImageByte)
		}
	}

	// Bytes between Filesz and Memsz are .bss: mapped, zero-initialized,
	// not carried in the file.
	for i := prog.Filesz; i < prog.Memsz; i++ {
		addr := base + mem.Addr(i)
		if !mem.WriteByteNoAccessCheck(l.mem, addr, 0) {
			return fmt.Errorf("bss byte at %#x: %w", addr, mem.ErrUnmappedImageByte)
		}
	}

	if end := base + mem.Addr(prog.Memsz); end > result.End {
		result.End = end
	}

	return nil
}

func (l *Loader) loadElfSymbols(f *elf.File) error {
	syms, err := f.Symbols()
	if err != nil {
		return err
	}

	for _, s := range syms {
		if s.Name == "" {
			continue
		}

		switch elf.ST_TYPE(s.Info) {
		case elf.STT_FUNC, elf.STT_OBJECT:
			l.symbols.add(Symbol{Name: s.Name, Addr: mem.Addr(s.Value), Size: mem.Addr(s.Size)})
		}
	}

	return nil
}

// GetElfFileAddressBounds reports the lowest and highest (exclusive)
// address any PT_LOAD segment in path occupies, without mutating any
// Memory.
func GetElfFileAddressBounds(path string) (lo, hi mem.Addr, err error) {
	f, err := elf.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("image: open %s: %w", path, err)
	}
	defer f.Close()

	first := true

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}

		start := mem.Addr(prog.Vaddr)
		end := start + mem.Addr(prog.Memsz)

		if first || start < lo {
			lo = start
		}

		if end > hi {
			hi = end
		}

		first = false
	}

	return lo, hi, nil
}

// CheckElfFile reports whether path looks like a loadable RISC-V ELF of the
// given register width: openable, correct class, RISC-V machine type, and
// carrying at least one PT_LOAD segment. It reads class and machine type
// via elfClassInfo and collapses them to the single bool the CLI's -width
// flag actually needs once it has picked which class is "correct".
func CheckElfFile(path string, registerWidth int) bool {
	is32, is64, isRiscv := elfClassInfo(path)

	if !isRiscv {
		return false
	}

	if registerWidth == 64 {
		return is64
	}

	return is32
}

// elfClassInfo reads path's ELF and program headers and reports its class
// (32-bit, 64-bit) and whether its machine type is RISC-V. It reports all
// three as false if the file cannot be opened or has no PT_LOAD segment.
func elfClassInfo(path string) (is32, is64, isRiscv bool) {
	f, err := elf.Open(path)
	if err != nil {
		return false, false, false
	}
	defer f.Close()

	hasLoad := false

	for _, prog := range f.Progs {
		if prog.Type == elf.PT_LOAD {
			hasLoad = true
			break
		}
	}

	if !hasLoad {
		return false, false, false
	}

	return f.Class == elf.ELFCLASS32, f.Class == elf.ELFCLASS64, f.Machine == elf.EM_RISCV
}

// IsSymbolInElfFile reports whether path's symbol table contains name,
// without requiring the file to have been loaded into a Memory first.
func IsSymbolInElfFile(path, name string) bool {
	f, err := elf.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	syms, err := f.Symbols()
	if err != nil {
		return false
	}

	for _, s := range syms {
		if s.Name == name {
			return true
		}
	}

	return false
}
