package image

import (
	"fmt"
	"io"
	"sort"

	"github.com/swervsim/memsim/internal/mem"
)

// Symbol is a named, sized object in the loaded image: a function or a
// data object.
type Symbol struct {
	Name string
	Addr mem.Addr
	Size mem.Addr
}

// SymbolTable maps symbol names to their address and size, populated by
// ELF loading.
type SymbolTable struct {
	byName map[string]Symbol
	byAddr []Symbol // Unsorted; scanned linearly, which is fine for image-sized symbol counts.
}

func newSymbolTable() *SymbolTable {
	return &SymbolTable{byName: make(map[string]Symbol)}
}

func (t *SymbolTable) add(sym Symbol) {
	t.byName[sym.Name] = sym
	t.byAddr = append(t.byAddr, sym)
}

// FindSymbol looks up a symbol by its exact name.
func (t *SymbolTable) FindSymbol(name string) (Symbol, bool) {
	sym, ok := t.byName[name]
	return sym, ok
}

// FindFunction returns the symbol whose [Addr, Addr+Size) range contains
// addr. If more than one symbol contains addr -- a function symbol and an
// enclosing object symbol, say -- the smallest one wins, since it is the
// more specific match.
func (t *SymbolTable) FindFunction(addr mem.Addr) (Symbol, bool) {
	var (
		best    Symbol
		haveOne bool
	)

	for _, sym := range t.byAddr {
		if addr < sym.Addr || addr >= sym.Addr+sym.Size {
			continue
		}

		if !haveOne || sym.Size < best.Size {
			best = sym
			haveOne = true
		}
	}

	return best, haveOne
}

// PrintSymbols writes the symbol table to w, sorted by name for stable
// output.
func (t *SymbolTable) PrintSymbols(w io.Writer) error {
	names := make([]string, 0, len(t.byName))
	for name := range t.byName {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		sym := t.byName[name]

		if _, err := fmt.Fprintf(w, "%-32s %#010x %6d\n", sym.Name, sym.Addr, sym.Size); err != nil {
			return err
		}
	}

	return nil
}
