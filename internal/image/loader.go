package image

import (
	"github.com/swervsim/memsim/internal/log"
	"github.com/swervsim/memsim/internal/mem"
)

// Loader populates a Memory from an on-disk image and accumulates the
// symbol table the image carries, if any.
type Loader struct {
	mem *mem.Memory
	log *log.Logger

	symbols *SymbolTable

	// checkUnmappedElf makes LoadElfFile fail a load where a PT_LOAD
	// segment file byte falls on an unmapped page (no read, write, or
	// exec permission), rather than writing it through
	// WriteByteNoAccessCheck, which checks only bounds and the MMR
	// exclusion.
	checkUnmappedElf bool
}

// NewLoader constructs a Loader writing into m.
func NewLoader(m *mem.Memory, opts ...LoaderOption) *Loader {
	l := &Loader{
		mem:     m,
		log:     log.DefaultLogger(),
		symbols: newSymbolTable(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// LoaderOption configures a Loader at construction.
type LoaderOption func(*Loader)

// WithLogger attaches a logger to the loader.
func WithLogger(logger *log.Logger) LoaderOption {
	return func(l *Loader) { l.log = logger }
}

// WithUnmappedCheck makes LoadElfFile reject a segment whose file bytes
// target a page with no read, write, or exec permission.
func WithUnmappedCheck(check bool) LoaderOption {
	return func(l *Loader) { l.checkUnmappedElf = check }
}

// Symbols returns the loader's accumulated symbol table.
func (l *Loader) Symbols() *SymbolTable { return l.symbols }

// FindSymbol looks up a symbol by exact name.
func (l *Loader) FindSymbol(name string) (Symbol, bool) {
	return l.symbols.FindSymbol(name)
}

// FindFunction returns the smallest symbol enclosing addr.
func (l *Loader) FindFunction(addr mem.Addr) (Symbol, bool) {
	return l.symbols.FindFunction(addr)
}
