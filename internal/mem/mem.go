package mem

import (
	"sync"

	"github.com/swervsim/memsim/internal/log"
)

// region is a coarse partition of the address space. It is marked
// configured once an ICCM/DCCM/MMR definition touches any of its pages.
type region struct {
	configured bool
}

// Memory is the physical memory subsystem: a backing byte store, a region
// table, a page attribute table, an MMR mask table, per-hart reservations,
// and per-hart write journals.
type Memory struct {
	size       Addr
	pageSize   Addr
	regionSize Addr
	pageShift  uint
	harts      int

	cell []byte // Backing store; always allocated, never resized.

	regions []region
	attrs   []PageAttributes
	masks   map[int][]uint32 // pageIndex -> per-word write mask; absent == all-ones.
	mmrPages []int           // derived in FinishCcmConfig.

	claim []claimKind // pageIndex -> which CCM/MMR kind (if any) claimed it, during configuration.

	reservations []Reservation
	lastWrites   []LastWrite

	amoMu sync.Mutex // Serializes AtomicRMW's load/modify/store/invalidate sequence.
	resMu sync.Mutex // Serializes reservation create/invalidate/query across harts.

	log *log.Logger
}

type claimKind uint8

const (
	claimNone claimKind = iota
	claimICCM
	claimDCCM
	claimMMR
)

// Option configures a Memory at construction.
type Option func(*Memory)

// WithPageSize overrides the default page size. It must be a power of two
// and must divide the region size.
func WithPageSize(pageSize Addr) Option {
	return func(m *Memory) { m.pageSize = pageSize }
}

// WithRegionSize overrides the default region size. It must be a power of
// two no smaller than the page size.
func WithRegionSize(regionSize Addr) Option {
	return func(m *Memory) { m.regionSize = regionSize }
}

// WithLogger attaches a logger. The default discards nothing; it writes to
// the package default logger's destination (standard error).
func WithLogger(logger *log.Logger) Option {
	return func(m *Memory) { m.log = logger }
}

// New constructs a Memory of the given size (in bytes, truncated down to a
// multiple of 4) with a fixed number of harts. Hart count is taken up front,
// not configured lazily after the fact, so the reservation and write-journal
// tables are never resized.
func New(size Addr, harts int, opts ...Option) *Memory {
	m := &Memory{
		size:       size &^ 3,
		pageSize:   DefaultPageSize,
		regionSize: DefaultRegionSize,
		harts:      harts,
		masks:      make(map[int][]uint32),
		log:        log.DefaultLogger(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if !isPowerOfTwo(m.pageSize) {
		panic("mem: page size must be a power of two")
	}

	if !isPowerOfTwo(m.regionSize) {
		panic("mem: region size must be a power of two")
	}

	if m.regionSize < m.pageSize {
		panic("mem: region size must be >= page size")
	}

	m.pageShift = bitLength(m.pageSize) - 1

	m.cell = make([]byte, m.size)

	numPages := int(m.size / m.pageSize)
	if m.size%m.pageSize != 0 {
		numPages++
	}

	m.attrs = make([]PageAttributes, numPages)
	m.claim = make([]claimKind, numPages)

	numRegions := int(m.size / m.regionSize)
	if m.size%m.regionSize != 0 {
		numRegions++
	}

	m.regions = make([]region, numRegions)

	m.reservations = make([]Reservation, harts)
	m.lastWrites = make([]LastWrite, harts)

	return m
}

// Size returns the size of the address space, in bytes.
func (m *Memory) Size() Addr { return m.size }

// PageSize returns the configured page size.
func (m *Memory) PageSize() Addr { return m.pageSize }

// RegionSize returns the configured region size.
func (m *Memory) RegionSize() Addr { return m.regionSize }

// Harts returns the number of harts this memory was constructed with.
func (m *Memory) Harts() int { return m.harts }

func (m *Memory) pageIndex(addr Addr) int { return int(addr >> m.pageShift) }

func (m *Memory) pageStart(addr Addr) Addr { return addr &^ (m.pageSize - 1) }

func (m *Memory) regionIndex(addr Addr) int { return int(addr / m.regionSize) }

// pageAttributes returns the attribute record for the page containing addr,
// and whether addr is in bounds at all.
func (m *Memory) pageAttributes(addr Addr) (PageAttributes, bool) {
	if addr >= m.size {
		return 0, false
	}

	return m.attrs[m.pageIndex(addr)], true
}

func isPowerOfTwo(n Addr) bool { return n != 0 && n&(n-1) == 0 }

// bitLength returns the position (1-indexed) of the highest set bit; for a
// power of two, bitLength(n)-1 is log2(n).
func bitLength(n Addr) uint {
	var bits uint

	for n != 0 {
		bits++
		n >>= 1
	}

	return bits
}
