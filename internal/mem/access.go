package mem

// access.go implements the common access contract: attribute fetch,
// misaligned crossing check, memory-mapped-register masking, and commit to
// the backing store.

func toUint64[T Unsigned](v T) uint64   { return uint64(v) }
func fromUint64[T Unsigned](v uint64) T { return T(v) }

// checkAccess performs the attribute fetch and, for misaligned accesses
// that straddle a page boundary, the crossing check. It never mutates
// state. The crossing check looks at the attributes of addr+size-1 (the
// last byte actually touched by the access) rather than addr+size, the
// byte immediately past it, to avoid flagging a boundary crossing one page
// too far when the access ends exactly at a page boundary.
func (m *Memory) checkAccess(addr, size Addr, kind accessKind) (PageAttributes, *accessError) {
	if size == 0 || addr >= m.size || addr+size > m.size {
		return 0, newAccessError(ErrOutOfBounds, addr)
	}

	attrs1 := m.attrs[m.pageIndex(addr)]

	if !kind.permits(attrs1) {
		return 0, newAccessError(ErrAttributeDenied, addr)
	}

	if addr%size != 0 {
		last := addr + size - 1
		if m.pageStart(addr) != m.pageStart(last) {
			attrs2 := m.attrs[m.pageIndex(last)]

			if !kind.permits(attrs2) {
				return 0, newAccessError(ErrAttributeDenied, last)
			}

			if kind == accessFetch {
				if attrs1.ICCM() != attrs2.ICCM() {
					return 0, newAccessError(ErrBoundaryViolation, addr)
				}
			} else if attrs1.DCCM() != attrs2.DCCM() {
				return 0, newAccessError(ErrBoundaryViolation, addr)
			}

			if attrs1.MemMappedReg() != attrs2.MemMappedReg() {
				return 0, newAccessError(ErrBoundaryViolation, addr)
			}
		}
	}

	return attrs1, nil
}

func (m *Memory) loadRaw(addr, size Addr) uint64 {
	var v uint64

	for i := Addr(0); i < size; i++ {
		v |= uint64(m.cell[addr+i]) << (8 * i)
	}

	return v
}

func (m *Memory) storeRaw(addr, size Addr, v uint64) {
	for i := Addr(0); i < size; i++ {
		m.cell[addr+i] = byte(v >> (8 * i))
	}
}

// maskAt returns the write mask for the word at addr. An absent entry is
// all-ones: fully writable.
func (m *Memory) maskAt(addr Addr) uint32 {
	masks, ok := m.masks[m.pageIndex(addr)]
	if !ok {
		return 0xFFFFFFFF
	}

	word := int((addr - m.pageStart(addr)) / 4)
	if word >= len(masks) {
		return 0xFFFFFFFF
	}

	return masks[word]
}

func (m *Memory) deny(op string, addr Addr, err *accessError) {
	m.log.Debug("access denied", "op", op, "addr", addr, "err", err)
}

// doRead implements Read and the instruction-fetch primitives.
func doRead[T Unsigned](m *Memory, addr Addr, kind accessKind) (T, bool) {
	size := sizeOf[T]()

	attrs, err := m.checkAccess(addr, size, kind)
	if err != nil {
		m.deny("read", addr, err)
		return 0, false
	}

	if attrs.MemMappedReg() && size != 4 {
		m.deny("read", addr, newAccessError(ErrMmrSizeViolation, addr))
		return 0, false
	}

	return fromUint64[T](m.loadRaw(addr, size)), true
}

// Read loads a value of width T from addr. The page must be readable (or,
// for an access that straddles two pages, both pages readable with
// matching DCCM/MMR membership).
func Read[T Unsigned](m *Memory, addr Addr) (T, bool) {
	return doRead[T](m, addr, accessRead)
}

// ReadInstHalfWord fetches a half-word for instruction decode. The page(s)
// touched must be executable.
func ReadInstHalfWord(m *Memory, addr Addr) (uint16, bool) {
	return doRead[uint16](m, addr, accessFetch)
}

// ReadInstWord fetches a word for instruction decode. The page(s) touched
// must be executable.
func ReadInstWord(m *Memory, addr Addr) (uint32, bool) {
	return doRead[uint32](m, addr, accessFetch)
}

// ReadByte is a byte-sized specialization of Read. Because a memory-mapped
// register access must be exactly word-sized, it unconditionally forbids
// access to memory-mapped-register pages: the MMR-size check inside Read
// already rejects any 1-byte access to such a page.
func ReadByte(m *Memory, addr Addr) (uint8, bool) {
	return Read[uint8](m, addr)
}

// Write stores a value of width T at addr on behalf of hart, and records
// the commit in that hart's write journal. A memory-mapped-register write
// must be word-sized and word-aligned; the value actually committed is
// masked by the page's write mask. Every successful write invalidates any
// other hart's overlapping reservation.
func Write[T Unsigned](m *Memory, hart int, addr Addr, val T) bool {
	size := sizeOf[T]()

	attrs, err := m.checkAccess(addr, size, accessWrite)
	if err != nil {
		m.deny("write", addr, err)
		return false
	}

	newRaw := toUint64(val)

	if attrs.MemMappedReg() {
		if size != 4 {
			m.deny("write", addr, newAccessError(ErrMmrSizeViolation, addr))
			return false
		}

		if addr%4 != 0 {
			m.deny("write", addr, newAccessError(ErrMmrAlignment, addr))
			return false
		}

		newRaw &= uint64(m.maskAt(addr))
	}

	old := m.loadRaw(addr, size)
	m.storeRaw(addr, size, newRaw)

	m.lastWrites[hart] = LastWrite{Addr: addr, Size: size, New: newRaw, Previous: old}

	m.invalidateOtherHartLr(hart, addr, size)

	return true
}

// WriteByte is a byte-sized specialization of Write; like ReadByte, it is
// unconditionally refused on memory-mapped-register pages by the MMR-size
// check.
func WriteByte(m *Memory, hart int, addr Addr, val uint8) bool {
	return Write[uint8](m, hart, addr, val)
}

// WriteByteNoAccessCheck bypasses the write-permission predicate -- used by
// image loaders to populate ICCM (exec, not write) or read-only pages --
// but still enforces bounds and the memory-mapped-register exclusion.
func WriteByteNoAccessCheck(m *Memory, addr Addr, val uint8) bool {
	const size = Addr(1)

	if addr >= m.size {
		m.deny("poke-load", addr, newAccessError(ErrOutOfBounds, addr))
		return false
	}

	attrs := m.attrs[m.pageIndex(addr)]
	if attrs.MemMappedReg() {
		m.deny("poke-load", addr, newAccessError(ErrMmrSizeViolation, addr))
		return false
	}

	m.storeRaw(addr, size, uint64(val))

	return true
}

// Poke writes a value of width T at addr, bypassing the write-permission
// predicate (any mapped page -- read, write, or exec -- accepts a poke),
// used by debuggers and image loaders. Unlike Write, it does not record a
// write-journal entry and does not invalidate reservations.
func Poke[T Unsigned](m *Memory, addr Addr, val T) bool {
	size := sizeOf[T]()

	attrs, err := m.checkAccess(addr, size, accessPoke)
	if err != nil {
		m.deny("poke", addr, err)
		return false
	}

	newRaw := toUint64(val)

	if attrs.MemMappedReg() {
		if size != 4 {
			m.deny("poke", addr, newAccessError(ErrMmrSizeViolation, addr))
			return false
		}

		if addr%4 != 0 {
			m.deny("poke", addr, newAccessError(ErrMmrAlignment, addr))
			return false
		}

		newRaw &= uint64(m.maskAt(addr))
	}

	m.storeRaw(addr, size, newRaw)

	return true
}

// CheckWrite performs the same checks as Write, without committing: it
// reports whether the write would succeed and, for a memory-mapped
// register, the value that would actually be committed after masking.
func CheckWrite[T Unsigned](m *Memory, addr Addr, val T) (T, bool) {
	size := sizeOf[T]()

	attrs, err := m.checkAccess(addr, size, accessWrite)
	if err != nil {
		m.deny("check-write", addr, err)
		return 0, false
	}

	if attrs.MemMappedReg() {
		if size != 4 {
			m.deny("check-write", addr, newAccessError(ErrMmrSizeViolation, addr))
			return 0, false
		}

		if addr%4 != 0 {
			m.deny("check-write", addr, newAccessError(ErrMmrAlignment, addr))
			return 0, false
		}

		return fromUint64[T](toUint64(val) & uint64(m.maskAt(addr))), true
	}

	return val, true
}

// AtomicRMW performs a read-modify-write against addr as a single
// indivisible step: the load, the caller's update function, the store, and
// the resulting reservation invalidation all happen while holding the
// atomic-memory mutex. This is the primitive an AMO instruction composes
// from, so a concurrent stepper never observes it half-applied.
func (m *Memory) AtomicRMW(hart int, addr Addr, update func(old uint32) uint32) (uint32, bool) {
	m.amoMu.Lock()
	defer m.amoMu.Unlock()

	old, ok := Read[uint32](m, addr)
	if !ok {
		return 0, false
	}

	newVal := update(old)

	if !Write[uint32](m, hart, addr, newVal) {
		return 0, false
	}

	return newVal, true
}
