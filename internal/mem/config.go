package mem

// config.go implements region/CCM/MMR configuration and the MMR mask
// table. These are called once, before execution begins; none of them are
// on the hot path.

// defineRegion claims the pages spanning [region*regionSize+offset,
// +size) for kind, stamping them with attrs. It fails if the range isn't
// page-aligned, doesn't fit within the region, falls outside the address
// space, or overlaps pages already claimed by a prior ICCM/DCCM/MMR
// definition.
func (m *Memory) defineRegion(regionIdx int, offset, size Addr, kind claimKind, attrs PageAttributes) bool {
	if regionIdx < 0 || regionIdx >= len(m.regions) {
		return false
	}

	if offset%m.pageSize != 0 || size%m.pageSize != 0 || size == 0 {
		return false
	}

	if offset+size > m.regionSize {
		return false
	}

	base := Addr(regionIdx)*m.regionSize + offset
	if base+size > m.size {
		return false
	}

	startPage := m.pageIndex(base)
	endPage := m.pageIndex(base + size - 1)

	for p := startPage; p <= endPage; p++ {
		if m.claim[p] != claimNone {
			return false
		}
	}

	for p := startPage; p <= endPage; p++ {
		m.claim[p] = kind
		m.attrs[p] = attrs

		if kind == claimMMR {
			delete(m.masks, p) // Explicitly empty: all-ones until configured.
		}
	}

	m.regions[regionIdx].configured = true

	return true
}

// DefineIccm marks a contiguous, page-aligned range within region as
// Instruction Closely-Coupled Memory: executable and readable, not
// writable.
func (m *Memory) DefineIccm(regionIdx int, offset, size Addr) bool {
	ok := m.defineRegion(regionIdx, offset, size, claimICCM, attrICCM|attrExec|attrRead)
	if !ok {
		m.log.Debug("defineIccm failed", "region", regionIdx, "offset", offset, "size", size)
	}

	return ok
}

// DefineDccm marks a contiguous, page-aligned range within region as Data
// Closely-Coupled Memory: readable and writable, not executable.
func (m *Memory) DefineDccm(regionIdx int, offset, size Addr) bool {
	ok := m.defineRegion(regionIdx, offset, size, claimDCCM, attrDCCM|attrRead|attrWrite)
	if !ok {
		m.log.Debug("defineDccm failed", "region", regionIdx, "offset", offset, "size", size)
	}

	return ok
}

// DefineMemMappedRegisterRegion marks a contiguous, page-aligned range
// within region as memory-mapped registers: readable and writable, not
// executable. Each page's mask vector starts empty (all-ones).
func (m *Memory) DefineMemMappedRegisterRegion(regionIdx int, offset, size Addr) bool {
	ok := m.defineRegion(regionIdx, offset, size, claimMMR, attrMMR|attrRead|attrWrite)
	if !ok {
		m.log.Debug("defineMemMappedRegisterRegion failed", "region", regionIdx, "offset", offset, "size", size)
	}

	return ok
}

// DefineMemMappedRegisterWriteMask defines or overrides the write mask for
// one register word, addressed as
// region*regionSize + regionOffset + registerBlockOffset + registerIx*4.
// It fails if that address is out of bounds or falls on a page whose
// memMappedReg bit isn't set.
func (m *Memory) DefineMemMappedRegisterWriteMask(
	regionIdx int, regionOffset, registerBlockOffset Addr, registerIx int, mask uint32,
) bool {
	addr := Addr(regionIdx)*m.regionSize + regionOffset + registerBlockOffset + Addr(registerIx)*4

	if addr+4 > m.size {
		return false
	}

	// regionOffset + registerBlockOffset + registerIx*4 must stay inside
	// the claimed region; otherwise it silently spills into the next one.
	if m.regionIndex(addr) != regionIdx {
		return false
	}

	attrs, ok := m.pageAttributes(addr)
	if !ok || !attrs.MemMappedReg() {
		return false
	}

	pageIdx := m.pageIndex(addr)

	masks := m.masks[pageIdx]
	if masks == nil {
		masks = make([]uint32, m.pageSize/4)
		for i := range masks {
			masks[i] = 0xFFFFFFFF
		}

		m.masks[pageIdx] = masks
	}

	word := int((addr - m.pageStart(addr)) / 4)
	masks[word] = mask

	return true
}

// FinishCcmConfig recomputes derived indices after all ICCM/DCCM/MMR
// definitions have been made. Call it once, before execution begins.
func (m *Memory) FinishCcmConfig() {
	m.mmrPages = m.mmrPages[:0]

	for i, a := range m.attrs {
		if a.MemMappedReg() {
			m.mmrPages = append(m.mmrPages, i)
		}
	}
}

// ResetMemMappedRegisters zeros every word on every memory-mapped-register
// page. Call FinishCcmConfig first so the derived page list is current.
func (m *Memory) ResetMemMappedRegisters() {
	for _, p := range m.mmrPages {
		start := Addr(p) * m.pageSize
		for off := Addr(0); off < m.pageSize; off += 4 {
			m.storeRaw(start+off, 4, 0)
		}
	}
}

// SetReadAccess, SetWriteAccess, and SetExecAccess toggle the corresponding
// attribute bit for the whole page containing addr. They return false if
// addr is out of bounds.
func (m *Memory) SetReadAccess(addr Addr, enabled bool) bool {
	return m.setAttr(addr, attrRead, enabled)
}

func (m *Memory) SetWriteAccess(addr Addr, enabled bool) bool {
	return m.setAttr(addr, attrWrite, enabled)
}

func (m *Memory) SetExecAccess(addr Addr, enabled bool) bool {
	return m.setAttr(addr, attrExec, enabled)
}

func (m *Memory) setAttr(addr Addr, bit PageAttributes, enabled bool) bool {
	if addr >= m.size {
		return false
	}

	idx := m.pageIndex(addr)

	if enabled {
		m.attrs[idx] |= bit
	} else {
		m.attrs[idx] &^= bit
	}

	return true
}

// PageAttributesAt returns the attribute record for the page containing
// addr, for inspection by the console and tests.
func (m *Memory) PageAttributesAt(addr Addr) (PageAttributes, bool) {
	return m.pageAttributes(addr)
}
