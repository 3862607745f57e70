package mem

import "testing"

func TestDefineIccmSetsAttributes(t *testing.T) {
	t.Parallel()

	m := newTestMemory(t)

	if !m.DefineIccm(0, 0, 0x1000) {
		t.Fatal("defineIccm failed")
	}

	attrs, ok := m.PageAttributesAt(0x10)
	if !ok {
		t.Fatal("expected in-bounds page")
	}

	if !attrs.ICCM() || !attrs.Exec() || !attrs.Read() || attrs.Write() || attrs.DCCM() || attrs.MemMappedReg() {
		t.Errorf("unexpected ICCM attributes: %s", attrs)
	}
}

func TestDefineDccmSetsAttributes(t *testing.T) {
	t.Parallel()

	m := newTestMemory(t)

	if !m.DefineDccm(0, 0x10000, 0x1000) {
		t.Fatal("defineDccm failed")
	}

	attrs, _ := m.PageAttributesAt(0x10010)
	if !attrs.DCCM() || !attrs.Read() || !attrs.Write() || attrs.Exec() || attrs.ICCM() || attrs.MemMappedReg() {
		t.Errorf("unexpected DCCM attributes: %s", attrs)
	}
}

func TestDefineMemMappedRegisterRegionSetsAttributes(t *testing.T) {
	t.Parallel()

	m := newTestMemory(t)

	if !m.DefineMemMappedRegisterRegion(0, 0x20000, 0x1000) {
		t.Fatal("defineMemMappedRegisterRegion failed")
	}

	attrs, _ := m.PageAttributesAt(0x20000)
	if !attrs.MemMappedReg() || !attrs.Read() || !attrs.Write() || attrs.Exec() {
		t.Errorf("unexpected MMR attributes: %s", attrs)
	}
}

func TestDefineRejectsNonPageAlignedRanges(t *testing.T) {
	t.Parallel()

	m := newTestMemory(t)

	if m.DefineDccm(0, 0x10001, 0x1000) {
		t.Error("expected failure for non-page-aligned offset")
	}

	if m.DefineDccm(0, 0x10000, 0x1001) {
		t.Error("expected failure for non-page-aligned size")
	}
}

func TestDefineRejectsOutOfRegionRange(t *testing.T) {
	t.Parallel()

	m := newTestMemory(t)

	if m.DefineDccm(0, m.RegionSize()-0x1000, 0x2000) {
		t.Error("expected failure when offset+size exceeds region size")
	}
}

func TestDefineOverlapIsRejected(t *testing.T) {
	t.Parallel()

	m := newTestMemory(t)

	if !m.DefineDccm(0, 0x10000, 0x2000) {
		t.Fatal("setup defineDccm failed")
	}

	if m.DefineIccm(0, 0x11000, 0x1000) {
		t.Error("expected overlap rejection between DCCM and ICCM")
	}

	if m.DefineMemMappedRegisterRegion(0, 0x10000, 0x1000) {
		t.Error("expected overlap rejection between DCCM and MMR")
	}

	// A disjoint range in the same region still succeeds.
	if !m.DefineIccm(0, 0x12000, 0x1000) {
		t.Error("expected success for disjoint range")
	}
}

func TestDefineMemMappedRegisterWriteMaskRejectsNonMMRPage(t *testing.T) {
	t.Parallel()

	m := newTestMemory(t)
	m.DefineDccm(0, 0x10000, 0x1000)

	if m.DefineMemMappedRegisterWriteMask(0, 0x10000, 0, 0, 0xFFFF0000) {
		t.Error("expected failure defining a mask on a non-MMR page")
	}
}

func TestDefineMemMappedRegisterWriteMaskOutOfBounds(t *testing.T) {
	t.Parallel()

	m := newTestMemory(t)
	m.DefineMemMappedRegisterRegion(0, 0x20000, 0x1000)

	// registerIx*4 = 8 MiB, so the word lands past the end of the 8 MiB address space.
	if m.DefineMemMappedRegisterWriteMask(0, 0x20000, 0, 1<<21, 0xFF) {
		t.Error("expected failure for out-of-bounds mask address")
	}
}

func TestResetMemMappedRegisters(t *testing.T) {
	t.Parallel()

	m := newTestMemory(t)
	m.DefineMemMappedRegisterRegion(0, 0x20000, 0x1000)
	m.FinishCcmConfig()

	Write[uint32](m, 0, 0x20000, 0xFFFFFFFF)
	Write[uint32](m, 0, 0x20004, 0xFFFFFFFF)

	m.ResetMemMappedRegisters()

	if got, _ := Read[uint32](m, 0x20000); got != 0 {
		t.Errorf("expected zeroed register, got %#x", got)
	}

	if got, _ := Read[uint32](m, 0x20004); got != 0 {
		t.Errorf("expected zeroed register, got %#x", got)
	}
}

func TestSetAccessTogglesPageGranularity(t *testing.T) {
	t.Parallel()

	m := newTestMemory(t)

	if !m.SetWriteAccess(0x1234, true) {
		t.Fatal("setWriteAccess failed")
	}

	if !Write[uint8](m, 0, 0x1234, 0xFF) {
		t.Error("expected write to succeed after enabling write access")
	}

	// The whole page, not just the one address, is affected.
	if !Write[uint8](m, 0, 0x1000, 0xFF) {
		t.Error("expected write access to apply page-wide")
	}

	m.SetWriteAccess(0x1234, false)

	if Write[uint8](m, 0, 0x1234, 0xFF) {
		t.Error("expected write to fail after disabling write access")
	}
}

func TestSetAccessOutOfBoundsFails(t *testing.T) {
	t.Parallel()

	m := newTestMemory(t)

	if m.SetReadAccess(m.Size(), true) {
		t.Error("expected failure setting access out of bounds")
	}
}
