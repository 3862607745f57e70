package mem

import "testing"

// End-to-end scenarios over a literal, typical SweRV-class configuration:
// 4 KiB pages, 256 MiB regions, 8 MiB total memory, 2 harts.

func TestScenarioS1AlignedWordRMW(t *testing.T) {
	t.Parallel()

	m := newTestMemory(t)
	m.DefineDccm(0, 0x10000, 0x10000)

	if !Write[uint32](m, 0, 0x10000, 0xdeadbeef) {
		t.Fatal("write failed")
	}

	if got, ok := Read[uint32](m, 0x10000); !ok || got != 0xdeadbeef {
		t.Errorf("read = (%#x, %v), want (0xdeadbeef, true)", got, ok)
	}

	addr, val, size := m.LastWriteNew(0)
	if addr != 0x10000 || val != 0xdeadbeef || size != 4 {
		t.Errorf("lastWriteNew = (%#x, %#x, %d)", addr, val, size)
	}
}

func TestScenarioS2DCCMBoundaryCrossing(t *testing.T) {
	t.Parallel()

	m := newTestMemory(t)
	m.DefineDccm(0, 0x10000, 0x1000) // 0x11000 left unmapped

	if Write[uint32](m, 0, 0x10ffe, 0x11223344) {
		t.Error("expected failure crossing from DCCM into unmapped memory")
	}
}

func TestScenarioS3MMRMaskedWrite(t *testing.T) {
	t.Parallel()

	m := newTestMemory(t)
	m.DefineMemMappedRegisterRegion(0, 0x20000, 0x1000)
	m.DefineMemMappedRegisterWriteMask(0, 0x20000, 0, 0, 0x0000FFFF)

	if !Write[uint32](m, 0, 0x20000, 0xAAAABBBB) {
		t.Fatal("write failed")
	}

	if got, ok := Read[uint32](m, 0x20000); !ok || got != 0x0000BBBB {
		t.Errorf("read = (%#x, %v), want (0x0000BBBB, true)", got, ok)
	}
}

func TestScenarioS4MMRBadSize(t *testing.T) {
	t.Parallel()

	m := newTestMemory(t)
	m.DefineMemMappedRegisterRegion(0, 0x20000, 0x1000)
	m.DefineMemMappedRegisterWriteMask(0, 0x20000, 0, 0, 0x0000FFFF)

	if _, ok := ReadByte(m, 0x20000); ok {
		t.Error("expected byte read of MMR to fail")
	}

	if Write[uint16](m, 0, 0x20000, 0x1234) {
		t.Error("expected half-word write of MMR to fail")
	}

	if Write[uint32](m, 0, 0x20002, 0x01020304) {
		t.Error("expected misaligned word write of MMR to fail")
	}
}

func TestScenarioS5CrossHartLrInvalidation(t *testing.T) {
	t.Parallel()

	m := newTestMemory(t)
	m.DefineDccm(0, 0x10000, 0x1000)

	m.MakeLr(0, 0x10010, 4)

	if !Write[uint32](m, 1, 0x10010, 0) {
		t.Fatal("write failed")
	}

	if m.HasLr(0, 0x10010) {
		t.Error("expected reservation invalidated by hart 1's write")
	}

	m.MakeLr(0, 0x10010, 4)

	if !Write[uint32](m, 0, 0x10010, 0) {
		t.Fatal("write failed")
	}

	if !m.HasLr(0, 0x10010) {
		t.Error("expected hart 0's own write to its reservation to survive")
	}
}
