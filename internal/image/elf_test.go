package image

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/swervsim/memsim/internal/mem"
)

// writeMinimalElf32 hand-assembles a minimal, valid 32-bit little-endian
// RISC-V ELF executable: one PT_LOAD segment carrying data, entry point
// equal to the segment's load address.
func writeMinimalElf32(t *testing.T, path string, entry uint32, data []byte) {
	t.Helper()

	const (
		ehsize = 52
		phsize = 32
	)

	phoff := uint32(ehsize)
	dataOff := ehsize + phsize

	hdr := make([]byte, ehsize)
	copy(hdr[0:4], []byte{0x7f, 'E', 'L', 'F'})
	hdr[4] = 1 // ELFCLASS32
	hdr[5] = 1 // ELFDATA2LSB
	hdr[6] = 1 // EV_CURRENT
	binary.LittleEndian.PutUint16(hdr[16:18], 2)   // ET_EXEC
	binary.LittleEndian.PutUint16(hdr[18:20], 243) // EM_RISCV
	binary.LittleEndian.PutUint32(hdr[20:24], 1)   // e_version
	binary.LittleEndian.PutUint32(hdr[24:28], entry)
	binary.LittleEndian.PutUint32(hdr[28:32], phoff)
	binary.LittleEndian.PutUint32(hdr[32:36], 0) // e_shoff
	binary.LittleEndian.PutUint32(hdr[36:40], 0) // e_flags
	binary.LittleEndian.PutUint16(hdr[40:42], ehsize)
	binary.LittleEndian.PutUint16(hdr[42:44], phsize)
	binary.LittleEndian.PutUint16(hdr[44:46], 1) // e_phnum
	binary.LittleEndian.PutUint16(hdr[46:48], 0)
	binary.LittleEndian.PutUint16(hdr[48:50], 0)
	binary.LittleEndian.PutUint16(hdr[50:52], 0)

	ph := make([]byte, phsize)
	binary.LittleEndian.PutUint32(ph[0:4], 1) // PT_LOAD
	binary.LittleEndian.PutUint32(ph[4:8], uint32(dataOff))
	binary.LittleEndian.PutUint32(ph[8:12], entry)  // p_vaddr
	binary.LittleEndian.PutUint32(ph[12:16], entry) // p_paddr
	binary.LittleEndian.PutUint32(ph[16:20], uint32(len(data)))
	binary.LittleEndian.PutUint32(ph[20:24], uint32(len(data)))
	binary.LittleEndian.PutUint32(ph[24:28], 5) // PF_X | PF_R
	binary.LittleEndian.PutUint32(ph[28:32], 4)

	buf := append(hdr, ph...)
	buf = append(buf, data...)

	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("writing test ELF: %v", err)
	}
}

func newIccmTestMemory(t *testing.T) *mem.Memory {
	t.Helper()

	m := mem.New(8*1024*1024, 1)
	if !m.DefineIccm(0, 0x1000, 0x1000) {
		t.Fatal("defineIccm failed")
	}

	return m
}

func TestLoadElfFileCopiesSegmentAndEntry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "image.elf")

	// addi x0, x0, 0 (NOP), little-endian.
	writeMinimalElf32(t, path, 0x1000, []byte{0x13, 0x00, 0x00, 0x00})

	m := newIccmTestMemory(t)
	l := NewLoader(m)

	result, err := l.LoadElfFile(path, 32)
	if err != nil {
		t.Fatalf("LoadElfFile: %v", err)
	}

	if result.Entry != 0x1000 {
		t.Errorf("entry = %#x, want 0x1000", result.Entry)
	}

	if result.End != 0x1004 {
		t.Errorf("end = %#x, want 0x1004", result.End)
	}

	word, ok := mem.ReadInstWord(m, 0x1000)
	if !ok || word != 0x00000013 {
		t.Errorf("fetch @0x1000 = (%#x, %v), want (0x13, true)", word, ok)
	}
}

func TestLoadElfFileRejectsClassMismatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "image.elf")
	writeMinimalElf32(t, path, 0x1000, []byte{0x13, 0x00, 0x00, 0x00})

	m := newIccmTestMemory(t)
	l := NewLoader(m)

	if _, err := l.LoadElfFile(path, 64); err == nil {
		t.Error("expected class-mismatch error loading a 32-bit file as 64-bit")
	}
}

func TestGetElfFileAddressBounds(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "image.elf")
	writeMinimalElf32(t, path, 0x2000, []byte{0, 0, 0, 0, 0, 0, 0, 0})

	lo, hi, err := GetElfFileAddressBounds(path)
	if err != nil {
		t.Fatalf("GetElfFileAddressBounds: %v", err)
	}

	if lo != 0x2000 || hi != 0x2008 {
		t.Errorf("bounds = (%#x, %#x), want (0x2000, 0x2008)", lo, hi)
	}
}

func TestLoadElfFileUnmappedCheckRejectsUnconfiguredPage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "image.elf")
	// 0x5000 is in bounds but has no ICCM/DCCM/MMR definition.
	writeMinimalElf32(t, path, 0x5000, []byte{0x13, 0x00, 0x00, 0x00})

	m := newIccmTestMemory(t)
	l := NewLoader(m, WithUnmappedCheck(true))

	if _, err := l.LoadElfFile(path, 32); err == nil {
		t.Error("expected unmapped-image-byte error for a segment on an unconfigured page")
	}
}

func TestCheckElfFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "image.elf")
	writeMinimalElf32(t, path, 0x1000, []byte{0x13, 0x00, 0x00, 0x00})

	if !CheckElfFile(path, 32) {
		t.Error("expected CheckElfFile to accept a valid 32-bit image")
	}

	if CheckElfFile(path, 64) {
		t.Error("expected CheckElfFile to reject class mismatch")
	}
}
