package mem

// journal.go implements the per-hart write journal: the most recent
// committed write for each hart, for rollback and trace. It is not a log
// -- each write overwrites the previous record.

// LastWriteNew returns the address, newly-committed value, and size of the
// most recent write hart made. Size zero means none since the last clear.
func (m *Memory) LastWriteNew(hart int) (addr Addr, value uint64, size Addr) {
	lw := m.lastWrites[hart]
	return lw.Addr, lw.New, lw.Size
}

// LastWriteOld returns the address, the value the write replaced, and size
// of the most recent write hart made. Size zero means none since the last
// clear.
func (m *Memory) LastWriteOld(hart int) (addr Addr, previous uint64, size Addr) {
	lw := m.lastWrites[hart]
	return lw.Addr, lw.Previous, lw.Size
}

// ClearLastWrite resets hart's write-journal entry to "none."
func (m *Memory) ClearLastWrite(hart int) {
	m.lastWrites[hart] = LastWrite{}
}
