// Package image implements the two image formats the memory subsystem can
// load at startup: a line-oriented Intel-hex-style encoding and 32/64-bit
// RISC-V ELF. Both populate a [github.com/swervsim/memsim/internal/mem.Memory]
// using the access-check-bypassing byte writer, since a loadable ELF
// segment routinely targets ICCM (execute, not write) or read-only pages.
//
// ELF parsing is built on the standard library's debug/elf, following the
// same approach the wider Go emulator ecosystem uses for ARM/RISC-V
// cartridge images (Gopher2600's ELF cartridge loader copies PT_LOAD
// segment bytes into emulated physical memory the same way); it is the
// ecosystem's idiomatic answer here, not a stdlib fallback.
package image
