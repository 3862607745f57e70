package mem

import (
	"errors"
	"fmt"
)

// Error kinds, per the access-engine and configuration failure taxonomy.
// Access primitives never propagate these directly -- they collapse to a
// bool per the simulator's failure semantics -- but they are logged before
// being discarded so a diagnostic is never silently dropped.
var (
	ErrOutOfBounds       = errors.New("mem: out of bounds")
	ErrAttributeDenied   = errors.New("mem: attribute denied")
	ErrBoundaryViolation = errors.New("mem: crosses region boundary")
	ErrMmrSizeViolation  = errors.New("mem: non-word access to memory-mapped register")
	ErrMmrAlignment      = errors.New("mem: misaligned memory-mapped register access")
	ErrOverlapDefinition = errors.New("mem: overlapping region definition")
	ErrMalformedImage    = errors.New("mem: malformed image")
	ErrUnmappedImageByte = errors.New("mem: image byte falls on unmapped page")
	ErrClassMismatch     = errors.New("mem: ELF class does not match register width")
)

// accessError wraps one of the sentinel errors above with the address that
// triggered it, and satisfies errors.Is against the sentinel.
type accessError struct {
	kind error
	addr Addr
}

func (e *accessError) Error() string {
	return fmt.Sprintf("%s: addr=0x%x", e.kind, e.addr)
}

func (e *accessError) Unwrap() error {
	return e.kind
}

func newAccessError(kind error, addr Addr) *accessError {
	return &accessError{kind: kind, addr: addr}
}
