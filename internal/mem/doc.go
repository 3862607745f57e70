// Package mem implements the physical memory subsystem of a RISC-V,
// SweRV-class instruction-set simulator: a flat, byte-addressable address
// space partitioned into regions and pages, each tagged with access
// attributes, with dedicated support for instruction- and data-closely-
// coupled memory (ICCM/DCCM), memory-mapped registers with per-word write
// masks, per-hart load-reserved/store-conditional tracking, and per-hart
// write journaling for rollback and trace.
//
// The package is the hot path of the simulator: every load, store,
// instruction fetch, and atomic funnels through [Memory]. It is designed
// for a single-threaded core stepping multiple harts by interleaving their
// steps. If the embedding simulator ever steps harts concurrently,
// [Memory.AtomicRMW] serializes the load/modify/store/invalidate sequence
// required by an AMO instruction, and the reservation table serializes
// reservation create/invalidate/query independently; see reservation.go.
package mem
