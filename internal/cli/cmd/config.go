package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/swervsim/memsim/internal/mem"
)

// parseHexAddr parses a hexadecimal address or size, with or without a
// leading "0x".
func parseHexAddr(s string) (mem.Addr, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("bad hex value %q: %w", s, err)
	}

	return mem.Addr(v), nil
}

// regionSpec is a repeatable flag value of the form "region:offset:size",
// the region index in decimal and the offset and size in hexadecimal, used by the load and monitor commands
// to describe ICCM/DCCM/MMR regions without a config file.
type regionSpec struct {
	region int
	offset mem.Addr
	size   mem.Addr
}

func parseRegionSpec(s string) (regionSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return regionSpec{}, fmt.Errorf("region spec %q: want region:offset:size", s)
	}

	region, err := strconv.Atoi(parts[0])
	if err != nil {
		return regionSpec{}, fmt.Errorf("region spec %q: bad region index: %w", s, err)
	}

	offset, err := strconv.ParseUint(parts[1], 16, 64)
	if err != nil {
		return regionSpec{}, fmt.Errorf("region spec %q: bad offset: %w", s, err)
	}

	size, err := strconv.ParseUint(parts[2], 16, 64)
	if err != nil {
		return regionSpec{}, fmt.Errorf("region spec %q: bad size: %w", s, err)
	}

	return regionSpec{region: region, offset: mem.Addr(offset), size: mem.Addr(size)}, nil
}

// regionSpecList implements flag.Value so -iccm/-dccm/-mmr can each be
// given more than once on the command line.
type regionSpecList []regionSpec

func (l *regionSpecList) String() string {
	if l == nil {
		return ""
	}

	parts := make([]string, len(*l))
	for i, r := range *l {
		parts[i] = fmt.Sprintf("%d:%x:%x", r.region, r.offset, r.size)
	}

	return strings.Join(parts, ",")
}

func (l *regionSpecList) Set(s string) error {
	spec, err := parseRegionSpec(s)
	if err != nil {
		return err
	}

	*l = append(*l, spec)

	return nil
}

// buildMemory constructs a Memory of the given size and hart count, with
// the requested ICCM/DCCM/MMR regions defined, in that order, matching
// the precedence a SweRV-class configuration file gives closely-coupled
// memory over general-purpose memory.
func buildMemory(size mem.Addr, harts int, iccm, dccm, mmr regionSpecList) (*mem.Memory, error) {
	m := mem.New(size, harts)

	for _, r := range iccm {
		if !m.DefineIccm(r.region, r.offset, r.size) {
			return nil, fmt.Errorf("defining iccm region %d:%x:%x failed", r.region, r.offset, r.size)
		}
	}

	for _, r := range dccm {
		if !m.DefineDccm(r.region, r.offset, r.size) {
			return nil, fmt.Errorf("defining dccm region %d:%x:%x failed", r.region, r.offset, r.size)
		}
	}

	for _, r := range mmr {
		if !m.DefineMemMappedRegisterRegion(r.region, r.offset, r.size) {
			return nil, fmt.Errorf("defining mmr region %d:%x:%x failed", r.region, r.offset, r.size)
		}
	}

	m.FinishCcmConfig()
	m.ResetMemMappedRegisters()

	return m, nil
}
