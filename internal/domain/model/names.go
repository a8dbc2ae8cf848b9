// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// SectorName identifies one of the four stadium quadrants.
type SectorName int

// Sector names. The zero value is North.
const (
	North SectorName = iota
	South
	East
	West
)

// SectorCount is the fixed number of sectors.
const SectorCount = 4

// SectorNames lists every sector in declaration order.
var SectorNames = [SectorCount]SectorName{North, South, East, West}

var sectorLabels = [SectorCount]string{"NORTH", "SOUTH", "EAST", "WEST"}

func (s SectorName) String() string {
	if !s.Valid() {
		return fmt.Sprintf("SectorName(%d)", int(s))
	}
	return sectorLabels[s]
}

// Valid reports whether s is one of the declared sectors.
func (s SectorName) Valid() bool { return s >= North && s <= West }

// MarshalText encodes the sector as its upper-case label.
func (s SectorName) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid sector %d", int(s))
	}
	return []byte(sectorLabels[s]), nil
}

// UnmarshalText accepts a sector label in any case.
func (s *SectorName) UnmarshalText(b []byte) error {
	v, err := ParseSectorName(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSectorName parses a case-insensitive sector label.
func ParseSectorName(v string) (SectorName, error) {
	u := strings.ToUpper(strings.TrimSpace(v))
	for i, l := range sectorLabels {
		if l == u {
			return SectorName(i), nil
		}
	}
	return 0, fmt.Errorf("unknown sector %q", v)
}

// BlockName identifies one of the three seating blocks of a sector.
type BlockName int

// Block names.
const (
	BlockA BlockName = iota
	BlockB
	BlockC
)

// BlockCount is the fixed number of blocks per sector.
const BlockCount = 3

// BlockNames lists every block in declaration order.
var BlockNames = [BlockCount]BlockName{BlockA, BlockB, BlockC}

var blockLabels = [BlockCount]string{"A", "B", "C"}

func (b BlockName) String() string {
	if !b.Valid() {
		return fmt.Sprintf("BlockName(%d)", int(b))
	}
	return blockLabels[b]
}

// Valid reports whether b is one of the declared blocks.
func (b BlockName) Valid() bool { return b >= BlockA && b <= BlockC }

// MarshalText encodes the block as its letter.
func (b BlockName) MarshalText() ([]byte, error) {
	if !b.Valid() {
		return nil, fmt.Errorf("invalid block %d", int(b))
	}
	return []byte(blockLabels[b]), nil
}

// UnmarshalText accepts a block letter in any case.
func (b *BlockName) UnmarshalText(v []byte) error {
	n, err := ParseBlockName(string(v))
	if err != nil {
		return err
	}
	*b = n
	return nil
}

// ParseBlockName parses a case-insensitive block letter.
func ParseBlockName(v string) (BlockName, error) {
	u := strings.ToUpper(strings.TrimSpace(v))
	for i, l := range blockLabels {
		if l == u {
			return BlockName(i), nil
		}
	}
	return 0, fmt.Errorf("unknown block %q", v)
}
