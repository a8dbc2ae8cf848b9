// Package policy holds the static admission rules: capacities, the lock
// threshold, routing distances and the gate to sector mapping.
package policy

import (
	"strings"

	"github.com/okian/stadu/internal/domain/model"
)

// Default policy constants.
const (
	DefaultBlockCapacity = 20
	DefaultLockThreshold = 0.7

	DistanceIntraSector    = 10
	DistanceAdjacentSector = 50
	DistanceOppositeSector = 100
)

// BlockPriority is the scan order inside a sector.
var BlockPriority = [model.BlockCount]model.BlockName{model.BlockC, model.BlockB, model.BlockA}

// BlueFallbackOrder is the order in which blue shirts overflow out of North.
// Only block C of each sector is considered.
var BlueFallbackOrder = [...]model.SectorName{model.East, model.West, model.South}

var adjacent = [model.SectorCount][2]model.SectorName{
	model.North: {model.East, model.West},
	model.South: {model.East, model.West},
	model.East:  {model.North, model.South},
	model.West:  {model.North, model.South},
}

// Adjacent returns the two neighbours of s in scan order.
func Adjacent(s model.SectorName) [2]model.SectorName {
	return adjacent[s]
}

// IsOpposite reports whether to is across the pitch from from.
func IsOpposite(from, to model.SectorName) bool {
	if from == to {
		return false
	}
	for _, n := range adjacent[from] {
		if n == to {
			return false
		}
	}
	return true
}

// SectorForGate maps a free-text gate label to a sector.
//
// Rules are evaluated in order and the first match wins, so "NORTE D"
// resolves to North even though it ends with D.
func SectorForGate(gate string) model.SectorName {
	g := strings.TrimSpace(strings.ToUpper(gate))
	switch {
	case strings.Contains(g, "NORTE") || strings.Contains(g, "NORTH") || strings.HasSuffix(g, "A"):
		return model.North
	case strings.Contains(g, "SUR") || strings.Contains(g, "SOUTH") || strings.HasSuffix(g, "B"):
		return model.South
	case strings.Contains(g, "ESTE") || strings.Contains(g, "EAST") || strings.HasSuffix(g, "C"):
		return model.East
	case strings.Contains(g, "OESTE") || strings.Contains(g, "WEST") || strings.HasSuffix(g, "D"):
		return model.West
	default:
		return model.North
	}
}

// Policy carries the tunable part of the rules.
type Policy struct {
	blockCapacity int
	lockThreshold float64
}

// New creates a Policy with defaults overridden by opts.
func New(opts ...Option) *Policy {
	p := &Policy{
		blockCapacity: DefaultBlockCapacity,
		lockThreshold: DefaultLockThreshold,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Default returns the stock policy.
func Default() *Policy { return New() }

// BlockCapacity returns the seats per block for a new stadium.
func (p *Policy) BlockCapacity() int { return p.blockCapacity }

// LockThreshold returns the occupancy fraction that locks a block.
func (p *Policy) LockThreshold() float64 { return p.lockThreshold }

// ShouldLock reports whether a block with occupants out of capacity is locked.
func (p *Policy) ShouldLock(occupants, capacity int) bool {
	return float64(occupants) >= float64(capacity)*p.lockThreshold
}

// LockAt returns the first occupancy at which a block of capacity locks.
func (p *Policy) LockAt(capacity int) int {
	for n := 0; n <= capacity; n++ {
		if p.ShouldLock(n, capacity) {
			return n
		}
	}
	return capacity
}
