// Package assignment decides where an arriving spectator is seated.
//
// Decide is a pure function of the snapshot and the event: it never mutates
// the state and performs no I/O, so it can be called under the engine lock
// or speculatively from tests.
package assignment

import (
	"fmt"
	"strings"

	"github.com/okian/stadu/internal/domain/model"
	"github.com/okian/stadu/internal/domain/policy"
)

// Shirt colours with special handling.
const (
	ColorMulticolor = "MULTICOLOR"
	ColorBlue       = "BLUE"
)

// Refusal reasons.
const (
	ReasonMulticolor   = "Multicolor shirt not allowed"
	ReasonBlueNoRoom   = "Blue shirt rejected: North blocked and no fallback Block C available"
	reasonSaturatedFmt = "Sector %s and adjacent sectors saturated"
)

// Strategy computes AssignmentResults.
type Strategy interface {
	Decide(state *model.StadiumState, e model.EntryEvent) model.AssignmentResult
}

// Standard implements the stadium routing rules.
type Standard struct{}

// New returns the standard strategy.
func New() *Standard { return &Standard{} }

// Decide maps an entry to a result. Multicolor shirts are refused first,
// blue shirts are forced North, everyone else follows their gate.
func (s *Standard) Decide(state *model.StadiumState, e model.EntryEvent) model.AssignmentResult {
	switch {
	case strings.EqualFold(e.ShirtColor, ColorMulticolor):
		return model.Blocked{Reason: ReasonMulticolor}
	case strings.EqualFold(e.ShirtColor, ColorBlue):
		return decideBlue(state)
	default:
		return decideByGate(state, e.Gate)
	}
}

func decideBlue(state *model.StadiumState) model.AssignmentResult {
	if b, ok := bestBlock(state.Sector(model.North)); ok {
		return model.Success{Sector: model.North, Block: b, Distance: policy.DistanceIntraSector}
	}
	for _, sn := range policy.BlueFallbackOrder {
		if !state.Block(sn, model.BlockC).Available() {
			continue
		}
		base := policy.DistanceAdjacentSector
		if policy.IsOpposite(model.North, sn) {
			base = policy.DistanceOppositeSector
		}
		return model.Success{Sector: sn, Block: model.BlockC, Distance: base + policy.DistanceIntraSector}
	}
	return model.Rejected{Reason: ReasonBlueNoRoom}
}

func decideByGate(state *model.StadiumState, gate string) model.AssignmentResult {
	target := policy.SectorForGate(gate)
	if b, ok := bestBlock(state.Sector(target)); ok {
		return model.Success{Sector: target, Block: b, Distance: policy.DistanceIntraSector}
	}
	for _, sn := range policy.Adjacent(target) {
		if b, ok := bestBlock(state.Sector(sn)); ok {
			return model.Success{
				Sector:   sn,
				Block:    b,
				Distance: policy.DistanceAdjacentSector + policy.DistanceIntraSector,
			}
		}
	}
	return model.Rejected{Reason: fmt.Sprintf(reasonSaturatedFmt, target)}
}

// bestBlock returns the first available block in priority order.
func bestBlock(sec model.SectorState) (model.BlockName, bool) {
	for _, bn := range policy.BlockPriority {
		if sec.Block(bn).Available() {
			return bn, true
		}
	}
	return 0, false
}
