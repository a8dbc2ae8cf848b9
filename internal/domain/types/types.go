// Package types holds the JSON views served over HTTP.
package types

import (
	"github.com/okian/stadu/internal/domain/model"
)

// ConnectionErrorMessage is shown while the feed is in the ERROR state.
const ConnectionErrorMessage = "Connection Error"

// Block is one block of a sector.
type Block struct {
	Name                string  `json:"name"`
	Capacity            int     `json:"capacity"`
	Occupants           int     `json:"occupants"`
	AccumulatedDistance int     `json:"accumulatedDistance"`
	AssignmentCount     int     `json:"assignmentCount"`
	IsBlocked           bool    `json:"isBlocked"`
	IsFull              bool    `json:"isFull"`
	OccupancyPercentage float64 `json:"occupancyPercentage"`
	AverageDistance     float64 `json:"averageDistance"`
}

// Sector groups its blocks in A, B, C order.
type Sector struct {
	Name                string  `json:"name"`
	Blocks              []Block `json:"blocks"`
	TotalOccupants      int     `json:"totalOccupants"`
	TotalCapacity       int     `json:"totalCapacity"`
	OccupancyPercentage float64 `json:"occupancyPercentage"`
}

// Metrics mirrors model.GlobalMetrics.
type Metrics struct {
	TotalAdmitted         int     `json:"totalAdmitted"`
	TotalRefused          int     `json:"totalRefused"`
	TotalBlocked          int     `json:"totalBlocked"`
	AverageDistanceGlobal float64 `json:"averageDistanceGlobal"`
}

// Stadium is the full snapshot.
type Stadium struct {
	Sectors        []Sector `json:"sectors"`
	Metrics        Metrics  `json:"metrics"`
	TotalCapacity  int      `json:"totalCapacity"`
	TotalOccupants int      `json:"totalOccupants"`
}

// Result is the flattened AssignmentResult. Sector, Block and Distance are
// set only for SUCCESS; Reason only for REJECTED and BLOCKED.
type Result struct {
	Outcome  string `json:"outcome"`
	Sector   string `json:"sector,omitempty"`
	Block    string `json:"block,omitempty"`
	Distance int    `json:"distance,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// ProcessedEvent is one decision. Timestamp is unix milliseconds.
type ProcessedEvent struct {
	ID        string           `json:"id"`
	Event     model.EntryEvent `json:"event"`
	Result    Result           `json:"result"`
	Timestamp int64            `json:"timestamp"`
}

// Connection is the feed status as a UI would render it.
type Connection struct {
	State        string `json:"state"`
	IsConnecting bool   `json:"isConnecting"`
	IsConnected  bool   `json:"isConnected"`
	Error        string `json:"error,omitempty"`
	Attempt      int    `json:"attempt"`
	URL          string `json:"url,omitempty"`
}

// Stats summarises the running service.
type Stats struct {
	EventsProcessed  int64   `json:"eventsProcessed"`
	EventsRetained   int     `json:"eventsRetained"`
	EventsBuffered   int     `json:"eventsBuffered"`
	EventsDropped    uint64  `json:"eventsDropped"`
	Workers          int     `json:"workers"`
	ConnectionState  string  `json:"connectionState"`
	StadiumOccupancy float64 `json:"stadiumOccupancy"`
	LockedBlocks     int     `json:"lockedBlocks"`
	UptimeSeconds    float64 `json:"uptimeSeconds"`
	BlockCapacity    int     `json:"blockCapacity"`
	LockThreshold    float64 `json:"lockThreshold"`
}

// FromBlock converts a block state.
func FromBlock(b model.BlockState) Block {
	return Block{
		Name:                b.Name.String(),
		Capacity:            b.Capacity,
		Occupants:           b.Occupants,
		AccumulatedDistance: b.AccumulatedDistance,
		AssignmentCount:     b.AssignmentCount,
		IsBlocked:           b.Blocked,
		IsFull:              b.IsFull(),
		OccupancyPercentage: b.OccupancyPercentage(),
		AverageDistance:     b.AverageDistance(),
	}
}

// FromStadium converts a snapshot, keeping sector order NORTH, SOUTH, EAST, WEST.
func FromStadium(s *model.StadiumState) Stadium {
	out := Stadium{
		Sectors: make([]Sector, 0, model.SectorCount),
		Metrics: Metrics{
			TotalAdmitted:         s.Metrics.TotalAdmitted,
			TotalRefused:          s.Metrics.TotalRefused,
			TotalBlocked:          s.Metrics.TotalBlocked,
			AverageDistanceGlobal: s.Metrics.AverageDistanceGlobal,
		},
		TotalCapacity:  s.TotalCapacity(),
		TotalOccupants: s.TotalOccupants(),
	}
	for _, sec := range s.Sectors {
		v := Sector{
			Name:                sec.Name.String(),
			Blocks:              make([]Block, 0, model.BlockCount),
			TotalOccupants:      sec.TotalOccupants(),
			TotalCapacity:       sec.TotalCapacity(),
			OccupancyPercentage: sec.OccupancyPercentage(),
		}
		for _, b := range sec.Blocks {
			v.Blocks = append(v.Blocks, FromBlock(b))
		}
		out.Sectors = append(out.Sectors, v)
	}
	return out
}

// FromResult flattens an assignment result.
func FromResult(r model.AssignmentResult) Result {
	if r == nil {
		return Result{}
	}
	out := Result{Outcome: string(r.Outcome()), Reason: model.Reason(r)}
	if s, ok := r.(model.Success); ok {
		out.Sector = s.Sector.String()
		out.Block = s.Block.String()
		out.Distance = s.Distance
	}
	return out
}

// FromProcessed converts a ProcessedEvent.
func FromProcessed(pe model.ProcessedEvent) ProcessedEvent {
	return ProcessedEvent{
		ID:        pe.ID,
		Event:     pe.Event,
		Result:    FromResult(pe.Result),
		Timestamp: pe.Timestamp.UnixMilli(),
	}
}

// FromProcessedList converts a page of events, preserving order.
func FromProcessedList(list []model.ProcessedEvent) []ProcessedEvent {
	out := make([]ProcessedEvent, 0, len(list))
	for _, pe := range list {
		out = append(out, FromProcessed(pe))
	}
	return out
}
