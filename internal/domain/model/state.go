package model

// BlockState is the occupancy of a single block.
//
// Blocked is cached by the engine when occupancy crosses the lock threshold
// and is never cleared afterwards.
type BlockState struct {
	Name                BlockName
	Capacity            int
	Occupants           int
	AccumulatedDistance int
	AssignmentCount     int
	Blocked             bool
}

// IsFull reports whether every seat is taken.
func (b BlockState) IsFull() bool { return b.Occupants >= b.Capacity }

// Available reports whether the block may take another admission.
func (b BlockState) Available() bool { return !b.IsFull() && !b.Blocked }

// OccupancyPercentage returns occupants/capacity, or 0 for an empty capacity.
func (b BlockState) OccupancyPercentage() float64 {
	if b.Capacity <= 0 {
		return 0
	}
	return float64(b.Occupants) / float64(b.Capacity)
}

// AverageDistance returns the mean distance of admissions to this block.
func (b BlockState) AverageDistance() float64 {
	if b.AssignmentCount == 0 {
		return 0
	}
	return float64(b.AccumulatedDistance) / float64(b.AssignmentCount)
}

// SectorState holds the three blocks of a sector, indexed by BlockName.
type SectorState struct {
	Name   SectorName
	Blocks [BlockCount]BlockState
}

// Block returns the state of block n.
func (s SectorState) Block(n BlockName) BlockState { return s.Blocks[n] }

// TotalOccupants sums occupants over all blocks.
func (s SectorState) TotalOccupants() int {
	total := 0
	for _, b := range s.Blocks {
		total += b.Occupants
	}
	return total
}

// TotalCapacity sums capacity over all blocks.
func (s SectorState) TotalCapacity() int {
	total := 0
	for _, b := range s.Blocks {
		total += b.Capacity
	}
	return total
}

// OccupancyPercentage returns the sector fill ratio, 0 when capacity is 0.
func (s SectorState) OccupancyPercentage() float64 {
	c := s.TotalCapacity()
	if c == 0 {
		return 0
	}
	return float64(s.TotalOccupants()) / float64(c)
}

// GlobalMetrics aggregates outcomes over the lifetime of the engine.
type GlobalMetrics struct {
	TotalAdmitted         int
	TotalRefused          int
	TotalBlocked          int
	AverageDistanceGlobal float64
}

// Processed returns the number of events that produced any outcome.
func (m GlobalMetrics) Processed() int {
	return m.TotalAdmitted + m.TotalRefused + m.TotalBlocked
}

// StadiumState is an immutable snapshot of the whole stadium.
// Holders must not modify a published snapshot; copy it first.
type StadiumState struct {
	Sectors [SectorCount]SectorState
	Metrics GlobalMetrics
}

// NewStadiumState returns an empty stadium where every block has capacity seats.
func NewStadiumState(capacity int) *StadiumState {
	s := &StadiumState{}
	for _, sn := range SectorNames {
		sec := SectorState{Name: sn}
		for _, bn := range BlockNames {
			sec.Blocks[bn] = BlockState{Name: bn, Capacity: capacity}
		}
		s.Sectors[sn] = sec
	}
	return s
}

// Sector returns the state of sector n.
func (s *StadiumState) Sector(n SectorName) SectorState { return s.Sectors[n] }

// Block returns the state of block b in sector n.
func (s *StadiumState) Block(n SectorName, b BlockName) BlockState {
	return s.Sectors[n].Blocks[b]
}

// TotalCapacity sums capacity over the stadium.
func (s *StadiumState) TotalCapacity() int {
	total := 0
	for _, sec := range s.Sectors {
		total += sec.TotalCapacity()
	}
	return total
}

// TotalOccupants sums occupants over the stadium.
func (s *StadiumState) TotalOccupants() int {
	total := 0
	for _, sec := range s.Sectors {
		total += sec.TotalOccupants()
	}
	return total
}
