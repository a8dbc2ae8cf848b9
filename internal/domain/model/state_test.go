package model_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/stadu/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewStadiumState(t *testing.T) {
	Convey("Given a fresh stadium with capacity 20 per block", t, func() {
		s := model.NewStadiumState(20)

		Convey("Then every sector holds three empty blocks", func() {
			for _, sn := range model.SectorNames {
				sec := s.Sector(sn)
				So(sec.Name, ShouldEqual, sn)
				for _, bn := range model.BlockNames {
					b := sec.Block(bn)
					So(b.Name, ShouldEqual, bn)
					So(b.Capacity, ShouldEqual, 20)
					So(b.Occupants, ShouldEqual, 0)
					So(b.Blocked, ShouldBeFalse)
					So(b.Available(), ShouldBeTrue)
				}
			}
		})

		Convey("And the totals cover 240 seats", func() {
			So(s.TotalCapacity(), ShouldEqual, 240)
			So(s.TotalOccupants(), ShouldEqual, 0)
			So(s.Metrics.Processed(), ShouldEqual, 0)
		})
	})
}

func TestBlockState_Derived(t *testing.T) {
	Convey("Given a block with some admissions", t, func() {
		b := model.BlockState{Name: model.BlockC, Capacity: 20, Occupants: 5, AccumulatedDistance: 110, AssignmentCount: 5}

		Convey("Then derived values follow its counters", func() {
			So(b.IsFull(), ShouldBeFalse)
			So(b.OccupancyPercentage(), ShouldAlmostEqual, 0.25)
			So(b.AverageDistance(), ShouldAlmostEqual, 22.0)
		})

		Convey("When it is full it is not available even if unlocked", func() {
			b.Occupants = 20
			So(b.IsFull(), ShouldBeTrue)
			So(b.Available(), ShouldBeFalse)
		})

		Convey("When it is locked it is not available even with free seats", func() {
			b.Blocked = true
			So(b.IsFull(), ShouldBeFalse)
			So(b.Available(), ShouldBeFalse)
		})
	})

	Convey("Given a block without capacity", t, func() {
		b := model.BlockState{}
		So(b.OccupancyPercentage(), ShouldEqual, 0)
		So(b.AverageDistance(), ShouldEqual, 0)
	})
}

func TestSectorState_Occupancy(t *testing.T) {
	Convey("Given a sector with uneven blocks", t, func() {
		sec := model.SectorState{Name: model.East}
		sec.Blocks[model.BlockA] = model.BlockState{Capacity: 10, Occupants: 2}
		sec.Blocks[model.BlockB] = model.BlockState{Capacity: 10, Occupants: 3}
		sec.Blocks[model.BlockC] = model.BlockState{Capacity: 20, Occupants: 5}

		So(sec.TotalOccupants(), ShouldEqual, 10)
		So(sec.TotalCapacity(), ShouldEqual, 40)
		So(sec.OccupancyPercentage(), ShouldAlmostEqual, 0.25)
	})

	Convey("Given a sector without capacity", t, func() {
		So(model.SectorState{}.OccupancyPercentage(), ShouldEqual, 0)
	})
}

func TestNames(t *testing.T) {
	Convey("Sector and block names round-trip through text", t, func() {
		for _, sn := range model.SectorNames {
			b, err := sn.MarshalText()
			So(err, ShouldBeNil)
			parsed, err := model.ParseSectorName(string(b))
			So(err, ShouldBeNil)
			So(parsed, ShouldEqual, sn)
		}
		for _, bn := range model.BlockNames {
			parsed, err := model.ParseBlockName(bn.String())
			So(err, ShouldBeNil)
			So(parsed, ShouldEqual, bn)
		}
	})

	Convey("Parsing is case-insensitive and rejects unknown labels", t, func() {
		s, err := model.ParseSectorName(" west ")
		So(err, ShouldBeNil)
		So(s, ShouldEqual, model.West)

		_, err = model.ParseSectorName("CENTER")
		So(err, ShouldNotBeNil)
		_, err = model.ParseBlockName("D")
		So(err, ShouldNotBeNil)
	})

	Convey("Out-of-range values are invalid", t, func() {
		So(model.SectorName(7).Valid(), ShouldBeFalse)
		So(model.BlockName(-1).Valid(), ShouldBeFalse)
		_, err := model.SectorName(7).MarshalText()
		So(err, ShouldNotBeNil)
	})

	Convey("Names encode as JSON strings", t, func() {
		b, err := json.Marshal(struct {
			S model.SectorName `json:"s"`
			B model.BlockName  `json:"b"`
		}{model.South, model.BlockB})
		So(err, ShouldBeNil)
		So(string(b), ShouldEqual, `{"s":"SOUTH","b":"B"}`)
	})
}

func TestAssignmentResult(t *testing.T) {
	Convey("Each variant reports its outcome and reason", t, func() {
		var r model.AssignmentResult = model.Success{Sector: model.North, Block: model.BlockC, Distance: 10}
		So(r.Outcome(), ShouldEqual, model.OutcomeSuccess)
		So(model.Reason(r), ShouldEqual, "")

		r = model.Rejected{Reason: "full"}
		So(r.Outcome(), ShouldEqual, model.OutcomeRejected)
		So(model.Reason(r), ShouldEqual, "full")

		r = model.Blocked{Reason: "nope"}
		So(r.Outcome(), ShouldEqual, model.OutcomeBlocked)
		So(model.Reason(r), ShouldEqual, "nope")
	})
}

func TestEntryEvent_Decode(t *testing.T) {
	Convey("Unknown fields are ignored when decoding an entry", t, func() {
		var e model.EntryEvent
		err := json.Unmarshal([]byte(`{"type":"ENTRY","gate":"Gate A","shirtColor":"RED","extra":1}`), &e)
		So(err, ShouldBeNil)
		So(e, ShouldResemble, model.EntryEvent{Type: "ENTRY", Gate: "Gate A", ShirtColor: "RED"})
	})
}
