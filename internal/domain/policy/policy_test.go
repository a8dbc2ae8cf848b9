package policy_test

import (
	"testing"

	"github.com/okian/stadu/internal/domain/model"
	"github.com/okian/stadu/internal/domain/policy"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSectorForGate(t *testing.T) {
	Convey("Given gate labels", t, func() {
		cases := map[string]model.SectorName{
			"Gate A":        model.North,
			"Puerta Norte":  model.North,
			"north gate 7":  model.North,
			"Gate B":        model.South,
			"Sur 3":         model.South,
			"SOUTH ENTRY 1": model.South,
			"Gate C":        model.East,
			"este":          model.East,
			"East 2":        model.East,
			"Gate D":        model.West,
			"  gate d  ":    model.West,
			"West 4":        model.West,
			"Gate 1":        model.North,
			"":              model.North,
		}
		for gate, want := range cases {
			So(policy.SectorForGate(gate), ShouldEqual, want)
		}
	})

	Convey("Rules are checked in fixed order", t, func() {
		So(policy.SectorForGate("NORTE D"), ShouldEqual, model.North)
		// OESTE contains ESTE, so it resolves to East before the West rule runs.
		So(policy.SectorForGate("Oeste 1"), ShouldEqual, model.East)
		So(policy.SectorForGate("Gate SB"), ShouldEqual, model.South)
	})

	Convey("The mapping is deterministic for a normalised input", t, func() {
		for i := 0; i < 10; i++ {
			So(policy.SectorForGate(" gate c "), ShouldEqual, policy.SectorForGate("GATE C"))
		}
	})
}

func TestAdjacency(t *testing.T) {
	Convey("Adjacent sectors follow the static table", t, func() {
		So(policy.Adjacent(model.North), ShouldResemble, [2]model.SectorName{model.East, model.West})
		So(policy.Adjacent(model.South), ShouldResemble, [2]model.SectorName{model.East, model.West})
		So(policy.Adjacent(model.East), ShouldResemble, [2]model.SectorName{model.North, model.South})
		So(policy.Adjacent(model.West), ShouldResemble, [2]model.SectorName{model.North, model.South})
	})

	Convey("Opposite pairs are North/South and East/West", t, func() {
		So(policy.IsOpposite(model.North, model.South), ShouldBeTrue)
		So(policy.IsOpposite(model.East, model.West), ShouldBeTrue)
		So(policy.IsOpposite(model.North, model.East), ShouldBeFalse)
		So(policy.IsOpposite(model.North, model.North), ShouldBeFalse)
	})
}

func TestPolicy(t *testing.T) {
	Convey("Given the default policy", t, func() {
		p := policy.Default()

		So(p.BlockCapacity(), ShouldEqual, 20)
		So(p.LockThreshold(), ShouldEqual, 0.7)

		Convey("Then a block of 20 locks at 14", func() {
			So(p.LockAt(20), ShouldEqual, 14)
			So(p.ShouldLock(13, 20), ShouldBeFalse)
			So(p.ShouldLock(14, 20), ShouldBeTrue)
		})

		Convey("And a block of 10 locks at 7", func() {
			So(p.LockAt(10), ShouldEqual, 7)
		})
	})

	Convey("Given custom options", t, func() {
		p := policy.New(policy.WithBlockCapacity(50), policy.WithLockThreshold(0.5))
		So(p.BlockCapacity(), ShouldEqual, 50)
		So(p.LockAt(50), ShouldEqual, 25)
	})

	Convey("Invalid options are ignored", t, func() {
		p := policy.New(policy.WithBlockCapacity(-1), policy.WithLockThreshold(1.5))
		So(p.BlockCapacity(), ShouldEqual, policy.DefaultBlockCapacity)
		So(p.LockThreshold(), ShouldEqual, policy.DefaultLockThreshold)
	})
}
