package model

// Outcome labels the variant of an AssignmentResult.
type Outcome string

// Outcomes.
const (
	OutcomeSuccess  Outcome = "SUCCESS"
	OutcomeRejected Outcome = "REJECTED"
	OutcomeBlocked  Outcome = "BLOCKED"
)

// AssignmentResult is the closed set {Success, Rejected, Blocked}.
type AssignmentResult interface {
	Outcome() Outcome
	assignmentResult()
}

// Success routes the spectator to a block.
type Success struct {
	Sector   SectorName
	Block    BlockName
	Distance int
}

// Rejected means no block could take the spectator.
type Rejected struct {
	Reason string
}

// Blocked is a policy refusal independent of occupancy.
type Blocked struct {
	Reason string
}

func (Success) Outcome() Outcome  { return OutcomeSuccess }
func (Rejected) Outcome() Outcome { return OutcomeRejected }
func (Blocked) Outcome() Outcome  { return OutcomeBlocked }

func (Success) assignmentResult()  {}
func (Rejected) assignmentResult() {}
func (Blocked) assignmentResult()  {}

// Reason returns the refusal reason, or "" for a Success.
func Reason(r AssignmentResult) string {
	switch v := r.(type) {
	case Rejected:
		return v.Reason
	case Blocked:
		return v.Reason
	default:
		return ""
	}
}
