package model

import "time"

// EntryEvent is a spectator arriving at a gate.
// Type is informational; decisions never branch on it.
type EntryEvent struct {
	Type       string `json:"type"`
	Gate       string `json:"gate"`
	ShirtColor string `json:"shirtColor"`
}

// ProcessedEvent is an append-only record of one decision.
type ProcessedEvent struct {
	ID        string
	Event     EntryEvent
	Result    AssignmentResult
	Timestamp time.Time
}
