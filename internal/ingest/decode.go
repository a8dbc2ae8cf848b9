package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/okian/stadu/internal/domain/model"
)

// wireEntry mirrors the feed message. Pointers tell a missing field from an
// empty one; unknown fields are ignored.
type wireEntry struct {
	Type       *string `json:"type"`
	Gate       *string `json:"gate"`
	ShirtColor *string `json:"shirtColor"`
}

// DecodeEntryEvent parses one feed message. All three fields must be present.
func DecodeEntryEvent(data []byte) (model.EntryEvent, error) {
	var w wireEntry
	if err := json.Unmarshal(data, &w); err != nil {
		return model.EntryEvent{}, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	switch {
	case w.Type == nil:
		return model.EntryEvent{}, fmt.Errorf("%w: missing field type", ErrDecode)
	case w.Gate == nil:
		return model.EntryEvent{}, fmt.Errorf("%w: missing field gate", ErrDecode)
	case w.ShirtColor == nil:
		return model.EntryEvent{}, fmt.Errorf("%w: missing field shirtColor", ErrDecode)
	}
	return model.EntryEvent{Type: *w.Type, Gate: *w.Gate, ShirtColor: *w.ShirtColor}, nil
}
