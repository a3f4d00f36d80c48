package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/eventmap/internal/domain/model"
)

// Kind classifies a dropped input.
type Kind string

// Warning kinds.
const (
	KindInvalidCoordinate Kind = "invalid_coordinate"
	KindMissingID         Kind = "missing_id"
	KindDuplicateID       Kind = "duplicate_id"
	KindInvalidField      Kind = "invalid_field"
)

// Warning reports one event that was dropped from a batch.
type Warning struct {
	EventID string `json:"event_id"`
	Index   int    `json:"index"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Diagnostics collects the warnings of one computation pass.
type Diagnostics []Warning

// Count returns how many warnings have kind k.
func (d Diagnostics) Count(k Kind) int {
	n := 0
	for _, w := range d {
		if w.Kind == k {
			n++
		}
	}
	return n
}

// Events returns the events that are safe to process, in input order, plus a
// warning for every dropped one. The input slice is not modified.
func Events(events []model.Event) ([]model.Event, Diagnostics) {
	valid := make([]model.Event, 0, len(events))
	var diags Diagnostics
	seen := make(map[string]struct{}, len(events))

	for i := range events {
		e := &events[i]
		if err := Struct(e); err != nil {
			diags = append(diags, warningFor(i, e.ID, err))
			continue
		}
		if _, dup := seen[e.ID]; dup {
			diags = append(diags, Warning{
				EventID: e.ID,
				Index:   i,
				Kind:    KindDuplicateID,
				Message: fmt.Sprintf("event id %q already present in batch", e.ID),
			})
			continue
		}
		seen[e.ID] = struct{}{}
		valid = append(valid, *e)
	}
	return valid, diags
}

// warningFor classifies a validation failure. Coordinate problems win over
// other field problems since they are the ones the engines cannot tolerate.
func warningFor(index int, id string, err error) Warning {
	w := Warning{EventID: id, Index: index, Kind: KindInvalidField, Message: err.Error()}
	var fes FieldErrors
	if !errors.As(err, &fes) {
		return w
	}
	for _, fe := range fes {
		if strings.HasPrefix(fe.Field, "Location.") {
			w.Kind = KindInvalidCoordinate
			w.Message = fe.Message
			return w
		}
	}
	for _, fe := range fes {
		if fe.Field == "ID" {
			w.Kind = KindMissingID
			w.Message = fe.Message
			return w
		}
	}
	return w
}

// Profile checks a user profile and wraps failures with ErrInvalidProfile.
func Profile(p *model.UserProfile) error {
	if p == nil {
		return fmt.Errorf("%w: profile is nil", ErrInvalidProfile)
	}
	if err := Struct(p); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, err)
	}
	return nil
}
