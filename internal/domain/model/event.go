// Package model contains domain models passed between layers.
package model

import "time"

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

// Category classifies what an event is about.
type Category string

// Known event categories. The order of Categories() is the tie-break order
// wherever a dominant category has to be chosen.
const (
	CategoryEnvironment Category = "environment"
	CategoryEducation   Category = "education"
	CategoryCommunity   Category = "community"
	CategoryHealth      Category = "health"
	CategoryCulture     Category = "culture"
	CategorySports      Category = "sports"
)

var categories = []Category{
	CategoryEnvironment,
	CategoryEducation,
	CategoryCommunity,
	CategoryHealth,
	CategoryCulture,
	CategorySports,
}

// Categories returns the known categories in canonical order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Rank returns the canonical position of c, or len(Categories()) when unknown.
func (c Category) Rank() int {
	for i, known := range categories {
		if c == known {
			return i
		}
	}
	return len(categories)
}

// Known reports whether c is one of the predefined categories.
func (c Category) Known() bool { return c.Rank() < len(categories) }

// Difficulty describes how demanding an event is for participants.
type Difficulty string

// Difficulty levels.
const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyModerate Difficulty = "moderate"
	DifficultyHard     Difficulty = "hard"
)

// ImpactLevel is the organizer-declared expected impact of an event.
type ImpactLevel string

// Impact levels.
const (
	ImpactLow    ImpactLevel = "low"
	ImpactMedium ImpactLevel = "medium"
	ImpactHigh   ImpactLevel = "high"
)

// TimeOfDay buckets an event start time.
type TimeOfDay string

// Time-of-day buckets.
const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
)

// Hour boundaries for TimeOfDayAt.
const (
	afternoonStartHour = 12
	eveningStartHour   = 17
)

// TimeOfDayAt derives the bucket from the local hour of t.
func TimeOfDayAt(t time.Time) TimeOfDay {
	switch h := t.Hour(); {
	case h < afternoonStartHour:
		return Morning
	case h < eveningStartHour:
		return Afternoon
	default:
		return Evening
	}
}

// Event is a community event listed on the map.
// Events are read-only inputs for the engines.
type Event struct {
	ID                   string      `json:"id" validate:"required"`
	Location             Coordinate  `json:"location"`
	Title                string      `json:"title,omitempty"`
	Category             Category    `json:"category"`
	StartsAt             time.Time   `json:"starts_at"`
	DurationHours        float64     `json:"duration_hours" validate:"gte=0"`
	Capacity             int         `json:"capacity" validate:"gte=0"`
	CurrentRegistrations int         `json:"current_registrations" validate:"gte=0"`
	Difficulty           Difficulty  `json:"difficulty"`
	Accessible           bool        `json:"accessible"`
	Cost                 float64     `json:"cost" validate:"gte=0"`
	Impact               ImpactLevel `json:"impact,omitempty"`
	Tags                 []string    `json:"tags,omitempty"`
	Organizer            string      `json:"organizer,omitempty"`
}

// TimeOfDay returns the bucket the event starts in.
func (e *Event) TimeOfDay() TimeOfDay { return TimeOfDayAt(e.StartsAt) }

// HasSpace reports whether registrations are below capacity.
func (e *Event) HasSpace() bool { return e.CurrentRegistrations < e.Capacity }

// IsFree reports whether the event costs nothing.
func (e *Event) IsFree() bool { return e.Cost == 0 }
