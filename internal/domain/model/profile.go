package model

// UserProfile carries the preferences used to rank events for one user.
type UserProfile struct {
	Location              Coordinate   `json:"location"`
	MaxDistanceKm         float64      `json:"max_distance_km" validate:"gt=0"`
	PreferredCategories   []Category   `json:"preferred_categories,omitempty"`
	PreferredTimesOfDay   []TimeOfDay  `json:"preferred_times_of_day,omitempty" validate:"dive,oneof=morning afternoon evening"`
	DifficultyTolerance   []Difficulty `json:"difficulty_tolerance,omitempty"`
	AccessibilityRequired bool         `json:"accessibility_required"`
	ImpactScore           float64      `json:"impact_score" validate:"min=0,max=100"`
	PastEventIDs          []string     `json:"past_event_ids,omitempty"`
}

// PrefersCategory reports whether c is among the preferred categories.
func (p *UserProfile) PrefersCategory(c Category) bool {
	for _, pc := range p.PreferredCategories {
		if pc == c {
			return true
		}
	}
	return false
}

// PrefersTime reports whether t is among the preferred times of day.
func (p *UserProfile) PrefersTime(t TimeOfDay) bool {
	for _, pt := range p.PreferredTimesOfDay {
		if pt == t {
			return true
		}
	}
	return false
}

// Tolerates reports whether d is within the difficulty tolerance.
func (p *UserProfile) Tolerates(d Difficulty) bool {
	for _, td := range p.DifficultyTolerance {
		if td == d {
			return true
		}
	}
	return false
}

// Attended reports whether eventID is in the user's history.
func (p *UserProfile) Attended(eventID string) bool {
	for _, id := range p.PastEventIDs {
		if id == eventID {
			return true
		}
	}
	return false
}
