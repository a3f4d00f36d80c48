package impact

// Summary aggregates metrics across events.
type Summary struct {
	Events         int            `json:"events"`
	VolunteerHours float64        `json:"volunteer_hours"`
	CO2ReductionKg float64        `json:"co2_reduction_kg"`
	WasteReducedKg float64        `json:"waste_reduced_kg"`
	EnergySavedKWh float64        `json:"energy_saved_kwh"`
	WaterSavedL    float64        `json:"water_saved_l"`
	TreesPlanted   int            `json:"trees_planted"`
	EconomicValue  float64        `json:"economic_value"`
	AverageScore   float64        `json:"average_score"`
	ByBand         map[string]int `json:"by_band"`
}

// Summarize totals ms. Scores are averaged, not summed.
func Summarize(ms []Metrics) Summary {
	s := Summary{Events: len(ms), ByBand: make(map[string]int, len(bands)+1)}
	for _, b := range Bands() {
		s.ByBand[b] = 0
	}
	total := 0.0
	for i := range ms {
		m := &ms[i]
		s.VolunteerHours += m.VolunteerHours
		s.CO2ReductionKg += m.CO2ReductionKg
		s.WasteReducedKg += m.WasteReducedKg
		s.EnergySavedKWh += m.EnergySavedKWh
		s.WaterSavedL += m.WaterSavedL
		s.TreesPlanted += m.TreesPlanted
		s.EconomicValue += m.EconomicValue
		s.ByBand[m.Band]++
		total += m.OverallScore
	}
	if len(ms) > 0 {
		s.AverageScore = total / float64(len(ms))
	}
	return s
}
