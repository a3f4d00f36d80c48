package impact

// Band labels.
const (
	BandVeryHigh = "Very High"
	BandHigh     = "High"
	BandMedium   = "Medium"
	BandLow      = "Low"
	BandMinimal  = "Minimal"
)

// bandTolerance absorbs float noise from the weighted sum so that a score
// meant to be exactly on a threshold lands in the upper band.
const bandTolerance = 1e-9

var bands = []struct {
	min   float64
	label string
}{
	{min: 80, label: BandVeryHigh},
	{min: 60, label: BandHigh},
	{min: 40, label: BandMedium},
	{min: 20, label: BandLow},
}

// Band maps an overall score to its label. Thresholds are inclusive.
func Band(score float64) string {
	for _, b := range bands {
		if score >= b.min-bandTolerance {
			return b.label
		}
	}
	return BandMinimal
}

// Bands lists every label from highest to lowest.
func Bands() []string {
	return []string{BandVeryHigh, BandHigh, BandMedium, BandLow, BandMinimal}
}
