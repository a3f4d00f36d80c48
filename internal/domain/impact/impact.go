// Package impact estimates the environmental and social footprint of an
// event from its category, duration and attendance.
package impact

import (
	"math"

	"github.com/okian/eventmap/internal/domain/model"
	"github.com/okian/eventmap/internal/domain/rng"
	"github.com/okian/eventmap/internal/domain/validate"
)

// Metrics are the estimated outcomes of one event.
type Metrics struct {
	EventID           string         `json:"event_id"`
	Category          model.Category `json:"category"`
	VolunteerHours    float64        `json:"volunteer_hours"`
	ParticipationRate float64        `json:"participation_rate"`
	CO2ReductionKg    float64        `json:"co2_reduction_kg"`
	WasteReducedKg    float64        `json:"waste_reduced_kg"`
	EnergySavedKWh    float64        `json:"energy_saved_kwh"`
	WaterSavedL       float64        `json:"water_saved_l"`
	TreesPlanted      int            `json:"trees_planted"`
	Biodiversity      float64        `json:"biodiversity_score"`
	SocialImpact      float64        `json:"social_impact"`
	EconomicValue     float64        `json:"economic_value"`
	OverallScore      float64        `json:"overall_score"`
	Band              string         `json:"band"`
}

// Option applies a configuration option to the Estimator.
type Option func(*Estimator)

// WithProvider sets the source of jitter. The default is rng.Neutral, which
// disables jitter.
func WithProvider(p rng.Provider) Option {
	return func(e *Estimator) {
		if p != nil {
			e.provider = p
		}
	}
}

// Estimator computes Metrics. It is stateless apart from its provider and
// safe for concurrent use.
type Estimator struct {
	provider rng.Provider
}

// New builds an Estimator.
func New(opts ...Option) *Estimator {
	e := &Estimator{provider: rng.Neutral()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate computes the metrics of ev. Negative counts are treated as zero.
func (e *Estimator) Estimate(ev *model.Event) Metrics {
	regs := math.Max(0, float64(ev.CurrentRegistrations))
	hours := regs * math.Max(0, ev.DurationHours)
	rate := ParticipationRate(ev)
	mult := multipliersFor(ev.Category)
	src := e.provider.For(ev.ID)

	var raw [metricCount]float64
	for m := metric(0); m < metricCount; m++ {
		v := hours * mult.perMetric[m] * (base[m] + rate*spread[m])
		v *= jitter(src)
		if bounded[m] {
			v = math.Min(100, v)
		}
		raw[m] = v
	}

	out := Metrics{
		EventID:           ev.ID,
		Category:          ev.Category,
		VolunteerHours:    hours,
		ParticipationRate: rate,
		CO2ReductionKg:    raw[metricCO2],
		WasteReducedKg:    raw[metricWaste],
		EnergySavedKWh:    raw[metricEnergy],
		WaterSavedL:       raw[metricWater],
		TreesPlanted:      int(math.Floor(raw[metricTrees])),
		Biodiversity:      raw[metricBiodiversity],
		SocialImpact:      raw[metricSocial],
		EconomicValue:     hours * EconomicValuePerHour * mult.economic,
	}
	out.OverallScore = overall(raw)
	out.Band = Band(out.OverallScore)
	return out
}

// EstimateAll sanitizes events and estimates each valid one, in input order.
func (e *Estimator) EstimateAll(events []model.Event) ([]Metrics, validate.Diagnostics) {
	valid, diags := validate.Events(events)
	out := make([]Metrics, len(valid))
	for i := range valid {
		out[i] = e.Estimate(&valid[i])
	}
	return out, diags
}

// ParticipationRate is registrations over capacity, clamped to [0, 1].
// An event without capacity has rate 0.
func ParticipationRate(ev *model.Event) float64 {
	if ev.Capacity <= 0 {
		return 0
	}
	r := float64(ev.CurrentRegistrations) / float64(ev.Capacity)
	return math.Max(0, math.Min(1, r))
}

// jitter draws a factor in [1-JitterAmplitude, 1+JitterAmplitude).
func jitter(src rng.Source) float64 {
	return 1 + (2*src.Float64()-1)*JitterAmplitude
}

func overall(raw [metricCount]float64) float64 {
	score := 0.0
	for m := metric(0); m < metricCount; m++ {
		if weights[m] == 0 {
			continue
		}
		score += weights[m] * math.Min(1, raw[m]/ceilings[m])
	}
	return math.Max(0, math.Min(100, score*100))
}
