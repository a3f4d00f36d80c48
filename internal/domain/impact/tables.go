package impact

import "github.com/okian/eventmap/internal/domain/model"

// metric indexes the per-metric tables below.
type metric int

const (
	metricCO2 metric = iota
	metricWaste
	metricEnergy
	metricWater
	metricTrees
	metricBiodiversity
	metricSocial
	metricCount
)

// multipliers scales every metric per volunteer hour for one category.
type multipliers struct {
	perMetric [metricCount]float64
	economic  float64
}

// categoryMultipliers only lists categories with measured constants; all
// others use the environment row.
var categoryMultipliers = map[model.Category]multipliers{
	model.CategoryEnvironment: {
		perMetric: [metricCount]float64{2.5, 1.8, 3.0, 12.0, 0.15, 0.6, 0.4},
		economic:  1.0,
	},
	model.CategoryEducation: {
		perMetric: [metricCount]float64{0.8, 0.5, 1.5, 3.0, 0.02, 0.2, 0.9},
		economic:  1.2,
	},
	model.CategoryCommunity: {
		perMetric: [metricCount]float64{1.2, 1.2, 1.8, 6.0, 0.05, 0.3, 1.0},
		economic:  1.1,
	},
}

const fallbackCategory = model.CategoryEnvironment

// base and spread shape the participation response:
// factor = base + participationRate*spread. Spreads are positive so a fuller
// event never scores lower.
var (
	base   = [metricCount]float64{0.8, 0.7, 0.6, 0.9, 0.5, 0.5, 0.6}
	spread = [metricCount]float64{0.4, 0.5, 0.6, 0.3, 0.5, 0.5, 0.8}
)

// ceilings normalize metrics into [0, 1] for the overall score; weights sum
// to 1. Trees do not enter the overall score.
var (
	ceilings = [metricCount]float64{100, 50, 200, 1000, 0, 100, 100}
	weights  = [metricCount]float64{0.25, 0.15, 0.15, 0.10, 0, 0.15, 0.20}
)

// bounded metrics are scores, not physical quantities.
var bounded = [metricCount]bool{metricBiodiversity: true, metricSocial: true}

// EconomicValuePerHour is the currency value of one volunteer hour.
const EconomicValuePerHour = 33.49

// JitterAmplitude bounds the multiplicative realism noise to ±5%.
const JitterAmplitude = 0.05

func multipliersFor(c model.Category) multipliers {
	if m, ok := categoryMultipliers[c]; ok {
		return m
	}
	return categoryMultipliers[fallbackCategory]
}
