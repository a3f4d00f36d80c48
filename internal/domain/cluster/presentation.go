package cluster

import (
	"math"

	"github.com/okian/eventmap/internal/domain/model"
)

// SizeClass is the visual size bucket of a cluster marker.
type SizeClass string

// Size classes.
const (
	SizeSmall  SizeClass = "small"
	SizeMedium SizeClass = "medium"
	SizeLarge  SizeClass = "large"
	SizeHuge   SizeClass = "huge"
)

type sizeStep struct {
	below    int
	class    SizeClass
	diameter int
}

// sizeSteps is evaluated in order; the first step with n < below wins.
var sizeSteps = []sizeStep{
	{below: 10, class: SizeSmall, diameter: 40},
	{below: 25, class: SizeMedium, diameter: 50},
	{below: 50, class: SizeLarge, diameter: 60},
	{below: math.MaxInt, class: SizeHuge, diameter: 70},
}

// Opacity bounds.
const (
	minOpacity       = 0.3
	maxOpacity       = 0.8
	opacitySpread    = 0.5
	opacityFullCount = 50
)

// DefaultColor is used for categories without an entry in the palette.
const DefaultColor = "#6b7280"

var palette = map[model.Category]string{
	model.CategoryEnvironment: "#22c55e",
	model.CategoryEducation:   "#3b82f6",
	model.CategoryCommunity:   "#f97316",
	model.CategoryHealth:      "#ef4444",
	model.CategoryCulture:     "#a855f7",
	model.CategorySports:      "#eab308",
}

// SizeFor maps a member count to its size class.
func SizeFor(n int) SizeClass { return stepFor(n).class }

// DiameterPx maps a member count to a marker diameter in pixels.
func DiameterPx(n int) int { return stepFor(n).diameter }

func stepFor(n int) sizeStep {
	for _, s := range sizeSteps {
		if n < s.below {
			return s
		}
	}
	return sizeSteps[len(sizeSteps)-1]
}

// Opacity is min(0.8, 0.3 + n/50*0.5).
func Opacity(n int) float64 {
	return math.Min(maxOpacity, minOpacity+float64(n)/opacityFullCount*opacitySpread)
}

// Color returns the marker color of a category.
func Color(c model.Category) string {
	if col, ok := palette[c]; ok {
		return col
	}
	return DefaultColor
}

// Style is the render-ready appearance of a cluster marker.
type Style struct {
	Size       SizeClass `json:"size"`
	DiameterPx int       `json:"diameter_px"`
	Opacity    float64   `json:"opacity"`
	Color      string    `json:"color"`
}

// StyleFor derives the marker style of c.
func StyleFor(c *Cluster) Style {
	n := c.Size()
	return Style{
		Size:       SizeFor(n),
		DiameterPx: DiameterPx(n),
		Opacity:    Opacity(n),
		Color:      Color(c.DominantCategory),
	}
}
