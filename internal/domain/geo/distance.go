// Package geo provides great-circle geometry and neighborhood search over
// event coordinates.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"

	"github.com/okian/eventmap/internal/domain/model"
)

// EarthRadiusKm is the mean earth radius of the spherical model.
const EarthRadiusKm = 6371.0

// KmPerDegree is the length of one degree of arc on the sphere.
const KmPerDegree = EarthRadiusKm * math.Pi / 180

// Haversine returns the great-circle distance in km between a and b.
// Ellipsoidal correction is ignored; the error is negligible at event-search
// scales of up to a few hundred km.
func Haversine(a, b model.Coordinate) float64 {
	meters := orbgeo.DistanceHaversine(toPoint(a), toPoint(b))
	return meters / orb.EarthRadius * EarthRadiusKm
}

// Centroid returns the arithmetic mean of coords. It returns the zero
// Coordinate for an empty slice.
//
// The mean is taken in degree space, so groups straddling the antimeridian
// get a centroid on the wrong side of the globe; map clusters never span it.
func Centroid(coords []model.Coordinate) model.Coordinate {
	if len(coords) == 0 {
		return model.Coordinate{}
	}
	var sumLat, sumLng float64
	for _, c := range coords {
		sumLat += c.Lat
		sumLng += c.Lng
	}
	n := float64(len(coords))
	return model.Coordinate{Lat: sumLat / n, Lng: sumLng / n}
}

// MaxDistance returns the largest Haversine distance from origin to any of coords.
func MaxDistance(origin model.Coordinate, coords []model.Coordinate) float64 {
	maxKm := 0.0
	for _, c := range coords {
		if d := Haversine(origin, c); d > maxKm {
			maxKm = d
		}
	}
	return maxKm
}

// Valid reports whether c is finite and inside the WGS84 ranges.
func Valid(c model.Coordinate) bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

func toPoint(c model.Coordinate) orb.Point { return orb.Point{c.Lng, c.Lat} }
