package cluster

import "math"

// Params are the density parameters of one clustering pass.
type Params struct {
	// EpsKm is the neighborhood radius in km.
	EpsKm float64 `json:"eps_km"`
	// MinPts is the size of a dense neighborhood, counting the point itself.
	MinPts int `json:"min_pts"`
}

// CoreNeighbors is how many other points within EpsKm make a point core.
// A point is never core on its own, so the value is at least 1.
func (p Params) CoreNeighbors() int {
	return max(p.MinPts-1, 1)
}

// Validate rejects parameters that would yield a degenerate partition.
func (p Params) Validate() error {
	if math.IsNaN(p.EpsKm) || math.IsInf(p.EpsKm, 0) || p.EpsKm <= 0 {
		return &ParamsError{Field: "eps_km", Value: p.EpsKm}
	}
	if p.MinPts < 1 {
		return &ParamsError{Field: "min_pts", Value: p.MinPts}
	}
	return nil
}

// Band names a row of the zoom policy table.
type Band string

// Zoom bands, from most to least zoomed in.
const (
	BandStreet   Band = "street"
	BandDistrict Band = "district"
	BandCity     Band = "city"
	BandRegion   Band = "region"
)

type zoomRule struct {
	above  float64
	band   Band
	params Params
}

// zoomTable is evaluated top to bottom; the first rule with zoom > above wins.
var zoomTable = []zoomRule{
	{above: 12, band: BandStreet, params: Params{EpsKm: 2, MinPts: 2}},
	{above: 10, band: BandDistrict, params: Params{EpsKm: 3, MinPts: 2}},
	{above: 8, band: BandCity, params: Params{EpsKm: 5, MinPts: 3}},
	{above: math.Inf(-1), band: BandRegion, params: Params{EpsKm: 10, MinPts: 4}},
}

// ZoomBand maps a map zoom level to its policy row.
func ZoomBand(zoom float64) Band {
	return ruleFor(zoom).band
}

// ParamsForZoom returns the clustering parameters used at zoom.
func ParamsForZoom(zoom float64) Params {
	return ruleFor(zoom).params
}

// BandParams returns the parameters of a band and whether the band exists.
func BandParams(b Band) (Params, bool) {
	for _, r := range zoomTable {
		if r.band == b {
			return r.params, true
		}
	}
	return Params{}, false
}

// Bands lists every band in table order.
func Bands() []Band {
	out := make([]Band, len(zoomTable))
	for i, r := range zoomTable {
		out[i] = r.band
	}
	return out
}

func ruleFor(zoom float64) zoomRule {
	for _, r := range zoomTable {
		if zoom > r.above {
			return r
		}
	}
	return zoomTable[len(zoomTable)-1]
}
