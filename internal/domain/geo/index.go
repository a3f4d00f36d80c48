package geo

import (
	"math"
	"sort"

	"github.com/okian/eventmap/internal/domain/model"
)

// Index answers eps-neighborhood queries over a fixed slice of coordinates.
//
// Neighbors(i) returns the indexes j != i whose Haversine distance to point i
// is <= eps, in ascending order. Every implementation returns exactly the same
// slices, so callers can swap them without changing results.
type Index interface {
	Neighbors(i int) []int
	Len() int
}

// BruteForce compares every pair of points. O(n) per query.
type BruteForce struct {
	points []model.Coordinate
	eps    float64
}

// NewBruteForce builds a linear-scan index.
func NewBruteForce(points []model.Coordinate, eps float64) *BruteForce {
	return &BruteForce{points: points, eps: eps}
}

// Len returns the number of indexed points.
func (b *BruteForce) Len() int { return len(b.points) }

// Neighbors implements Index.
func (b *BruteForce) Neighbors(i int) []int {
	var out []int
	p := b.points[i]
	for j, q := range b.points {
		if j != i && Haversine(p, q) <= b.eps {
			out = append(out, j)
		}
	}
	return out
}

// cellKey addresses one cell of the uniform grid.
type cellKey struct {
	X, Y int
}

// Grid buckets points into square cells of eps degrees of arc, so a query
// only inspects the cells that can hold points within eps. Candidates are
// confirmed with the exact Haversine distance.
//
// Longitude cells shrink towards the poles; the query widens its column span
// by 1/cos(latitude) and falls back to scanning whole rows when the span
// covers the globe or a pole is within reach.
type Grid struct {
	points  []model.Coordinate
	eps     float64
	cellDeg float64
	cols    int
	cells   map[cellKey][]int
	rows    map[int][]int
}

// minCellDeg keeps the column count finite for microscopic eps values.
const minCellDeg = 1e-9

// NewGrid builds a uniform grid index sized by eps. eps must be > 0.
func NewGrid(points []model.Coordinate, eps float64) *Grid {
	cellDeg := math.Max(eps/KmPerDegree, minCellDeg)
	g := &Grid{
		points:  points,
		eps:     eps,
		cellDeg: cellDeg,
		cols:    int(math.Ceil(360 / cellDeg)),
		cells:   make(map[cellKey][]int),
		rows:    make(map[int][]int),
	}
	for i, p := range points {
		k := cellKey{X: g.col(p.Lng), Y: g.row(p.Lat)}
		g.cells[k] = append(g.cells[k], i)
		g.rows[k.Y] = append(g.rows[k.Y], i)
	}
	return g
}

// Len returns the number of indexed points.
func (g *Grid) Len() int { return len(g.points) }

// NumCells returns the number of non-empty cells.
func (g *Grid) NumCells() int { return len(g.cells) }

func (g *Grid) row(lat float64) int {
	return int(math.Floor((lat + 90) / g.cellDeg))
}

func (g *Grid) col(lng float64) int {
	x := int(math.Floor((lng + 180) / g.cellDeg))
	return ((x % g.cols) + g.cols) % g.cols
}

// lngReach returns the longitude half-width in degrees that can hold points
// within eps of a point at lat, or false when every longitude can.
func (g *Grid) lngReach(lat float64) (float64, bool) {
	maxAbsLat := math.Abs(lat) + g.cellDeg
	if maxAbsLat >= 90 {
		return 0, false
	}
	half := g.eps / (2 * EarthRadiusKm)
	if half >= math.Pi/2 {
		return 0, false
	}
	s := math.Sin(half) / math.Cos(maxAbsLat*math.Pi/180)
	if s >= 1 {
		return 0, false
	}
	return 2 * math.Asin(s) * 180 / math.Pi, true
}

// Neighbors implements Index.
func (g *Grid) Neighbors(i int) []int {
	p := g.points[i]
	y0 := g.row(p.Lat-g.cellDeg) - 1
	y1 := g.row(p.Lat+g.cellDeg) + 1

	reach, bounded := g.lngReach(p.Lat)
	var x0, x1 int
	if bounded {
		x0 = int(math.Floor((p.Lng-reach+180)/g.cellDeg)) - 1
		x1 = int(math.Floor((p.Lng+reach+180)/g.cellDeg)) + 1
		if x1-x0+1 >= g.cols {
			bounded = false
		}
	}

	var out []int
	consider := func(j int) {
		if j != i && Haversine(p, g.points[j]) <= g.eps {
			out = append(out, j)
		}
	}
	for y := y0; y <= y1; y++ {
		members := g.rows[y]
		if len(members) == 0 {
			continue
		}
		if !bounded || x1-x0+1 > len(members) {
			for _, j := range members {
				consider(j)
			}
			continue
		}
		for x := x0; x <= x1; x++ {
			wrapped := ((x % g.cols) + g.cols) % g.cols
			for _, j := range g.cells[cellKey{X: wrapped, Y: y}] {
				consider(j)
			}
		}
	}
	sort.Ints(out)
	return out
}
