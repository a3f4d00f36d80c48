// Package cluster groups nearby events with density-based clustering for
// map rendering and derives the visual weight of every group.
//
// The engine is a pure function: all scan state (visited flags, the BFS
// queue, labels) lives on the stack of one call, so independent calls may
// run concurrently.
//
// Neighborhood queries dominate the cost. With the brute-force index a pass
// is O(n²); the uniform grid index brings typical map data down to roughly
// O(n·k) where k is the neighborhood size. Both produce identical results.
package cluster

import (
	"fmt"

	"github.com/okian/eventmap/internal/domain/geo"
	"github.com/okian/eventmap/internal/domain/model"
	"github.com/okian/eventmap/internal/domain/validate"
)

// DefaultGridThreshold is the input size from which IndexAuto switches to the grid.
const DefaultGridThreshold = 256

// noise labels a point that belongs to no cluster.
const noise = -1

// IndexKind selects the neighborhood search strategy.
type IndexKind int

// Index strategies.
const (
	IndexAuto IndexKind = iota
	IndexBruteForce
	IndexGrid
)

type options struct {
	index         IndexKind
	gridThreshold int
}

// Option tunes one clustering pass.
type Option func(*options)

// WithIndex forces a neighborhood search strategy.
func WithIndex(kind IndexKind) Option {
	return func(o *options) { o.index = kind }
}

// WithGridThreshold sets the input size from which IndexAuto uses the grid.
func WithGridThreshold(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.gridThreshold = n
		}
	}
}

// Cluster is one group of events. It is recomputed from scratch on every
// pass; IDs are only unique within one Result.
type Cluster struct {
	ID               string           `json:"id"`
	Centroid         model.Coordinate `json:"centroid"`
	RadiusKm         float64          `json:"radius_km"`
	MemberIDs        []string         `json:"member_ids"`
	DominantCategory model.Category   `json:"dominant_category"`
}

// Size returns the number of member events.
func (c *Cluster) Size() int { return len(c.MemberIDs) }

// Result partitions the valid input events: every one of them is either a
// member of exactly one cluster or listed in Unclustered.
type Result struct {
	Params      Params               `json:"params"`
	Clusters    []Cluster            `json:"clusters"`
	Unclustered []model.Event        `json:"unclustered"`
	Diagnostics validate.Diagnostics `json:"diagnostics,omitempty"`
}

// Events clusters events with the given density parameters.
//
// Events with missing ids, duplicate ids or invalid coordinates are dropped
// and reported in Result.Diagnostics. Invalid parameters return an error
// wrapping ErrInvalidParams.
//
// Which points end up grouped together does not depend on input order. A
// border point reachable from two clusters joins the one whose expansion
// reaches it first in input order; that assignment is implementation-defined.
func Events(events []model.Event, p Params, opts ...Option) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	o := options{index: IndexAuto, gridThreshold: DefaultGridThreshold}
	for _, opt := range opts {
		opt(&o)
	}

	valid, diags := validate.Events(events)
	res := Result{
		Params:      p,
		Clusters:    []Cluster{},
		Unclustered: []model.Event{},
		Diagnostics: diags,
	}
	if len(valid) == 0 {
		return res, nil
	}

	coords := make([]model.Coordinate, len(valid))
	for i := range valid {
		coords[i] = valid[i].Location
	}
	labels, count := scan(newIndex(coords, p.EpsKm, o), p.CoreNeighbors())

	members := make([][]int, count)
	for i, l := range labels {
		if l == noise {
			res.Unclustered = append(res.Unclustered, valid[i])
			continue
		}
		members[l] = append(members[l], i)
	}
	for c, idx := range members {
		res.Clusters = append(res.Clusters, build(c, idx, valid))
	}
	return res, nil
}

func newIndex(coords []model.Coordinate, eps float64, o options) geo.Index {
	switch o.index {
	case IndexGrid:
		return geo.NewGrid(coords, eps)
	case IndexBruteForce:
		return geo.NewBruteForce(coords, eps)
	default:
		if len(coords) >= o.gridThreshold {
			return geo.NewGrid(coords, eps)
		}
		return geo.NewBruteForce(coords, eps)
	}
}

// scan runs DBSCAN over idx and returns a label per point plus the number of
// clusters found. Neighborhoods exclude the point itself; a point is core when
// it has at least core neighbors.
func scan(idx geo.Index, core int) ([]int, int) {
	n := idx.Len()
	labels := make([]int, n)
	for i := range labels {
		labels[i] = noise
	}
	visited := make([]bool, n)
	queued := make([]int, n) // cluster number + 1 that last enqueued the point

	next := 0
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true
		neighbors := idx.Neighbors(i)
		if len(neighbors) < core {
			continue
		}

		c := next
		next++
		labels[i] = c
		queue := make([]int, 0, len(neighbors))
		for _, j := range neighbors {
			queued[j] = c + 1
			queue = append(queue, j)
		}
		for q := 0; q < len(queue); q++ {
			j := queue[q]
			if !visited[j] {
				visited[j] = true
				if jn := idx.Neighbors(j); len(jn) >= core {
					for _, k := range jn {
						// noise seen earlier by the outer loop is still absorbed as a border
						if labels[k] == noise && queued[k] != c+1 {
							queued[k] = c + 1
							queue = append(queue, k)
						}
					}
				}
			}
			if labels[j] == noise {
				labels[j] = c
			}
		}
	}
	return labels, next
}

func build(c int, idx []int, events []model.Event) Cluster {
	coords := make([]model.Coordinate, len(idx))
	ids := make([]string, len(idx))
	cats := make([]model.Category, len(idx))
	for k, i := range idx {
		coords[k] = events[i].Location
		ids[k] = events[i].ID
		cats[k] = events[i].Category
	}
	centroid := geo.Centroid(coords)
	return Cluster{
		ID:               fmt.Sprintf("cluster-%d", c+1),
		Centroid:         centroid,
		RadiusKm:         geo.MaxDistance(centroid, coords),
		MemberIDs:        ids,
		DominantCategory: dominant(cats),
	}
}

// dominant returns the most frequent category. Ties go to the category that
// comes first in model.Categories(), then to the lexically smaller name.
func dominant(cats []model.Category) model.Category {
	counts := make(map[model.Category]int, len(cats))
	for _, c := range cats {
		counts[c]++
	}
	var best model.Category
	bestN := 0
	for c, n := range counts {
		switch {
		case n > bestN:
		case n == bestN && c.Rank() < best.Rank():
		case n == bestN && c.Rank() == best.Rank() && c < best:
		default:
			continue
		}
		best, bestN = c, n
	}
	return best
}
