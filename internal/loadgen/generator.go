package loadgen

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/eventmap/internal/domain/geo"
	"github.com/okian/eventmap/internal/domain/model"
)

// Generator distribution constants.
const (
	hotSpotShare     = 0.7  // share of events placed near a hot spot
	hotSpotRadiusKm  = 0.6  // spread of events around a hot spot
	firstStartHour   = 8
	startHourSpan    = 13 // 08:00 up to 20:59
	maxDurationHours = 4
	maxCapacity      = 120
	maxCost          = 25
	freeEventShare   = 0.6
)

var (
	difficulties = []model.Difficulty{model.DifficultyEasy, model.DifficultyModerate, model.DifficultyHard}
	impactLevels = []model.ImpactLevel{model.ImpactLow, model.ImpactMedium, model.ImpactHigh}
	tagPool      = []string{"outdoor", "family", "beginner", "teamwork", "weekend", "nature", "workshop", "seniors", "youth", "recycling"}
)

// Generator produces reproducible synthetic events for a seed.
type Generator struct {
	cfg      Config
	rnd      *rand.Rand
	src      *rand.ChaCha8
	hotSpots []model.Coordinate
	base     time.Time
}

// NewGenerator seeds a generator. A zero Config.Seed picks a time-based seed.
func NewGenerator(cfg Config) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	src := rand.NewChaCha8(key)

	g := &Generator{
		cfg:  cfg,
		src:  src,
		rnd:  rand.New(src), //nolint:gosec // synthetic data
		base: time.Date(2030, time.June, 1, 0, 0, 0, 0, time.UTC),
	}
	for range max(cfg.HotSpots, 0) {
		g.hotSpots = append(g.hotSpots, g.around(cfg.Center, cfg.SpreadKm))
	}
	return g
}

// Generate creates n events.
func (g *Generator) Generate(n int) ([]model.Event, error) {
	events := make([]model.Event, 0, n)
	for i := range n {
		ev, err := g.event(i)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func (g *Generator) event(i int) (model.Event, error) {
	id, err := uuid.NewRandomFromReader(g.src)
	if err != nil {
		return model.Event{}, fmt.Errorf("event %d id: %w", i, err)
	}

	loc := g.around(g.cfg.Center, g.cfg.SpreadKm)
	if len(g.hotSpots) > 0 && g.rnd.Float64() < hotSpotShare {
		loc = g.around(g.hotSpots[g.rnd.IntN(len(g.hotSpots))], hotSpotRadiusKm)
	}

	cats := model.Categories()
	capacity := 5 + g.rnd.IntN(maxCapacity)
	cost := 0.0
	if g.rnd.Float64() >= freeEventShare {
		cost = math.Round(g.rnd.Float64()*maxCost*100) / 100
	}
	start := g.base.AddDate(0, 0, g.rnd.IntN(30)).
		Add(time.Duration(firstStartHour+g.rnd.IntN(startHourSpan)) * time.Hour)

	return model.Event{
		ID:                   id.String(),
		Location:             loc,
		Title:                fmt.Sprintf("Community event %d", i+1),
		Category:             cats[g.rnd.IntN(len(cats))],
		StartsAt:             start,
		DurationHours:        float64(1 + g.rnd.IntN(maxDurationHours)),
		Capacity:             capacity,
		CurrentRegistrations: g.rnd.IntN(capacity + 1),
		Difficulty:           difficulties[g.rnd.IntN(len(difficulties))],
		Accessible:           g.rnd.IntN(2) == 0,
		Cost:                 cost,
		Impact:               impactLevels[g.rnd.IntN(len(impactLevels))],
		Tags:                 g.tags(),
		Organizer:            fmt.Sprintf("organizer-%d", g.rnd.IntN(50)),
	}, nil
}

func (g *Generator) tags() []string {
	n := 1 + g.rnd.IntN(3)
	out := make([]string, 0, n)
	for _, i := range g.rnd.Perm(len(tagPool))[:n] {
		out = append(out, tagPool[i])
	}
	return out
}

// around returns a point uniformly distributed on the disc of radiusKm
// around c, using an equirectangular approximation.
func (g *Generator) around(c model.Coordinate, radiusKm float64) model.Coordinate {
	r := radiusKm * math.Sqrt(g.rnd.Float64())
	theta := 2 * math.Pi * g.rnd.Float64()
	dLat := r * math.Cos(theta) / geo.KmPerDegree
	dLng := r * math.Sin(theta) / (geo.KmPerDegree * math.Cos(c.Lat*math.Pi/180))
	return model.Coordinate{
		Lat: math.Max(-90, math.Min(90, c.Lat+dLat)),
		Lng: math.Max(-180, math.Min(180, c.Lng+dLng)),
	}
}
