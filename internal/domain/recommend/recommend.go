// Package recommend ranks events for a user profile with an additive,
// weighted score and explains every contribution.
//
// Scoring is deterministic. The only random input is the optional
// serendipity draw, and it comes from an injected rng.Provider keyed by
// event id.
package recommend

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/okian/eventmap/internal/domain/geo"
	"github.com/okian/eventmap/internal/domain/model"
	"github.com/okian/eventmap/internal/domain/rng"
	"github.com/okian/eventmap/internal/domain/validate"
)

// Defaults for Recommend.
const (
	DefaultTopN                = 6
	DefaultThreshold           = 30.0
	DefaultSimilarityThreshold = 0.3
	SerendipityProbability     = 0.3
)

// Factor names one scoring rule.
type Factor string

// Scoring factors in evaluation order. Reasons are emitted in this order.
const (
	FactorDistance      Factor = "distance"
	FactorCategory      Factor = "category"
	FactorTimeOfDay     Factor = "time_of_day"
	FactorDifficulty    Factor = "difficulty"
	FactorAccessibility Factor = "accessibility"
	FactorCost          Factor = "cost"
	FactorImpact        Factor = "impact"
	FactorAvailability  Factor = "availability"
	FactorSimilarity    Factor = "similarity"
	FactorNovelty       Factor = "novelty"
)

// Score deltas.
const (
	deltaNearby        = 30
	deltaFar           = -20
	deltaCategory      = 25
	deltaTimeOfDay     = 15
	deltaDifficulty    = 10
	deltaAccessibility = 10
	deltaFree          = 15
	deltaImpactHigh    = 20
	deltaImpactMedium  = 10
	deltaAvailability  = 5
	deltaSimilarity    = 15
	deltaNovelty       = 5

	impactMinded = 70.0
	minScore     = 0.0
	maxScore     = 100.0
)

// Contribution is one triggered factor.
type Contribution struct {
	Factor Factor  `json:"factor"`
	Delta  float64 `json:"delta"`
	Reason string  `json:"reason"`
}

// ScoredEvent is a candidate with its clamped score and the reasons behind it.
type ScoredEvent struct {
	Event         model.Event    `json:"event"`
	Score         float64        `json:"score"`
	DistanceKm    float64        `json:"distance_km"`
	Reasons       []string       `json:"reasons"`
	Contributions []Contribution `json:"contributions"`
}

// Result is the output of Recommend.
type Result struct {
	Items       []ScoredEvent        `json:"items"`
	Considered  int                  `json:"considered"`
	Diagnostics validate.Diagnostics `json:"diagnostics,omitempty"`
}

// Engine scores events against profiles. It holds no per-call state and is
// safe for concurrent use once built.
type Engine struct {
	history             map[string]model.Event
	similarityThreshold float64
	provider            rng.Provider
	variation           bool
}

// New builds an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		history:             make(map[string]model.Event),
		similarityThreshold: DefaultSimilarityThreshold,
		provider:            rng.Neutral(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score computes the score of a single event for a profile that already
// passed validate.Profile. Past events are resolved from the engine history
// only.
func (e *Engine) Score(ev *model.Event, p *model.UserProfile) ScoredEvent {
	return e.score(ev, p, e.pastTags(p, nil))
}

// Recommend scores events, keeps those scoring strictly above threshold,
// sorts them by score (ties by event id) and returns at most topN.
//
// Invalid candidate events are dropped into Diagnostics. An invalid profile
// returns an error wrapping validate.ErrInvalidProfile.
func (e *Engine) Recommend(events []model.Event, p *model.UserProfile, topN int, threshold float64) (Result, error) {
	if topN < 1 {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidLimit, topN)
	}
	if err := validate.Profile(p); err != nil {
		return Result{}, err
	}
	valid, diags := validate.Events(events)
	past := e.pastTags(p, valid)

	items := make([]ScoredEvent, 0, len(valid))
	for i := range valid {
		s := e.score(&valid[i], p, past)
		if s.Score > threshold {
			items = append(items, s)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].Event.ID < items[j].Event.ID
	})
	if len(items) > topN {
		items = items[:topN]
	}
	return Result{Items: items, Considered: len(valid), Diagnostics: diags}, nil
}

type pastEvent struct {
	id   string
	tags map[string]struct{}
}

// pastTags resolves the profile history against the candidates first and the
// engine history second. Unknown ids are skipped.
func (e *Engine) pastTags(p *model.UserProfile, candidates []model.Event) []pastEvent {
	if p == nil || len(p.PastEventIDs) == 0 {
		return nil
	}
	byID := make(map[string]*model.Event, len(candidates))
	for i := range candidates {
		byID[candidates[i].ID] = &candidates[i]
	}
	out := make([]pastEvent, 0, len(p.PastEventIDs))
	for _, id := range p.PastEventIDs {
		if ev, ok := byID[id]; ok {
			out = append(out, pastEvent{id: id, tags: tagSet(ev)})
			continue
		}
		if ev, ok := e.history[id]; ok {
			out = append(out, pastEvent{id: id, tags: tagSet(&ev)})
		}
	}
	return out
}

func (e *Engine) score(ev *model.Event, p *model.UserProfile, past []pastEvent) ScoredEvent {
	dist := geo.Haversine(p.Location, ev.Location)
	var cs []Contribution
	add := func(f Factor, d float64, reason string) {
		cs = append(cs, Contribution{Factor: f, Delta: d, Reason: reason})
	}

	if dist <= p.MaxDistanceKm {
		add(FactorDistance, deltaNearby, fmt.Sprintf("Only %.1f km away", dist))
	} else {
		add(FactorDistance, deltaFar, fmt.Sprintf("%.1f km away, beyond your %.0f km range", dist, p.MaxDistanceKm))
	}
	if p.PrefersCategory(ev.Category) {
		add(FactorCategory, deltaCategory, fmt.Sprintf("Matches your interest in %s", ev.Category))
	}
	if tod := ev.TimeOfDay(); p.PrefersTime(tod) {
		add(FactorTimeOfDay, deltaTimeOfDay, fmt.Sprintf("Takes place in the %s, when you prefer", tod))
	}
	if p.Tolerates(ev.Difficulty) {
		add(FactorDifficulty, deltaDifficulty, fmt.Sprintf("Difficulty %s suits you", ev.Difficulty))
	}
	if p.AccessibilityRequired && ev.Accessible {
		add(FactorAccessibility, deltaAccessibility, "Wheelchair accessible")
	}
	if ev.IsFree() {
		add(FactorCost, deltaFree, "Free to attend")
	}
	if p.ImpactScore > impactMinded {
		switch ev.Impact {
		case model.ImpactHigh:
			add(FactorImpact, deltaImpactHigh, "High impact, in line with your track record")
		case model.ImpactMedium:
			add(FactorImpact, deltaImpactMedium, "Solid impact, in line with your track record")
		}
	}
	if ev.HasSpace() {
		add(FactorAvailability, deltaAvailability, fmt.Sprintf("%d spots left", ev.Capacity-ev.CurrentRegistrations))
	}
	if sim := e.similarity(ev, past); sim >= e.similarityThreshold {
		add(FactorSimilarity, deltaSimilarity, "Similar to events you joined before")
	} else if e.variation && e.provider.For("serendipity:"+ev.ID).Float64() < SerendipityProbability {
		add(FactorSimilarity, deltaSimilarity, "You might also like this")
	}
	if !p.Attended(ev.ID) {
		add(FactorNovelty, deltaNovelty, "Something new for you")
	}

	total := 0.0
	reasons := make([]string, len(cs))
	for i, c := range cs {
		total += c.Delta
		reasons[i] = c.Reason
	}
	return ScoredEvent{
		Event:         *ev,
		Score:         math.Max(minScore, math.Min(maxScore, total)),
		DistanceKm:    dist,
		Reasons:       reasons,
		Contributions: cs,
	}
}

// similarity is the highest Jaccard similarity between ev and any past event
// other than ev itself.
func (e *Engine) similarity(ev *model.Event, past []pastEvent) float64 {
	if len(past) == 0 {
		return 0
	}
	tags := tagSet(ev)
	best := 0.0
	for _, pe := range past {
		if pe.id == ev.ID {
			continue
		}
		best = math.Max(best, Jaccard(tags, pe.tags))
	}
	return best
}

// tagSet normalizes the event tags and adds the category as a tag.
func tagSet(ev *model.Event) map[string]struct{} {
	set := make(map[string]struct{}, len(ev.Tags)+1)
	for _, t := range ev.Tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			set[t] = struct{}{}
		}
	}
	if ev.Category != "" {
		set["category:"+string(ev.Category)] = struct{}{}
	}
	return set
}

// Jaccard returns |a∩b| / |a∪b|, or 0 when both sets are empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
