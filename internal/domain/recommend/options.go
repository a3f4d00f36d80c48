package recommend

import (
	"github.com/okian/eventmap/internal/domain/model"
	"github.com/okian/eventmap/internal/domain/rng"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithHistory registers events the user may have attended that are not
// necessarily part of the candidate list. They are only used to resolve
// PastEventIDs for the similarity factor.
func WithHistory(events []model.Event) Option {
	return func(e *Engine) {
		for i := range events {
			if events[i].ID != "" {
				e.history[events[i].ID] = events[i]
			}
		}
	}
}

// WithSimilarityThreshold sets the Jaccard similarity from which a candidate
// counts as similar to a past event. Values outside (0, 1] are ignored.
func WithSimilarityThreshold(t float64) Option {
	return func(e *Engine) {
		if t > 0 && t <= 1 {
			e.similarityThreshold = t
		}
	}
}

// WithProvider sets the random source used for serendipity draws.
func WithProvider(p rng.Provider) Option {
	return func(e *Engine) {
		if p != nil {
			e.provider = p
		}
	}
}

// WithVariation enables serendipity: a candidate that is not similar to any
// past event may still receive the similarity bonus with a small probability.
func WithVariation(on bool) Option {
	return func(e *Engine) {
		e.variation = on
	}
}
