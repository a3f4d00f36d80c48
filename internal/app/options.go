package service

import (
	"github.com/okian/eventmap/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of recompute workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the recompute queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many upload idempotency keys are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithVariation turns on seeded randomness for impact jitter and
// serendipity recommendations. A zero seed picks a time-based one.
func WithVariation(on bool, seed uint64) Option {
	return func(s *Service) {
		s.variation = on
		s.seed = seed
	}
}

// WithRecommendDefaults sets the top-N and score threshold used when a
// request leaves them out.
func WithRecommendDefaults(topN int, threshold float64) Option {
	return func(s *Service) {
		if topN > 0 {
			s.topN = topN
		}
		if threshold >= 0 {
			s.threshold = threshold
		}
	}
}

// WithSimilarityThreshold sets the Jaccard threshold of the similarity factor.
func WithSimilarityThreshold(t float64) Option {
	return func(s *Service) {
		if t > 0 && t <= 1 {
			s.similarity = t
		}
	}
}

// WithGridThreshold sets the event count from which clustering uses the grid index.
func WithGridThreshold(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.gridThreshold = n
		}
	}
}

// WithImpactBoardLimit caps how many leaderboard rows one query may return.
func WithImpactBoardLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.boardLimit = n
		}
	}
}

// WithMaxEvents caps the size of one snapshot.
func WithMaxEvents(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxEvents = n
		}
	}
}
