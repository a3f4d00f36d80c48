package loadgen

import (
	"fmt"

	"github.com/okian/eventmap/internal/domain/recommend"
	"github.com/okian/eventmap/internal/domain/types"
)

// verifyPartition checks that every accepted event is either in exactly one
// cluster or unclustered, and that nothing else shows up.
func verifyPartition(known map[string]struct{}, accepted int, v ClusterView) error {
	seen := make(map[string]struct{}, accepted)
	add := func(id string) error {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("%w: band %s: unknown event %s", ErrVerification, v.Band, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: band %s: event %s placed twice", ErrVerification, v.Band, id)
		}
		seen[id] = struct{}{}
		return nil
	}

	for _, c := range v.Clusters {
		if len(c.MemberIDs) == 0 {
			return fmt.Errorf("%w: band %s: cluster %s is empty", ErrVerification, v.Band, c.ID)
		}
		for _, id := range c.MemberIDs {
			if err := add(id); err != nil {
				return err
			}
		}
	}
	for _, ev := range v.Unclustered {
		if err := add(ev.ID); err != nil {
			return err
		}
	}
	if len(seen) != accepted {
		return fmt.Errorf("%w: band %s: %d of %d events placed", ErrVerification, v.Band, len(seen), accepted)
	}
	return nil
}

// verifyLeaderboard checks score order and competition ranks.
func verifyLeaderboard(entries []types.Entry) error {
	for i, e := range entries {
		want := i + 1
		if i > 0 {
			prev := entries[i-1]
			if e.Score > prev.Score {
				return fmt.Errorf("%w: leaderboard entry %d outscores entry %d", ErrVerification, i, i-1)
			}
			if e.Score == prev.Score {
				want = prev.Rank
			}
		}
		if e.Rank != want {
			return fmt.Errorf("%w: leaderboard entry %d has rank %d, want %d", ErrVerification, i, e.Rank, want)
		}
	}
	return nil
}

// verifyRecommendations checks the threshold, the limit and the order.
func verifyRecommendations(res recommend.Result, topN int, threshold float64) error {
	if topN > 0 && len(res.Items) > topN {
		return fmt.Errorf("%w: %d recommendations exceed top_n %d", ErrVerification, len(res.Items), topN)
	}
	for i, it := range res.Items {
		if it.Score <= threshold {
			return fmt.Errorf("%w: recommendation %s scored %.2f, not above %.2f", ErrVerification, it.Event.ID, it.Score, threshold)
		}
		if i > 0 && it.Score > res.Items[i-1].Score {
			return fmt.Errorf("%w: recommendations out of order at %d", ErrVerification, i)
		}
	}
	return nil
}
