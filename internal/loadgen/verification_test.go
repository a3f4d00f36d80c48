package loadgen

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/eventmap/internal/domain/model"
	"github.com/okian/eventmap/internal/domain/recommend"
	"github.com/okian/eventmap/internal/domain/types"
)

func view(band string, clusters [][]string, noise ...string) ClusterView {
	v := ClusterView{Band: band}
	for i, members := range clusters {
		v.Clusters = append(v.Clusters, struct {
			ID        string   `json:"id"`
			MemberIDs []string `json:"member_ids"`
		}{ID: string(rune('A' + i)), MemberIDs: members})
	}
	for _, id := range noise {
		v.Unclustered = append(v.Unclustered, model.Event{ID: id})
	}
	return v
}

func TestVerifyPartition(t *testing.T) {
	known := map[string]struct{}{"a": {}, "b": {}, "c": {}, "d": {}}

	Convey("Given four accepted events", t, func() {
		Convey("A complete partition passes", func() {
			So(verifyPartition(known, 4, view("street", [][]string{{"a", "b"}, {"c"}}, "d")), ShouldBeNil)
		})

		Convey("An event placed twice fails", func() {
			err := verifyPartition(known, 4, view("street", [][]string{{"a", "b"}}, "b", "c", "d"))
			So(errors.Is(err, ErrVerification), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "placed twice")
		})

		Convey("A missing event fails", func() {
			err := verifyPartition(known, 4, view("city", [][]string{{"a", "b", "c"}}))
			So(errors.Is(err, ErrVerification), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "3 of 4")
		})

		Convey("An unknown event fails", func() {
			err := verifyPartition(known, 4, view("city", nil, "a", "b", "c", "x"))
			So(errors.Is(err, ErrVerification), ShouldBeTrue)
		})

		Convey("An empty cluster fails", func() {
			err := verifyPartition(known, 4, view("region", [][]string{{}}, "a", "b", "c", "d"))
			So(errors.Is(err, ErrVerification), ShouldBeTrue)
		})
	})
}

func TestVerifyLeaderboard(t *testing.T) {
	Convey("Given leaderboard pages", t, func() {
		Convey("Competition ranks with ties pass", func() {
			So(verifyLeaderboard([]types.Entry{
				{Rank: 1, EventID: "a", Score: 90},
				{Rank: 2, EventID: "b", Score: 80},
				{Rank: 2, EventID: "c", Score: 80},
				{Rank: 4, EventID: "d", Score: 70},
			}), ShouldBeNil)
		})

		Convey("Dense ranks fail", func() {
			err := verifyLeaderboard([]types.Entry{
				{Rank: 1, Score: 90}, {Rank: 1, Score: 90}, {Rank: 2, Score: 70},
			})
			So(errors.Is(err, ErrVerification), ShouldBeTrue)
		})

		Convey("Ascending scores fail", func() {
			err := verifyLeaderboard([]types.Entry{{Rank: 1, Score: 10}, {Rank: 2, Score: 20}})
			So(errors.Is(err, ErrVerification), ShouldBeTrue)
		})

		Convey("An empty page passes", func() {
			So(verifyLeaderboard(nil), ShouldBeNil)
		})
	})
}

func TestVerifyRecommendations(t *testing.T) {
	item := func(id string, score float64) recommend.ScoredEvent {
		return recommend.ScoredEvent{Event: model.Event{ID: id}, Score: score}
	}

	Convey("Given recommendation results", t, func() {
		Convey("Ordered items above the threshold pass", func() {
			res := recommend.Result{Items: []recommend.ScoredEvent{item("a", 80), item("b", 45)}}
			So(verifyRecommendations(res, 2, 30), ShouldBeNil)
		})

		Convey("An item at the threshold fails", func() {
			res := recommend.Result{Items: []recommend.ScoredEvent{item("a", 30)}}
			So(errors.Is(verifyRecommendations(res, 6, 30), ErrVerification), ShouldBeTrue)
		})

		Convey("Too many items fail", func() {
			res := recommend.Result{Items: []recommend.ScoredEvent{item("a", 80), item("b", 70)}}
			So(errors.Is(verifyRecommendations(res, 1, 30), ErrVerification), ShouldBeTrue)
		})

		Convey("Out of order items fail", func() {
			res := recommend.Result{Items: []recommend.ScoredEvent{item("a", 50), item("b", 70)}}
			So(errors.Is(verifyRecommendations(res, 6, 30), ErrVerification), ShouldBeTrue)
		})
	})
}
