package types_test

import (
	"testing"

	"github.com/goccy/go-json"

	types "github.com/okian/eventmap/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestEntry(t *testing.T) {
	Convey("Given a leaderboard entry", t, func() {
		entry := types.Entry{Rank: 2, EventID: "ev-1", Score: 61.5, Band: "High"}

		Convey("When it is encoded", func() {
			b, err := json.Marshal(entry)
			So(err, ShouldBeNil)

			Convey("Then snake case keys are used and empty metadata is omitted", func() {
				var m map[string]any
				So(json.Unmarshal(b, &m), ShouldBeNil)
				So(m["event_id"], ShouldEqual, "ev-1")
				So(m["band"], ShouldEqual, "High")
				So(m, ShouldNotContainKey, "category")
				So(m, ShouldNotContainKey, "title")
			})
		})
	})
}
