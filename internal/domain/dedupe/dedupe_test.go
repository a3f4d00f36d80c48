package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/eventmap/internal/domain/dedupe"
	"github.com/okian/eventmap/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new InMemoryDeduper", t, func() {
		Convey("When recording keys", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then the first sighting is new and the second is not", func() {
				So(d.SeenAndRecord(ctx, "k1"), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, "k1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("Then an unrecorded key can be processed again", func() {
				d.SeenAndRecord(ctx, "k1")
				d.Unrecord(ctx, "k1")
				d.Unrecord(ctx, "never-seen")
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "k1"), ShouldBeFalse)
			})
		})

		Convey("When the deduper is bounded", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
			for i := 0; i < 5; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("k%d", i))
			}

			Convey("Then the oldest keys are evicted first", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "k4"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "k2"), ShouldBeTrue)
				So(d.SeenAndRecord(ctx, "k0"), ShouldBeFalse)
			})

			Convey("Then unrecording leaves newer keys alone", func() {
				d.Unrecord(ctx, "k3")
				So(d.SeenAndRecord(ctx, "k5"), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, "k4"), ShouldBeTrue)
				So(d.Size(), ShouldBeLessThanOrEqualTo, 3)
			})
		})

		Convey("When the deduper is unbounded", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
			for i := 0; i < 500; i++ {
				d.SeenAndRecord(ctx, fmt.Sprintf("k%d", i))
			}

			Convey("Then nothing is evicted", func() {
				So(d.Size(), ShouldEqual, 500)
				So(d.SeenAndRecord(ctx, "k0"), ShouldBeTrue)
			})
		})

		Convey("When many goroutines race on the same key", func() {
			d := dedupe.NewInMemoryDeduper()
			var wg sync.WaitGroup
			var mu sync.Mutex
			fresh := 0
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if !d.SeenAndRecord(ctx, "shared") {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			Convey("Then exactly one wins", func() {
				So(fresh, ShouldEqual, 1)
			})
		})
	})
}

func TestFingerprint(t *testing.T) {
	Convey("Given event snapshots", t, func() {
		a := model.Event{ID: "a", Location: model.Coordinate{Lat: 1, Lng: 2}, Tags: []string{"x"}}
		b := model.Event{ID: "b", Location: model.Coordinate{Lat: 3, Lng: 4}}

		Convey("Then equal snapshots share a fingerprint", func() {
			f1, err := dedupe.Fingerprint([]model.Event{a, b})
			So(err, ShouldBeNil)
			f2, err := dedupe.Fingerprint([]model.Event{a, b})
			So(err, ShouldBeNil)
			So(f1, ShouldEqual, f2)
		})

		Convey("Then order and content changes are detected", func() {
			f1, _ := dedupe.Fingerprint([]model.Event{a, b})
			f2, _ := dedupe.Fingerprint([]model.Event{b, a})
			c := b
			c.CurrentRegistrations = 1
			f3, _ := dedupe.Fingerprint([]model.Event{a, c})
			So(f1, ShouldNotEqual, f2)
			So(f1, ShouldNotEqual, f3)
		})

		Convey("Then an empty snapshot has a stable fingerprint", func() {
			f1, _ := dedupe.Fingerprint(nil)
			f2, _ := dedupe.Fingerprint([]model.Event{})
			So(f1, ShouldEqual, f2)
		})
	})
}
