package repository

import (
	"errors"
	"testing"

	"github.com/okian/eventmap/internal/domain/cluster"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClusterCache(t *testing.T) {
	Convey("Given a cluster cache", t, func() {
		c := NewClusterCache()
		res := cluster.Result{Params: cluster.Params{EpsKm: 2, MinPts: 2}}

		Convey("When a band is stored for version 3", func() {
			So(c.Put(3, cluster.BandStreet, res), ShouldBeNil)

			Convey("Then it is served only for that version", func() {
				got, ok := c.Get(3, cluster.BandStreet)
				So(ok, ShouldBeTrue)
				So(got.Params, ShouldResemble, res.Params)
				_, ok = c.Get(2, cluster.BandStreet)
				So(ok, ShouldBeFalse)
				_, ok = c.Get(3, cluster.BandCity)
				So(ok, ShouldBeFalse)
			})

			Convey("Then an older version cannot overwrite it", func() {
				So(errors.Is(c.Put(2, cluster.BandCity, res), ErrStaleVersion), ShouldBeTrue)
				So(c.Len(), ShouldEqual, 1)
			})

			Convey("Then a newer version evicts every band", func() {
				So(c.Put(4, cluster.BandCity, res), ShouldBeNil)
				So(c.Version(), ShouldEqual, 4)
				So(c.Len(), ShouldEqual, 1)
				_, ok := c.Get(4, cluster.BandStreet)
				So(ok, ShouldBeFalse)
			})
		})
	})
}
