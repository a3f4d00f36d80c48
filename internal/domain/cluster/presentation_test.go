package cluster_test

import (
	"testing"

	"github.com/okian/eventmap/internal/domain/cluster"
	"github.com/okian/eventmap/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestZoomPolicy(t *testing.T) {
	Convey("Given the zoom policy table", t, func() {
		cases := []struct {
			zoom float64
			band cluster.Band
			p    cluster.Params
		}{
			{zoom: 18, band: cluster.BandStreet, p: cluster.Params{EpsKm: 2, MinPts: 2}},
			{zoom: 12.5, band: cluster.BandStreet, p: cluster.Params{EpsKm: 2, MinPts: 2}},
			{zoom: 12, band: cluster.BandDistrict, p: cluster.Params{EpsKm: 3, MinPts: 2}},
			{zoom: 10.01, band: cluster.BandDistrict, p: cluster.Params{EpsKm: 3, MinPts: 2}},
			{zoom: 10, band: cluster.BandCity, p: cluster.Params{EpsKm: 5, MinPts: 3}},
			{zoom: 9, band: cluster.BandCity, p: cluster.Params{EpsKm: 5, MinPts: 3}},
			{zoom: 8, band: cluster.BandRegion, p: cluster.Params{EpsKm: 10, MinPts: 4}},
			{zoom: 0, band: cluster.BandRegion, p: cluster.Params{EpsKm: 10, MinPts: 4}},
			{zoom: -3, band: cluster.BandRegion, p: cluster.Params{EpsKm: 10, MinPts: 4}},
		}

		Convey("Then boundaries belong to the coarser band", func() {
			for _, c := range cases {
				So(cluster.ZoomBand(c.zoom), ShouldEqual, c.band)
				So(cluster.ParamsForZoom(c.zoom), ShouldResemble, c.p)
				So(cluster.ParamsForZoom(c.zoom).Validate(), ShouldBeNil)
			}
		})

		Convey("Then every band resolves back to its parameters", func() {
			So(cluster.Bands(), ShouldResemble, []cluster.Band{
				cluster.BandStreet, cluster.BandDistrict, cluster.BandCity, cluster.BandRegion,
			})
			_, ok := cluster.BandParams("planet")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestPresentation(t *testing.T) {
	Convey("Given member counts", t, func() {
		Convey("Then size classes step at 10, 25 and 50", func() {
			So(cluster.SizeFor(1), ShouldEqual, cluster.SizeSmall)
			So(cluster.SizeFor(9), ShouldEqual, cluster.SizeSmall)
			So(cluster.SizeFor(10), ShouldEqual, cluster.SizeMedium)
			So(cluster.SizeFor(24), ShouldEqual, cluster.SizeMedium)
			So(cluster.SizeFor(25), ShouldEqual, cluster.SizeLarge)
			So(cluster.SizeFor(49), ShouldEqual, cluster.SizeLarge)
			So(cluster.SizeFor(50), ShouldEqual, cluster.SizeHuge)
			So(cluster.DiameterPx(2), ShouldEqual, 40)
			So(cluster.DiameterPx(500), ShouldEqual, 70)
		})

		Convey("Then opacity grows linearly and caps at 0.8", func() {
			So(cluster.Opacity(0), ShouldAlmostEqual, 0.3, 1e-12)
			So(cluster.Opacity(10), ShouldAlmostEqual, 0.4, 1e-12)
			So(cluster.Opacity(50), ShouldAlmostEqual, 0.8, 1e-12)
			So(cluster.Opacity(1000), ShouldEqual, 0.8)
		})
	})

	Convey("Given the category palette", t, func() {
		Convey("Then every known category has its own color", func() {
			seen := map[string]bool{}
			for _, c := range model.Categories() {
				col := cluster.Color(c)
				So(col, ShouldNotEqual, cluster.DefaultColor)
				So(seen[col], ShouldBeFalse)
				seen[col] = true
			}
		})

		Convey("Then unknown categories fall back to the default", func() {
			So(cluster.Color("knitting"), ShouldEqual, cluster.DefaultColor)
		})

		Convey("Then a cluster style combines size, opacity and color", func() {
			c := &cluster.Cluster{MemberIDs: make([]string, 12), DominantCategory: model.CategoryHealth}
			st := cluster.StyleFor(c)
			So(st.Size, ShouldEqual, cluster.SizeMedium)
			So(st.DiameterPx, ShouldEqual, 50)
			So(st.Opacity, ShouldAlmostEqual, 0.42, 1e-12)
			So(st.Color, ShouldEqual, cluster.Color(model.CategoryHealth))
		})
	})
}

func TestDominantCategory(t *testing.T) {
	Convey("Given a cluster with tied categories", t, func() {
		events := []model.Event{
			ev("a", 1, 1, model.CategorySports),
			ev("b", 1, 1, model.CategoryEducation),
			ev("c", 1, 1, model.CategorySports),
			ev("d", 1, 1, model.CategoryEducation),
		}
		res, err := cluster.Events(events, cluster.Params{EpsKm: 1, MinPts: 2})
		So(err, ShouldBeNil)
		So(res.Clusters, ShouldHaveLength, 1)

		Convey("Then the tie goes to the category listed first", func() {
			So(res.Clusters[0].DominantCategory, ShouldEqual, model.CategoryEducation)
		})
	})
}

func TestFeatureCollection(t *testing.T) {
	Convey("Given a clustering result", t, func() {
		events := []model.Event{
			ev("a", 40.00, -3.00, model.CategoryEnvironment),
			ev("b", 40.01, -3.00, model.CategoryEnvironment),
			ev("c", 48.85, 2.35, model.CategoryCulture),
		}
		res, err := cluster.Events(events, cluster.Params{EpsKm: 5, MinPts: 2})
		So(err, ShouldBeNil)

		Convey("When it is rendered as GeoJSON", func() {
			fc := cluster.FeatureCollection(&res)

			Convey("Then clusters come first and points are lng/lat ordered", func() {
				So(fc.Features, ShouldHaveLength, 2)
				cf := fc.Features[0]
				So(cf.ID, ShouldEqual, "cluster-1")
				So(cf.Properties.MustBool("cluster"), ShouldBeTrue)
				So(cf.Properties.MustInt("point_count"), ShouldEqual, 2)
				So(cf.Properties.MustString("color"), ShouldEqual, cluster.Color(model.CategoryEnvironment))

				nf := fc.Features[1]
				So(nf.ID, ShouldEqual, "c")
				So(nf.Properties.MustBool("cluster"), ShouldBeFalse)
				pt := nf.Point()
				So(pt.Lon(), ShouldEqual, 2.35)
				So(pt.Lat(), ShouldEqual, 48.85)
			})

			Convey("Then the collection marshals", func() {
				b, err := fc.MarshalJSON()
				So(err, ShouldBeNil)
				So(string(b), ShouldContainSubstring, `"FeatureCollection"`)
			})
		})
	})
}
