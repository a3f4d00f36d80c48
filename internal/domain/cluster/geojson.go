package cluster

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/okian/eventmap/internal/domain/model"
)

// FeatureCollection renders a Result as GeoJSON: one point feature per
// cluster centroid with its style, and one per unclustered event.
func FeatureCollection(res *Result) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := range res.Clusters {
		c := &res.Clusters[i]
		style := StyleFor(c)
		f := geojson.NewFeature(point(c.Centroid))
		f.ID = c.ID
		f.Properties["cluster"] = true
		f.Properties["point_count"] = c.Size()
		f.Properties["radius_km"] = c.RadiusKm
		f.Properties["member_ids"] = c.MemberIDs
		f.Properties["category"] = string(c.DominantCategory)
		f.Properties["size"] = string(style.Size)
		f.Properties["diameter_px"] = style.DiameterPx
		f.Properties["opacity"] = style.Opacity
		f.Properties["color"] = style.Color
		fc.Append(f)
	}
	for i := range res.Unclustered {
		e := &res.Unclustered[i]
		f := geojson.NewFeature(point(e.Location))
		f.ID = e.ID
		f.Properties["cluster"] = false
		f.Properties["title"] = e.Title
		f.Properties["category"] = string(e.Category)
		f.Properties["color"] = Color(e.Category)
		fc.Append(f)
	}
	return fc
}

func point(c model.Coordinate) orb.Point { return orb.Point{c.Lng, c.Lat} }
