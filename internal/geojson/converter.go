// Package geojson converts contour sets into GeoJSON feature collections.
// Coordinates are terrain world units, not longitude and latitude.
package geojson

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/MeKo-Tech/topomap/internal/contour"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Kind classifies contour features.
type Kind string

const (
	KindStrand Kind = "strand"
	KindLoop   Kind = "loop"
)

// Geometry returns the orb geometry for one contour. Loops with at least
// three points become closed polygons, everything else a line string.
func Geometry(c contour.Contour) orb.Geometry {
	ls := make(orb.LineString, 0, len(c.Points)+1)
	for _, p := range c.Points {
		ls = append(ls, orb.Point{p.X, p.Y})
	}
	if !c.Loop || len(ls) < 3 {
		return ls
	}
	ring := orb.Ring(append(ls, ls[0]))
	return orb.Polygon{ring}
}

// Feature wraps one contour with its properties.
func Feature(c contour.Contour) *geojson.Feature {
	g := Geometry(c)
	f := geojson.NewFeature(g)

	kind := KindStrand
	if c.Loop {
		kind = KindLoop
	}
	f.Properties["elevation"] = c.Elevation
	f.Properties["kind"] = string(kind)
	f.Properties["points"] = len(c.Points)
	f.Properties["truncated"] = c.Truncated
	f.Properties["length"] = planar.Length(g)
	if poly, ok := g.(orb.Polygon); ok {
		f.Properties["area"] = math.Abs(planar.Area(poly))
	}
	return f
}

// ToGeoJSON converts every contour in the set, lowest level first.
func ToGeoJSON(s *contour.Set) (*geojson.FeatureCollection, error) {
	if s == nil {
		return nil, fmt.Errorf("nil contour set")
	}

	fc := geojson.NewFeatureCollection()
	var bound orb.Bound
	for _, c := range s.All() {
		if len(c.Points) == 0 {
			continue
		}
		f := Feature(c)
		if len(fc.Features) == 0 {
			bound = f.Geometry.Bound()
		} else {
			bound = bound.Union(f.Geometry.Bound())
		}
		fc.Append(f)
	}
	if len(fc.Features) > 0 {
		fc.BBox = geojson.NewBBox(bound)
	}
	return fc, nil
}

// ToGeoJSONBytes converts the set to indented GeoJSON.
func ToGeoJSONBytes(s *contour.Set) ([]byte, error) {
	fc, err := ToGeoJSON(s)
	if err != nil {
		return nil, fmt.Errorf("failed to convert to GeoJSON: %w", err)
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GeoJSON: %w", err)
	}

	return data, nil
}

// FeaturesOfKind returns the features whose kind property matches.
func FeaturesOfKind(fc *geojson.FeatureCollection, kind Kind) []*geojson.Feature {
	var out []*geojson.Feature
	for _, f := range fc.Features {
		if f.Properties.MustString("kind", "") == string(kind) {
			out = append(out, f)
		}
	}
	return out
}

// Summary reports feature counts per kind.
func Summary(fc *geojson.FeatureCollection) string {
	strands := len(FeaturesOfKind(fc, KindStrand))
	loops := len(FeaturesOfKind(fc, KindLoop))
	return fmt.Sprintf("Strands: %d, Loops: %d (Total: %d)", strands, loops, len(fc.Features))
}
