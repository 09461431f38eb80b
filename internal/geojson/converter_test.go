package geojson

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/MeKo-Tech/topomap/internal/contour"
	"github.com/paulmach/orb"
)

func sampleSet() *contour.Set {
	s := contour.NewSet()
	s.Put(0.5, []contour.Contour{
		{
			Elevation: 0.5,
			Points:    []contour.Point{{X: -1, Y: 1, Z: 0.5}, {X: -1, Y: 0, Z: 0.5}, {X: -1, Y: -1, Z: 0.5}},
		},
		{
			Elevation: 0.5,
			Loop:      true,
			Points:    []contour.Point{{X: 0, Y: 0, Z: 0.5}, {X: 1, Y: 0, Z: 0.5}, {X: 1, Y: 1, Z: 0.5}, {X: 0, Y: 1, Z: 0.5}},
		},
	})
	s.Put(0.25, []contour.Contour{
		{Elevation: 0.25, Truncated: true, Points: []contour.Point{{X: 2, Y: 2, Z: 0.25}, {X: 3, Y: 2, Z: 0.25}}},
		{Elevation: 0.25},
	})
	return s
}

func TestToGeoJSON(t *testing.T) {
	fc, err := ToGeoJSON(sampleSet())
	if err != nil {
		t.Fatalf("ToGeoJSON failed: %v", err)
	}

	if len(fc.Features) != 3 {
		t.Fatalf("Expected 3 features (empty contour skipped), got %d", len(fc.Features))
	}

	// Lowest level first.
	first := fc.Features[0]
	if first.Geometry.GeoJSONType() != "LineString" {
		t.Errorf("Expected LineString, got %s", first.Geometry.GeoJSONType())
	}
	if first.Properties["elevation"] != 0.25 {
		t.Errorf("Expected elevation=0.25, got %v", first.Properties["elevation"])
	}
	if first.Properties["truncated"] != true {
		t.Errorf("Expected truncated=true")
	}
	if first.Properties["length"] != 1.0 {
		t.Errorf("Expected length=1, got %v", first.Properties["length"])
	}

	loop := fc.Features[2]
	poly, ok := loop.Geometry.(orb.Polygon)
	if !ok {
		t.Fatalf("Expected Polygon for loop, got %s", loop.Geometry.GeoJSONType())
	}
	if !poly[0].Closed() {
		t.Error("Expected closed ring")
	}
	if len(poly[0]) != 5 {
		t.Errorf("Expected 5 ring points, got %d", len(poly[0]))
	}
	if loop.Properties["kind"] != string(KindLoop) {
		t.Errorf("Expected kind=loop, got %v", loop.Properties["kind"])
	}
	if loop.Properties["area"] != 1.0 {
		t.Errorf("Expected area=1, got %v", loop.Properties["area"])
	}

	want := orb.Bound{Min: orb.Point{-1, -1}, Max: orb.Point{3, 2}}
	if got := fc.BBox.Bound(); !got.Equal(want) {
		t.Errorf("Expected bbox %v, got %v", want, got)
	}
}

func TestToGeoJSONNil(t *testing.T) {
	if _, err := ToGeoJSON(nil); err == nil {
		t.Error("Expected error for nil set")
	}
}

func TestShortLoopStaysLine(t *testing.T) {
	g := Geometry(contour.Contour{Loop: true, Points: []contour.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}})
	if g.GeoJSONType() != "LineString" {
		t.Errorf("Expected LineString for a two point loop, got %s", g.GeoJSONType())
	}
}

func TestToGeoJSONBytes(t *testing.T) {
	data, err := ToGeoJSONBytes(sampleSet())
	if err != nil {
		t.Fatalf("ToGeoJSONBytes failed: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if result["type"] != "FeatureCollection" {
		t.Errorf("Expected FeatureCollection type")
	}
	if _, ok := result["bbox"]; !ok {
		t.Errorf("Expected bbox member")
	}
}

func TestFeaturesOfKindAndSummary(t *testing.T) {
	fc, err := ToGeoJSON(sampleSet())
	if err != nil {
		t.Fatalf("ToGeoJSON failed: %v", err)
	}

	if n := len(FeaturesOfKind(fc, KindStrand)); n != 2 {
		t.Errorf("Expected 2 strands, got %d", n)
	}
	if n := len(FeaturesOfKind(fc, KindLoop)); n != 1 {
		t.Errorf("Expected 1 loop, got %d", n)
	}

	summary := Summary(fc)
	if !strings.Contains(summary, "Strands: 2, Loops: 1 (Total: 3)") {
		t.Errorf("Unexpected summary: %s", summary)
	}
}
