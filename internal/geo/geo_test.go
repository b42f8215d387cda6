package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/OCAP2/sonar-trainer/pkg/core"
)

func TestGeoPointFromString_Valid(t *testing.T) {
	p, err := GeoPointFromString("5.32, 60.39")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Lon != 5.32 || p.Lat != 60.39 {
		t.Errorf("expected lon=5.32 lat=60.39, got %+v", p)
	}
}

func TestGeoPointFromString_Invalid(t *testing.T) {
	for _, in := range []string{"", "5.3", "abc,1", "1,xyz", "1,2,3", "0,91", "181,0"} {
		_, err := GeoPointFromString(in)
		if !errors.Is(err, ErrInvalidCoordinates) {
			t.Errorf("%q: expected ErrInvalidCoordinates, got %v", in, err)
		}
	}
}

func TestCoords3857From4326_Origin(t *testing.T) {
	pt, err := Coords3857From4326(0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	xy, ok := pt.XY()
	if !ok {
		t.Fatal("expected non-empty point")
	}
	if math.Abs(xy.X) > 1e-6 || math.Abs(xy.Y) > 1e-6 {
		t.Errorf("expected origin, got %+v", xy)
	}
}

func TestCoords3857From4326_Antimeridian(t *testing.T) {
	pt, err := Coords3857From4326(180, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	xy, _ := pt.XY()
	if math.Abs(xy.X-20037508.34) > 1 {
		t.Errorf("expected x≈20037508.34, got %f", xy.X)
	}
}

func TestLineStringFromPoints(t *testing.T) {
	ls, err := LineStringFromPoints([]core.GeoPoint{{Lat: 1, Lon: 2}, {Lat: 3, Lon: 4}, {Lat: 5, Lon: 6}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seq := ls.Coordinates()
	if seq.Length() != 3 {
		t.Fatalf("expected 3 coordinates, got %d", seq.Length())
	}
	if first := seq.GetXY(0); first.X != 2 || first.Y != 1 {
		t.Errorf("expected lon/lat order, got %+v", first)
	}
}

func TestLineStringFromPoints_TooShort(t *testing.T) {
	ls, err := LineStringFromPoints([]core.GeoPoint{{Lat: 1, Lon: 1}})
	if err != nil || !ls.IsEmpty() {
		t.Errorf("expected empty LineString, got err=%v", err)
	}
	ls, err = MercatorLineString(nil)
	if err != nil || !ls.IsEmpty() {
		t.Errorf("expected empty LineString, got err=%v", err)
	}
}

func TestLineStringFromPoints_SinglePosition(t *testing.T) {
	pts := []core.GeoPoint{{Lat: 1, Lon: 1}, {Lat: 1, Lon: 1}}
	if _, err := LineStringFromPoints(pts); err == nil {
		t.Error("expected error for a track with one distinct position")
	}
	if _, err := MercatorLineString(pts); err == nil {
		t.Error("expected error for a track with one distinct position")
	}
}

func TestMercatorLineString(t *testing.T) {
	ls, err := MercatorLineString([]core.GeoPoint{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	end := ls.Coordinates().GetXY(1)
	if math.Abs(end.X-111319.49) > 1 {
		t.Errorf("expected x≈111319.49, got %f", end.X)
	}
}
