package geo

import (
	"fmt"

	"github.com/OCAP2/sonar-trainer/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// LineStringFromPoints builds a lon/lat LineString. Fewer than two points
// yield an empty LineString. A track that never moved has a single distinct
// position and is rejected by simplefeatures.
func LineStringFromPoints(points []core.GeoPoint) (geom.LineString, error) {
	if len(points) < 2 {
		return geom.LineString{}, nil
	}
	flatCoords := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flatCoords = append(flatCoords, p.Lon, p.Lat)
	}
	ls, err := geom.NewLineString(geom.NewSequence(flatCoords, geom.DimXY))
	if err != nil {
		return geom.LineString{}, fmt.Errorf("failed to build track: %w", err)
	}
	return ls, nil
}

// MercatorLineString builds the same polyline in EPSG:3857.
func MercatorLineString(points []core.GeoPoint) (geom.LineString, error) {
	if len(points) < 2 {
		return geom.LineString{}, nil
	}
	flatCoords := make([]float64, 0, len(points)*2)
	for _, p := range points {
		pt, err := PointFromGeo(p)
		if err != nil {
			return geom.LineString{}, err
		}
		xy, _ := pt.XY()
		flatCoords = append(flatCoords, xy.X, xy.Y)
	}
	ls, err := geom.NewLineString(geom.NewSequence(flatCoords, geom.DimXY))
	if err != nil {
		return geom.LineString{}, fmt.Errorf("failed to build mercator track: %w", err)
	}
	return ls, nil
}
