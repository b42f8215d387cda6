package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/OCAP2/sonar-trainer/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// GEO POINTS
// Recorded positions are stored as EPSG:3857 because SQLite has no spatial
// awareness; the WKB produced by simplefeatures round-trips through Scan.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// GeoPointFromString parses "lon,lat" (the order used throughout config files)
func GeoPointFromString(coords string) (core.GeoPoint, error) {
	coordsSplit := strings.Split(coords, ",")
	if len(coordsSplit) != 2 {
		return core.GeoPoint{}, ErrInvalidCoordinates
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[0]), 64)
	if err != nil {
		return core.GeoPoint{}, ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[1]), 64)
	if err != nil {
		return core.GeoPoint{}, ErrInvalidCoordinates
	}
	p := core.GeoPoint{Lat: lat, Lon: lon}
	if !p.Valid() {
		return core.GeoPoint{}, ErrInvalidCoordinates
	}
	return p, nil
}

// Coords3857From4326 creates a web-mercator point from a longitude and latitude
func Coords3857From4326(
	longitude float64,
	latitude float64,
) (geom.Point, error) {
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ := f(longitude, latitude, 0)
	pt, err := geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: x, Y: y},
			Type: geom.DimXY,
		},
	)
	if err != nil {
		return geom.Point{}, fmt.Errorf("project %f,%f to EPSG:3857: %w", longitude, latitude, err)
	}
	return pt, nil
}

// PointFromGeo converts a GeoPoint into its stored EPSG:3857 representation.
func PointFromGeo(p core.GeoPoint) (geom.Point, error) {
	return Coords3857From4326(p.Lon, p.Lat)
}
