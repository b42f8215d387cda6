package kinematics

import (
	"math"
	"testing"

	"github.com/OCAP2/sonar-trainer/internal/geo"
	"github.com/OCAP2/sonar-trainer/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ship = core.ShipPose{Position: core.GeoPoint{Lat: 43.1, Lon: 5.9}, HeadingDeg: 20, FixValid: true}

func geoMark(id uint, p core.GeoPoint, ms int64) core.Marker {
	return core.Marker{ID: id, Anchor: core.NewGeoAnchor(p), CreatedAtMs: ms}
}

func screenMark(id uint, dist, bearingRad float64, ms int64) core.Marker {
	return core.Marker{ID: id, Anchor: core.NewScreenAnchor(core.ScreenAnchor{
		InitialDistanceMeters: dist,
		ScreenBearingRad:      bearingRad,
	}), CreatedAtMs: ms}
}

func sensor() core.SensorConfig {
	cfg := core.DefaultSensorConfig()
	cfg.TiltDeg = 30
	return cfg
}

func TestPairStats_NoMarkers(t *testing.T) {
	_, err := PairStats(nil, ship, sensor())
	assert.ErrorIs(t, err, ErrNoMarkers)
}

func TestPairStats_SingleGeoMark(t *testing.T) {
	m := geoMark(1, geo.Destination(ship.Position, 100, 400), 0)

	st, err := PairStats([]core.Marker{m}, ship, sensor())
	require.NoError(t, err)
	assert.Equal(t, uint(1), st.NewestID)
	assert.True(t, st.HasRange)
	assert.InDelta(t, 400, st.RangeMeters, 1e-6)
	assert.InDelta(t, 200, st.DepthMeters, 1e-6)
	assert.False(t, st.HasPair)
}

func TestPairStats_GeoPair(t *testing.T) {
	a := geo.Destination(ship.Position, 0, 300)
	b := geo.Destination(a, 90, 100)
	marks := []core.Marker{geoMark(1, a, 10_000), geoMark(2, b, 30_000)}

	st, err := PairStats(marks, ship, sensor())
	require.NoError(t, err)
	require.True(t, st.HasPair)
	assert.InDelta(t, 100, st.PairDistanceMeter, 1e-6)
	assert.InDelta(t, 90, st.CourseDeg, 1e-3)
	assert.InDelta(t, 20, st.ElapsedSeconds, 1e-12)
	assert.InDelta(t, 5*geo.MetersPerSecondToKnots, st.SpeedKnots, 1e-6)
}

func TestPairStats_ScreenPair(t *testing.T) {
	// 100 m dead ahead, then 100 m ahead and 100 m to starboard
	marks := []core.Marker{
		screenMark(1, 100, 0, 0),
		screenMark(2, 100*math.Sqrt2, math.Pi/4, 10_000),
	}

	st, err := PairStats(marks, ship, sensor())
	require.NoError(t, err)
	require.True(t, st.HasPair)
	assert.InDelta(t, 100*math.Sqrt2, st.RangeMeters, 1e-9)
	assert.InDelta(t, 100, st.PairDistanceMeter, 1e-9)
	assert.InDelta(t, 110, st.CourseDeg, 1e-9, "starboard beam plus heading")
	assert.InDelta(t, 10*geo.MetersPerSecondToKnots, st.SpeedKnots, 1e-9)
}

func TestPairStats_MixedAnchors(t *testing.T) {
	marks := []core.Marker{
		geoMark(1, geo.Destination(ship.Position, 0, 300), 0),
		screenMark(2, 250, 1, 1000),
	}

	st, err := PairStats(marks, ship, sensor())
	assert.ErrorIs(t, err, ErrMixedAnchorMode)
	assert.False(t, st.HasPair)
	assert.InDelta(t, 250, st.RangeMeters, 1e-9)
	assert.Zero(t, st.SpeedKnots)
}

func TestPairStats_GeoWithoutFix(t *testing.T) {
	marks := []core.Marker{geoMark(1, ship.Position, 0)}
	st, err := PairStats(marks, core.ShipPose{}, sensor())
	assert.ErrorIs(t, err, ErrNoFix)
	assert.False(t, st.HasRange)
}

func TestPairStats_GeoPairWithoutFix(t *testing.T) {
	a := geo.Destination(ship.Position, 0, 300)
	b := geo.Destination(a, 0, 111)
	marks := []core.Marker{geoMark(1, a, 0), geoMark(2, b, 60_000)}

	st, err := PairStats(marks, core.ShipPose{}, sensor())
	require.NoError(t, err)
	assert.False(t, st.HasRange)
	assert.Zero(t, st.RangeMeters)
	assert.Zero(t, st.DepthMeters)
	require.True(t, st.HasPair)
	assert.InDelta(t, 111, st.PairDistanceMeter, 1e-6)
	assert.InDelta(t, 0, geo.RelativeDeg(st.CourseDeg), 1e-6)
	assert.InDelta(t, 111.0/60*geo.MetersPerSecondToKnots, st.SpeedKnots, 1e-6)
}

func TestPairStats_ZeroElapsed(t *testing.T) {
	marks := []core.Marker{screenMark(1, 10, 0, 500), screenMark(2, 20, 0, 500)}
	st, err := PairStats(marks, ship, sensor())
	require.NoError(t, err)
	assert.True(t, st.HasPair)
	assert.Zero(t, st.SpeedKnots)
}

func TestPairStats_UsesOnlyNewestTwo(t *testing.T) {
	marks := []core.Marker{
		geoMark(1, geo.Destination(ship.Position, 0, 900), 0),
		screenMark(2, 10, 0, 1000),
		screenMark(3, 20, 0, 2000),
	}
	st, err := PairStats(marks, ship, sensor())
	require.NoError(t, err)
	assert.InDelta(t, 10, st.PairDistanceMeter, 1e-9)
	assert.InDelta(t, 20, st.CourseDeg, 1e-9)
}
