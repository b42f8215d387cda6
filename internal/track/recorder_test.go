package track

import (
	"testing"
	"time"

	"github.com/OCAP2/sonar-trainer/internal/geo"
	"github.com/OCAP2/sonar-trainer/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fix(p core.GeoPoint) core.ShipPose {
	return core.ShipPose{Position: p, HeadingDeg: 0, FixValid: true}
}

func TestRecorder_SamplesAtInterval(t *testing.T) {
	r := NewRecorder(Config{SampleInterval: 5 * time.Second, MaxDistanceMeters: 10000})
	p := core.GeoPoint{Lat: 1, Lon: 1}

	assert.True(t, r.Tick(fix(p), 0))
	assert.False(t, r.Tick(fix(p), 4999))
	assert.True(t, r.Tick(fix(p), 5000))
	assert.False(t, r.Tick(fix(p), 6000))
	assert.Equal(t, 2, r.Len())
}

func TestRecorder_ClearsOnFixLoss(t *testing.T) {
	r := NewRecorder(DefaultConfig())
	r.Tick(fix(core.GeoPoint{Lat: 1, Lon: 1}), 0)
	r.Tick(fix(core.GeoPoint{Lat: 1.001, Lon: 1}), 10000)
	require.Equal(t, 2, r.Len())

	assert.False(t, r.Tick(core.ShipPose{}, 20000))
	assert.Equal(t, 0, r.Len())

	// first sample after reacquiring is taken immediately
	assert.True(t, r.Tick(fix(core.GeoPoint{Lat: 2, Lon: 2}), 20001))
}

func TestRecorder_PrunesOldestEnd(t *testing.T) {
	r := NewRecorder(Config{SampleInterval: time.Second, MaxDistanceMeters: 250})
	start := core.GeoPoint{}
	for i := 0; i < 10; i++ {
		r.Tick(fix(geo.Destination(start, 0, float64(i)*100)), int64(i)*1000)
	}
	pts := r.Points()
	require.Len(t, pts, 3, "two 100 m segments fit, a third would exceed 250 m")
	assert.InDelta(t, 700, geo.DistanceMeters(start, pts[0]), 1e-6)
	assert.LessOrEqual(t, r.Length(), 250.0)
}

func TestRecorder_TenKnotsForTwoHours(t *testing.T) {
	cfg := DefaultConfig()
	r := NewRecorder(cfg)

	speed := 10 * geo.KnotsToMetersPerSecond
	start := core.GeoPoint{Lat: 57.5, Lon: 10.5}
	const stepMs = 1000
	for ms := int64(0); ms <= 2*3600*1000; ms += stepMs {
		pos := geo.Destination(start, 72, speed*float64(ms)/1000)
		r.Tick(fix(pos), ms)
		require.LessOrEqual(t, r.Length(), 5*geo.NauticalMileMeters)
	}
	assert.Greater(t, r.Length(), 4.9*geo.NauticalMileMeters)
	assert.Greater(t, r.Len(), 2)
}

func TestRecorder_ZeroMaxKeepsNewest(t *testing.T) {
	r := NewRecorder(Config{SampleInterval: time.Second, MaxDistanceMeters: 0})
	r.Tick(fix(core.GeoPoint{}), 0)
	r.Tick(fix(core.GeoPoint{Lat: 0.01}), 1000)
	require.Equal(t, 1, r.Len())
	assert.Equal(t, 0.01, r.Points()[0].Lat)
}

func TestRecorder_LineStrings(t *testing.T) {
	r := NewRecorder(Config{SampleInterval: time.Second, MaxDistanceMeters: 1e6})
	r.Tick(fix(core.GeoPoint{Lat: 0, Lon: 0}), 0)
	ls, err := r.LineString()
	require.NoError(t, err)
	assert.True(t, ls.IsEmpty())

	r.Tick(fix(core.GeoPoint{Lat: 0, Lon: 1}), 1000)
	ls, err = r.LineString()
	require.NoError(t, err)
	assert.Equal(t, 2, ls.Coordinates().Length())
	merc, err := r.Mercator()
	require.NoError(t, err)
	assert.InDelta(t, 111319.49, merc.Coordinates().GetXY(1).X, 1)
}

func TestRecorder_LineStringsStationary(t *testing.T) {
	r := NewRecorder(Config{SampleInterval: time.Second, MaxDistanceMeters: 1e6})
	r.Tick(fix(core.GeoPoint{Lat: 1, Lon: 1}), 0)
	r.Tick(fix(core.GeoPoint{Lat: 1, Lon: 1}), 1000)
	require.Equal(t, 2, r.Len())

	_, err := r.LineString()
	assert.Error(t, err)
	_, err = r.Mercator()
	assert.Error(t, err)
}

func TestRecorder_ScreenPolylineClipsAtEdge(t *testing.T) {
	cfg := core.DefaultSensorConfig() // 1000 m, radius 200 at (200,200)
	r := NewRecorder(Config{SampleInterval: time.Second, MaxDistanceMeters: 1e6})

	ship := core.GeoPoint{}
	r.Tick(fix(geo.Destination(ship, 180, 1500)), 0) // off-screen astern
	r.Tick(fix(geo.Destination(ship, 180, 500)), 1000)

	runs := r.ScreenPolyline(fix(ship), cfg)
	require.Len(t, runs, 1)
	line := runs[0]
	require.Len(t, line, 3)
	assert.InDelta(t, 400, line[0].Y, 1e-6, "cut at the bottom edge")
	assert.InDelta(t, 300, line[1].Y, 1e-6)
	assert.Equal(t, core.VisibleAt(200, 200), line[2])

	assert.Nil(t, r.ScreenPolyline(core.ShipPose{}, cfg))
}
