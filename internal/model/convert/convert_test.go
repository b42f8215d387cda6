package convert

import (
	"testing"
	"time"

	"github.com/OCAP2/sonar-trainer/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeoToPoint(t *testing.T) {
	pt := geoToPoint(core.GeoPoint{Lat: 0, Lon: 0}, true)
	xy, ok := pt.XY()
	require.True(t, ok)
	assert.InDelta(t, 0, xy.X, 1e-6)
	assert.InDelta(t, 0, xy.Y, 1e-6)
}

func TestGeoToPoint_NoFixIsEmpty(t *testing.T) {
	assert.True(t, geoToPoint(core.GeoPoint{Lat: 10, Lon: 10}, false).IsEmpty())
	assert.True(t, geoToPoint(core.GeoPoint{Lat: 95, Lon: 10}, true).IsEmpty())
}

// Round-trip: Core → GORM → Core
func TestSessionRoundTrip(t *testing.T) {
	original := core.Session{
		ID:          "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		Name:        "Harbour drill",
		Trainee:     "cadet",
		StartTime:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Sensor:      core.DefaultSensorConfig(),
		AppVersion:  "1.0.0",
		FrameMillis: 500,
	}

	m := CoreToSession(original)
	assert.Contains(t, string(m.Sensor), `"maxRange":1000`)
	assert.Equal(t, original, SessionToCore(m))
}

func TestSessionToCore_BadSensorJSON(t *testing.T) {
	m := CoreToSession(core.Session{ID: "x"})
	m.Sensor = []byte("not json")
	assert.Equal(t, core.SensorConfig{}, SessionToCore(m).Sensor)
}

func TestFrameRoundTrip(t *testing.T) {
	original := core.FrameRecord{
		SessionID: "s1",
		Frame:     12,
		Time:      time.Date(2026, 3, 1, 9, 0, 12, 0, time.UTC),
		Ship: core.ShipPose{
			Position:   core.GeoPoint{Lat: 43.1, Lon: 5.9},
			HeadingDeg: 90,
			FixValid:   true,
		},
		Echo: core.EchoResult{
			Intensity:             0.04,
			SlantRangeMeters:      606.6,
			HorizontalRangeMeters: 600,
			RelativeBearingDeg:    -3,
			AngularHalfWidthRad:   0.08,
			RadialExtentMeters:    14.9,
			Overlap:               true,
		},
		MarkCount: 2,
	}

	m := CoreToFrame(original)
	assert.False(t, m.Position.IsEmpty())
	assert.Equal(t, original, FrameToCore(m))
}

func TestCoreToFrame_NoFix(t *testing.T) {
	m := CoreToFrame(core.FrameRecord{Ship: core.ShipPose{HeadingDeg: 10}})
	assert.True(t, m.Position.IsEmpty())
	assert.False(t, m.FixValid)
}

func TestMarkEventRoundTrip_Geo(t *testing.T) {
	original := core.MarkEvent{
		SessionID: "s1",
		Frame:     4,
		Time:      time.Date(2026, 3, 1, 9, 0, 4, 0, time.UTC),
		Kind:      core.MarkCreated,
		Marker: core.Marker{
			ID:          3,
			Anchor:      core.NewGeoAnchor(core.GeoPoint{Lat: 43.11, Lon: 5.91}),
			Shape:       core.ShapeCross,
			CreatedAtMs: 4000,
		},
	}

	m := CoreToMarkEvent(original)
	assert.Equal(t, "GEO", m.AnchorMode)
	assert.Equal(t, "CROSS", m.Shape)
	assert.Equal(t, "created", m.Kind)
	assert.False(t, m.Position.IsEmpty())
	assert.Equal(t, original, MarkEventToCore(m))
}

func TestMarkEventRoundTrip_Screen(t *testing.T) {
	original := core.MarkEvent{
		SessionID: "s1",
		Kind:      core.MarkDeleted,
		Marker: core.Marker{
			ID: 1,
			Anchor: core.NewScreenAnchor(core.ScreenAnchor{
				InitialDistanceMeters: 250,
				OriginalAngleRad:      -1.2,
				ScreenBearingRad:      0.37,
			}),
			Shape: core.ShapeDiamond,
		},
	}

	m := CoreToMarkEvent(original)
	assert.Equal(t, "SCREEN", m.AnchorMode)
	assert.True(t, m.Position.IsEmpty())
	assert.Equal(t, original, MarkEventToCore(m))
}

func TestTrackSampleRoundTrip(t *testing.T) {
	original := core.TrackSample{
		SessionID: "s1",
		Frame:     30,
		Time:      time.Date(2026, 3, 1, 9, 0, 30, 0, time.UTC),
		Position:  core.GeoPoint{Lat: -33.9, Lon: 151.2},
	}
	assert.Equal(t, original, TrackSampleToCore(CoreToTrackSample(original)))
}

func TestDebriefRoundTrip(t *testing.T) {
	summary := core.DebriefSummary{
		SessionID:       "s1",
		Frames:          100,
		EchoFrames:      40,
		MarksPlaced:     3,
		MarksPromoted:   1,
		MarksDeleted:    1,
		TrackMeters:     512.5,
		MeanIntensity:   0.2,
		StdDevIntensity: 0.05,
		PeakIntensity:   0.41,
		DurationSeconds: 99,
	}
	track := []core.GeoPoint{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.01}}

	m := CoreToDebrief(summary, track)
	assert.Equal(t, 2, m.Track.Coordinates().Length())
	assert.Equal(t, summary, DebriefToCore(m))
}

func TestCoreToDebrief_ShortTrack(t *testing.T) {
	m := CoreToDebrief(core.DebriefSummary{SessionID: "s1"}, []core.GeoPoint{{Lat: 1, Lon: 1}})
	assert.True(t, m.Track.IsEmpty())
}

func TestCoreToDebrief_StationaryTrack(t *testing.T) {
	track := []core.GeoPoint{{Lat: 1, Lon: 1}, {Lat: 1, Lon: 1}, {Lat: 1, Lon: 1}}
	m := CoreToDebrief(core.DebriefSummary{SessionID: "s1"}, track)
	assert.True(t, m.Track.IsEmpty())
}
