package convert

import (
	"encoding/json"

	"github.com/OCAP2/sonar-trainer/internal/model"
	"github.com/OCAP2/sonar-trainer/pkg/core"
)

func parseAnchorMode(s string) core.AnchorMode {
	if s == core.AnchorScreen.String() {
		return core.AnchorScreen
	}
	return core.AnchorGeo
}

func parseShape(s string) core.ShapeKind {
	switch s {
	case core.ShapeCross.String():
		return core.ShapeCross
	case core.ShapeTriangle.String():
		return core.ShapeTriangle
	default:
		return core.ShapeDiamond
	}
}

// SessionToCore converts a GORM model.Session to a core.Session. A sensor
// snapshot that does not decode leaves the zero SensorConfig.
func SessionToCore(s model.Session) core.Session {
	out := core.Session{
		ID:          s.ID,
		Name:        s.Name,
		Trainee:     s.Trainee,
		StartTime:   s.StartTime,
		AppVersion:  s.AppVersion,
		FrameMillis: s.FrameMillis,
	}
	if len(s.Sensor) > 0 {
		_ = json.Unmarshal(s.Sensor, &out.Sensor)
	}
	return out
}

// FrameToCore converts a GORM model.Frame to a core.FrameRecord
func FrameToCore(f model.Frame) core.FrameRecord {
	return core.FrameRecord{
		SessionID: f.SessionID,
		Frame:     f.FrameNo,
		Time:      f.Time,
		Ship: core.ShipPose{
			Position:   core.GeoPoint{Lat: f.Lat, Lon: f.Lon},
			HeadingDeg: f.HeadingDeg,
			FixValid:   f.FixValid,
		},
		Echo: core.EchoResult{
			Intensity:             f.Intensity,
			SlantRangeMeters:      f.SlantRangeMeters,
			HorizontalRangeMeters: f.HorizontalRangeMeters,
			RelativeBearingDeg:    f.RelativeBearingDeg,
			AngularHalfWidthRad:   f.AngularHalfWidthRad,
			RadialExtentMeters:    f.RadialExtentMeters,
			Overlap:               f.Overlap,
		},
		MarkCount: f.MarkCount,
	}
}

// MarkEventToCore converts a GORM model.MarkEvent to a core.MarkEvent
func MarkEventToCore(e model.MarkEvent) core.MarkEvent {
	var anchor core.Anchor
	if parseAnchorMode(e.AnchorMode) == core.AnchorScreen {
		anchor = core.NewScreenAnchor(core.ScreenAnchor{
			InitialDistanceMeters: e.InitialDistanceMeters,
			OriginalAngleRad:      e.OriginalAngleRad,
			ScreenBearingRad:      e.ScreenBearingRad,
		})
	} else {
		anchor = core.NewGeoAnchor(core.GeoPoint{Lat: e.Lat, Lon: e.Lon})
	}

	return core.MarkEvent{
		SessionID: e.SessionID,
		Frame:     e.FrameNo,
		Time:      e.Time,
		Kind:      core.MarkEventKind(e.Kind),
		Marker: core.Marker{
			ID:          e.MarkerID,
			Anchor:      anchor,
			Shape:       parseShape(e.Shape),
			CreatedAtMs: e.CreatedAtMs,
		},
	}
}

// TrackSampleToCore converts a GORM model.TrackSample to a core.TrackSample
func TrackSampleToCore(s model.TrackSample) core.TrackSample {
	return core.TrackSample{
		SessionID: s.SessionID,
		Frame:     s.FrameNo,
		Time:      s.Time,
		Position:  core.GeoPoint{Lat: s.Lat, Lon: s.Lon},
	}
}

// DebriefToCore converts a GORM model.Debrief to a core.DebriefSummary
func DebriefToCore(d model.Debrief) core.DebriefSummary {
	return core.DebriefSummary{
		SessionID:       d.SessionID,
		Frames:          d.Frames,
		EchoFrames:      d.EchoFrames,
		MarksPlaced:     d.MarksPlaced,
		MarksPromoted:   d.MarksPromoted,
		MarksDeleted:    d.MarksDeleted,
		TrackMeters:     d.TrackMeters,
		MeanIntensity:   d.MeanIntensity,
		StdDevIntensity: d.StdDevIntensity,
		PeakIntensity:   d.PeakIntensity,
		DurationSeconds: d.DurationSeconds,
	}
}
