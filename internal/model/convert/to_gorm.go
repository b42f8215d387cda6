// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"

	"github.com/OCAP2/sonar-trainer/internal/geo"
	"github.com/OCAP2/sonar-trainer/internal/model"
	"github.com/OCAP2/sonar-trainer/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

// geoToPoint stores a position as EPSG:3857. Unusable positions become an
// empty point.
func geoToPoint(p core.GeoPoint, ok bool) geom.Point {
	if !ok || !p.Valid() {
		return geom.Point{}
	}
	pt, err := geo.PointFromGeo(p)
	if err != nil {
		return geom.Point{}
	}
	return pt
}

// trackToLineString stores a track as EPSG:3857. A track without two
// distinct positions becomes an empty LineString.
func trackToLineString(track []core.GeoPoint) geom.LineString {
	ls, err := geo.MercatorLineString(track)
	if err != nil {
		return geom.LineString{}
	}
	return ls
}

// sensorToJSON snapshots the scope settings for DB storage.
func sensorToJSON(cfg core.SensorConfig) datatypes.JSON {
	data, err := json.Marshal(cfg)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(data)
}

// CoreToSession converts a core.Session to a GORM model.Session
func CoreToSession(s core.Session) model.Session {
	return model.Session{
		ID:          s.ID,
		Name:        s.Name,
		Trainee:     s.Trainee,
		StartTime:   s.StartTime,
		Sensor:      sensorToJSON(s.Sensor),
		AppVersion:  s.AppVersion,
		FrameMillis: s.FrameMillis,
	}
}

// CoreToFrame converts a core.FrameRecord to a GORM model.Frame
func CoreToFrame(f core.FrameRecord) model.Frame {
	return model.Frame{
		SessionID:             f.SessionID,
		FrameNo:               f.Frame,
		Time:                  f.Time,
		Lat:                   f.Ship.Position.Lat,
		Lon:                   f.Ship.Position.Lon,
		Position:              geoToPoint(f.Ship.Position, f.Ship.HasFix()),
		HeadingDeg:            f.Ship.HeadingDeg,
		FixValid:              f.Ship.FixValid,
		Intensity:             f.Echo.Intensity,
		SlantRangeMeters:      f.Echo.SlantRangeMeters,
		HorizontalRangeMeters: f.Echo.HorizontalRangeMeters,
		RelativeBearingDeg:    f.Echo.RelativeBearingDeg,
		AngularHalfWidthRad:   f.Echo.AngularHalfWidthRad,
		RadialExtentMeters:    f.Echo.RadialExtentMeters,
		Overlap:               f.Echo.Overlap,
		MarkCount:             f.MarkCount,
	}
}

// CoreToMarkEvent converts a core.MarkEvent to a GORM model.MarkEvent.
// core.Marker.ID maps to MarkEvent.MarkerID.
func CoreToMarkEvent(e core.MarkEvent) model.MarkEvent {
	m := e.Marker
	out := model.MarkEvent{
		SessionID:   e.SessionID,
		FrameNo:     e.Frame,
		Time:        e.Time,
		Kind:        string(e.Kind),
		MarkerID:    m.ID,
		AnchorMode:  m.Anchor.Mode.String(),
		Shape:       m.Shape.String(),
		CreatedAtMs: m.CreatedAtMs,
	}
	if m.Anchor.IsGeo() {
		out.Lat = m.Anchor.Geo.Position.Lat
		out.Lon = m.Anchor.Geo.Position.Lon
		out.Position = geoToPoint(m.Anchor.Geo.Position, true)
	} else {
		out.InitialDistanceMeters = m.Anchor.Screen.InitialDistanceMeters
		out.OriginalAngleRad = m.Anchor.Screen.OriginalAngleRad
		out.ScreenBearingRad = m.Anchor.Screen.ScreenBearingRad
	}
	return out
}

// CoreToTrackSample converts a core.TrackSample to a GORM model.TrackSample
func CoreToTrackSample(s core.TrackSample) model.TrackSample {
	return model.TrackSample{
		SessionID: s.SessionID,
		FrameNo:   s.Frame,
		Time:      s.Time,
		Lat:       s.Position.Lat,
		Lon:       s.Position.Lon,
		Position:  geoToPoint(s.Position, true),
	}
}

// CoreToDebrief converts a summary plus the session's track into a GORM
// model.Debrief. The track is stored in EPSG:3857.
func CoreToDebrief(s core.DebriefSummary, track []core.GeoPoint) model.Debrief {
	return model.Debrief{
		SessionID:       s.SessionID,
		Frames:          s.Frames,
		EchoFrames:      s.EchoFrames,
		MarksPlaced:     s.MarksPlaced,
		MarksPromoted:   s.MarksPromoted,
		MarksDeleted:    s.MarksDeleted,
		TrackMeters:     s.TrackMeters,
		MeanIntensity:   s.MeanIntensity,
		StdDevIntensity: s.StdDevIntensity,
		PeakIntensity:   s.PeakIntensity,
		DurationSeconds: s.DurationSeconds,
		Track:           trackToLineString(track),
	}
}
