package v1

import (
	"time"

	"github.com/OCAP2/sonar-trainer/internal/geo"
	"github.com/OCAP2/sonar-trainer/pkg/core"
)

// SessionData contains all the data needed to build an export
type SessionData struct {
	Session    *core.Session
	EndTime    time.Time
	Summary    core.DebriefSummary
	Frames     []core.FrameRecord
	MarkEvents []core.MarkEvent
	Track      []core.TrackSample
}

// Build creates an Export from the session data
func Build(data *SessionData) Export {
	export := Export{
		Version:    FormatVersion,
		Session:    *data.Session,
		EndTime:    data.EndTime,
		Summary:    data.Summary,
		Frames:     make([]Frame, 0, len(data.Frames)),
		MarkEvents: make([]MarkEvent, 0, len(data.MarkEvents)),
		Track:      make([][2]float64, 0, len(data.Track)),
	}

	for _, f := range data.Frames {
		fr := Frame{
			Frame:      f.Frame,
			TimeMs:     f.Time.UnixMilli(),
			Fix:        f.Ship.HasFix(),
			HeadingDeg: f.Ship.HeadingDeg,
			Intensity:  f.Echo.Intensity,
			SlantRange: f.Echo.SlantRangeMeters,
			Bearing:    f.Echo.RelativeBearingDeg,
			Overlap:    f.Echo.Overlap,
			MarkCount:  f.MarkCount,
		}
		if fr.Fix {
			fr.Lat = f.Ship.Position.Lat
			fr.Lon = f.Ship.Position.Lon
		}
		export.Frames = append(export.Frames, fr)
	}

	for _, e := range data.MarkEvents {
		me := MarkEvent{
			Frame:    e.Frame,
			TimeMs:   e.Time.UnixMilli(),
			Kind:     string(e.Kind),
			MarkerID: e.Marker.ID,
			Anchor:   e.Marker.Anchor.Mode.String(),
			Shape:    e.Marker.Shape.String(),
		}
		if e.Marker.Anchor.IsGeo() {
			p := e.Marker.Anchor.Geo.Position
			me.Position = &[2]float64{p.Lon, p.Lat}
		} else {
			me.Range = e.Marker.Anchor.Screen.InitialDistanceMeters
			me.Bearing = e.Marker.Anchor.Screen.ScreenBearingRad
		}
		export.MarkEvents = append(export.MarkEvents, me)
	}

	points := make([]core.GeoPoint, 0, len(data.Track))
	for _, s := range data.Track {
		export.Track = append(export.Track, [2]float64{s.Position.Lon, s.Position.Lat})
		points = append(points, s.Position)
	}
	if ls, err := geo.LineStringFromPoints(points); err == nil && !ls.IsEmpty() {
		export.TrackWKT = ls.AsText()
	}

	return export
}
