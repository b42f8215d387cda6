// Package debrief reduces a recorded session to its headline numbers.
package debrief

import (
	"github.com/OCAP2/sonar-trainer/internal/geo"
	"github.com/OCAP2/sonar-trainer/pkg/core"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summarize builds the debrief summary for a session. Intensity statistics
// only cover frames where the beam overlapped the target.
func Summarize(sessionID string, frames []core.FrameRecord, events []core.MarkEvent, track []core.GeoPoint) core.DebriefSummary {
	s := core.DebriefSummary{
		SessionID:   sessionID,
		Frames:      len(frames),
		TrackMeters: geo.PathLengthMeters(track),
	}

	var intensities []float64
	for _, f := range frames {
		if f.Echo.Overlap {
			intensities = append(intensities, f.Echo.Intensity)
		}
	}
	s.EchoFrames = len(intensities)

	switch len(intensities) {
	case 0:
	case 1:
		s.MeanIntensity = intensities[0]
		s.PeakIntensity = intensities[0]
	default:
		s.MeanIntensity, s.StdDevIntensity = stat.MeanStdDev(intensities, nil)
		s.PeakIntensity = floats.Max(intensities)
	}

	for _, e := range events {
		switch e.Kind {
		case core.MarkCreated:
			s.MarksPlaced++
		case core.MarkPromoted:
			s.MarksPromoted++
		case core.MarkDeleted:
			s.MarksDeleted++
		}
	}

	if len(frames) > 1 {
		s.DurationSeconds = frames[len(frames)-1].Time.Sub(frames[0].Time).Seconds()
	}

	return s
}
