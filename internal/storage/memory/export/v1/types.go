// Package v1 contains the v1 debrief export format for sonar training
// sessions.
package v1

import (
	"time"

	"github.com/OCAP2/sonar-trainer/pkg/core"
)

// FormatVersion is written into every export
const FormatVersion = 1

// Export is the root JSON structure for v1 format
type Export struct {
	Version    int                 `json:"version"`
	Session    core.Session        `json:"session"`
	EndTime    time.Time           `json:"endTime"`
	Summary    core.DebriefSummary `json:"summary"`
	TrackWKT   string              `json:"trackWkt"` // lon/lat LINESTRING, empty below two points
	Frames     []Frame             `json:"frames"`
	MarkEvents []MarkEvent         `json:"markEvents"`
	Track      [][2]float64        `json:"track"` // [lon, lat]
}

// Frame is a flattened core.FrameRecord
type Frame struct {
	Frame      uint    `json:"frame"`
	TimeMs     int64   `json:"timeMs"`
	Fix        bool    `json:"fix"`
	Lat        float64 `json:"lat,omitempty"`
	Lon        float64 `json:"lon,omitempty"`
	HeadingDeg float64 `json:"heading"`
	Intensity  float64 `json:"intensity"`
	SlantRange float64 `json:"slantRange"`
	Bearing    float64 `json:"bearing"`
	Overlap    bool    `json:"overlap"`
	MarkCount  int     `json:"markCount"`
}

// MarkEvent is a flattened core.MarkEvent
type MarkEvent struct {
	Frame    uint        `json:"frame"`
	TimeMs   int64       `json:"timeMs"`
	Kind     string      `json:"kind"`
	MarkerID uint        `json:"markerId"`
	Anchor   string      `json:"anchor"`
	Shape    string      `json:"shape"`
	Position *[2]float64 `json:"position,omitempty"` // [lon, lat] for GEO marks
	Range    float64     `json:"range,omitempty"`    // meters, SCREEN marks
	Bearing  float64     `json:"bearing,omitempty"`  // radians clockwise from up, SCREEN marks
}
