package core

import (
	"errors"
	"time"
)

// ErrNoSession is returned when recording without an active session
var ErrNoSession = errors.New("no active session")

// Session describes one training run
type Session struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Trainee     string       `json:"trainee"`
	StartTime   time.Time    `json:"startTime"`
	Sensor      SensorConfig `json:"sensor"`
	AppVersion  string       `json:"appVersion"`
	FrameMillis int64        `json:"frameMillis"`
}

// FrameRecord is one recorded frame for debrief
type FrameRecord struct {
	SessionID string     `json:"sessionId"`
	Frame     uint       `json:"frame"`
	Time      time.Time  `json:"time"`
	Ship      ShipPose   `json:"ship"`
	Echo      EchoResult `json:"echo"`
	MarkCount int        `json:"markCount"`
}

// MarkEventKind names what happened to a mark
type MarkEventKind string

const (
	MarkCreated  MarkEventKind = "created"
	MarkPromoted MarkEventKind = "promoted"
	MarkDeleted  MarkEventKind = "deleted"
)

// MarkEvent is a mark lifecycle transition
type MarkEvent struct {
	SessionID string        `json:"sessionId"`
	Frame     uint          `json:"frame"`
	Time      time.Time     `json:"time"`
	Kind      MarkEventKind `json:"kind"`
	Marker    Marker        `json:"marker"`
}

// TrackSample is a point appended to the own-ship track
type TrackSample struct {
	SessionID string    `json:"sessionId"`
	Frame     uint      `json:"frame"`
	Time      time.Time `json:"time"`
	Position  GeoPoint  `json:"position"`
}

// DebriefSummary is the headline numbers attached to an exported session
type DebriefSummary struct {
	SessionID       string  `json:"sessionId"`
	Frames          int     `json:"frames"`
	EchoFrames      int     `json:"echoFrames"`
	MarksPlaced     int     `json:"marksPlaced"`
	MarksPromoted   int     `json:"marksPromoted"`
	MarksDeleted    int     `json:"marksDeleted"`
	TrackMeters     float64 `json:"trackMeters"`
	MeanIntensity   float64 `json:"meanIntensity"`
	StdDevIntensity float64 `json:"stdDevIntensity"`
	PeakIntensity   float64 `json:"peakIntensity"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// UploadMetadata accompanies an exported debrief sent to the review server
type UploadMetadata struct {
	SessionName string         `json:"sessionName"`
	Trainee     string         `json:"trainee"`
	Tag         string         `json:"tag"`
	Summary     DebriefSummary `json:"summary"`
}
