package model

import (
	"database/sql"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Session{},
	&Frame{},
	&MarkEvent{},
	&TrackSample{},
	&Debrief{},
}

////////////////////////
// SESSION
////////////////////////

// Session is one training run
type Session struct {
	ID          string         `json:"id" gorm:"primaryKey;size:36"`
	Name        string         `json:"name" gorm:"size:200"`
	Trainee     string         `json:"trainee" gorm:"size:128;index:idx_session_trainee"`
	StartTime   time.Time      `json:"startTime" gorm:"type:timestamptz;index:idx_session_start"`
	EndTime     sql.NullTime   `json:"endTime" gorm:"type:timestamptz;default:NULL"`
	Sensor      datatypes.JSON `json:"sensor" gorm:"type:jsonb;default:'{}'"` // Scope and signal settings at session start
	AppVersion  string         `json:"appVersion" gorm:"size:64"`
	FrameMillis int64          `json:"frameMillis" gorm:"default:1000"`
}

func (*Session) TableName() string {
	return "sessions"
}

////////////////////////
// PER-FRAME DATA
////////////////////////

// Frame is the own-ship pose and echo for one frame
type Frame struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID string    `json:"sessionId" gorm:"size:36;index:idx_frame_session_id"`
	Session   Session   `json:"-" gorm:"foreignkey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	FrameNo   uint      `json:"frameNo" gorm:"index:idx_frame_no"`
	Time      time.Time `json:"time" gorm:"type:timestamptz;"`

	Lat        float64    `json:"lat"`
	Lon        float64    `json:"lon"`
	Position   geom.Point `json:"position"` // EPSG:3857, empty without a fix
	HeadingDeg float64    `json:"headingDeg"`
	FixValid   bool       `json:"fixValid"`

	Intensity             float64 `json:"intensity"`
	SlantRangeMeters      float64 `json:"slantRangeMeters"`
	HorizontalRangeMeters float64 `json:"horizontalRangeMeters"`
	RelativeBearingDeg    float64 `json:"relativeBearingDeg"`
	AngularHalfWidthRad   float64 `json:"angularHalfWidthRad"`
	RadialExtentMeters    float64 `json:"radialExtentMeters"`
	Overlap               bool    `json:"overlap"`
	MarkCount             int     `json:"markCount"`
}

func (*Frame) TableName() string {
	return "frames"
}

// MarkEvent records a mark being placed, promoted or deleted
type MarkEvent struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID string    `json:"sessionId" gorm:"size:36;index:idx_markevent_session_id"`
	Session   Session   `json:"-" gorm:"foreignkey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	FrameNo   uint      `json:"frameNo"`
	Time      time.Time `json:"time" gorm:"type:timestamptz;"`
	Kind      string    `json:"kind" gorm:"size:16;index:idx_markevent_kind"`

	MarkerID    uint   `json:"markerId" gorm:"index:idx_markevent_marker_id"`
	AnchorMode  string `json:"anchorMode" gorm:"size:8"` // GEO or SCREEN
	Shape       string `json:"shape" gorm:"size:16"`
	CreatedAtMs int64  `json:"createdAtMs"`

	Lat      float64    `json:"lat"`
	Lon      float64    `json:"lon"`
	Position geom.Point `json:"position"` // EPSG:3857 for GEO marks

	InitialDistanceMeters float64 `json:"initialDistanceMeters"`
	OriginalAngleRad      float64 `json:"originalAngleRad"`
	ScreenBearingRad      float64 `json:"screenBearingRad"`
}

func (*MarkEvent) TableName() string {
	return "mark_events"
}

// TrackSample is one retained point of the own-ship wake
type TrackSample struct {
	ID        uint       `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID string     `json:"sessionId" gorm:"size:36;index:idx_tracksample_session_id"`
	Session   Session    `json:"-" gorm:"foreignkey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	FrameNo   uint       `json:"frameNo"`
	Time      time.Time  `json:"time" gorm:"type:timestamptz;"`
	Lat       float64    `json:"lat"`
	Lon       float64    `json:"lon"`
	Position  geom.Point `json:"position"`
}

func (*TrackSample) TableName() string {
	return "track_samples"
}

////////////////////////
// DEBRIEF
////////////////////////

// Debrief is the end-of-session summary
type Debrief struct {
	SessionID       string          `json:"sessionId" gorm:"primaryKey;size:36"`
	Session         Session         `json:"-" gorm:"foreignkey:SessionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt       time.Time       `json:"createdAt"`
	Frames          int             `json:"frames"`
	EchoFrames      int             `json:"echoFrames"`
	MarksPlaced     int             `json:"marksPlaced"`
	MarksPromoted   int             `json:"marksPromoted"`
	MarksDeleted    int             `json:"marksDeleted"`
	TrackMeters     float64         `json:"trackMeters"`
	MeanIntensity   float64         `json:"meanIntensity"`
	StdDevIntensity float64         `json:"stdDevIntensity"`
	PeakIntensity   float64         `json:"peakIntensity"`
	DurationSeconds float64         `json:"durationSeconds"`
	Track           geom.LineString `json:"track"` // EPSG:3857
}

func (*Debrief) TableName() string {
	return "debriefs"
}
