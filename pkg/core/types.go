// pkg/core/types.go
package core

import "math"

// GeoPoint is a WGS84 position in degrees
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point lies inside the lat/lon domain
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// ShipPose is the per-frame own-ship snapshot consumed by the core. It is
// never mutated after construction.
type ShipPose struct {
	Position   GeoPoint `json:"position"`
	HeadingDeg float64  `json:"headingDeg"`
	FixValid   bool     `json:"fixValid"`
}

// HasFix reports whether Position can be used.
func (p ShipPose) HasFix() bool {
	return p.FixValid && p.Position.Valid()
}

// NavSnapshot is what the navigation feed hands over each frame.
// Lat/Lon are nil when the receiver has no position.
type NavSnapshot struct {
	Lat        *float64 `json:"lat,omitempty"`
	Lon        *float64 `json:"lon,omitempty"`
	HeadingDeg float64  `json:"headingDeg"`
	FixValid   bool     `json:"fixValid"`
	SpeedKnots *float64 `json:"speedKnots,omitempty"`
}

// Pose normalises the snapshot. A missing or out-of-range position forces
// FixValid to false regardless of the flag supplied by the feed.
func (n NavSnapshot) Pose() ShipPose {
	pose := ShipPose{HeadingDeg: n.HeadingDeg}
	if math.IsNaN(pose.HeadingDeg) || math.IsInf(pose.HeadingDeg, 0) {
		pose.HeadingDeg = 0
	}
	if n.Lat == nil || n.Lon == nil {
		return pose
	}
	pose.Position = GeoPoint{Lat: *n.Lat, Lon: *n.Lon}
	pose.FixValid = n.FixValid && pose.Position.Valid()
	return pose
}

// Speed returns the reported speed over ground, or zero when unknown.
func (n NavSnapshot) Speed() float64 {
	if n.SpeedKnots == nil {
		return 0
	}
	return *n.SpeedKnots
}

// ScreenPos is a viewport pixel position. The zero value is the
// not-visible sentinel.
type ScreenPos struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Visible bool    `json:"visible"`
}

// NotVisible is returned for anything that cannot be drawn.
var NotVisible = ScreenPos{}

// VisibleAt builds a visible screen position.
func VisibleAt(x, y float64) ScreenPos {
	return ScreenPos{X: x, Y: y, Visible: true}
}
