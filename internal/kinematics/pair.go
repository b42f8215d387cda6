// Package kinematics derives range, depth, speed and course from the two
// newest target marks.
package kinematics

import (
	"errors"
	"math"

	"github.com/OCAP2/sonar-trainer/internal/geo"
	"github.com/OCAP2/sonar-trainer/pkg/core"
	"gonum.org/v1/gonum/spatial/r2"
)

var (
	// ErrNoMarkers means there is nothing to measure
	ErrNoMarkers = errors.New("no marks placed")
	// ErrMixedAnchorMode means the newest two marks are anchored differently
	// and cannot be compared
	ErrMixedAnchorMode = errors.New("newest marks mix geographic and screen anchors")
	// ErrNoFix means a lone geographic mark cannot be ranged without own
	// position
	ErrNoFix = errors.New("geographic mark needs a position fix")
)

// Stats describes the newest mark and, when present, its movement since the
// previous one.
type Stats struct {
	NewestID          uint    `json:"newestId"`
	HasRange          bool    `json:"hasRange"`
	RangeMeters       float64 `json:"rangeMeters"`
	DepthMeters       float64 `json:"depthMeters"`
	HasPair           bool    `json:"hasPair"`
	PairDistanceMeter float64 `json:"pairDistanceMeters"`
	ElapsedSeconds    float64 `json:"elapsedSeconds"`
	SpeedKnots        float64 `json:"speedKnots"`
	CourseDeg         float64 `json:"courseDeg"`
}

// PairStats measures the newest mark from the viewport center and the pair
// formed with the mark placed before it. Errors are sentinels meaning "no
// data"; a mixed pair still reports the newest mark's range. A geographic
// pair without a fix reports movement with HasRange unset.
func PairStats(markers []core.Marker, pose core.ShipPose, cfg core.SensorConfig) (Stats, error) {
	if len(markers) == 0 {
		return Stats{}, ErrNoMarkers
	}
	newest := markers[len(markers)-1]

	st := Stats{NewestID: newest.ID}
	rng, rangeErr := rangeFromCenter(newest, pose)
	if rangeErr == nil {
		st.HasRange = true
		st.RangeMeters = rng
		st.DepthMeters = rng * math.Sin(cfg.TiltDeg*math.Pi/180)
	}

	if len(markers) < 2 {
		return st, rangeErr
	}
	older := markers[len(markers)-2]
	if older.Anchor.Mode != newest.Anchor.Mode {
		return st, ErrMixedAnchorMode
	}

	var dist, course float64
	if newest.Anchor.IsGeo() {
		from, to := older.Anchor.Geo.Position, newest.Anchor.Geo.Position
		dist = geo.DistanceMeters(from, to)
		course = geo.InitialBearingDeg(from, to)
	} else {
		a, b := local(older.Anchor.Screen), local(newest.Anchor.Screen)
		d := r2.Sub(b, a)
		dist = r2.Norm(d)
		course = geo.NormalizeDeg(math.Atan2(d.X, d.Y)*180/math.Pi + pose.HeadingDeg)
	}

	st.HasPair = true
	st.PairDistanceMeter = dist
	st.CourseDeg = course
	st.ElapsedSeconds = float64(newest.CreatedAtMs-older.CreatedAtMs) / 1000
	if st.ElapsedSeconds > 0 {
		st.SpeedKnots = dist / st.ElapsedSeconds * geo.MetersPerSecondToKnots
	}
	return st, nil
}

func rangeFromCenter(m core.Marker, pose core.ShipPose) (float64, error) {
	if !m.Anchor.IsGeo() {
		return m.Anchor.Screen.InitialDistanceMeters, nil
	}
	if !pose.HasFix() {
		return 0, ErrNoFix
	}
	return geo.DistanceMeters(pose.Position, m.Anchor.Geo.Position), nil
}

// local places a screen anchor in ship-relative meters: X to starboard,
// Y along the heading axis.
func local(a core.ScreenAnchor) r2.Vec {
	return r2.Vec{
		X: a.InitialDistanceMeters * math.Sin(a.ScreenBearingRad),
		Y: a.InitialDistanceMeters * math.Cos(a.ScreenBearingRad),
	}
}
