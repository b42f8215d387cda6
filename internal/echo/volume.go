// Package echo models the simulated target volume and how much of it the
// sonar beam sees each frame.
package echo

import (
	"math"

	"github.com/OCAP2/sonar-trainer/internal/geo"
	"github.com/OCAP2/sonar-trainer/pkg/core"
)

// TargetConfig places the simulated target relative to own ship at start.
// Bearing is relative to the heading axis.
type TargetConfig struct {
	BearingDeg   float64 `json:"bearing" mapstructure:"bearing"`
	RangeMeters  float64 `json:"range" mapstructure:"range"`
	Top          float64 `json:"top" mapstructure:"top"`
	Bottom       float64 `json:"bottom" mapstructure:"bottom"`
	Radius       float64 `json:"radius" mapstructure:"radius"`
	CourseDeg    float64 `json:"course" mapstructure:"course"`
	SpeedKnots   float64 `json:"speed" mapstructure:"speed"`
	Reflectivity float64 `json:"reflectivity" mapstructure:"reflectivity"`
}

// DefaultTargetConfig is a stationary school 600 m dead ahead.
func DefaultTargetConfig() TargetConfig {
	return TargetConfig{
		RangeMeters:  600,
		Top:          40,
		Bottom:       100,
		Radius:       50,
		Reflectivity: 1,
	}
}

// TargetVolume is a vertical cylinder between Top and Bottom meters depth.
//
// While Anchored, Center is authoritative and LocalX/LocalY mirror it.
// Otherwise the target lives in ship-relative meters: LocalX to starboard,
// LocalY along the heading axis.
type TargetVolume struct {
	Center           core.GeoPoint `json:"center"`
	Anchored         bool          `json:"anchored"`
	LocalX           float64       `json:"localX"`
	LocalY           float64       `json:"localY"`
	CenterDepth      float64       `json:"centerDepth"`
	Top              float64       `json:"top"`
	Bottom           float64       `json:"bottom"`
	HorizontalRadius float64       `json:"horizontalRadius"`
	CourseDeg        float64       `json:"courseDeg"`
	SpeedKnots       float64       `json:"speedKnots"`
	Reflectivity     float64       `json:"reflectivity"`
	RunningAverage   float64       `json:"runningAverage"`
}

// NewTargetVolume builds an unanchored volume from cfg. A non-positive
// reflectivity falls back to 1.
func NewTargetVolume(cfg TargetConfig) *TargetVolume {
	rel := cfg.BearingDeg * math.Pi / 180
	v := &TargetVolume{
		LocalX:           cfg.RangeMeters * math.Sin(rel),
		LocalY:           cfg.RangeMeters * math.Cos(rel),
		CenterDepth:      (cfg.Top + cfg.Bottom) / 2,
		Top:              cfg.Top,
		Bottom:           cfg.Bottom,
		HorizontalRadius: cfg.Radius,
		CourseDeg:        cfg.CourseDeg,
		SpeedKnots:       cfg.SpeedKnots,
		Reflectivity:     cfg.Reflectivity,
	}
	if v.Reflectivity <= 0 {
		v.Reflectivity = 1
	}
	return v
}

// Tick advances the target by dt seconds.
func (v *TargetVolume) Tick(dt float64, pose core.ShipPose) {
	step := v.SpeedKnots * geo.KnotsToMetersPerSecond * dt
	if dt < 0 || math.IsNaN(step) {
		step = 0
	}

	if !pose.HasFix() {
		// lose the anchor, keep drifting in the ship frame
		v.Anchored = false
		rel := (v.CourseDeg - pose.HeadingDeg) * math.Pi / 180
		v.LocalX += step * math.Sin(rel)
		v.LocalY += step * math.Cos(rel)
		return
	}

	if !v.Anchored {
		bearing := pose.HeadingDeg + math.Atan2(v.LocalX, v.LocalY)*180/math.Pi
		v.Center = geo.Destination(pose.Position, bearing, math.Hypot(v.LocalX, v.LocalY))
		v.Anchored = true
	}
	if step > 0 {
		v.Center = geo.Destination(v.Center, v.CourseDeg, step)
	}
	v.refreshLocal(pose)
}

func (v *TargetVolume) refreshLocal(pose core.ShipPose) {
	bearing, rng := geo.BearingAndRange(pose.Position, v.Center)
	rel := (bearing - pose.HeadingDeg) * math.Pi / 180
	v.LocalX = rng * math.Sin(rel)
	v.LocalY = rng * math.Cos(rel)
}

// relative returns horizontal range and bearing off the bow.
func (v *TargetVolume) relative(ship core.ShipPose) (rangeMeters, relBearingDeg float64) {
	if ship.HasFix() && v.Anchored {
		bearing, rng := geo.BearingAndRange(ship.Position, v.Center)
		return rng, geo.RelativeDeg(bearing - ship.HeadingDeg)
	}
	return math.Hypot(v.LocalX, v.LocalY), geo.RelativeDeg(math.Atan2(v.LocalX, v.LocalY) * 180 / math.Pi)
}
