package geo

import (
	"math"

	"github.com/OCAP2/sonar-trainer/pkg/core"
	"gonum.org/v1/gonum/spatial/r2"
)

// Center returns the viewport center as a vector.
func Center(cfg core.SensorConfig) r2.Vec {
	return r2.Vec{X: cfg.CenterX, Y: cfg.CenterY}
}

// polar maps a ship-relative angle (0 = up, clockwise) and a distance in
// meters onto the viewport. scale is pixels per meter.
func polar(relDeg, meters, scale float64, cfg core.SensorConfig) r2.Vec {
	rad := toRad(relDeg)
	px := meters * scale
	return r2.Vec{
		X: cfg.CenterX + math.Sin(rad)*px,
		Y: cfg.CenterY - math.Cos(rad)*px,
	}
}

// Project maps a geodetic target onto the viewport. Targets beyond the
// configured range, or any input without a fix or with a degenerate config,
// come back as core.NotVisible.
func Project(ship core.ShipPose, target core.GeoPoint, cfg core.SensorConfig) core.ScreenPos {
	v, rng, ok := project(ship, target, cfg)
	if !ok || rng > cfg.MaxRangeMeters() {
		return core.NotVisible
	}
	return core.VisibleAt(v.X, v.Y)
}

// ProjectUnclipped maps a target without the range check, so callers can
// clip lines at the viewport edge. ok is false without a fix or scale.
func ProjectUnclipped(ship core.ShipPose, target core.GeoPoint, cfg core.SensorConfig) (r2.Vec, bool) {
	v, _, ok := project(ship, target, cfg)
	return v, ok
}

func project(ship core.ShipPose, target core.GeoPoint, cfg core.SensorConfig) (r2.Vec, float64, bool) {
	if !ship.HasFix() {
		return r2.Vec{}, 0, false
	}
	scale := cfg.PixelsPerMeter()
	if scale == 0 {
		return r2.Vec{}, 0, false
	}
	brg, rng := BearingAndRange(ship.Position, target)
	return polar(brg-ship.HeadingDeg, rng, scale, cfg), rng, true
}

// ProjectScreenAnchor rescales a screen-anchored offset against the current
// range setting. It is never rotated by heading.
func ProjectScreenAnchor(a core.ScreenAnchor, cfg core.SensorConfig) core.ScreenPos {
	scale := cfg.PixelsPerMeter()
	if scale == 0 || a.InitialDistanceMeters > cfg.MaxRangeMeters() {
		return core.NotVisible
	}
	px := a.InitialDistanceMeters * scale
	return core.VisibleAt(
		cfg.CenterX+math.Cos(a.OriginalAngleRad)*px,
		cfg.CenterY+math.Sin(a.OriginalAngleRad)*px,
	)
}

// ScreenOffsetToPolar converts a cursor offset from the viewport center
// (pixels, y grows downward) into the polar form stored by screen anchors.
func ScreenOffsetToPolar(dx, dy float64, cfg core.SensorConfig) (core.ScreenAnchor, bool) {
	scale := cfg.PixelsPerMeter()
	if scale == 0 {
		return core.ScreenAnchor{}, false
	}
	return core.ScreenAnchor{
		InitialDistanceMeters: math.Hypot(dx, dy) / scale,
		OriginalAngleRad:      math.Atan2(dy, dx),
		ScreenBearingRad:      NormalizeRad(math.Atan2(dx, -dy)),
	}, true
}

// ScreenBearingDeg converts a screen anchor bearing into degrees.
func ScreenBearingDeg(a core.ScreenAnchor) float64 {
	return toDeg(a.ScreenBearingRad)
}
