package echo

import (
	"math"

	"github.com/OCAP2/sonar-trainer/pkg/core"
)

// footprintDepth is the depth of a beam edge at horizontal range h.
func footprintDepth(h, angleDeg float64) float64 {
	if angleDeg >= 90 {
		return math.Inf(1)
	}
	return h * math.Tan(angleDeg*math.Pi/180)
}

// Intersect computes the echo of v as seen by a beam tilted tiltDeg below
// the horizon with the given half beamwidth, using DefaultChain. The volume's
// running average is updated when the averaging stage runs.
func Intersect(ship core.ShipPose, v *TargetVolume, tiltDeg, beamHalfWidthDeg, maxRangeMeters float64, signal core.SignalConfig) core.EchoResult {
	return IntersectWith(DefaultChain(), ship, v, tiltDeg, beamHalfWidthDeg, maxRangeMeters, signal)
}

// IntersectWith is Intersect with an explicit chain.
func IntersectWith(chain []Step, ship core.ShipPose, v *TargetVolume, tiltDeg, beamHalfWidthDeg, maxRangeMeters float64, signal core.SignalConfig) core.EchoResult {
	h, rel := v.relative(ship)
	res := core.EchoResult{
		HorizontalRangeMeters: h,
		RelativeBearingDeg:    rel,
		AngularHalfWidthRad:   angularHalfWidth(h, v.HorizontalRadius),
		RadialExtentMeters:    radialExtent(h, v),
	}

	upper := footprintDepth(h, tiltDeg-beamHalfWidthDeg)
	lower := footprintDepth(h, tiltDeg+beamHalfWidthDeg)
	lo := math.Max(v.Top, upper)
	hi := math.Min(v.Bottom, lower)
	height := v.Bottom - v.Top
	if hi <= lo || height <= 0 || maxRangeMeters <= 0 {
		res.SlantRangeMeters = math.Hypot(h, v.CenterDepth)
		return shapeOnly(chain, res, signal)
	}
	res.Overlap = true

	fraction := math.Min((hi-lo)/height, 1)
	slant := math.Hypot(h, (lo+hi)/2)
	res.SlantRangeMeters = slant
	if slant > maxRangeMeters {
		return shapeOnly(chain, res, signal)
	}

	norm := slant / maxRangeMeters
	attenuation := (1 - norm) * (1 - norm)

	out := Run(chain, Context{
		Intensity:        fraction * attenuation * v.Reflectivity,
		NormRange:        norm,
		SlantRange:       slant,
		AngularHalfWidth: res.AngularHalfWidthRad,
		RadialExtent:     res.RadialExtentMeters,
		Average:          v.RunningAverage,
		Signal:           signal,
	})
	if !out.Halted {
		v.RunningAverage = out.Average
	}

	res.AngularHalfWidthRad = out.AngularHalfWidth
	res.RadialExtentMeters = out.RadialExtent
	res.Intensity = math.Max(0, math.Min(1, out.Intensity))
	return res
}

// shapeOnly gives a zero-intensity echo the same blob geometry a detected
// one would have.
func shapeOnly(chain []Step, res core.EchoResult, signal core.SignalConfig) core.EchoResult {
	out := Run(chain, Context{
		AngularHalfWidth: res.AngularHalfWidthRad,
		RadialExtent:     res.RadialExtentMeters,
		Halted:           true,
		Signal:           signal,
	})
	res.AngularHalfWidthRad = out.AngularHalfWidth
	res.RadialExtentMeters = out.RadialExtent
	return res
}

func angularHalfWidth(h, radius float64) float64 {
	if h <= radius {
		return math.Pi
	}
	return math.Atan(radius / h)
}

func radialExtent(h float64, v *TargetVolume) float64 {
	ext := math.Abs(math.Hypot(h, v.Top) - math.Hypot(h, v.Bottom))
	return math.Min(ext, 2*v.HorizontalRadius)
}
