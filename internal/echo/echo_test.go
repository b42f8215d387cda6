package echo

import (
	"math"
	"testing"

	"github.com/OCAP2/sonar-trainer/internal/geo"
	"github.com/OCAP2/sonar-trainer/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var origin = core.ShipPose{Position: core.GeoPoint{}, HeadingDeg: 0, FixValid: true}

func referenceVolume() *TargetVolume {
	v := NewTargetVolume(DefaultTargetConfig())
	v.Tick(0, origin)
	return v
}

func intersectDefault(v *TargetVolume, signal core.SignalConfig) core.EchoResult {
	return Intersect(origin, v, 15, 7.5, 1000, signal)
}

func TestIntersect_ReferenceScenario(t *testing.T) {
	v := referenceVolume()
	require.True(t, v.Anchored)

	res := intersectDefault(v, core.DefaultSignalConfig())

	assert.True(t, res.Overlap)
	assert.Greater(t, res.Intensity, 0.0)
	assert.Less(t, res.Intensity, 1.0)
	assert.InDelta(t, 0.041074274333660794, res.Intensity, 1e-6)
	assert.InDelta(t, 600, res.HorizontalRangeMeters, 1e-6)
	assert.InDelta(t, 606.6379, res.SlantRangeMeters, 1e-3)
	assert.InDelta(t, 0, res.RelativeBearingDeg, 1e-9)
	assert.InDelta(t, math.Atan(50.0/600), res.AngularHalfWidthRad, 1e-9)
	assert.InDelta(t, 14.9444, res.RadialExtentMeters, 1e-3)
	assert.InDelta(t, res.Intensity, v.RunningAverage, 1e-12)
}

func TestIntersect_PlanarMatchesGeodesic(t *testing.T) {
	v := NewTargetVolume(DefaultTargetConfig())
	planar := Intersect(core.ShipPose{}, v, 15, 7.5, 1000, core.DefaultSignalConfig())
	assert.False(t, v.Anchored)
	assert.InDelta(t, 0.041074274333660794, planar.Intensity, 1e-9)
}

func TestIntersect_NoOverlapIsZero(t *testing.T) {
	cases := []struct {
		name        string
		top, bottom float64
	}{
		{"above footprint", 5, 60},
		{"below footprint", 300, 400},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultTargetConfig()
			cfg.Top, cfg.Bottom = tc.top, tc.bottom
			v := NewTargetVolume(cfg)

			res := Intersect(core.ShipPose{}, v, 15, 7.5, 1000, core.DefaultSignalConfig())
			assert.False(t, res.Overlap)
			assert.Zero(t, res.Intensity)
			assert.Zero(t, v.RunningAverage)
		})
	}
}

func TestIntersect_BeyondMaxRange(t *testing.T) {
	v := referenceVolume()
	res := Intersect(origin, v, 15, 7.5, 500, core.DefaultSignalConfig())
	assert.True(t, res.Overlap)
	assert.Zero(t, res.Intensity)
}

func TestIntersect_DegenerateMaxRange(t *testing.T) {
	v := referenceVolume()
	res := Intersect(origin, v, 15, 7.5, 0, core.DefaultSignalConfig())
	assert.Zero(t, res.Intensity)
}

func TestIntersect_OriginInsideTarget(t *testing.T) {
	cfg := DefaultTargetConfig()
	cfg.RangeMeters = 20
	v := NewTargetVolume(cfg)

	res := Intersect(core.ShipPose{}, v, 60, 30, 1000, core.DefaultSignalConfig())
	assert.Equal(t, math.Pi, res.AngularHalfWidthRad)
}

func TestIntersect_VerticalBeamEdge(t *testing.T) {
	// lower edge at 90 degrees reaches infinite depth
	v := referenceVolume()
	res := Intersect(origin, v, 80, 10, 1000, core.DefaultSignalConfig())
	assert.False(t, res.Overlap, "upper edge at 70 degrees is far below the target")

	res = Intersect(origin, v, 5, 85, 1000, core.DefaultSignalConfig())
	assert.True(t, res.Overlap)
	assert.Greater(t, res.Intensity, 0.0)
}

func TestIntersect_ReflectivityScalesBase(t *testing.T) {
	sig := core.DefaultSignalConfig()
	sig.NoiseLimiter = 0
	sig.ColorErase = 0

	a := referenceVolume()
	b := referenceVolume()
	b.Reflectivity = 0.5

	ra := intersectDefault(a, sig)
	rb := intersectDefault(b, sig)
	assert.InDelta(t, ra.Intensity/2, rb.Intensity, 1e-12)
}

func TestIntersect_ClampsToOne(t *testing.T) {
	sig := core.DefaultSignalConfig()
	sig.TxPower = 1000
	res := intersectDefault(referenceVolume(), sig)
	assert.Equal(t, 1.0, res.Intensity)
}

func TestIntersect_ChainOrderMatters(t *testing.T) {
	sig := core.DefaultSignalConfig()
	chain := DefaultChain()
	swapped := DefaultChain()
	i, j := indexOf(t, swapped, StepPulseLength), indexOf(t, swapped, StepNoiseFloor)
	swapped[i], swapped[j] = swapped[j], swapped[i]

	a := IntersectWith(chain, origin, referenceVolume(), 15, 7.5, 1000, sig)
	b := IntersectWith(swapped, origin, referenceVolume(), 15, 7.5, 1000, sig)

	assert.InDelta(t, 0.0386992, b.Intensity, 1e-6)
	assert.Greater(t, math.Abs(a.Intensity-b.Intensity), 1e-3)
}

func TestIntersect_AveragingBlendsWithHistory(t *testing.T) {
	sig := core.DefaultSignalConfig()
	sig.EchoAveraging = 1
	v := referenceVolume()
	v.RunningAverage = 0.2

	res := intersectDefault(v, sig)
	assert.InDelta(t, 0.5*0.041074274333660794+0.5*0.2, res.Intensity, 1e-6)
	assert.InDelta(t, res.Intensity, v.RunningAverage, 1e-12)
}

func TestIntersect_NoiseFloorHaltsChain(t *testing.T) {
	sig := core.DefaultSignalConfig()
	sig.NoiseLimiter = 20 // threshold 1
	v := referenceVolume()
	v.RunningAverage = 0.3
	sig.BeamwidthMode = core.BeamNarrow

	res := intersectDefault(v, sig)
	assert.Zero(t, res.Intensity)
	assert.Equal(t, 0.3, v.RunningAverage, "average untouched once halted")
	assert.InDelta(t, 0.7*math.Atan(50.0/600), res.AngularHalfWidthRad, 1e-9, "geometry stages still run")
	assert.InDelta(t, 14.9444, res.RadialExtentMeters, 1e-3)
}

func TestIntersect_BlobGeometryIndependentOfDetection(t *testing.T) {
	sig := core.DefaultSignalConfig()
	sig.BeamwidthMode = core.BeamWide

	detected := intersectDefault(referenceVolume(), sig)
	require.Greater(t, detected.Intensity, 0.0)

	outOfRange := Intersect(origin, referenceVolume(), 15, 7.5, 500, sig)
	assert.Zero(t, outOfRange.Intensity)
	assert.InDelta(t, detected.AngularHalfWidthRad, outOfRange.AngularHalfWidthRad, 1e-12)
	assert.InDelta(t, detected.RadialExtentMeters, outOfRange.RadialExtentMeters, 1e-12)

	noOverlap := Intersect(origin, referenceVolume(), 80, 5, 1000, sig)
	assert.False(t, noOverlap.Overlap)
	assert.InDelta(t, detected.AngularHalfWidthRad, noOverlap.AngularHalfWidthRad, 1e-12)
	assert.InDelta(t, detected.RadialExtentMeters, noOverlap.RadialExtentMeters, 1e-12)
}

func TestTick_GeodesicMotion(t *testing.T) {
	cfg := DefaultTargetConfig()
	cfg.CourseDeg = 90
	cfg.SpeedKnots = 10
	v := NewTargetVolume(cfg)

	v.Tick(0, origin)
	start := v.Center
	v.Tick(60, origin)

	moved := 10 * geo.KnotsToMetersPerSecond * 60
	assert.InDelta(t, moved, geo.DistanceMeters(start, v.Center), 1e-6)
	assert.InDelta(t, 90, geo.InitialBearingDeg(start, v.Center), 1e-3)
	assert.InDelta(t, moved, v.LocalX, 0.5)
	assert.InDelta(t, 600, v.LocalY, 0.5)
}

func TestTick_PlanarMotionWithoutFix(t *testing.T) {
	cfg := DefaultTargetConfig()
	cfg.CourseDeg = 90
	cfg.SpeedKnots = 10
	v := NewTargetVolume(cfg)

	// heading east, target steaming east: straight up the heading axis
	noFix := core.ShipPose{HeadingDeg: 90}
	v.Tick(100, noFix)

	moved := 10 * geo.KnotsToMetersPerSecond * 100
	assert.False(t, v.Anchored)
	assert.InDelta(t, 0, v.LocalX, 1e-9)
	assert.InDelta(t, 600+moved, v.LocalY, 1e-9)
}

func TestTick_FixLossDropsAnchor(t *testing.T) {
	v := referenceVolume()
	require.True(t, v.Anchored)

	v.Tick(1, core.ShipPose{})
	assert.False(t, v.Anchored)

	v.Tick(1, origin)
	assert.True(t, v.Anchored)
	assert.InDelta(t, 600, geo.DistanceMeters(origin.Position, v.Center), 1e-6)
}

func TestNewTargetVolume_DefaultsReflectivity(t *testing.T) {
	v := NewTargetVolume(TargetConfig{RangeMeters: 100, Top: 1, Bottom: 2})
	assert.Equal(t, 1.0, v.Reflectivity)
	assert.Equal(t, 1.5, v.CenterDepth)
}

func indexOf(t *testing.T, chain []Step, name string) int {
	t.Helper()
	for i, s := range chain {
		if s.Name == name {
			return i
		}
	}
	t.Fatalf("step %q not in chain", name)
	return -1
}
