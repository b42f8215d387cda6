package echo

import (
	"math"

	"github.com/OCAP2/sonar-trainer/pkg/core"
)

// Context is the state folded through the signal chain.
type Context struct {
	Intensity        float64
	NormRange        float64
	SlantRange       float64
	AngularHalfWidth float64
	RadialExtent     float64
	// Average is the running echo average before the averaging step and
	// the updated one after it.
	Average float64
	Halted  bool
	Signal  core.SignalConfig
}

// Step is one named receiver stage. Shape, when set, is the part of the
// stage that changes blob geometry; it still runs after the chain halts.
type Step struct {
	Name  string
	Apply func(Context) Context
	Shape func(Context) Context
}

// Step names
const (
	StepTxPower       = "txPower"
	StepNearTVG       = "nearTvg"
	StepFarTVG        = "farTvg"
	StepAGC1          = "agc1"
	StepAGC2          = "agc2"
	StepPulseLength   = "pulseLength"
	StepNoiseFloor    = "noiseFloor"
	StepInterference  = "interferenceReject"
	StepAveraging     = "echoAveraging"
	StepBeamwidth     = "beamwidthMode"
	StepColorCurve    = "colorCurve"
	StepColorResponse = "colorResponse"
	StepColorErase    = "colorErase"
)

var (
	averagingWeights = [...]float64{1, 0.5, 0.25, 0.125}
	gammaCurves      = [...]float64{1.0, 0.8, 1.2, 1.5}
)

// DefaultChain returns the receiver stages in the order the hardware
// applies them. Order changes the output.
func DefaultChain() []Step {
	return []Step{
		{StepTxPower, txPower, nil},
		{StepNearTVG, nearTVG, nil},
		{StepFarTVG, farTVG, nil},
		{StepAGC1, agc1, nil},
		{StepAGC2, agc2, nil},
		{StepPulseLength, pulseLength, pulseWidening},
		{StepNoiseFloor, noiseFloor, nil},
		{StepInterference, interferenceReject, nil},
		{StepAveraging, echoAveraging, nil},
		{StepBeamwidth, beamwidthMode, beamwidthMode},
		{StepColorCurve, colorCurve, nil},
		{StepColorResponse, colorResponse, nil},
		{StepColorErase, colorErase, nil},
	}
}

// Run folds ctx through chain. Once a step halts it, only the Shape of the
// remaining steps runs.
func Run(chain []Step, ctx Context) Context {
	for _, s := range chain {
		if !ctx.Halted {
			ctx = s.Apply(ctx)
			continue
		}
		if s.Shape != nil {
			ctx = s.Shape(ctx)
		}
	}
	return ctx
}

func clampLevel(level, n int) int {
	if level < 0 {
		return 0
	}
	if level >= n {
		return n - 1
	}
	return level
}

func txPower(c Context) Context {
	c.Intensity *= c.Signal.TxPower / 10
	return c
}

func nearTVG(c Context) Context {
	c.Intensity *= 1 - (c.Signal.NearTVG/12)*math.Exp(-8*c.NormRange)
	return c
}

func farTVG(c Context) Context {
	c.Intensity *= 1 + (c.Signal.FarTVG/5)*c.NormRange*c.NormRange
	return c
}

func agc1(c Context) Context {
	c.Intensity *= 0.8 + c.Signal.AGC1/5
	return c
}

func agc2(c Context) Context {
	c.Intensity *= 0.9 + c.Signal.AGC2/10
	return c
}

func pulseLength(c Context) Context {
	c.Intensity *= 1 + c.Signal.PulseLength/20
	return pulseWidening(c)
}

func pulseWidening(c Context) Context {
	c.RadialExtent += (c.Signal.PulseLength / 10) * 40
	return c
}

func noiseFloor(c Context) Context {
	threshold := c.Signal.NoiseLimiter / 20
	if c.Intensity < threshold {
		c.Intensity = 0
		c.Halted = true
		return c
	}
	c.Intensity -= threshold / 2
	return c
}

func interferenceReject(c Context) Context {
	c.Intensity *= 1 - c.Signal.InterferenceReject*0.05
	return c
}

func echoAveraging(c Context) Context {
	w := averagingWeights[clampLevel(c.Signal.EchoAveraging, len(averagingWeights))]
	c.Intensity = w*c.Intensity + (1-w)*c.Average
	c.Average = c.Intensity
	return c
}

func beamwidthMode(c Context) Context {
	switch {
	case c.Signal.BeamwidthMode <= core.BeamNarrow:
		c.AngularHalfWidth *= 0.7
	case c.Signal.BeamwidthMode >= core.BeamWide:
		c.AngularHalfWidth *= 1.2
	}
	return c
}

func colorCurve(c Context) Context {
	gamma := gammaCurves[clampLevel(c.Signal.ColorCurve, len(gammaCurves))]
	if c.Intensity > 0 {
		c.Intensity = math.Pow(c.Intensity, gamma)
	}
	return c
}

func colorResponse(c Context) Context {
	if level := c.Signal.ColorResponse; level > 1 {
		c.Intensity *= 1 + float64(level-1)*0.1
	}
	return c
}

func colorErase(c Context) Context {
	if c.Intensity < float64(c.Signal.ColorErase)*0.02 {
		c.Intensity = 0
	}
	return c
}
