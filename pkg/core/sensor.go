// pkg/core/sensor.go
package core

import "strings"

// RangeUnit is the unit the range setting is expressed in
type RangeUnit string

const (
	UnitMeters  RangeUnit = "m"
	UnitFeet    RangeUnit = "ft"
	UnitFathoms RangeUnit = "fm"
)

// MetersPer returns the size of one unit in meters. Unknown units are
// treated as meters.
func (u RangeUnit) MetersPer() float64 {
	switch u {
	case UnitFeet:
		return 0.3048
	case UnitFathoms:
		return 1.8288
	default:
		return 1
	}
}

// ParseRangeUnit accepts the short and long spellings used in config files.
func ParseRangeUnit(s string) RangeUnit {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ft", "feet", "foot":
		return UnitFeet
	case "fm", "fathom", "fathoms":
		return UnitFathoms
	default:
		return UnitMeters
	}
}

// SensorConfig is the display and beam geometry owned by the menu
// collaborator. It is read-only inside the core.
type SensorConfig struct {
	MaxRange         float64      `json:"maxRange" mapstructure:"maxRange"`
	Unit             RangeUnit    `json:"unit" mapstructure:"unit"`
	ViewportRadiusPx float64      `json:"viewportRadius" mapstructure:"viewportRadius"`
	CenterX          float64      `json:"centerX" mapstructure:"centerX"`
	CenterY          float64      `json:"centerY" mapstructure:"centerY"`
	TiltDeg          float64      `json:"tilt" mapstructure:"tilt"`
	BeamHalfWidthDeg float64      `json:"beamHalfWidth" mapstructure:"beamHalfWidth"`
	Signal           SignalConfig `json:"signal" mapstructure:"signal"`
}

// MaxRangeMeters converts MaxRange into meters.
func (c SensorConfig) MaxRangeMeters() float64 {
	return c.MaxRange * c.Unit.MetersPer()
}

// PixelsPerMeter is the linear display scale, zero for degenerate configs.
func (c SensorConfig) PixelsPerMeter() float64 {
	maxM := c.MaxRangeMeters()
	if maxM <= 0 || c.ViewportRadiusPx <= 0 {
		return 0
	}
	return c.ViewportRadiusPx / maxM
}

// SignalConfig holds the receiver controls applied to every echo.
type SignalConfig struct {
	TxPower            float64 `json:"txPower" mapstructure:"txPower"`
	NearTVG            float64 `json:"nearTvg" mapstructure:"nearTvg"`
	FarTVG             float64 `json:"farTvg" mapstructure:"farTvg"`
	AGC1               float64 `json:"agc1" mapstructure:"agc1"`
	AGC2               float64 `json:"agc2" mapstructure:"agc2"`
	PulseLength        float64 `json:"pulseLength" mapstructure:"pulseLength"`
	NoiseLimiter       float64 `json:"noiseLimiter" mapstructure:"noiseLimiter"`
	InterferenceReject float64 `json:"interferenceReject" mapstructure:"interferenceReject"`
	EchoAveraging      int     `json:"echoAveraging" mapstructure:"echoAveraging"`
	BeamwidthMode      int     `json:"beamwidthMode" mapstructure:"beamwidthMode"`
	ColorCurve         int     `json:"colorCurve" mapstructure:"colorCurve"`
	ColorResponse      int     `json:"colorResponse" mapstructure:"colorResponse"`
	ColorErase         int     `json:"colorErase" mapstructure:"colorErase"`
}

// Beamwidth modes
const (
	BeamNarrow = 0
	BeamNormal = 1
	BeamWide   = 2
)

// DefaultSignalConfig returns the receiver defaults.
func DefaultSignalConfig() SignalConfig {
	return SignalConfig{
		TxPower:            10,
		NearTVG:            3,
		FarTVG:             2,
		AGC1:               1,
		AGC2:               1,
		PulseLength:        2,
		NoiseLimiter:       1,
		InterferenceReject: 1,
		EchoAveraging:      0,
		BeamwidthMode:      BeamNormal,
		ColorCurve:         0,
		ColorResponse:      1,
		ColorErase:         1,
	}
}

// DefaultSensorConfig is a 1000 m scope on a 400 px viewport.
func DefaultSensorConfig() SensorConfig {
	return SensorConfig{
		MaxRange:         1000,
		Unit:             UnitMeters,
		ViewportRadiusPx: 200,
		CenterX:          200,
		CenterY:          200,
		TiltDeg:          15,
		BeamHalfWidthDeg: 7.5,
		Signal:           DefaultSignalConfig(),
	}
}
