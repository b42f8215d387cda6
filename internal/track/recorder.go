// Package track records the own-ship wake as a pruned geodetic polyline.
package track

import (
	"time"

	"github.com/OCAP2/sonar-trainer/internal/geo"
	"github.com/OCAP2/sonar-trainer/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"gonum.org/v1/gonum/spatial/r2"
)

// Config controls sampling and retention
type Config struct {
	SampleInterval    time.Duration `json:"sampleInterval" mapstructure:"sampleInterval"`
	MaxDistanceMeters float64       `json:"maxDistance" mapstructure:"maxDistance"`
}

// DefaultConfig samples every 5 s and keeps 5 nautical miles.
func DefaultConfig() Config {
	return Config{
		SampleInterval:    5 * time.Second,
		MaxDistanceMeters: 5 * geo.NauticalMileMeters,
	}
}

// Recorder owns the wake polyline, oldest point first
type Recorder struct {
	cfg        Config
	points     []core.GeoPoint
	lastSample int64
}

// NewRecorder creates a Recorder
func NewRecorder(cfg Config) *Recorder {
	return &Recorder{cfg: cfg}
}

// SetConfig swaps the retention settings. The next appended sample prunes
// against the new maximum.
func (r *Recorder) SetConfig(cfg Config) {
	r.cfg = cfg
}

// Tick samples the pose. Losing the fix clears the wake. It returns true
// when a point was appended.
func (r *Recorder) Tick(pose core.ShipPose, nowMs int64) bool {
	if !pose.HasFix() {
		r.Clear()
		return false
	}
	if len(r.points) > 0 && nowMs-r.lastSample < r.cfg.SampleInterval.Milliseconds() {
		return false
	}
	r.points = append(r.points, pose.Position)
	r.lastSample = nowMs
	r.prune()
	return true
}

// prune walks back from the newest point and drops everything older than
// the first segment that pushes the running length past the maximum.
func (r *Recorder) prune() {
	if r.cfg.MaxDistanceMeters <= 0 {
		if len(r.points) > 1 {
			r.points = r.points[len(r.points)-1:]
		}
		return
	}
	var total float64
	for i := len(r.points) - 1; i > 0; i-- {
		total += geo.DistanceMeters(r.points[i-1], r.points[i])
		if total > r.cfg.MaxDistanceMeters {
			r.points = append([]core.GeoPoint(nil), r.points[i:]...)
			return
		}
	}
}

// Clear drops the whole wake
func (r *Recorder) Clear() {
	r.points = nil
	r.lastSample = 0
}

// Points returns a copy of the raw geodetic polyline
func (r *Recorder) Points() []core.GeoPoint {
	out := make([]core.GeoPoint, len(r.points))
	copy(out, r.points)
	return out
}

// Len returns the number of retained points
func (r *Recorder) Len() int {
	return len(r.points)
}

// Length returns the cumulative geodesic length in meters
func (r *Recorder) Length() float64 {
	return geo.PathLengthMeters(r.points)
}

// LineString returns the wake in lon/lat order
func (r *Recorder) LineString() (geom.LineString, error) {
	return geo.LineStringFromPoints(r.points)
}

// Mercator returns the wake in EPSG:3857
func (r *Recorder) Mercator() (geom.LineString, error) {
	return geo.MercatorLineString(r.points)
}

// ScreenPolyline projects the wake and clips it at the viewport edge. The
// current ship position closes the line so the wake reaches the center.
func (r *Recorder) ScreenPolyline(pose core.ShipPose, cfg core.SensorConfig) [][]core.ScreenPos {
	if !pose.HasFix() || len(r.points) == 0 {
		return nil
	}
	pts := make([]r2.Vec, 0, len(r.points)+1)
	for _, p := range r.points {
		v, ok := geo.ProjectUnclipped(pose, p, cfg)
		if !ok {
			return nil
		}
		pts = append(pts, v)
	}
	pts = append(pts, geo.Center(cfg))

	runs := geo.ClipPolyline(pts, geo.Center(cfg), cfg.ViewportRadiusPx)
	out := make([][]core.ScreenPos, 0, len(runs))
	for _, run := range runs {
		line := make([]core.ScreenPos, len(run))
		for i, v := range run {
			line[i] = core.VisibleAt(v.X, v.Y)
		}
		out = append(out, line)
	}
	return out
}
