package monitor

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// FrameSample is what the frame loop reports once per frame
type FrameSample struct {
	Fix         bool
	Overlap     bool
	Intensity   float64
	Marks       int
	Promoted    int
	TrackMeters float64
	Duration    time.Duration
}

// Collector bundles the trainer's Prometheus metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	Frames        *prometheus.CounterVec
	FrameDuration prometheus.Histogram
	Intensity     prometheus.Histogram
	Promotions    prometheus.Counter
	Marks         prometheus.Gauge
	TrackMeters   prometheus.Gauge
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil. Registering twice on the same registry reuses the
// existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	frames, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sonar_frames_total",
		Help: "Frames processed, labeled by navigation fix state.",
	}, []string{"fix"}), "sonar_frames_total")
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sonar_frame_duration_seconds",
		Help:    "Time spent in the frame pipeline.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	}), "sonar_frame_duration_seconds")
	if err != nil {
		return nil, err
	}

	intensity, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sonar_echo_intensity",
		Help:    "Echo intensity of frames where the beam overlapped the target.",
		Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
	}), "sonar_echo_intensity")
	if err != nil {
		return nil, err
	}

	promotions, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sonar_marks_promoted_total",
		Help: "Screen-anchored marks promoted to geodetic marks.",
	}), "sonar_marks_promoted_total")
	if err != nil {
		return nil, err
	}

	marks, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sonar_marks",
		Help: "Current number of operator marks.",
	}), "sonar_marks")
	if err != nil {
		return nil, err
	}

	track, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sonar_track_meters",
		Help: "Length of the retained own-ship track.",
	}), "sonar_track_meters")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:      gatherer,
		Frames:        frames,
		FrameDuration: duration,
		Intensity:     intensity,
		Promotions:    promotions,
		Marks:         marks,
		TrackMeters:   track,
	}, nil
}

// ObserveFrame records one frame. Safe to call on a nil Collector.
func (c *Collector) ObserveFrame(s FrameSample) {
	if c == nil {
		return
	}
	c.Frames.WithLabelValues(strconv.FormatBool(s.Fix)).Inc()
	c.FrameDuration.Observe(s.Duration.Seconds())
	if s.Overlap {
		c.Intensity.Observe(s.Intensity)
	}
	if s.Promoted > 0 {
		c.Promotions.Add(float64(s.Promoted))
	}
	c.Marks.Set(float64(s.Marks))
	c.TrackMeters.Set(s.TrackMeters)
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return c, nil
}
