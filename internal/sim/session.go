// Package sim runs the trainer frame loop. A Session owns the mark list,
// the wake and the target volume and is their only writer; operator input
// reaches it through a queue drained at the start of every frame.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/OCAP2/sonar-trainer/internal/echo"
	"github.com/OCAP2/sonar-trainer/internal/kinematics"
	"github.com/OCAP2/sonar-trainer/internal/logging"
	"github.com/OCAP2/sonar-trainer/internal/marker"
	"github.com/OCAP2/sonar-trainer/internal/monitor"
	"github.com/OCAP2/sonar-trainer/internal/queue"
	"github.com/OCAP2/sonar-trainer/internal/storage"
	"github.com/OCAP2/sonar-trainer/internal/track"
	"github.com/OCAP2/sonar-trainer/pkg/core"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// DefaultHoverRadius is the hit radius in pixels used when Settings leaves
// it unset.
const DefaultHoverRadius = 8.0

// MaxPendingInputs bounds the inputs waiting for the next frame. The oldest
// are discarded first.
const MaxPendingInputs = 256

// ErrNotStarted is returned by Step and End before Start.
var ErrNotStarted = errors.New("session not started")

// FrameWriter receives every frame record, e.g. the influx telemetry sink.
type FrameWriter interface {
	WriteFrame(rec core.FrameRecord) error
}

// Settings are the per-run parameters.
type Settings struct {
	Name        string
	Trainee     string
	AppVersion  string
	FrameMillis int64
	Sensor      core.SensorConfig
	Track       track.Config
	Target      echo.TargetConfig
	HoverRadius float64
}

// Dependencies are the optional collaborators of a Session. Nil members are
// skipped.
type Dependencies struct {
	Logger    *slog.Logger
	Storage   storage.Backend
	Metrics   *monitor.Collector
	Telemetry FrameWriter
	Tracer    trace.Tracer
}

// Frame is what one Step exposes to the presentation layer.
type Frame struct {
	Number      uint
	Pose        core.ShipPose
	Marks       []core.Marker
	HoveredID   uint
	Promoted    []core.Marker
	Track       []core.GeoPoint
	TrackScreen [][]core.ScreenPos
	Echo        core.EchoResult
	Stats       kinematics.Stats
	StatsErr    error
}

type cursor struct {
	x, y  float64
	valid bool
}

// Session is the explicit state carried from frame to frame.
type Session struct {
	id       string
	settings Settings
	deps     Dependencies

	inputs *queue.Queue[core.Input]

	navMu sync.RWMutex
	nav   core.NavSnapshot

	mu       sync.RWMutex
	started  bool
	frame    uint
	lastTime time.Time
	prevFix  bool
	cursor   cursor
	marks    *marker.Store
	wake     *track.Recorder
	volume   *echo.TargetVolume
	last     Frame
}

// New creates a session with a fresh id. Nothing is recorded until Start.
func New(settings Settings, deps Dependencies) *Session {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Tracer == nil {
		deps.Tracer = tracenoop.NewTracerProvider().Tracer("")
	}
	if settings.HoverRadius <= 0 {
		settings.HoverRadius = DefaultHoverRadius
	}
	return &Session{
		id:       uuid.NewString(),
		settings: settings,
		deps:     deps,
		inputs:   queue.NewBounded[core.Input](MaxPendingInputs),
		marks:    marker.NewStore(),
		wake:     track.NewRecorder(settings.Track),
		volume:   echo.NewTargetVolume(settings.Target),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Start opens the session in the storage backend.
func (s *Session) Start(ctx context.Context, startTime time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deps.Storage != nil {
		err := s.deps.Storage.StartSession(&core.Session{
			ID:          s.id,
			Name:        s.settings.Name,
			Trainee:     s.settings.Trainee,
			StartTime:   startTime,
			Sensor:      s.settings.Sensor,
			AppVersion:  s.settings.AppVersion,
			FrameMillis: s.settings.FrameMillis,
		})
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
	}

	s.started = true
	s.lastTime = startTime
	s.deps.Logger.InfoContext(ctx, "Session started", "session", s.id, "name", s.settings.Name)
	return nil
}

// End closes the session in the storage backend.
func (s *Session) End(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrNotStarted
	}
	s.started = false

	if s.deps.Storage != nil {
		if err := s.deps.Storage.EndSession(); err != nil {
			return fmt.Errorf("failed to end session: %w", err)
		}
	}

	s.deps.Logger.InfoContext(ctx, "Session ended", "session", s.id, "frames", s.frame)
	return nil
}

// Submit queues an operator input for the next frame. Safe for concurrent
// use.
func (s *Session) Submit(in core.Input) {
	if dropped := s.inputs.Push(in); dropped > 0 {
		s.deps.Logger.Warn("Input queue full, dropped oldest inputs", "dropped", dropped, "kind", in.Kind)
	}
}

// SetNav replaces the navigation snapshot used by the next frame. Safe for
// concurrent use.
func (s *Session) SetNav(nav core.NavSnapshot) {
	s.navMu.Lock()
	s.nav = nav
	s.navMu.Unlock()
}

// SetSensor swaps the sensor configuration from the next frame on.
func (s *Session) SetSensor(cfg core.SensorConfig) {
	s.mu.Lock()
	s.settings.Sensor = cfg
	s.mu.Unlock()
}

func (s *Session) latestNav() core.NavSnapshot {
	s.navMu.RLock()
	defer s.navMu.RUnlock()
	return s.nav
}

// Last returns the most recent frame.
func (s *Session) Last() Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Snapshot reports the session state for the status monitor.
func (s *Session) Snapshot() monitor.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return monitor.Status{
		SessionID:   s.id,
		Frame:       s.frame,
		Fix:         s.prevFix,
		Marks:       s.marks.Len(),
		TrackPoints: s.wake.Len(),
		Intensity:   s.last.Echo.Intensity,
		InputQueue:  s.inputs.Len(),
		UpdatedAt:   s.lastTime,
	}
}

// Step advances the simulation to now.
func (s *Session) Step(ctx context.Context, now time.Time) (Frame, error) {
	started := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return Frame{}, ErrNotStarted
	}

	s.frame++
	pose := s.latestNav().Pose()
	nowMs := now.UnixMilli()
	dt := now.Sub(s.lastTime).Seconds()
	s.lastTime = now
	cfg := s.settings.Sensor

	ctx = logging.WithAttrs(ctx,
		slog.String("session", s.id),
		slog.Uint64("frame", uint64(s.frame)),
		slog.Bool("fix", pose.HasFix()),
	)
	ctx, span := s.deps.Tracer.Start(ctx, "sonar.frame", trace.WithAttributes(
		attribute.Int64("frame", int64(s.frame)),
		attribute.Bool("fix", pose.HasFix()),
	))
	defer span.End()

	f := Frame{Number: s.frame, Pose: pose}

	if pose.HasFix() && !s.prevFix {
		f.Promoted = s.marks.PromoteScreenToGeo(pose)
		for _, m := range f.Promoted {
			s.recordMark(ctx, now, core.MarkPromoted, m)
		}
		if len(f.Promoted) > 0 {
			s.deps.Logger.InfoContext(ctx, "Promoted screen marks", "count", len(f.Promoted))
		}
	}
	s.prevFix = pose.HasFix()

	s.applyInputs(ctx, now, pose, cfg)

	s.marks.RefreshScreenPositions(pose, cfg)
	if s.cursor.valid {
		f.HoveredID, _ = s.marks.UpdateHover(s.cursor.x, s.cursor.y, s.settings.HoverRadius)
	}

	if s.wake.Tick(pose, nowMs) {
		s.recordTrack(ctx, now, pose.Position)
	}
	f.Track = s.wake.Points()
	f.TrackScreen = s.wake.ScreenPolyline(pose, cfg)

	s.volume.Tick(dt, pose)
	f.Echo = echo.Intersect(pose, s.volume, cfg.TiltDeg, cfg.BeamHalfWidthDeg, cfg.MaxRangeMeters(), cfg.Signal)

	f.Marks = s.marks.Markers()
	f.Stats, f.StatsErr = kinematics.PairStats(f.Marks, pose, cfg)

	rec := core.FrameRecord{
		SessionID: s.id,
		Frame:     s.frame,
		Time:      now,
		Ship:      pose,
		Echo:      f.Echo,
		MarkCount: len(f.Marks),
	}
	if s.deps.Storage != nil {
		if err := s.deps.Storage.RecordFrame(&rec); err != nil {
			s.deps.Logger.ErrorContext(ctx, "Failed to record frame", "error", err)
		}
	}
	if s.deps.Telemetry != nil {
		if err := s.deps.Telemetry.WriteFrame(rec); err != nil {
			s.deps.Logger.ErrorContext(ctx, "Failed to write telemetry", "error", err)
		}
	}

	s.deps.Metrics.ObserveFrame(monitor.FrameSample{
		Fix:         pose.HasFix(),
		Overlap:     f.Echo.Overlap,
		Intensity:   f.Echo.Intensity,
		Marks:       len(f.Marks),
		Promoted:    len(f.Promoted),
		TrackMeters: s.wake.Length(),
		Duration:    time.Since(started),
	})
	span.SetAttributes(
		attribute.Bool("echo.overlap", f.Echo.Overlap),
		attribute.Float64("echo.intensity", f.Echo.Intensity),
		attribute.Int("marks", len(f.Marks)),
	)

	s.last = f
	return f, nil
}

func (s *Session) applyInputs(ctx context.Context, now time.Time, pose core.ShipPose, cfg core.SensorConfig) {
	for _, in := range s.inputs.GetAndEmpty() {
		switch in.Kind {
		case core.InputMark:
			m, ok := s.marks.Add(pose, in.DX, in.DY, cfg, now.UnixMilli())
			if !ok {
				s.deps.Logger.WarnContext(ctx, "Mark ignored, display scale is degenerate")
				continue
			}
			s.recordMark(ctx, now, core.MarkCreated, m)
		case core.InputHover:
			s.cursor = cursor{x: in.X, y: in.Y, valid: true}
			// hover tests against positions drawn this frame
			s.marks.RefreshScreenPositions(pose, cfg)
			s.marks.UpdateHover(in.X, in.Y, s.settings.HoverRadius)
		case core.InputDelete:
			var (
				m  core.Marker
				ok bool
			)
			if in.ID == 0 {
				m, ok = s.marks.DeleteHovered()
			} else {
				m, ok = s.marks.Delete(in.ID)
			}
			if !ok {
				s.deps.Logger.DebugContext(ctx, "Nothing to delete", "id", in.ID)
				continue
			}
			s.recordMark(ctx, now, core.MarkDeleted, m)
		case core.InputClear:
			for _, m := range s.marks.Markers() {
				s.recordMark(ctx, now, core.MarkDeleted, m)
			}
			s.marks.Clear()
		default:
			s.deps.Logger.WarnContext(ctx, "Unknown input", "kind", in.Kind.String())
		}
	}
}

func (s *Session) recordMark(ctx context.Context, now time.Time, kind core.MarkEventKind, m core.Marker) {
	if s.deps.Storage == nil {
		return
	}
	err := s.deps.Storage.RecordMarkEvent(&core.MarkEvent{
		SessionID: s.id,
		Frame:     s.frame,
		Time:      now,
		Kind:      kind,
		Marker:    m,
	})
	if err != nil {
		s.deps.Logger.ErrorContext(ctx, "Failed to record mark event", "kind", kind, "error", err)
	}
}

func (s *Session) recordTrack(ctx context.Context, now time.Time, p core.GeoPoint) {
	if s.deps.Storage == nil {
		return
	}
	err := s.deps.Storage.RecordTrackSample(&core.TrackSample{
		SessionID: s.id,
		Frame:     s.frame,
		Time:      now,
		Position:  p,
	})
	if err != nil {
		s.deps.Logger.ErrorContext(ctx, "Failed to record track sample", "error", err)
	}
}
