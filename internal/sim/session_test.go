package sim

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/OCAP2/sonar-trainer/internal/dispatcher"
	"github.com/OCAP2/sonar-trainer/internal/echo"
	"github.com/OCAP2/sonar-trainer/internal/kinematics"
	"github.com/OCAP2/sonar-trainer/internal/monitor"
	"github.com/OCAP2/sonar-trainer/internal/parser"
	"github.com/OCAP2/sonar-trainer/internal/track"
	"github.com/OCAP2/sonar-trainer/pkg/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeBackend struct {
	mu      sync.Mutex
	started []*core.Session
	ended   int
	frames  []core.FrameRecord
	events  []core.MarkEvent
	samples []core.TrackSample
	failOn  string
}

func (b *fakeBackend) Init() error  { return nil }
func (b *fakeBackend) Close() error { return nil }

func (b *fakeBackend) StartSession(s *core.Session) error {
	if b.failOn == "start" {
		return errors.New("boom")
	}
	b.started = append(b.started, s)
	return nil
}

func (b *fakeBackend) EndSession() error {
	b.ended++
	return nil
}

func (b *fakeBackend) RecordFrame(f *core.FrameRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failOn == "frame" {
		return errors.New("boom")
	}
	b.frames = append(b.frames, *f)
	return nil
}

func (b *fakeBackend) RecordMarkEvent(e *core.MarkEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, *e)
	return nil
}

func (b *fakeBackend) RecordTrackSample(s *core.TrackSample) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = append(b.samples, *s)
	return nil
}

func (b *fakeBackend) kinds() []core.MarkEventKind {
	var out []core.MarkEventKind
	for _, e := range b.events {
		out = append(out, e.Kind)
	}
	return out
}

type fakeTelemetry struct {
	frames []core.FrameRecord
}

func (f *fakeTelemetry) WriteFrame(rec core.FrameRecord) error {
	f.frames = append(f.frames, rec)
	return nil
}

func fix(lat, lon, heading float64) core.NavSnapshot {
	return core.NavSnapshot{Lat: &lat, Lon: &lon, HeadingDeg: heading, FixValid: true}
}

func noFix(heading float64) core.NavSnapshot {
	return core.NavSnapshot{HeadingDeg: heading}
}

func testSettings() Settings {
	return Settings{
		Name:   "drill",
		Sensor: core.DefaultSensorConfig(),
		Track:  track.DefaultConfig(),
		Target: echo.DefaultTargetConfig(),
	}
}

func newStarted(t *testing.T, deps Dependencies) (*Session, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{}
	deps.Storage = backend
	s := New(testSettings(), deps)
	require.NoError(t, s.Start(context.Background(), t0))
	return s, backend
}

func step(t *testing.T, s *Session, n int) Frame {
	t.Helper()
	f, err := s.Step(context.Background(), t0.Add(time.Duration(n)*time.Second))
	require.NoError(t, err)
	return f
}

func TestStep_BeforeStart(t *testing.T) {
	s := New(testSettings(), Dependencies{})
	_, err := s.Step(context.Background(), t0)
	assert.ErrorIs(t, err, ErrNotStarted)
	assert.ErrorIs(t, s.End(context.Background()), ErrNotStarted)
}

func TestStart_StorageError(t *testing.T) {
	s := New(testSettings(), Dependencies{Storage: &fakeBackend{failOn: "start"}})
	assert.ErrorContains(t, s.Start(context.Background(), t0), "failed to start session")
}

func TestStart_RecordsSession(t *testing.T) {
	s, backend := newStarted(t, Dependencies{})

	require.Len(t, backend.started, 1)
	assert.Equal(t, s.ID(), backend.started[0].ID)
	assert.Equal(t, "drill", backend.started[0].Name)
	assert.Equal(t, core.DefaultSensorConfig(), backend.started[0].Sensor)
}

func TestStep_ScreenMarkPromotedOnFix(t *testing.T) {
	s, backend := newStarted(t, Dependencies{})

	s.SetNav(noFix(0))
	s.Submit(core.Input{Kind: core.InputMark, DX: 50, DY: 0})
	f := step(t, s, 1)
	require.Len(t, f.Marks, 1)
	assert.Equal(t, core.AnchorScreen, f.Marks[0].Anchor.Mode)
	assert.Empty(t, f.Promoted)

	s.SetNav(fix(43, 5, 90))
	f = step(t, s, 2)
	require.Len(t, f.Promoted, 1)
	assert.Equal(t, core.AnchorGeo, f.Marks[0].Anchor.Mode)

	f = step(t, s, 3)
	assert.Empty(t, f.Promoted, "promotion happens once per fix acquisition")

	assert.Equal(t, []core.MarkEventKind{core.MarkCreated, core.MarkPromoted}, backend.kinds())
	assert.Equal(t, uint(2), backend.events[1].Frame)
}

func TestStep_HoverAndDeleteHovered(t *testing.T) {
	s, backend := newStarted(t, Dependencies{})
	s.SetNav(noFix(0))

	s.Submit(core.Input{Kind: core.InputMark, DX: 50, DY: 0})
	f := step(t, s, 1)
	require.True(t, f.Marks[0].Screen.Visible)
	assert.InDelta(t, 250.0, f.Marks[0].Screen.X, 1e-6)
	assert.InDelta(t, 200.0, f.Marks[0].Screen.Y, 1e-6)

	s.Submit(core.Input{Kind: core.InputHover, X: 253, Y: 201})
	f = step(t, s, 2)
	assert.Equal(t, f.Marks[0].ID, f.HoveredID)
	assert.True(t, f.Marks[0].Hovered)

	s.Submit(core.Input{Kind: core.InputDelete})
	f = step(t, s, 3)
	assert.Empty(t, f.Marks)
	assert.Equal(t, []core.MarkEventKind{core.MarkCreated, core.MarkDeleted}, backend.kinds())
}

func TestStep_DeleteUnknownID(t *testing.T) {
	s, backend := newStarted(t, Dependencies{})
	s.Submit(core.Input{Kind: core.InputDelete, ID: 42})
	step(t, s, 1)
	assert.Empty(t, backend.events)
}

func TestStep_Clear(t *testing.T) {
	s, backend := newStarted(t, Dependencies{})
	s.SetNav(fix(0, 0, 0))

	for i := 0; i < 3; i++ {
		s.Submit(core.Input{Kind: core.InputMark, DX: float64(10 * (i + 1)), DY: -20})
	}
	f := step(t, s, 1)
	require.Len(t, f.Marks, 3)
	assert.Equal(t, []core.ShapeKind{core.ShapeCross, core.ShapeDiamond, core.ShapeDiamond},
		[]core.ShapeKind{f.Marks[0].Shape, f.Marks[1].Shape, f.Marks[2].Shape})

	s.Submit(core.Input{Kind: core.InputClear})
	f = step(t, s, 2)
	assert.Empty(t, f.Marks)
	assert.Len(t, backend.events, 6)
}

func TestStep_DegenerateScaleIgnoresMark(t *testing.T) {
	settings := testSettings()
	settings.Sensor.MaxRange = 0
	s := New(settings, Dependencies{})
	require.NoError(t, s.Start(context.Background(), t0))

	s.Submit(core.Input{Kind: core.InputMark, DX: 10, DY: 10})
	f := step(t, s, 1)
	assert.Empty(t, f.Marks)
}

func TestStep_TrackAndFrames(t *testing.T) {
	s, backend := newStarted(t, Dependencies{})

	lat := 0.0
	for i := 1; i <= 11; i++ {
		s.SetNav(fix(lat, 0, 0))
		step(t, s, i)
		lat += 0.0001
	}

	// first frame plus every 5 s
	assert.Len(t, backend.samples, 3)
	assert.Len(t, backend.frames, 11)
	assert.Equal(t, uint(11), backend.frames[10].Frame)
	assert.Equal(t, s.ID(), backend.frames[0].SessionID)

	s.SetNav(noFix(0))
	f := step(t, s, 12)
	assert.Empty(t, f.Track, "losing the fix clears the wake")
	assert.Nil(t, f.TrackScreen)
}

func TestStep_EchoFromDefaultTarget(t *testing.T) {
	s, _ := newStarted(t, Dependencies{})
	s.SetNav(fix(0, 0, 0))

	f := step(t, s, 1)
	assert.InDelta(t, 600.0, f.Echo.HorizontalRangeMeters, 0.5)
	assert.InDelta(t, 0.0, f.Echo.RelativeBearingDeg, 0.01)
	assert.GreaterOrEqual(t, f.Echo.Intensity, 0.0)
	assert.LessOrEqual(t, f.Echo.Intensity, 1.0)
}

func TestStep_KinematicsFromTwoMarks(t *testing.T) {
	s, _ := newStarted(t, Dependencies{})
	s.SetNav(fix(0, 0, 0))

	f := step(t, s, 1)
	assert.ErrorIs(t, f.StatsErr, kinematics.ErrNoMarkers)

	s.Submit(core.Input{Kind: core.InputMark, DX: 0, DY: -100})
	step(t, s, 2)
	s.Submit(core.Input{Kind: core.InputMark, DX: 0, DY: -120})
	f = step(t, s, 12)

	require.NoError(t, f.StatsErr)
	assert.True(t, f.Stats.HasPair)
	// 20 px at 5 m/px over 10 s
	assert.InDelta(t, 100.0, f.Stats.PairDistanceMeter, 0.5)
	assert.InDelta(t, 10.0, f.Stats.ElapsedSeconds, 1e-9)
	assert.InDelta(t, 0.0, f.Stats.CourseDeg, 0.01)
}

func TestStep_MetricsAndTelemetry(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := monitor.NewCollector(reg)
	require.NoError(t, err)
	telemetry := &fakeTelemetry{}

	s, _ := newStarted(t, Dependencies{Metrics: collector, Telemetry: telemetry})
	s.SetNav(fix(0, 0, 0))
	step(t, s, 1)
	s.SetNav(noFix(0))
	step(t, s, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Frames.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Frames.WithLabelValues("false")))
	require.Len(t, telemetry.frames, 2)
	assert.True(t, telemetry.frames[0].Ship.FixValid)
}

func TestStep_StorageErrorDoesNotFailFrame(t *testing.T) {
	s := New(testSettings(), Dependencies{Storage: &fakeBackend{failOn: "frame"}})
	require.NoError(t, s.Start(context.Background(), t0))
	_, err := s.Step(context.Background(), t0.Add(time.Second))
	assert.NoError(t, err)
}

func TestSnapshot(t *testing.T) {
	s, _ := newStarted(t, Dependencies{})
	s.SetNav(fix(0, 0, 0))
	s.Submit(core.Input{Kind: core.InputMark, DX: 10, DY: 10})
	step(t, s, 1)
	s.Submit(core.Input{Kind: core.InputMark, DX: 20, DY: 10})

	st := s.Snapshot()
	assert.Equal(t, s.ID(), st.SessionID)
	assert.Equal(t, uint(1), st.Frame)
	assert.True(t, st.Fix)
	assert.Equal(t, 1, st.Marks)
	assert.Equal(t, 1, st.TrackPoints)
	assert.Equal(t, 1, st.InputQueue)
	assert.Equal(t, t0.Add(time.Second), st.UpdatedAt)
}

func TestEnd(t *testing.T) {
	s, backend := newStarted(t, Dependencies{})
	require.NoError(t, s.End(context.Background()))
	assert.Equal(t, 1, backend.ended)
	assert.ErrorIs(t, s.End(context.Background()), ErrNotStarted)
}

func TestRegisterCommands(t *testing.T) {
	s, _ := newStarted(t, Dependencies{})
	d, err := dispatcher.New(s.deps.Logger)
	require.NoError(t, err)
	defer d.Close()
	s.RegisterCommands(d, parser.NewParser(s.deps.Logger))

	pose, err := d.Dispatch(dispatcher.Event{Command: CmdNav, Args: []string{"43.1", "5.9", "90", "true"}})
	require.NoError(t, err)
	assert.True(t, pose.(core.ShipPose).FixValid)

	res, err := d.Dispatch(dispatcher.Event{Command: CmdMark, Args: []string{"0", "-50"}})
	require.NoError(t, err)
	assert.Equal(t, "queued", res)

	_, err = d.Dispatch(dispatcher.Event{Command: CmdMark, Args: []string{"x"}})
	assert.ErrorIs(t, err, parser.ErrInvalidArgs)

	f := step(t, s, 1)
	require.Len(t, f.Marks, 1)
	assert.Equal(t, core.AnchorGeo, f.Marks[0].Anchor.Mode)

	stats, err := d.Dispatch(dispatcher.Event{Command: CmdStats})
	require.NoError(t, err)
	assert.InDelta(t, 250.0, stats.(kinematics.Stats).RangeMeters, 0.5)

	res, err = d.Dispatch(dispatcher.Event{Command: CmdHover, Args: []string{"201", "151"}})
	require.NoError(t, err)
	assert.Equal(t, "queued", res)
	d.Sync()
	f = step(t, s, 2)
	assert.Equal(t, f.Marks[0].ID, f.HoveredID)

	_, err = d.Dispatch(dispatcher.Event{Command: CmdClear})
	require.NoError(t, err)
	f = step(t, s, 3)
	assert.Empty(t, f.Marks)
}

func TestSubmit_DropsOldestWhenFull(t *testing.T) {
	s, _ := newStarted(t, Dependencies{})
	s.SetNav(noFix(0))

	for i := 0; i < MaxPendingInputs+10; i++ {
		s.Submit(core.Input{Kind: core.InputMark, DX: 10, DY: 10})
	}
	assert.Equal(t, MaxPendingInputs, s.Snapshot().InputQueue)

	f := step(t, s, 1)
	assert.Len(t, f.Marks, MaxPendingInputs)
	assert.Zero(t, s.Snapshot().InputQueue)
}
