// internal/storage/memory/memory.go
package memory

import (
	"sync"
	"time"

	"github.com/OCAP2/sonar-trainer/internal/config"
	"github.com/OCAP2/sonar-trainer/internal/debrief"
	"github.com/OCAP2/sonar-trainer/pkg/core"
)

// Backend keeps a session in memory and exports it to JSON when it ends
type Backend struct {
	cfg     config.MemoryConfig
	session *core.Session

	frames     []core.FrameRecord
	markEvents []core.MarkEvent
	track      []core.TrackSample

	summary        core.DebriefSummary
	hasSummary     bool
	lastExportPath string
	now            func() time.Time

	mu sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg: cfg,
		now: time.Now,
	}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartSession begins recording a new session and drops anything left from
// the previous one.
func (b *Backend) StartSession(s *core.Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.session = s
	b.frames = nil
	b.markEvents = nil
	b.track = nil
	b.hasSummary = false

	return nil
}

// EndSession computes the debrief summary and exports the session
func (b *Backend) EndSession() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return core.ErrNoSession
	}

	points := make([]core.GeoPoint, len(b.track))
	for i, s := range b.track {
		points[i] = s.Position
	}
	b.summary = debrief.Summarize(b.session.ID, b.frames, b.markEvents, points)
	b.hasSummary = true

	err := b.exportJSON()
	b.session = nil
	return err
}

// RecordFrame stores one frame
func (b *Backend) RecordFrame(f *core.FrameRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return core.ErrNoSession
	}
	b.frames = append(b.frames, *f)
	return nil
}

// RecordMarkEvent stores a mark lifecycle event
func (b *Backend) RecordMarkEvent(e *core.MarkEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return core.ErrNoSession
	}
	b.markEvents = append(b.markEvents, *e)
	return nil
}

// RecordTrackSample stores a track point
func (b *Backend) RecordTrackSample(s *core.TrackSample) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session == nil {
		return core.ErrNoSession
	}
	b.track = append(b.track, *s)
	return nil
}

// GetExportedFilePath returns the path of the last exported file, or "" if
// nothing has been exported yet.
func (b *Backend) GetExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}

// GetSummary returns the summary of the last ended session.
func (b *Backend) GetSummary() (core.DebriefSummary, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.summary, b.hasSummary
}
