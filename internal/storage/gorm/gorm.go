// Package gormstorage implements the storage.Backend interface on top of
// GORM with internal queues and a background DB writer goroutine. The
// SQLite and Postgres backends wrap it.
package gormstorage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/OCAP2/sonar-trainer/internal/debrief"
	"github.com/OCAP2/sonar-trainer/internal/model"
	"github.com/OCAP2/sonar-trainer/internal/model/convert"
	"github.com/OCAP2/sonar-trainer/internal/queue"
	"github.com/OCAP2/sonar-trainer/pkg/core"

	"gorm.io/gorm"
)

// DefaultFlushInterval is used when Dependencies.FlushInterval is unset.
const DefaultFlushInterval = 2 * time.Second

// Dependencies holds all dependencies for the GORM storage backend.
// A nil DB runs the backend in queue-only mode.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	FlushInterval time.Duration
}

// queues holds the write queues for batch DB insertion.
type queues struct {
	Frames       *queue.Queue[model.Frame]
	MarkEvents   *queue.Queue[model.MarkEvent]
	TrackSamples *queue.Queue[model.TrackSample]
}

func newQueues() *queues {
	return &queues{
		Frames:       queue.New[model.Frame](),
		MarkEvents:   queue.New[model.MarkEvent](),
		TrackSamples: queue.New[model.TrackSample](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps   Dependencies
	queues *queues

	mu         sync.RWMutex
	session    *core.Session
	summary    core.DebriefSummary
	hasSummary bool

	writeMu  sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	return &Backend{
		deps: deps,
	}
}

// Init creates internal queues and starts the DB writer goroutine. The
// schema must already be migrated.
func (b *Backend) Init() error {
	b.queues = newQueues()
	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})

	if b.deps.DB == nil {
		close(b.done)
		return nil
	}

	go b.writerLoop()
	return nil
}

// Close stops the writer goroutine after a final flush. Safe to call more
// than once and before Init.
func (b *Backend) Close() error {
	b.mu.Lock()
	stop := b.stopChan
	b.stopChan = nil
	b.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)
	<-b.done
	return nil
}

// DB returns the underlying connection, nil in queue-only mode.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// StartSession writes the session row and makes it the active session.
func (b *Backend) StartSession(s *core.Session) error {
	if b.deps.DB != nil {
		row := convert.CoreToSession(*s)
		if err := b.deps.DB.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
	}

	b.mu.Lock()
	b.session = s
	b.hasSummary = false
	b.mu.Unlock()

	b.deps.Logger.Info("Session started", "session", s.ID, "name", s.Name)
	return nil
}

func (b *Backend) activeSession() (*core.Session, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.session == nil {
		return nil, core.ErrNoSession
	}
	return b.session, nil
}

// RecordFrame queues a frame for the writer.
func (b *Backend) RecordFrame(f *core.FrameRecord) error {
	if _, err := b.activeSession(); err != nil {
		return err
	}
	b.queues.Frames.Push(convert.CoreToFrame(*f))
	return nil
}

// RecordMarkEvent queues a mark lifecycle event for the writer.
func (b *Backend) RecordMarkEvent(e *core.MarkEvent) error {
	if _, err := b.activeSession(); err != nil {
		return err
	}
	b.queues.MarkEvents.Push(convert.CoreToMarkEvent(*e))
	return nil
}

// RecordTrackSample queues a track point for the writer.
func (b *Backend) RecordTrackSample(s *core.TrackSample) error {
	if _, err := b.activeSession(); err != nil {
		return err
	}
	b.queues.TrackSamples.Push(convert.CoreToTrackSample(*s))
	return nil
}

// EndSession flushes the queues, computes the debrief from the stored rows
// and writes it alongside the session's end time.
func (b *Backend) EndSession() error {
	s, err := b.activeSession()
	if err != nil {
		return err
	}

	if err := b.flush(); err != nil {
		return err
	}

	if b.deps.DB != nil {
		summary, track, err := b.loadSummary(s.ID)
		if err != nil {
			return err
		}

		row := convert.CoreToDebrief(summary, track)
		if err := b.deps.DB.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to write debrief: %w", err)
		}
		err = b.deps.DB.Model(&model.Session{}).
			Where("id = ?", s.ID).
			Update("end_time", sql.NullTime{Time: time.Now(), Valid: true}).Error
		if err != nil {
			return fmt.Errorf("failed to close session: %w", err)
		}

		b.mu.Lock()
		b.summary = summary
		b.hasSummary = true
		b.mu.Unlock()
	}

	b.mu.Lock()
	b.session = nil
	b.mu.Unlock()

	b.deps.Logger.Info("Session ended", "session", s.ID)
	return nil
}

// GetSummary returns the summary of the last ended session.
func (b *Backend) GetSummary() (core.DebriefSummary, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.summary, b.hasSummary
}

func (b *Backend) loadSummary(sessionID string) (core.DebriefSummary, []core.GeoPoint, error) {
	db := b.deps.DB

	var frames []model.Frame
	if err := db.Where("session_id = ?", sessionID).Order("frame_no").Find(&frames).Error; err != nil {
		return core.DebriefSummary{}, nil, fmt.Errorf("failed to load frames: %w", err)
	}
	var events []model.MarkEvent
	if err := db.Where("session_id = ?", sessionID).Order("id").Find(&events).Error; err != nil {
		return core.DebriefSummary{}, nil, fmt.Errorf("failed to load mark events: %w", err)
	}
	var samples []model.TrackSample
	if err := db.Where("session_id = ?", sessionID).Order("id").Find(&samples).Error; err != nil {
		return core.DebriefSummary{}, nil, fmt.Errorf("failed to load track: %w", err)
	}

	coreFrames := make([]core.FrameRecord, len(frames))
	for i, f := range frames {
		coreFrames[i] = convert.FrameToCore(f)
	}
	coreEvents := make([]core.MarkEvent, len(events))
	for i, e := range events {
		coreEvents[i] = convert.MarkEventToCore(e)
	}
	track := make([]core.GeoPoint, len(samples))
	for i, s := range samples {
		track[i] = convert.TrackSampleToCore(s).Position
	}

	return debrief.Summarize(sessionID, coreFrames, coreEvents, track), track, nil
}

// writerLoop flushes the queues on a ticker until Close.
func (b *Backend) writerLoop() {
	defer close(b.done)

	b.mu.RLock()
	stop := b.stopChan
	b.mu.RUnlock()

	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			if err := b.flush(); err != nil {
				b.deps.Logger.Error("Final flush failed", "error", err)
			}
			return
		case <-ticker.C:
			if err := b.flush(); err != nil {
				b.deps.Logger.Error("Flush failed", "error", err)
			}
		}
	}
}

// flush drains every queue into the DB. A failed batch goes back on the
// queues for the next attempt. Rows are dropped in queue-only mode.
func (b *Backend) flush() error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if b.deps.DB == nil {
		return nil
	}

	start := time.Now()
	frames := b.queues.Frames.GetAndEmpty()
	events := b.queues.MarkEvents.GetAndEmpty()
	samples := b.queues.TrackSamples.GetAndEmpty()
	if len(frames)+len(events)+len(samples) == 0 {
		return nil
	}

	err := b.deps.DB.Transaction(func(tx *gorm.DB) error {
		if len(frames) > 0 {
			if err := tx.Create(&frames).Error; err != nil {
				return fmt.Errorf("frames: %w", err)
			}
		}
		if len(events) > 0 {
			if err := tx.Create(&events).Error; err != nil {
				return fmt.Errorf("mark events: %w", err)
			}
		}
		if len(samples) > 0 {
			if err := tx.Create(&samples).Error; err != nil {
				return fmt.Errorf("track samples: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		// Create assigns IDs before the rollback; clear them so the retry
		// gets fresh ones.
		for i := range frames {
			frames[i].ID = 0
		}
		for i := range events {
			events[i].ID = 0
		}
		for i := range samples {
			samples[i].ID = 0
		}
		b.queues.Frames.Requeue(frames...)
		b.queues.MarkEvents.Requeue(events...)
		b.queues.TrackSamples.Requeue(samples...)
		return fmt.Errorf("failed to write batch: %w", err)
	}

	b.deps.Logger.Debug("Flushed batch",
		"frames", len(frames),
		"markEvents", len(events),
		"trackSamples", len(samples),
		"duration", time.Since(start),
	)
	return nil
}
