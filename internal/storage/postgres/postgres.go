// Package postgres implements the storage.Backend interface on a PostGIS
// database. The connection is opened in Init; recording is delegated to the
// GORM backend.
package postgres

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/OCAP2/sonar-trainer/internal/config"
	"github.com/OCAP2/sonar-trainer/internal/database"
	gormstorage "github.com/OCAP2/sonar-trainer/internal/storage/gorm"
	"github.com/OCAP2/sonar-trainer/pkg/core"
	"github.com/rs/zerolog"
)

// ErrNotConnected is returned when recording before Init succeeded.
var ErrNotConnected = errors.New("postgres backend not connected")

// Backend connects to Postgres lazily and writes through gormstorage.
type Backend struct {
	cfg    config.PostgresConfig
	logger *slog.Logger
	dbLog  zerolog.Logger
	inner  *gormstorage.Backend
}

// New creates a Postgres backend. No connection is made until Init.
func New(cfg config.PostgresConfig, logger *slog.Logger, dbLog zerolog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{cfg: cfg, logger: logger, dbLog: dbLog}
}

// Init connects, migrates the schema and starts the writer.
func (b *Backend) Init() error {
	db, err := database.OpenPostgres(b.cfg, b.dbLog)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := database.Setup(db, b.dbLog); err != nil {
		return err
	}

	inner := gormstorage.New(gormstorage.Dependencies{DB: db, Logger: b.logger})
	if err := inner.Init(); err != nil {
		return err
	}
	b.inner = inner
	return nil
}

func (b *Backend) Close() error {
	if b.inner == nil {
		return nil
	}
	return b.inner.Close()
}

func (b *Backend) StartSession(s *core.Session) error {
	if b.inner == nil {
		return ErrNotConnected
	}
	return b.inner.StartSession(s)
}

func (b *Backend) EndSession() error {
	if b.inner == nil {
		return ErrNotConnected
	}
	return b.inner.EndSession()
}

func (b *Backend) RecordFrame(f *core.FrameRecord) error {
	if b.inner == nil {
		return ErrNotConnected
	}
	return b.inner.RecordFrame(f)
}

func (b *Backend) RecordMarkEvent(e *core.MarkEvent) error {
	if b.inner == nil {
		return ErrNotConnected
	}
	return b.inner.RecordMarkEvent(e)
}

func (b *Backend) RecordTrackSample(s *core.TrackSample) error {
	if b.inner == nil {
		return ErrNotConnected
	}
	return b.inner.RecordTrackSample(s)
}

// GetSummary returns the summary of the last ended session.
func (b *Backend) GetSummary() (core.DebriefSummary, bool) {
	if b.inner == nil {
		return core.DebriefSummary{}, false
	}
	return b.inner.GetSummary()
}
