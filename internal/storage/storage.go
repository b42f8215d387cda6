// internal/storage/storage.go
package storage

import "github.com/OCAP2/sonar-trainer/pkg/core"

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// Session management
	StartSession(s *core.Session) error
	EndSession() error

	// Per-frame recording
	RecordFrame(f *core.FrameRecord) error
	RecordMarkEvent(e *core.MarkEvent) error
	RecordTrackSample(s *core.TrackSample) error
}

// Exportable is an optional interface for storage backends that produce a
// debrief file on disk.
type Exportable interface {
	GetExportedFilePath() string
}

// Summarizer is an optional interface for storage backends that compute the
// debrief summary when a session ends.
type Summarizer interface {
	GetSummary() (core.DebriefSummary, bool)
}
