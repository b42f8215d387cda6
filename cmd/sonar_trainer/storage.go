package main

import (
	"fmt"

	"github.com/OCAP2/sonar-trainer/internal/config"
	"github.com/OCAP2/sonar-trainer/internal/storage"
)

// initStorage builds the debrief backend named by storage.type. A backend
// that fails Init is closed before returning.
func initStorage() (storage.Backend, error) {
	cfg := config.GetStorageConfig()

	backend, err := storage.NewBackend(cfg, Logger, DBLog)
	if err != nil {
		return nil, fmt.Errorf("create %s debrief backend: %w", cfg.Type, err)
	}
	if err := backend.Init(); err != nil {
		if cerr := backend.Close(); cerr != nil {
			Logger.Warn("Closing debrief backend after failed init", "error", cerr)
		}
		return nil, fmt.Errorf("init %s debrief backend: %w", cfg.Type, err)
	}

	Logger.Info("Debrief backend ready", "type", cfg.Type)
	return backend, nil
}
