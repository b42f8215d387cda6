package database

import (
	"fmt"
	"os"

	"github.com/OCAP2/sonar-trainer/internal/model"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MigratedSuffix is appended to a backup file once it has been copied.
const MigratedSuffix = ".migrated"

// backupTables lists the tables copied from SQLite dumps, parents first.
// autoID tables get a fresh primary key in the target.
var backupTables = []struct {
	table  string
	autoID bool
}{
	{(&model.Session{}).TableName(), false},
	{(&model.Frame{}).TableName(), true},
	{(&model.MarkEvent{}).TableName(), true},
	{(&model.TrackSample{}).TableName(), true},
	{(&model.Debrief{}).TableName(), false},
}

// MigrateBackups copies every SQLite dump into target inside one
// transaction per file. A migrated file is renamed with MigratedSuffix.
// It returns the paths that were migrated.
func MigrateBackups(target *gorm.DB, sqlitePaths []string, log zerolog.Logger) ([]string, error) {
	migrated := make([]string, 0, len(sqlitePaths))

	for _, path := range sqlitePaths {
		src, err := OpenSqlite(path, log)
		if err != nil {
			return migrated, fmt.Errorf("error opening backup %s: %w", path, err)
		}

		err = target.Transaction(func(tx *gorm.DB) error {
			for _, t := range backupTables {
				if err := migrateTable(src, tx, t.table, t.autoID, log); err != nil {
					return fmt.Errorf("error migrating %s: %w", t.table, err)
				}
			}
			return nil
		})

		if sqlDB, dbErr := src.DB(); dbErr == nil {
			if closeErr := sqlDB.Close(); closeErr != nil {
				log.Error().Err(closeErr).Str("path", path).Msg("Error closing sqlite connection")
			}
		}
		if err != nil {
			return migrated, err
		}

		if err := os.Rename(path, path+MigratedSuffix); err != nil {
			log.Error().Err(err).Str("path", path).Msg("Error renaming sqlite file")
		}
		migrated = append(migrated, path)
	}

	log.Info().Int("count", len(migrated)).Strs("paths", migrated).
		Msg("Migrated backups")
	return migrated, nil
}

func migrateTable(src, dst *gorm.DB, table string, autoID bool, log zerolog.Logger) error {
	var rows []map[string]any
	if err := src.Table(table).Find(&rows).Error; err != nil {
		return err
	}
	log.Info().Int("count", len(rows)).Str("table", table).Msg("Found records")
	if len(rows) == 0 {
		return nil
	}

	if autoID {
		for _, row := range rows {
			delete(row, "id")
		}
	}

	return dst.Table(table).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}
