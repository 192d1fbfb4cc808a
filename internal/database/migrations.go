// file: internal/database/migrations.go
// version: 2.0.0
// guid: 9a8b7c6d-5e4f-3d2c-1b0a-9f8e7d6c5b4a

package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hvtag/hvtag/internal/logging"
)

// MigrationFunc represents a migration operation
type MigrationFunc func(store Store) error

// Migration represents a single database migration
type Migration struct {
	Version     int
	Description string
	Up          MigrationFunc
}

// DatabaseVersion stores the current schema version
type DatabaseVersion struct {
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// versionedStore is implemented by both backends.
type versionedStore interface {
	schemaVersion() (int, error)
	setSchemaVersion(v DatabaseVersion) error
}

// migrations is the ordered list of all migrations
var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema: works, preferences, file processing, history",
		Up:          func(Store) error { return nil },
	},
	{
		Version:     2,
		Description: "Index per-work lookups on file processing and history",
		Up:          migration002Up,
	},
}

// RunMigrations applies every migration newer than the stored version.
func RunMigrations(store Store) error {
	vs, ok := store.(versionedStore)
	if !ok {
		return nil
	}
	current, err := vs.schemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		logging.L().Info("applying migration", zap.Int("version", m.Version), zap.String("description", m.Description))
		if err := m.Up(store); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}
		if err := vs.setSchemaVersion(DatabaseVersion{Version: m.Version, UpdatedAt: time.Now()}); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// LatestSchemaVersion is the version a fully migrated store reports.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].Version
}

func migration002Up(store Store) error {
	s, ok := store.(*SQLiteStore)
	if !ok {
		// Pebble keys are already prefixed by RJ code.
		return nil
	}
	_, err := s.db.Exec(`
	CREATE INDEX IF NOT EXISTS idx_file_processing_rjcode ON file_processing(rjcode);
	CREATE INDEX IF NOT EXISTS idx_processing_history_rjcode ON processing_history(rjcode, executed_at);
	CREATE INDEX IF NOT EXISTS idx_work_errors_rjcode ON work_errors(rjcode);
	`)
	return err
}
