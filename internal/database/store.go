// file: internal/database/store.go
// version: 3.0.0
// guid: 8a9b0c1d-2e3f-4a5b-6c7d-8e9f0a1b2c3d

package database

import (
	"fmt"
	"time"

	"github.com/hvtag/hvtag/internal/models"
	"github.com/hvtag/hvtag/internal/trackparser"
)

// Store defines the interface for our database operations
// This abstraction allows us to support both PebbleDB (default) and SQLite3 (opt-in)
type Store interface {
	// Lifecycle
	Close() error

	// Works
	UpsertWork(work *models.Work) error
	GetWorkByRJCode(code models.RJCode) (*models.Work, error) // nil, nil when absent
	GetAllWorks() ([]models.Work, error)
	MarkWorkTagged(code models.RJCode, at time.Time) error
	MarkWorkForRetag(code models.RJCode, at time.Time) error
	DeleteWork(code models.RJCode) error // also drops preference, files, history, errors

	// Track parsing preferences (one per work, last write wins)
	GetTrackParsingPreference(code models.RJCode) (*trackparser.Preference, error)
	SaveTrackParsingPreference(code models.RJCode, pref trackparser.Preference) error

	// File processing records
	RecordFileProcessing(rec *models.FileRecord) error
	GetFileProcessing(code models.RJCode) ([]models.FileRecord, error)

	// History and errors
	AddProcessingEvent(event *models.ProcessingEvent) error // Generates ULID if empty
	GetProcessingEvents(code models.RJCode) ([]models.ProcessingEvent, error)
	RecordWorkError(workErr *models.WorkError) error // Generates ULID if empty
	GetWorkErrors(code models.RJCode) ([]models.WorkError, error)

	// Tag and circle overrides
	SaveTagMapping(mapping models.TagMapping) error
	DeleteTagMapping(source string) error
	GetTagMappings() (map[string]models.TagMapping, error)
	SetCircleName(circleCode, name string) error
	GetCircleName(circleCode string) (string, error) // "" when no override
}

// Global store instance
var GlobalStore Store

// InitializeStore initializes the database store based on configuration
func InitializeStore(dbType, path string, enableSQLite bool) error {
	store, err := OpenStore(dbType, path, enableSQLite)
	if err != nil {
		return err
	}
	GlobalStore = store
	return nil
}

// OpenStore opens a store without touching GlobalStore.
func OpenStore(dbType, path string, enableSQLite bool) (Store, error) {
	var (
		store Store
		err   error
	)

	switch dbType {
	case "sqlite", "sqlite3":
		if !enableSQLite {
			return nil, fmt.Errorf("SQLite3 is not enabled. To use SQLite3, you must explicitly enable it with --enable-sqlite3-i-know-the-risks or set 'enable_sqlite3_i_know_the_risks: true' in your config file. PebbleDB is the recommended database")
		}
		store, err = NewSQLiteStore(path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
	case "pebble", "":
		// PebbleDB is the default
		store, err = NewPebbleStore(path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PebbleDB store: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported database type: %s (supported: pebble, sqlite)", dbType)
	}

	if err := RunMigrations(store); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// CloseStore closes the global store
func CloseStore() error {
	if GlobalStore == nil {
		return nil
	}
	err := GlobalStore.Close()
	GlobalStore = nil
	return err
}
