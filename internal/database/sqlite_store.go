// file: internal/database/sqlite_store.go
// version: 2.0.0
// guid: 8b9c0d1e-2f3a-4b5c-6d7e-8f9a0b1c2d3e

package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hvtag/hvtag/internal/models"
	"github.com/hvtag/hvtag/internal/trackparser"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

const workSelectColumns = `
	rjcode, path, name, circle_code, circle_name, age_category, rating,
	image_link, release_date, tags, voice_actors, active, last_scan,
	metadata_updated_at, tagged_at
`

// SQLiteStore implements the Store interface using SQLite3
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	store := &SQLiteStore{db: db}

	// Create tables
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return store, nil
}

// createTables creates all required tables
func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS works (
		rjcode TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		name TEXT,
		circle_code TEXT,
		circle_name TEXT,
		age_category TEXT,
		rating REAL,
		image_link TEXT,
		release_date TEXT,
		tags TEXT,
		voice_actors TEXT,
		active BOOLEAN DEFAULT 1,
		last_scan TEXT,
		metadata_updated_at TEXT,
		tagged_at TEXT
	);

	CREATE TABLE IF NOT EXISTS track_parsing_preferences (
		rjcode TEXT PRIMARY KEY,
		strategy_name TEXT NOT NULL,
		custom_delimiter TEXT,
		use_asian_conversion BOOLEAN DEFAULT 0,
		asian_format_type TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS file_processing (
		rjcode TEXT NOT NULL,
		file_name TEXT NOT NULL,
		file_path TEXT NOT NULL,
		file_extension TEXT,
		file_size_bytes INTEGER,
		track_number INTEGER,
		is_tagged BOOLEAN DEFAULT 0,
		tag_date TEXT,
		is_converted BOOLEAN DEFAULT 0,
		convert_date TEXT,
		conversion_error TEXT,
		processing_status TEXT DEFAULT 'pending',
		last_processed TEXT,
		PRIMARY KEY (rjcode, file_name)
	);

	CREATE TABLE IF NOT EXISTS processing_history (
		event_id TEXT PRIMARY KEY,
		rjcode TEXT NOT NULL,
		operation_type TEXT NOT NULL,
		stage TEXT NOT NULL,
		status TEXT NOT NULL,
		error_message TEXT,
		duration_ms INTEGER DEFAULT 0,
		executed_at TEXT NOT NULL,
		metadata TEXT
	);

	CREATE TABLE IF NOT EXISTS work_errors (
		error_id TEXT PRIMARY KEY,
		rjcode TEXT NOT NULL,
		error_category TEXT,
		error_details TEXT,
		retryable BOOLEAN DEFAULT 0,
		occurred_at TEXT NOT NULL,
		is_resolved BOOLEAN DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS tag_mappings (
		source TEXT PRIMARY KEY,
		custom_name TEXT,
		is_ignored BOOLEAN DEFAULT 0,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS circle_names (
		circle_code TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS schema_version (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		version INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) schemaVersion() (int, error) {
	var v int
	err := s.db.QueryRow(`SELECT version FROM schema_version WHERE id = 1`).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return v, err
}

func (s *SQLiteStore) setSchemaVersion(v DatabaseVersion) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO schema_version (id, version, updated_at) VALUES (1, ?, ?)`,
		v.Version, formatTime(v.UpdatedAt))
	return err
}

// Time helpers. Times are stored as RFC3339 text.

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func encodeList(list []string) (string, error) {
	if len(list) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(list)
	return string(data), err
}

func decodeList(s sql.NullString) ([]string, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(s.String), &list); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list, nil
}

// Work operations

func scanWork(scanner rowScanner) (*models.Work, error) {
	var (
		work                                 models.Work
		code                                 string
		name, circleCode, circleName, age    sql.NullString
		imageLink, releaseDate, tags, actors sql.NullString
		lastScan, metadataUpdated, taggedAt  sql.NullString
		rating                               sql.NullFloat64
	)
	if err := scanner.Scan(&code, &work.Path, &name, &circleCode, &circleName, &age, &rating,
		&imageLink, &releaseDate, &tags, &actors, &work.Active, &lastScan,
		&metadataUpdated, &taggedAt); err != nil {
		return nil, err
	}

	work.RJCode = models.RJCode(code)
	work.Name = name.String
	work.CircleCode = circleCode.String
	work.CircleName = circleName.String
	work.AgeCategory = age.String
	work.Rating = rating.Float64
	work.ImageLink = imageLink.String
	work.ReleaseDate = releaseDate.String

	var err error
	if work.Tags, err = decodeList(tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if work.VoiceActors, err = decodeList(actors); err != nil {
		return nil, fmt.Errorf("decode voice actors: %w", err)
	}
	if work.LastScan, err = parseTime(lastScan.String); err != nil {
		return nil, err
	}
	if work.MetadataUpdatedAt, err = parseNullTime(metadataUpdated); err != nil {
		return nil, err
	}
	if work.TaggedAt, err = parseNullTime(taggedAt); err != nil {
		return nil, err
	}
	return &work, nil
}

func (s *SQLiteStore) UpsertWork(work *models.Work) error {
	if work.RJCode == "" {
		return fmt.Errorf("work has no RJ code")
	}
	tags, err := encodeList(work.Tags)
	if err != nil {
		return err
	}
	actors, err := encodeList(work.VoiceActors)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO works (`+workSelectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(rjcode) DO UPDATE SET
			path = excluded.path, name = excluded.name,
			circle_code = excluded.circle_code, circle_name = excluded.circle_name,
			age_category = excluded.age_category, rating = excluded.rating,
			image_link = excluded.image_link, release_date = excluded.release_date,
			tags = excluded.tags, voice_actors = excluded.voice_actors,
			active = excluded.active, last_scan = excluded.last_scan,
			metadata_updated_at = excluded.metadata_updated_at, tagged_at = excluded.tagged_at`,
		string(work.RJCode), work.Path, work.Name, work.CircleCode, work.CircleName,
		work.AgeCategory, work.Rating, work.ImageLink, work.ReleaseDate, tags, actors,
		work.Active, formatTime(work.LastScan), nullTime(work.MetadataUpdatedAt), nullTime(work.TaggedAt))
	if err != nil {
		return fmt.Errorf("failed to upsert work %s: %w", work.RJCode, err)
	}
	return nil
}

func (s *SQLiteStore) GetWorkByRJCode(code models.RJCode) (*models.Work, error) {
	row := s.db.QueryRow(`SELECT `+workSelectColumns+` FROM works WHERE rjcode = ?`, string(code))
	work, err := scanWork(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return work, err
}

func (s *SQLiteStore) GetAllWorks() ([]models.Work, error) {
	rows, err := s.db.Query(`SELECT ` + workSelectColumns + ` FROM works ORDER BY rjcode`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var works []models.Work
	for rows.Next() {
		work, err := scanWork(rows)
		if err != nil {
			return nil, err
		}
		works = append(works, *work)
	}
	return works, rows.Err()
}

func (s *SQLiteStore) execOne(query string, args ...interface{}) error {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("work %v not found", args[len(args)-1])
	}
	return nil
}

func (s *SQLiteStore) MarkWorkTagged(code models.RJCode, at time.Time) error {
	return s.execOne(`UPDATE works SET tagged_at = ? WHERE rjcode = ?`, formatTime(at), string(code))
}

func (s *SQLiteStore) MarkWorkForRetag(code models.RJCode, at time.Time) error {
	return s.execOne(`UPDATE works SET metadata_updated_at = ? WHERE rjcode = ?`, formatTime(at), string(code))
}

func (s *SQLiteStore) DeleteWork(code models.RJCode) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"works", "track_parsing_preferences", "file_processing", "processing_history", "work_errors"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE rjcode = ?`, string(code)); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// Track parsing preference operations

func (s *SQLiteStore) GetTrackParsingPreference(code models.RJCode) (*trackparser.Preference, error) {
	var (
		strategy            string
		delimiter, asianFmt sql.NullString
		pref                trackparser.Preference
	)
	err := s.db.QueryRow(`
		SELECT strategy_name, custom_delimiter, use_asian_conversion, asian_format_type
		FROM track_parsing_preferences WHERE rjcode = ?`, string(code)).
		Scan(&strategy, &delimiter, &pref.UseAsianConversion, &asianFmt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	pref.Strategy = trackparser.ParseStrategy(strategy)
	pref.CustomDelimiter = delimiter.String
	pref.AsianFormat = asianFmt.String
	return &pref, nil
}

func (s *SQLiteStore) SaveTrackParsingPreference(code models.RJCode, pref trackparser.Preference) error {
	if err := pref.Validate(); err != nil {
		return err
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO track_parsing_preferences
			(rjcode, strategy_name, custom_delimiter, use_asian_conversion, asian_format_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(code), pref.Strategy.String(),
		sql.NullString{String: pref.CustomDelimiter, Valid: pref.CustomDelimiter != ""},
		pref.UseAsianConversion,
		sql.NullString{String: pref.AsianFormat, Valid: pref.AsianFormat != ""},
		formatTime(time.Now()))
	return err
}

// File processing operations

func (s *SQLiteStore) RecordFileProcessing(rec *models.FileRecord) error {
	if rec.LastProcessed.IsZero() {
		rec.LastProcessed = time.Now()
	}
	var track sql.NullInt64
	if rec.TrackNumber != nil {
		track = sql.NullInt64{Int64: int64(*rec.TrackNumber), Valid: true}
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO file_processing
			(rjcode, file_name, file_path, file_extension, file_size_bytes, track_number,
			 is_tagged, tag_date, is_converted, convert_date, conversion_error,
			 processing_status, last_processed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rec.RJCode), rec.Name, rec.Path, rec.Extension, rec.SizeBytes, track,
		rec.IsTagged, nullTime(rec.TaggedAt), rec.IsConverted, nullTime(rec.ConvertedAt),
		rec.ConversionError, rec.Status, formatTime(rec.LastProcessed))
	return err
}

func (s *SQLiteStore) GetFileProcessing(code models.RJCode) ([]models.FileRecord, error) {
	rows, err := s.db.Query(`
		SELECT file_name, file_path, file_extension, file_size_bytes, track_number,
		       is_tagged, tag_date, is_converted, convert_date, conversion_error,
		       processing_status, last_processed
		FROM file_processing WHERE rjcode = ? ORDER BY file_name`, string(code))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.FileRecord
	for rows.Next() {
		var (
			rec                         models.FileRecord
			ext, convErr, status        sql.NullString
			tagDate, convDate, lastProc sql.NullString
			size, track                 sql.NullInt64
		)
		if err := rows.Scan(&rec.Name, &rec.Path, &ext, &size, &track, &rec.IsTagged, &tagDate,
			&rec.IsConverted, &convDate, &convErr, &status, &lastProc); err != nil {
			return nil, err
		}
		rec.RJCode = code
		rec.Extension = ext.String
		rec.SizeBytes = size.Int64
		if track.Valid {
			n := int(track.Int64)
			rec.TrackNumber = &n
		}
		rec.ConversionError = convErr.String
		rec.Status = status.String
		if rec.TaggedAt, err = parseNullTime(tagDate); err != nil {
			return nil, err
		}
		if rec.ConvertedAt, err = parseNullTime(convDate); err != nil {
			return nil, err
		}
		if rec.LastProcessed, err = parseTime(lastProc.String); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// History operations

func (s *SQLiteStore) AddProcessingEvent(event *models.ProcessingEvent) error {
	if event.ID == "" {
		id, err := newULID()
		if err != nil {
			return err
		}
		event.ID = id
	}
	if event.ExecutedAt.IsZero() {
		event.ExecutedAt = time.Now()
	}
	var meta sql.NullString
	if len(event.Metadata) > 0 {
		data, err := json.Marshal(event.Metadata)
		if err != nil {
			return err
		}
		meta = sql.NullString{String: string(data), Valid: true}
	}
	_, err := s.db.Exec(`
		INSERT INTO processing_history
			(event_id, rjcode, operation_type, stage, status, error_message, duration_ms, executed_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, string(event.RJCode), event.Operation, event.Stage, event.Status,
		event.ErrorMessage, event.DurationMS, formatTime(event.ExecutedAt), meta)
	return err
}

func (s *SQLiteStore) GetProcessingEvents(code models.RJCode) ([]models.ProcessingEvent, error) {
	rows, err := s.db.Query(`
		SELECT event_id, operation_type, stage, status, error_message, duration_ms, executed_at, metadata
		FROM processing_history WHERE rjcode = ? ORDER BY event_id`, string(code))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.ProcessingEvent
	for rows.Next() {
		var (
			ev           models.ProcessingEvent
			errMsg, meta sql.NullString
			executedAt   string
		)
		if err := rows.Scan(&ev.ID, &ev.Operation, &ev.Stage, &ev.Status, &errMsg,
			&ev.DurationMS, &executedAt, &meta); err != nil {
			return nil, err
		}
		ev.RJCode = code
		ev.ErrorMessage = errMsg.String
		if ev.ExecutedAt, err = parseTime(executedAt); err != nil {
			return nil, err
		}
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &ev.Metadata); err != nil {
				return nil, err
			}
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *SQLiteStore) RecordWorkError(workErr *models.WorkError) error {
	if workErr.ID == "" {
		id, err := newULID()
		if err != nil {
			return err
		}
		workErr.ID = id
	}
	if workErr.OccurredAt.IsZero() {
		workErr.OccurredAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO work_errors (error_id, rjcode, error_category, error_details, retryable, occurred_at, is_resolved)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		workErr.ID, string(workErr.RJCode), workErr.Category, workErr.Details,
		workErr.Retryable, formatTime(workErr.OccurredAt), workErr.Resolved)
	return err
}

func (s *SQLiteStore) GetWorkErrors(code models.RJCode) ([]models.WorkError, error) {
	rows, err := s.db.Query(`
		SELECT error_id, error_category, error_details, retryable, occurred_at, is_resolved
		FROM work_errors WHERE rjcode = ? ORDER BY error_id`, string(code))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var errs []models.WorkError
	for rows.Next() {
		var (
			we                models.WorkError
			category, details sql.NullString
			occurredAt        string
		)
		if err := rows.Scan(&we.ID, &category, &details, &we.Retryable, &occurredAt, &we.Resolved); err != nil {
			return nil, err
		}
		we.RJCode = code
		we.Category = category.String
		we.Details = details.String
		if we.OccurredAt, err = parseTime(occurredAt); err != nil {
			return nil, err
		}
		errs = append(errs, we)
	}
	return errs, rows.Err()
}

// Override operations

func (s *SQLiteStore) SaveTagMapping(mapping models.TagMapping) error {
	if mapping.Source == "" {
		return fmt.Errorf("tag mapping has no source tag")
	}
	if mapping.UpdatedAt.IsZero() {
		mapping.UpdatedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO tag_mappings (source, custom_name, is_ignored, updated_at)
		VALUES (?, ?, ?, ?)`,
		mapping.Source, mapping.Custom, mapping.Ignored, formatTime(mapping.UpdatedAt))
	return err
}

func (s *SQLiteStore) DeleteTagMapping(source string) error {
	_, err := s.db.Exec(`DELETE FROM tag_mappings WHERE source = ?`, source)
	return err
}

func (s *SQLiteStore) GetTagMappings() (map[string]models.TagMapping, error) {
	rows, err := s.db.Query(`SELECT source, custom_name, is_ignored, updated_at FROM tag_mappings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mappings := make(map[string]models.TagMapping)
	for rows.Next() {
		var (
			m         models.TagMapping
			custom    sql.NullString
			updatedAt string
		)
		if err := rows.Scan(&m.Source, &custom, &m.Ignored, &updatedAt); err != nil {
			return nil, err
		}
		m.Custom = custom.String
		if m.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		mappings[m.Source] = m
	}
	return mappings, rows.Err()
}

func (s *SQLiteStore) SetCircleName(circleCode, name string) error {
	if name == "" {
		_, err := s.db.Exec(`DELETE FROM circle_names WHERE circle_code = ?`, circleCode)
		return err
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO circle_names (circle_code, name) VALUES (?, ?)`, circleCode, name)
	return err
}

func (s *SQLiteStore) GetCircleName(circleCode string) (string, error) {
	var name string
	err := s.db.QueryRow(`SELECT name FROM circle_names WHERE circle_code = ?`, circleCode).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return name, err
}
