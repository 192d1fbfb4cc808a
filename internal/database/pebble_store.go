// file: internal/database/pebble_store.go
// version: 2.0.0
// guid: 0c1d2e3f-4a5b-6c7d-8e9f-0a1b2c3d4e5f

package database

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble/v2"
	ulid "github.com/oklog/ulid/v2"

	"github.com/hvtag/hvtag/internal/models"
	"github.com/hvtag/hvtag/internal/trackparser"
)

// PebbleStore implements the Store interface using PebbleDB (LSM key-value store)
//
// Key Schema:
// - work:<rjcode>                -> Work JSON
// - pref:<rjcode>                -> trackparser.Preference JSON
// - file:<rjcode>:<name>         -> FileRecord JSON
// - event:<rjcode>:<ulid>        -> ProcessingEvent JSON
// - error:<rjcode>:<ulid>        -> WorkError JSON
// - tagmap:<source>              -> TagMapping JSON
// - circle:<code>                -> custom circle name
// - meta:schema_version          -> DatabaseVersion JSON
type PebbleStore struct {
	db *pebble.DB
}

const schemaVersionKey = "meta:schema_version"

// NewPebbleStore creates a new PebbleDB store
func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open PebbleDB: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

// Close closes the database
func (p *PebbleStore) Close() error {
	return p.db.Close()
}

// Helper functions

var (
	ulidMu      sync.Mutex
	ulidEntropy = ulid.Monotonic(rand.Reader, 0)
)

// newULID returns IDs that sort in creation order, even within one
// millisecond.
func newULID() (string, error) {
	ulidMu.Lock()
	defer ulidMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), ulidEntropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// getJSON decodes key into v. It reports false when the key is absent.
func (p *PebbleStore) getJSON(key string, v any) (bool, error) {
	value, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer closer.Close()
	if err := json.Unmarshal(value, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (p *PebbleStore) setJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.db.Set([]byte(key), data, pebble.Sync)
}

// prefixBounds returns iterator bounds covering every key with prefix.
func prefixBounds(prefix string) (lower, upper []byte) {
	lower = []byte(prefix)
	upper = append([]byte(nil), lower...)
	upper[len(upper)-1]++
	return lower, upper
}

// scanPrefix calls fn with the value of every key under prefix, in key order.
func (p *PebbleStore) scanPrefix(prefix string, fn func(key, value []byte) error) error {
	lower, upper := prefixBounds(prefix)
	iter, err := p.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (p *PebbleStore) schemaVersion() (int, error) {
	var v DatabaseVersion
	if _, err := p.getJSON(schemaVersionKey, &v); err != nil {
		return 0, err
	}
	return v.Version, nil
}

func (p *PebbleStore) setSchemaVersion(v DatabaseVersion) error {
	return p.setJSON(schemaVersionKey, v)
}

// Work operations

func workKey(code models.RJCode) string { return "work:" + string(code) }

func (p *PebbleStore) UpsertWork(work *models.Work) error {
	if work.RJCode == "" {
		return fmt.Errorf("work has no RJ code")
	}
	return p.setJSON(workKey(work.RJCode), work)
}

func (p *PebbleStore) GetWorkByRJCode(code models.RJCode) (*models.Work, error) {
	var work models.Work
	found, err := p.getJSON(workKey(code), &work)
	if err != nil || !found {
		return nil, err
	}
	return &work, nil
}

func (p *PebbleStore) GetAllWorks() ([]models.Work, error) {
	var works []models.Work
	err := p.scanPrefix("work:", func(_, value []byte) error {
		var work models.Work
		if err := json.Unmarshal(value, &work); err != nil {
			return err
		}
		works = append(works, work)
		return nil
	})
	return works, err
}

func (p *PebbleStore) updateWork(code models.RJCode, fn func(*models.Work)) error {
	work, err := p.GetWorkByRJCode(code)
	if err != nil {
		return err
	}
	if work == nil {
		return fmt.Errorf("work %s not found", code)
	}
	fn(work)
	return p.UpsertWork(work)
}

func (p *PebbleStore) MarkWorkTagged(code models.RJCode, at time.Time) error {
	return p.updateWork(code, func(w *models.Work) { w.TaggedAt = &at })
}

func (p *PebbleStore) MarkWorkForRetag(code models.RJCode, at time.Time) error {
	return p.updateWork(code, func(w *models.Work) { w.MetadataUpdatedAt = &at })
}

func (p *PebbleStore) DeleteWork(code models.RJCode) error {
	batch := p.db.NewBatch()
	defer batch.Close()

	if err := batch.Delete([]byte(workKey(code)), nil); err != nil {
		return err
	}
	if err := batch.Delete([]byte(prefKey(code)), nil); err != nil {
		return err
	}
	for _, prefix := range []string{"file:", "event:", "error:"} {
		lower, upper := prefixBounds(prefix + string(code) + ":")
		if err := batch.DeleteRange(lower, upper, nil); err != nil {
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}

// Track parsing preference operations

func prefKey(code models.RJCode) string { return "pref:" + string(code) }

func (p *PebbleStore) GetTrackParsingPreference(code models.RJCode) (*trackparser.Preference, error) {
	var pref trackparser.Preference
	found, err := p.getJSON(prefKey(code), &pref)
	if err != nil || !found {
		return nil, err
	}
	return &pref, nil
}

func (p *PebbleStore) SaveTrackParsingPreference(code models.RJCode, pref trackparser.Preference) error {
	if err := pref.Validate(); err != nil {
		return err
	}
	return p.setJSON(prefKey(code), pref)
}

// File processing operations

func (p *PebbleStore) RecordFileProcessing(rec *models.FileRecord) error {
	if rec.LastProcessed.IsZero() {
		rec.LastProcessed = time.Now()
	}
	return p.setJSON(fmt.Sprintf("file:%s:%s", rec.RJCode, rec.Name), rec)
}

func (p *PebbleStore) GetFileProcessing(code models.RJCode) ([]models.FileRecord, error) {
	var records []models.FileRecord
	err := p.scanPrefix("file:"+string(code)+":", func(_, value []byte) error {
		var rec models.FileRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return err
		}
		records = append(records, rec)
		return nil
	})
	return records, err
}

// History operations

func (p *PebbleStore) AddProcessingEvent(event *models.ProcessingEvent) error {
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
	return p.setJSON(fmt.Sprintf("event:%s:%s", event.RJCode, event.ID), event)
}

func (p *PebbleStore) GetProcessingEvents(code models.RJCode) ([]models.ProcessingEvent, error) {
	var events []models.ProcessingEvent
	err := p.scanPrefix("event:"+string(code)+":", func(_, value []byte) error {
		var ev models.ProcessingEvent
		if err := json.Unmarshal(value, &ev); err != nil {
			return err
		}
		events = append(events, ev)
		return nil
	})
	return events, err
}

func (p *PebbleStore) RecordWorkError(workErr *models.WorkError) error {
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
	return p.setJSON(fmt.Sprintf("error:%s:%s", workErr.RJCode, workErr.ID), workErr)
}

func (p *PebbleStore) GetWorkErrors(code models.RJCode) ([]models.WorkError, error) {
	var errs []models.WorkError
	err := p.scanPrefix("error:"+string(code)+":", func(_, value []byte) error {
		var we models.WorkError
		if err := json.Unmarshal(value, &we); err != nil {
			return err
		}
		errs = append(errs, we)
		return nil
	})
	return errs, err
}

// Override operations

func (p *PebbleStore) SaveTagMapping(mapping models.TagMapping) error {
	if mapping.Source == "" {
		return fmt.Errorf("tag mapping has no source tag")
	}
	if mapping.UpdatedAt.IsZero() {
		mapping.UpdatedAt = time.Now()
	}
	return p.setJSON("tagmap:"+mapping.Source, mapping)
}

func (p *PebbleStore) DeleteTagMapping(source string) error {
	return p.db.Delete([]byte("tagmap:"+source), pebble.Sync)
}

func (p *PebbleStore) GetTagMappings() (map[string]models.TagMapping, error) {
	mappings := make(map[string]models.TagMapping)
	err := p.scanPrefix("tagmap:", func(_, value []byte) error {
		var m models.TagMapping
		if err := json.Unmarshal(value, &m); err != nil {
			return err
		}
		mappings[m.Source] = m
		return nil
	})
	return mappings, err
}

func (p *PebbleStore) SetCircleName(circleCode, name string) error {
	key := []byte("circle:" + circleCode)
	if name == "" {
		return p.db.Delete(key, pebble.Sync)
	}
	return p.db.Set(key, []byte(name), pebble.Sync)
}

func (p *PebbleStore) GetCircleName(circleCode string) (string, error) {
	value, closer, err := p.db.Get([]byte("circle:" + circleCode))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer closer.Close()
	return string(value), nil
}
