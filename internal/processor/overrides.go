// file: internal/processor/overrides.go
// version: 1.0.0
// guid: 0c6e2b95-8f17-4a3d-9d40-b5e1a7c3f286

package processor

import (
	"fmt"
	"slices"
	"time"

	"github.com/hvtag/hvtag/internal/database"
	"github.com/hvtag/hvtag/internal/models"
)

// MapTag renames the DLsite tag source to custom in written tags. Works
// carrying the tag are marked for retagging; their count is returned.
func MapTag(store database.Store, source, custom string, now time.Time) (int, error) {
	if source == "" || custom == "" {
		return 0, fmt.Errorf("tag mapping needs a source and a replacement")
	}
	if err := store.SaveTagMapping(models.TagMapping{Source: source, Custom: custom, UpdatedAt: now}); err != nil {
		return 0, err
	}
	return markWorks(store, now, func(w *models.Work) bool { return slices.Contains(w.Tags, source) })
}

// IgnoreTag drops source from written tags.
func IgnoreTag(store database.Store, source string, now time.Time) (int, error) {
	if source == "" {
		return 0, fmt.Errorf("tag to ignore is empty")
	}
	if err := store.SaveTagMapping(models.TagMapping{Source: source, Ignored: true, UpdatedAt: now}); err != nil {
		return 0, err
	}
	return markWorks(store, now, func(w *models.Work) bool { return slices.Contains(w.Tags, source) })
}

// UnmapTag removes any mapping for source.
func UnmapTag(store database.Store, source string, now time.Time) (int, error) {
	if err := store.DeleteTagMapping(source); err != nil {
		return 0, err
	}
	return markWorks(store, now, func(w *models.Work) bool { return slices.Contains(w.Tags, source) })
}

// SetCircleName stores a preferred name for a circle. An empty name
// restores the DLsite name.
func SetCircleName(store database.Store, circleCode, name string, now time.Time) (int, error) {
	if circleCode == "" {
		return 0, fmt.Errorf("circle code is empty")
	}
	if err := store.SetCircleName(circleCode, name); err != nil {
		return 0, err
	}
	return markWorks(store, now, func(w *models.Work) bool { return w.CircleCode == circleCode })
}

func markWorks(store database.Store, now time.Time, match func(*models.Work) bool) (int, error) {
	works, err := store.GetAllWorks()
	if err != nil {
		return 0, err
	}
	marked := 0
	for i := range works {
		if !match(&works[i]) {
			continue
		}
		if err := store.MarkWorkForRetag(works[i].RJCode, now); err != nil {
			return marked, err
		}
		marked++
	}
	return marked, nil
}
