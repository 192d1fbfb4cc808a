// file: internal/metrics/metrics_test.go
// version: 2.0.0
// guid: 7a8b9c0d-1e2f-3a4b-5c6d-7e8f9a0b1c2d

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(worksProcessed.WithLabelValues(ResultTagged))
	IncWorkProcessed(ResultTagged)
	assert.Equal(t, before+1, testutil.ToFloat64(worksProcessed.WithLabelValues(ResultTagged)))

	before = testutil.ToFloat64(filesTagged)
	AddFilesTagged(3)
	assert.Equal(t, before+3, testutil.ToFloat64(filesTagged))

	before = testutil.ToFloat64(filesConverted)
	AddFilesConverted(2)
	assert.Equal(t, before+2, testutil.ToFloat64(filesConverted))

	before = testutil.ToFloat64(filesRelocated)
	AddFilesRelocated(4)
	assert.Equal(t, before+4, testutil.ToFloat64(filesRelocated))

	before = testutil.ToFloat64(parseFailures)
	AddParseFailures(1)
	assert.Equal(t, before+1, testutil.ToFloat64(parseFailures))

	before = testutil.ToFloat64(decisions.WithLabelValues("confirmed"))
	IncDecision("confirmed")
	assert.Equal(t, before+1, testutil.ToFloat64(decisions.WithLabelValues("confirmed")))
}

func TestLibraryWorksGauge(t *testing.T) {
	SetLibraryWorks(42)
	assert.Equal(t, float64(42), testutil.ToFloat64(libraryWorks))
}

func TestObserveWorkDuration(t *testing.T) {
	before := testutil.CollectAndCount(workDuration)
	ObserveWorkDuration(150 * time.Millisecond)
	assert.Equal(t, before, testutil.CollectAndCount(workDuration))
}

func TestRegisterIdempotent(t *testing.T) {
	require.NotPanics(t, func() {
		Register()
		Register()
	})
	_, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
}
