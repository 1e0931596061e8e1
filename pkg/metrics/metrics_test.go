package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	m := NewMetrics()

	m.RecordLogin("standard_user", true, 2*time.Second)
	m.RecordLogin("standard_user", false, time.Second)
	m.RecordCacheHit(true)
	m.RecordCacheHit(true)
	m.RecordCacheHit(false)
	m.RecordLaunch(true)
	m.RecordCleanup(false)
	m.RecordCleanup(true)
	m.RecordNavigation("administrator", true)
	m.RecordCase("auth", "passed", 3*time.Second, 0)
	m.RecordCase("files", "flaky", 3*time.Second, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginsTotal.WithLabelValues("standard_user", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginsTotal.WithLabelValues("standard_user", "failure")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionCacheTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionCacheTotal.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BrowserLaunchesTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CleanupsTotal.WithLabelValues("close_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NavigationsTotal.WithLabelValues("administrator", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CasesTotal.WithLabelValues("files", "flaky")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CaseRetries.WithLabelValues("files")))
}

func TestNilMetricsDiscard(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordLogin("standard_user", true, time.Second)
		m.RecordCacheHit(true)
		m.RecordLaunch(false)
		m.RecordCleanup(true)
		m.RecordNavigation("standard_user", false)
		m.RecordCase("auth", "failed", time.Second, 1)
	})
	assert.Nil(t, m.GetRegistry())
	assert.Error(t, m.WriteTextfile(filepath.Join(t.TempDir(), "m.prom")))
}

func TestWriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.RecordCase("search", "passed", time.Second, 0)

	path := filepath.Join(t.TempDir(), "report", "metrics.prom")
	require.NoError(t, m.WriteTextfile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `securedocs_e2e_cases_total{category="search",status="passed"} 1`)
}
