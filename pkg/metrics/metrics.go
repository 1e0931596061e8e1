package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for a suite run.
//
// All Record methods are safe to call on a nil *Metrics, which discards them.
type Metrics struct {
	registry *prometheus.Registry

	// Session metrics
	LoginsTotal          *prometheus.CounterVec
	LoginDuration        *prometheus.HistogramVec
	SessionCacheTotal    *prometheus.CounterVec
	BrowserLaunchesTotal *prometheus.CounterVec
	CleanupsTotal        *prometheus.CounterVec
	NavigationsTotal     *prometheus.CounterVec

	// Case metrics
	CasesTotal   *prometheus.CounterVec
	CaseDuration *prometheus.HistogramVec
	CaseRetries  *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance on a private registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	loginsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "securedocs_e2e_logins_total",
			Help: "Total number of browser logins performed by account class and result",
		},
		[]string{"account", "result"},
	)

	loginDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "securedocs_e2e_login_duration_seconds",
			Help:    "Duration of browser logins in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"account"},
	)

	sessionCacheTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "securedocs_e2e_session_cache_total",
			Help: "Login requests served from the cached session (hit) or requiring a login (miss)",
		},
		[]string{"result"},
	)

	browserLaunchesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "securedocs_e2e_browser_launches_total",
			Help: "Total number of browser handles launched by result",
		},
		[]string{"result"},
	)

	cleanupsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "securedocs_e2e_session_cleanups_total",
			Help: "Total number of session cleanups that closed a handle, by result",
		},
		[]string{"result"},
	)

	navigationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "securedocs_e2e_dashboard_navigations_total",
			Help: "Dashboard navigations by account class and result",
		},
		[]string{"account", "result"},
	)

	casesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "securedocs_e2e_cases_total",
			Help: "Total number of test cases by category and final status",
		},
		[]string{"category", "status"},
	)

	caseDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "securedocs_e2e_case_duration_seconds",
			Help:    "Test case duration in seconds, across all attempts",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"category"},
	)

	caseRetries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "securedocs_e2e_case_retries_total",
			Help: "Total number of test case retries by category",
		},
		[]string{"category"},
	)

	// Register all metrics with the custom registry
	registry.MustRegister(
		loginsTotal,
		loginDuration,
		sessionCacheTotal,
		browserLaunchesTotal,
		cleanupsTotal,
		navigationsTotal,
		casesTotal,
		caseDuration,
		caseRetries,
	)

	return &Metrics{
		registry:             registry,
		LoginsTotal:          loginsTotal,
		LoginDuration:        loginDuration,
		SessionCacheTotal:    sessionCacheTotal,
		BrowserLaunchesTotal: browserLaunchesTotal,
		CleanupsTotal:        cleanupsTotal,
		NavigationsTotal:     navigationsTotal,
		CasesTotal:           casesTotal,
		CaseDuration:         caseDuration,
		CaseRetries:          caseRetries,
	}
}

// GetRegistry returns the Prometheus registry for this metrics instance
func (m *Metrics) GetRegistry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// RecordLogin records a completed login attempt
func (m *Metrics) RecordLogin(account string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(account, result(ok)).Inc()
	m.LoginDuration.WithLabelValues(account).Observe(d.Seconds())
}

// RecordCacheHit records whether a login request reused the cached session
func (m *Metrics) RecordCacheHit(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.SessionCacheTotal.WithLabelValues("hit").Inc()
	} else {
		m.SessionCacheTotal.WithLabelValues("miss").Inc()
	}
}

// RecordLaunch records a browser launch attempt
func (m *Metrics) RecordLaunch(ok bool) {
	if m == nil {
		return
	}
	m.BrowserLaunchesTotal.WithLabelValues(result(ok)).Inc()
}

// RecordCleanup records closing a handle; closeErr is whether Close failed
func (m *Metrics) RecordCleanup(closeErr bool) {
	if m == nil {
		return
	}
	if closeErr {
		m.CleanupsTotal.WithLabelValues("close_error").Inc()
	} else {
		m.CleanupsTotal.WithLabelValues("ok").Inc()
	}
}

// RecordNavigation records a dashboard navigation
func (m *Metrics) RecordNavigation(account string, ok bool) {
	if m == nil {
		return
	}
	m.NavigationsTotal.WithLabelValues(account, result(ok)).Inc()
}

// RecordCase records a finished test case
func (m *Metrics) RecordCase(category, status string, d time.Duration, retries int) {
	if m == nil {
		return
	}
	m.CasesTotal.WithLabelValues(category, status).Inc()
	m.CaseDuration.WithLabelValues(category).Observe(d.Seconds())
	if retries > 0 {
		m.CaseRetries.WithLabelValues(category).Add(float64(retries))
	}
}

// WriteTextfile writes the current metric values in the Prometheus text
// format, suitable for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return fmt.Errorf("metrics are disabled")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
