package suite

import (
	"fmt"
	"strings"
	"time"
)

// Status is the outcome of a case.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"

	// StatusFlaky means the case failed at least once and then passed on retry
	StatusFlaky Status = "flaky"
)

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name        string        `json:"name"`
	Category    string        `json:"category"`
	Account     string        `json:"account"`
	Description string        `json:"description,omitempty"`
	Status      Status        `json:"status"`
	Attempts    int           `json:"attempts"`
	Worker      int           `json:"worker"`
	StartTime   time.Time     `json:"start_time"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`

	// Errors holds the error of every failed attempt, oldest first
	Errors []string `json:"errors,omitempty"`
}

// Totals counts results by status.
type Totals struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Flaky   int `json:"flaky"`
}

// Summary aggregates a run.
type Summary struct {
	RunID     string        `json:"run_id"`
	BaseURL   string        `json:"base_url"`
	Engine    string        `json:"engine,omitempty"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Results   []CaseResult  `json:"results"`
	Totals    Totals        `json:"totals"`
}

// Tally recomputes Totals from Results.
func (s *Summary) Tally() {
	t := Totals{Total: len(s.Results)}
	for _, r := range s.Results {
		switch r.Status {
		case StatusPassed:
			t.Passed++
		case StatusFailed:
			t.Failed++
		case StatusSkipped:
			t.Skipped++
		case StatusFlaky:
			t.Flaky++
		}
	}
	s.Totals = t
}

// Failed reports whether any case failed. Flaky cases count as passing.
func (s *Summary) Failed() bool {
	return s.Totals.Failed > 0
}

// FailedResults returns the failed cases.
func (s *Summary) FailedResults() []CaseResult {
	failed := make([]CaseResult, 0)
	for _, r := range s.Results {
		if r.Status == StatusFailed {
			failed = append(failed, r)
		}
	}
	return failed
}

// FormatFailures creates a plain-text list of failed cases and their errors.
func (s *Summary) FormatFailures() string {
	failed := s.FailedResults()
	if len(failed) == 0 {
		return ""
	}

	var msg strings.Builder
	msg.WriteString("Failed cases:\n\n")
	for _, r := range failed {
		msg.WriteString(fmt.Sprintf("✗ %s/%s (%d attempts)\n", r.Category, r.Name, r.Attempts))
		if r.Error != "" {
			msg.WriteString(fmt.Sprintf("   Error: %s\n\n", r.Error))
		}
	}
	return msg.String()
}
