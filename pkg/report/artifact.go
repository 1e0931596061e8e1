// Package report writes run artifacts and renders run summaries.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/entrhq/securedocs-e2e/pkg/metrics"
	"github.com/entrhq/securedocs-e2e/pkg/suite"
)

// Artifact file names
const (
	ResultsFile = "results.json"
	SummaryFile = "summary.md"
	MetricsFile = "metrics.prom"
)

// ArtifactWriter handles writing run artifacts
type ArtifactWriter struct {
	outputDir string
}

// NewArtifactWriter creates a new artifact writer
func NewArtifactWriter(outputDir string) *ArtifactWriter {
	return &ArtifactWriter{
		outputDir: outputDir,
	}
}

// Dir returns the output directory.
func (w *ArtifactWriter) Dir() string {
	return w.outputDir
}

// WriteAll writes every artifact. mx may be nil, in which case no metrics
// file is written.
func (w *ArtifactWriter) WriteAll(summary *suite.Summary, mx *metrics.Metrics) error {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := w.WriteResultsJSON(summary); err != nil {
		return fmt.Errorf("failed to write results JSON: %w", err)
	}

	if err := w.WriteSummaryMarkdown(summary); err != nil {
		return fmt.Errorf("failed to write summary markdown: %w", err)
	}

	if mx != nil {
		if err := mx.WriteTextfile(filepath.Join(w.outputDir, MetricsFile)); err != nil {
			return err
		}
	}

	return nil
}

// WriteResultsJSON writes the full run summary as JSON
func (w *ArtifactWriter) WriteResultsJSON(summary *suite.Summary) error {
	path := filepath.Join(w.outputDir, ResultsFile)

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	if writeErr := os.WriteFile(path, data, 0600); writeErr != nil {
		return fmt.Errorf("failed to write results JSON: %w", writeErr)
	}

	return nil
}

// WriteSummaryMarkdown writes a human-readable markdown summary
func (w *ArtifactWriter) WriteSummaryMarkdown(summary *suite.Summary) error {
	path := filepath.Join(w.outputDir, SummaryFile)
	if writeErr := os.WriteFile(path, []byte(Markdown(summary)), 0600); writeErr != nil {
		return fmt.Errorf("failed to write summary markdown: %w", writeErr)
	}
	return nil
}

// Markdown renders summary as a markdown document.
func Markdown(summary *suite.Summary) string {
	var md strings.Builder

	md.WriteString("# SecureDocs E2E Run Summary\n\n")
	md.WriteString(fmt.Sprintf("**Run:** %s\n\n", summary.RunID))
	md.WriteString(fmt.Sprintf("**Target:** %s\n\n", summary.BaseURL))
	if summary.Engine != "" {
		md.WriteString(fmt.Sprintf("**Engine:** %s\n\n", summary.Engine))
	}
	md.WriteString(fmt.Sprintf("**Started:** %s\n\n", summary.StartTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Completed:** %s\n\n", summary.EndTime.Format(time.RFC3339)))
	md.WriteString(fmt.Sprintf("**Duration:** %s\n\n", summary.Duration.Round(time.Millisecond)))

	md.WriteString("## Result\n\n")
	if summary.Failed() {
		md.WriteString(fmt.Sprintf("❌ **%d of %d cases failed**\n\n", summary.Totals.Failed, summary.Totals.Total))
	} else {
		md.WriteString("✅ **All cases passed**\n\n")
	}

	t := summary.Totals
	md.WriteString("| Total | Passed | Flaky | Failed | Skipped |\n")
	md.WriteString("|---|---|---|---|---|\n")
	md.WriteString(fmt.Sprintf("| %d | %d | %d | %d | %d |\n\n", t.Total, t.Passed, t.Flaky, t.Failed, t.Skipped))

	if len(summary.Results) > 0 {
		md.WriteString("## Cases\n\n")
		md.WriteString("| Case | Account | Status | Attempts | Duration |\n")
		md.WriteString("|---|---|---|---|---|\n")
		for _, r := range summary.Results {
			md.WriteString(fmt.Sprintf("| `%s/%s` | %s | %s %s | %d | %s |\n",
				r.Category, r.Name, r.Account, statusIcon(r.Status), r.Status,
				r.Attempts, r.Duration.Round(time.Millisecond)))
		}
		md.WriteString("\n")
	}

	if failed := summary.FailedResults(); len(failed) > 0 {
		md.WriteString("## Failures\n\n")
		for _, r := range failed {
			md.WriteString(fmt.Sprintf("### %s/%s\n\n", r.Category, r.Name))
			for i, e := range r.Errors {
				md.WriteString(fmt.Sprintf("%d. `%s`\n", i+1, e))
			}
			md.WriteString("\n")
		}
	}

	return md.String()
}

func statusIcon(s suite.Status) string {
	switch s {
	case suite.StatusPassed:
		return "✅"
	case suite.StatusFlaky:
		return "⚠️"
	case suite.StatusSkipped:
		return "⏭️"
	default:
		return "❌"
	}
}
