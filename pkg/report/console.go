package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/securedocs-e2e/pkg/suite"
)

var (
	salmonPink = lipgloss.Color("#FFB3BA")
	mintGreen  = lipgloss.Color("#A8E6CF")
	amber      = lipgloss.Color("#FFD59E")
	mutedGray  = lipgloss.Color("#6B7280")
)

var (
	headerStyle  = lipgloss.NewStyle().Foreground(salmonPink).Bold(true)
	passStyle    = lipgloss.NewStyle().Foreground(mintGreen)
	failStyle    = lipgloss.NewStyle().Foreground(salmonPink).Bold(true)
	flakyStyle   = lipgloss.NewStyle().Foreground(amber)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedGray)
	errorStyle   = lipgloss.NewStyle().Foreground(salmonPink).PaddingLeft(4)
	totalsStyle  = lipgloss.NewStyle().Bold(true)
	summaryStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedGray).
			Padding(0, 1)
)

// RenderConsole renders summary for a terminal: one line per case, the error
// under each failure and a boxed totals line.
func RenderConsole(summary *suite.Summary) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("SecureDocs E2E %s", summary.BaseURL)))
	b.WriteString("\n")

	for _, r := range summary.Results {
		b.WriteString(caseLine(r))
		b.WriteString("\n")
		if r.Status == suite.StatusFailed && r.Error != "" {
			b.WriteString(errorStyle.Render(r.Error))
			b.WriteString("\n")
		}
	}

	t := summary.Totals
	totals := fmt.Sprintf("%d passed, %d flaky, %d failed, %d skipped in %s",
		t.Passed, t.Flaky, t.Failed, t.Skipped, summary.Duration.Round(time.Millisecond))
	if summary.Failed() {
		totals = failStyle.Render(totals)
	} else {
		totals = totalsStyle.Render(totals)
	}
	b.WriteString(summaryStyle.Render(totals))
	b.WriteString("\n")
	return b.String()
}

func caseLine(r suite.CaseResult) string {
	var mark string
	switch r.Status {
	case suite.StatusPassed:
		mark = passStyle.Render("✓")
	case suite.StatusFlaky:
		mark = flakyStyle.Render("~")
	case suite.StatusSkipped:
		mark = mutedStyle.Render("-")
	default:
		mark = failStyle.Render("✗")
	}

	detail := r.Duration.Round(time.Millisecond).String()
	if r.Attempts > 1 {
		detail = fmt.Sprintf("%s, %d attempts", detail, r.Attempts)
	}
	if r.Status == suite.StatusSkipped && r.Error != "" {
		detail = r.Error
	}
	return fmt.Sprintf("%s %s/%s %s", mark, r.Category, r.Name, mutedStyle.Render("("+detail+")"))
}
