package report

import (
	"fmt"
	"io"

	"github.com/gookit/color"

	"github.com/ngsast/bestfix/internal/bestfix"
)

// Console renders the per-app results for a terminal. All output goes through
// the writer so tests can capture it; color codes degrade automatically on
// non-tty writers.
type Console struct {
	out io.Writer
}

// NewConsole returns a console renderer writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// PrintAppHeader announces the app a findings block belongs to.
func (c *Console) PrintAppHeader(appName, scanVersion string, total int) {
	fmt.Fprintf(c.out, "\n%s", color.Bold.Sprintf("App: %s", appName))
	if scanVersion != "" {
		fmt.Fprintf(c.out, " %s", color.Gray.Sprintf("(version %s)", scanVersion))
	}
	fmt.Fprintf(c.out, "\n%s\n", color.Gray.Sprintf("%d findings to review", total))
}

// PrintFinding renders one annotated finding with its recommendation.
func (c *Console) PrintFinding(finding bestfix.AnnotatedFinding, deepLink string) {
	fmt.Fprintf(c.out, "\n%s %s\n", severityBadge(finding.CVSS31SeverityRating), color.Bold.Sprint(finding.Title))
	fmt.Fprintf(c.out, "  id: %s  category: %s\n", finding.ID, finding.Category)
	if finding.LastLocation != "" {
		fmt.Fprintf(c.out, "  sink: %s\n", finding.LastLocation)
	}
	if snippet := finding.RawCodeSnippet(); snippet != "" {
		fmt.Fprintf(c.out, "\n%s", snippet)
	}
	if fix := finding.RawBestFix(); fix != "" {
		fmt.Fprintf(c.out, "\n%s\n", fix)
	}
	if deepLink != "" {
		fmt.Fprintf(c.out, "  %s\n", color.Cyan.Sprint(deepLink))
	}
}

// PrintCohorts renders the shared-flow clusters table.
func (c *Console) PrintCohorts(rows []bestfix.CohortRow) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(c.out, "\n%s\n", color.Bold.Sprint("Similar findings"))
	for _, row := range rows {
		fmt.Fprintf(c.out, "\n  %s: %d findings share the flow %s -> %s\n",
			row.Category, len(row.FindingIDs), row.FlowStart, row.FlowEnd)
		for _, id := range row.FindingIDs {
			fmt.Fprintf(c.out, "    - %s\n", id)
		}
	}
}

// PrintSummary closes a report run with per-severity counts.
func (c *Console) PrintSummary(counts map[string]int, total int) {
	fmt.Fprintf(c.out, "\n%s: %d findings", color.Bold.Sprint("Total"), total)
	for _, rating := range []string{"critical", "high", "medium", "low"} {
		if counts[rating] > 0 {
			fmt.Fprintf(c.out, ", %d %s", counts[rating], rating)
		}
	}
	fmt.Fprintln(c.out)
}

func severityBadge(rating string) string {
	switch rating {
	case "critical":
		return color.Red.Sprint("[critical]")
	case "high":
		return color.Magenta.Sprint("[high]")
	case "medium":
		return color.Yellow.Sprint("[medium]")
	case "low":
		return color.Green.Sprint("[low]")
	}
	return "[unrated]"
}
