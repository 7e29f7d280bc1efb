package policy

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ngsast/bestfix/internal/ngsast"
)

const header = `
IMPORT io.shiftleft/default
IMPORT io.shiftleft/defaultdict

###############################################################################
# Policy file for ShiftLeft NG SAST
# All findings containing the tag CHECK would get suppressed.
###############################################################################

`

// Analysis is the per-app method inventory a policy file is generated from.
type Analysis struct {
	// SinksByCategory maps a vulnerability category to the sink methods its
	// findings terminate in.
	SinksByCategory map[string][]string
	// SourcesByCategory maps a category to the source methods findings start
	// from.
	SourcesByCategory map[string][]string
	// OtherMethods are the dataflow methods that are neither a known source
	// nor a known sink. They go into the policy commented out.
	OtherMethods []string
}

// Analyze inventories the sources, sinks and intermediate methods across all
// findings of an app.
func Analyze(findings []ngsast.Finding) Analysis {
	sources := make(map[string]struct{})
	sinks := make(map[string]struct{})
	sourcesByCategory := make(map[string]map[string]struct{})
	sinksByCategory := make(map[string]map[string]struct{})
	methods := make(map[string]struct{})

	for _, finding := range findings {
		category := finding.Category
		details := finding.Details
		if details.SourceMethod != "" {
			addKeyed(sourcesByCategory, category, details.SourceMethod)
			sources[details.SourceMethod] = struct{}{}
		}
		if details.SinkMethod != "" {
			addKeyed(sinksByCategory, category, details.SinkMethod)
			sinks[details.SinkMethod] = struct{}{}
		}
		for _, step := range details.Dataflow.List {
			loc := step.Location
			if loc.FileName == "N/A" || loc.LineNumber == 0 {
				continue
			}
			if loc.MethodName == "" {
				continue
			}
			if _, isSink := sinks[loc.MethodName]; isSink {
				continue
			}
			if _, isSource := sources[loc.MethodName]; isSource {
				continue
			}
			methods[loc.MethodName] = struct{}{}
		}
	}

	return Analysis{
		SinksByCategory:   flatten(sinksByCategory),
		SourcesByCategory: flatten(sourcesByCategory),
		OtherMethods:      sorted(methods),
	}
}

// Render produces the policy file text: CHECK tags for every sink method,
// grouped by category, followed by the remaining methods commented out.
func Render(analysis Analysis) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString(rule())
	b.WriteString("# Sink methods #\n")
	b.WriteString(rule())

	categories := make([]string, 0, len(analysis.SinksByCategory))
	for category := range analysis.SinksByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		b.WriteString("\n")
		b.WriteString(rule())
		fmt.Fprintf(&b, "# Category %s #\n", category)
		b.WriteString(rule())
		for _, sink := range analysis.SinksByCategory[category] {
			fmt.Fprintf(&b, "TAG \"CHECK\" METHOD -f \"%s\"\n", sink)
		}
	}

	b.WriteString(rule())
	b.WriteString("\n")
	b.WriteString(rule())
	b.WriteString("# All methods (Uncomment as needed) #\n")
	b.WriteString(rule())
	for _, method := range analysis.OtherMethods {
		fmt.Fprintf(&b, "# TAG \"CHECK\" METHOD -f \"%s\"\n", method)
	}
	return b.String()
}

// WriteFile renders the policy and writes it to path, overwriting any
// existing file.
func WriteFile(path string, analysis Analysis) error {
	return os.WriteFile(path, []byte(Render(analysis)), 0644)
}

// Instructions returns the operator steps that activate a generated policy.
func Instructions(path, appName, orgID string) string {
	return fmt.Sprintf(`sl policy validate %s
sl policy push apprules %s
sl policy assignment set --project %s %s/apprules:latest`, path, path, appName, orgID)
}

func rule() string {
	return strings.Repeat("#", 79) + "\n"
}

func addKeyed(m map[string]map[string]struct{}, key, value string) {
	if m[key] == nil {
		m[key] = make(map[string]struct{})
	}
	m[key][value] = struct{}{}
}

func flatten(m map[string]map[string]struct{}) map[string][]string {
	out := make(map[string][]string, len(m))
	for key, set := range m {
		out[key] = sorted(set)
	}
	return out
}

func sorted(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	values := make([]string, 0, len(set))
	for value := range set {
		values = append(values, value)
	}
	sort.Strings(values)
	return values
}
