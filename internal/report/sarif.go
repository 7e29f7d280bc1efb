package report

import (
	"fmt"
	"os"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/ngsast/bestfix/internal/bestfix"
)

// BuildSarifReport converts the annotated findings into a SARIF run. Each
// category becomes one rule; the best-fix text rides in the result message so
// SARIF viewers surface the recommendation next to the sink location.
func BuildSarifReport(appName string, findings []bestfix.AnnotatedFinding) (*sarif.Report, error) {
	reportSarif, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("failed to create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI("bestfix", "https://github.com/ngsast/bestfix")
	if appName != "" {
		run.Properties = sarif.Properties{"app": appName}
	}

	for _, finding := range findings {
		rule := run.AddRule(ruleID(finding.Category)).
			WithDescription(finding.Category).
			WithDefaultConfiguration(&sarif.ReportingConfiguration{
				Level: toSarifLevel(finding.CVSS31SeverityRating),
			})

		file, line := bestfix.SplitLocation(finding.LastLocation)
		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(file)).
				WithRegion(sarif.NewRegion().WithStartLine(line)),
		)

		message := finding.RawBestFix()
		if message == "" {
			message = finding.Title
		}
		result := sarif.NewRuleResult(rule.ID).
			WithMessage(sarif.NewTextMessage(message)).
			WithLevel(toSarifLevel(finding.CVSS31SeverityRating)).
			WithLocations([]*sarif.Location{location})
		result.Properties = sarif.Properties{
			"findingId":    finding.ID,
			"sourceMethod": finding.SourceMethod,
			"sinkMethod":   finding.SinkMethod,
		}
		run.AddResult(result)
	}
	reportSarif.AddRun(run)
	return reportSarif, nil
}

// WriteSarifReport writes the findings as a SARIF file at path.
func WriteSarifReport(path, appName string, findings []bestfix.AnnotatedFinding) error {
	reportSarif, err := BuildSarifReport(appName, findings)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to write SARIF report: %w", err)
	}
	defer func() { _ = file.Close() }()
	return reportSarif.PrettyWrite(file)
}

// ruleID derives a stable rule identifier from a category name.
func ruleID(category string) string {
	id := make([]rune, 0, len(category))
	for _, r := range category {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			id = append(id, r)
		case r == ' ':
			id = append(id, '-')
		}
	}
	if len(id) == 0 {
		return "finding"
	}
	return string(id)
}

func toSarifLevel(rating string) string {
	switch rating {
	case "critical", "high":
		return "error"
	case "medium":
		return "warning"
	case "low":
		return "note"
	default:
		return "none"
	}
}
