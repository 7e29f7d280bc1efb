package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngsast/bestfix/internal/bestfix"
)

func TestBuildSarifReport(t *testing.T) {
	findings := []bestfix.AnnotatedFinding{
		{
			ID:                   "f1",
			Category:             "SQL Injection",
			Title:                "injection",
			CVSS31SeverityRating: "critical",
			LastLocation:         "app/db.py:30",
			BestFix:              "Validate the parameter.\\nThen retest.",
		},
	}

	report, err := BuildSarifReport("shop-backend", findings)
	require.NoError(t, err)
	require.Len(t, report.Runs, 1)

	run := report.Runs[0]
	require.Len(t, run.Results, 1)
	result := run.Results[0]
	assert.Equal(t, "SQL-Injection", *result.RuleID)
	assert.Equal(t, "error", *result.Level)
	assert.Equal(t, "Validate the parameter.\nThen retest.", *result.Message.Text)
	assert.Equal(t, "f1", result.Properties["findingId"])

	location := result.Locations[0].PhysicalLocation
	assert.Equal(t, "app/db.py", *location.ArtifactLocation.URI)
	assert.Equal(t, 30, *location.Region.StartLine)
}

func TestBuildSarifReportFallsBackToTitle(t *testing.T) {
	report, err := BuildSarifReport("", []bestfix.AnnotatedFinding{
		{ID: "f1", Category: "SSRF", Title: "ssrf to metadata service"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ssrf to metadata service", *report.Runs[0].Results[0].Message.Text)
}

func TestWriteSarifReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.sarif")
	err := WriteSarifReport(path, "shop-backend", []bestfix.AnnotatedFinding{
		{ID: "f1", Category: "SSRF", Title: "ssrf"},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"version\": \"2.1.0\"")
	assert.Contains(t, string(data), "bestfix")
}

func TestRuleID(t *testing.T) {
	assert.Equal(t, "SQL-Injection", ruleID("SQL Injection"))
	assert.Equal(t, "XML-External-Entities", ruleID("XML External Entities"))
	assert.Equal(t, "finding", ruleID(""))
}

func TestToSarifLevel(t *testing.T) {
	assert.Equal(t, "error", toSarifLevel("critical"))
	assert.Equal(t, "error", toSarifLevel("high"))
	assert.Equal(t, "warning", toSarifLevel("medium"))
	assert.Equal(t, "note", toSarifLevel("low"))
	assert.Equal(t, "none", toSarifLevel(""))
}
