package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ngsast/bestfix/internal/bestfix"
)

func TestConsolePrintFinding(t *testing.T) {
	var buf bytes.Buffer
	console := NewConsole(&buf)

	console.PrintFinding(bestfix.AnnotatedFinding{
		ID:                   "f1",
		Category:             "SQL Injection",
		Title:                "injection in search",
		CVSS31SeverityRating: "critical",
		LastLocation:         "app/db.py:30",
		CodeSnippet:          "30 cursor.execute(query)\\n",
		BestFix:              "Validate the parameter.",
	}, "https://app.shiftleft.io/findings/f1")

	out := buf.String()
	assert.Contains(t, out, "injection in search")
	assert.Contains(t, out, "id: f1  category: SQL Injection")
	assert.Contains(t, out, "sink: app/db.py:30")
	assert.Contains(t, out, "30 cursor.execute(query)")
	assert.Contains(t, out, "Validate the parameter.")
	assert.Contains(t, out, "https://app.shiftleft.io/findings/f1")
}

func TestConsolePrintCohorts(t *testing.T) {
	var buf bytes.Buffer
	console := NewConsole(&buf)

	console.PrintCohorts([]bestfix.CohortRow{
		{
			Category:   "SSRF",
			FlowStart:  "a.py:1",
			FlowEnd:    "b.py:2",
			FindingIDs: []string{"f1", "f2"},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "Similar findings")
	assert.Contains(t, out, "SSRF: 2 findings share the flow a.py:1 -> b.py:2")
	assert.Contains(t, out, "- f1")
	assert.Contains(t, out, "- f2")
}

func TestConsolePrintCohortsEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf).PrintCohorts(nil)
	assert.Empty(t, buf.String())
}

func TestConsolePrintSummary(t *testing.T) {
	var buf bytes.Buffer
	console := NewConsole(&buf)

	console.PrintSummary(map[string]int{"critical": 2, "medium": 1}, 3)

	out := buf.String()
	assert.Contains(t, out, "3 findings")
	assert.Contains(t, out, "2 critical")
	assert.Contains(t, out, "1 medium")
}
