package bestfix

import "strings"

// AnnotatedFinding is the per-finding output record. Field names and order
// are a stable contract: the reporting layer writes them as table columns in
// exactly this order. Records are immutable once assembled.
type AnnotatedFinding struct {
	ID                   string
	Category             string
	Title                string
	VersionFirstSeen     string
	ScanFirstSeen        string
	InternalID           string
	CVSS31SeverityRating string
	CVSSScore            string
	Reachability         string
	SourceMethod         string
	SinkMethod           string
	LastLocation         string
	VariableDetected     string
	TrackedList          string
	CheckMethods         string
	CodeSnippet          string
	BestFix              string
}

// CSVHeader is the column contract of the annotated-findings report.
func CSVHeader() []string {
	return []string{
		"id",
		"category",
		"title",
		"version_first_seen",
		"scan_first_seen",
		"internal_id",
		"cvss_31_severity_rating",
		"cvss_score",
		"reachability",
		"source_method",
		"sink_method",
		"last_location",
		"variable_detected",
		"tracked_list",
		"check_methods",
		"code_snippet",
		"best_fix",
	}
}

// CSVRecord renders the finding as one row in CSVHeader order.
func (a AnnotatedFinding) CSVRecord() []string {
	return []string{
		a.ID,
		a.Category,
		a.Title,
		a.VersionFirstSeen,
		a.ScanFirstSeen,
		a.InternalID,
		a.CVSS31SeverityRating,
		a.CVSSScore,
		a.Reachability,
		a.SourceMethod,
		a.SinkMethod,
		a.LastLocation,
		a.VariableDetected,
		a.TrackedList,
		a.CheckMethods,
		a.CodeSnippet,
		a.BestFix,
	}
}

// RawCodeSnippet undoes the newline escaping applied for tabular storage.
func (a AnnotatedFinding) RawCodeSnippet() string {
	return strings.ReplaceAll(a.CodeSnippet, "\\n", "\n")
}

// RawBestFix undoes the newline escaping applied for tabular storage.
func (a AnnotatedFinding) RawBestFix() string {
	return strings.ReplaceAll(a.BestFix, "\\n", "\n")
}
