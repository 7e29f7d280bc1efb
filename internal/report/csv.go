package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/ngsast/bestfix/internal/bestfix"
)

// WriteFindingsCSV writes the annotated findings to path. When append is set
// and the file already has content, the header is skipped so several apps can
// share one report file.
func WriteFindingsCSV(path string, findings []bestfix.AnnotatedFinding, appendMode bool) error {
	flags := os.O_CREATE | os.O_WRONLY
	if appendMode {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open report file: %w", err)
	}
	defer file.Close()

	writeHeader := true
	if appendMode {
		if info, err := file.Stat(); err == nil && info.Size() > 0 {
			writeHeader = false
		}
	}

	writer := csv.NewWriter(file)
	if writeHeader {
		if err := writer.Write(bestfix.CSVHeader()); err != nil {
			return fmt.Errorf("failed to write report header: %w", err)
		}
	}
	for _, finding := range findings {
		if err := writer.Write(finding.CSVRecord()); err != nil {
			return fmt.Errorf("failed to write finding %s: %w", finding.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadFindingsCSV loads an annotated-findings report previously written by
// WriteFindingsCSV. The header row is recognized and skipped.
func ReadFindingsCSV(path string) ([]bestfix.AnnotatedFinding, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report file: %w", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse report file %q: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := bestfix.CSVHeader()
	start := 0
	if records[0][0] == header[0] {
		start = 1
	}
	findings := make([]bestfix.AnnotatedFinding, 0, len(records)-start)
	for _, record := range records[start:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("report file %q: expected %d columns, got %d", path, len(header), len(record))
		}
		findings = append(findings, bestfix.AnnotatedFinding{
			ID:                   record[0],
			Category:             record[1],
			Title:                record[2],
			VersionFirstSeen:     record[3],
			ScanFirstSeen:        record[4],
			InternalID:           record[5],
			CVSS31SeverityRating: record[6],
			CVSSScore:            record[7],
			Reachability:         record[8],
			SourceMethod:         record[9],
			SinkMethod:           record[10],
			LastLocation:         record[11],
			VariableDetected:     record[12],
			TrackedList:          record[13],
			CheckMethods:         record[14],
			CodeSnippet:          record[15],
			BestFix:              record[16],
		})
	}
	return findings, nil
}

// WriteCohortsCSV writes the cohort clusters to path, one row per cluster
// with the member ids joined by newlines inside the cell.
func WriteCohortsCSV(path string, rows []bestfix.CohortRow) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open cohorts file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"category", "flow_start", "flow_end", "finding_ids"}); err != nil {
		return fmt.Errorf("failed to write cohorts header: %w", err)
	}
	for _, row := range rows {
		record := []string{row.Category, row.FlowStart, row.FlowEnd, strings.Join(row.FindingIDs, "\n")}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write cohort row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
