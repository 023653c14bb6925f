package manifest

import (
	"fmt"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// SaveReport writes a verification report as indented JSON, atomically.
// When the report contains mismatches, a companion plain-text corrupted
// files listing is written next to it (the _corrupted.txt artifact).
func SaveReport(r *Report, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if len(r.CorruptedFiles) > 0 {
		if err := writeCorruptionReport(r, corruptionReportPath(path)); err != nil {
			return fmt.Errorf("write corruption report: %w", err)
		}
	}

	return nil
}

// LoadReport reads a previously saved verification report.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &r, nil
}

// corruptionReportPath derives the companion corrupted-files path:
// report.json -> report_corrupted.txt.
func corruptionReportPath(path string) string {
	return strings.TrimSuffix(path, ".json") + "_corrupted.txt"
}

// writeCorruptionReport writes the numbered plain-text listing of
// corrupted files with expected and actual digests.
func writeCorruptionReport(r *Report, path string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Corrupted Files Report - %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&b, "Source: %s\n", r.Metadata.SourceHashFile)
	fmt.Fprintf(&b, "Total corrupted files: %d\n\n", len(r.CorruptedFiles))

	for i, c := range r.CorruptedFiles {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c.RelativePath)
		fmt.Fprintf(&b, "   Full Path: %s\n", c.Path)
		fmt.Fprintf(&b, "   Algorithm: %s\n", c.Algorithm)
		fmt.Fprintf(&b, "   Expected:  %s\n", c.StoredHash)
		fmt.Fprintf(&b, "   Actual:    %s\n\n", c.CurrentHash)
	}

	return writeAtomic(path, []byte(b.String()))
}
