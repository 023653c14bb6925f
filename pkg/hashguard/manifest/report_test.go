package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/hashguard/pkg/hashguard/digest"
	"github.com/jamesainslie/hashguard/pkg/hashguard/types"
)

func sampleReport() *Report {
	return &Report{
		Metadata: ReportMetadata{
			VerificationTime:  "2026-08-31T12:00:00Z",
			SourceHashFile:    "/out/manifest.json",
			TotalFilesChecked: 3,
			CorruptedFiles:    1,
			ErrorFiles:        1,
			Application:       Application,
		},
		Summary: Summary{Matches: 1, Mismatches: 1, NotFound: 1},
		DetailedResults: map[string]types.Outcome{
			"a.txt":     types.OutcomeMatch,
			"sub/b.txt": types.OutcomeMismatch,
			"gone.txt":  types.OutcomeFileNotFound,
		},
		CorruptedFiles: []Corruption{
			{
				Path:         "/data/sub/b.txt",
				RelativePath: "sub/b.txt",
				StoredHash:   "1111",
				CurrentHash:  "2222",
				Algorithm:    digest.SHA256,
			},
		},
		Errors: []string{"gone.txt - File not found"},
	}
}

func TestTally(t *testing.T) {
	r := sampleReport()
	assert.Equal(t, r.Summary, r.Tally())

	r.DetailedResults["x"] = types.OutcomeReadError
	r.DetailedResults["y"] = types.OutcomeVerificationError
	got := r.Tally()
	assert.Equal(t, 1, got.ReadErrors)
	assert.Equal(t, 1, got.VerificationErrors)
}

func TestSaveLoadReport(t *testing.T) {
	r := sampleReport()
	path := filepath.Join(t.TempDir(), "report.json")

	require.NoError(t, SaveReport(r, path))

	loaded, err := LoadReport(path)
	require.NoError(t, err)
	assert.Equal(t, r.Metadata, loaded.Metadata)
	assert.Equal(t, r.Summary, loaded.Summary)
	assert.Equal(t, r.DetailedResults, loaded.DetailedResults)
	assert.Equal(t, r.CorruptedFiles, loaded.CorruptedFiles)
	assert.Equal(t, r.Errors, loaded.Errors)
}

func TestSaveReportWritesCorruptedListing(t *testing.T) {
	r := sampleReport()
	dir := t.TempDir()
	path := filepath.Join(dir, "report.json")

	require.NoError(t, SaveReport(r, path))

	listing, err := os.ReadFile(filepath.Join(dir, "report_corrupted.txt"))
	require.NoError(t, err)

	text := string(listing)
	assert.Contains(t, text, "Total corrupted files: 1")
	assert.Contains(t, text, "1. sub/b.txt")
	assert.Contains(t, text, "Full Path: /data/sub/b.txt")
	assert.Contains(t, text, "Expected:  1111")
	assert.Contains(t, text, "Actual:    2222")
}

func TestSaveReportCleanSkipsListing(t *testing.T) {
	r := sampleReport()
	r.CorruptedFiles = nil

	dir := t.TempDir()
	require.NoError(t, SaveReport(r, filepath.Join(dir, "report.json")))

	_, statErr := os.Stat(filepath.Join(dir, "report_corrupted.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoadReportMissing(t *testing.T) {
	_, err := LoadReport(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}
