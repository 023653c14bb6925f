// Package manifest persists the path-to-digest mapping produced by a
// scan and the verification reports produced when checking against it.
package manifest

import (
	"errors"

	"github.com/jamesainslie/hashguard/pkg/hashguard/digest"
	"github.com/jamesainslie/hashguard/pkg/hashguard/types"
)

// Application identifies the writer in persisted metadata. It is
// informational and not validated on load.
const Application = "hashguard"

// Sentinel errors for manifest construction and loading.
var (
	// ErrInvalidManifest indicates a persisted manifest is malformed or
	// missing a required section.
	ErrInvalidManifest = errors.New("invalid manifest")

	// ErrDuplicateRelPath indicates two distinct files relativized to
	// the same manifest key. The build fails fast instead of silently
	// overwriting an entry.
	ErrDuplicateRelPath = errors.New("duplicate relative path")
)

// Metadata describes a scan: what was hashed, where, and when.
type Metadata struct {
	Algorithm    digest.Algorithm `json:"algorithm"`
	ScanLocation string           `json:"scan_location"`
	Timestamp    string           `json:"timestamp"`
	TotalFiles   int              `json:"total_files"`
	ErrorFiles   int              `json:"error_files"`
	Application  string           `json:"application,omitempty"`
}

// FileRecord is one hashed file. Immutable once written to a manifest.
type FileRecord struct {
	// Hash is the lowercase hex digest.
	Hash string `json:"hash"`

	// FullPath is the absolute path at scan time.
	FullPath string `json:"full_path"`

	// Size is the file size in bytes at scan time.
	Size int64 `json:"size"`

	// Modified is the last-modified timestamp as fractional epoch
	// seconds.
	Modified float64 `json:"modified"`
}

// Manifest is the persisted result of a scan: metadata plus the mapping
// from relative path to file record. Relative paths are computed
// against the scan root, or its parent directory when the root is a
// single file; a path that cannot be relativized keeps its absolute
// path as the key.
type Manifest struct {
	Metadata Metadata              `json:"metadata"`
	Hashes   map[string]FileRecord `json:"hashes"`
	Errors   []string              `json:"errors"`

	// Path records where this manifest was loaded from or last saved
	// to. Not serialized.
	Path string `json:"-"`
}

// ReportMetadata describes a verification run.
type ReportMetadata struct {
	VerificationTime  string `json:"verification_time"`
	SourceHashFile    string `json:"source_hash_file"`
	TotalFilesChecked int    `json:"total_files_checked"`
	CorruptedFiles    int    `json:"corrupted_files"`
	ErrorFiles        int    `json:"error_files"`
	Application       string `json:"application,omitempty"`
}

// Summary counts verification outcomes. It must always equal the tally
// of the report's detailed results.
type Summary struct {
	Matches            int `json:"matches"`
	Mismatches         int `json:"mismatches"`
	NotFound           int `json:"not_found"`
	ReadErrors         int `json:"read_errors"`
	VerificationErrors int `json:"verification_errors"`
}

// Corruption records a single MISMATCH: where the file was found and
// how its digest differs from the stored one.
type Corruption struct {
	Path         string           `json:"path"`
	RelativePath string           `json:"relative_path"`
	StoredHash   string           `json:"stored_hash"`
	CurrentHash  string           `json:"current_hash"`
	Algorithm    digest.Algorithm `json:"algorithm"`
}

// Report is the persisted result of a verification run.
type Report struct {
	Metadata        ReportMetadata           `json:"metadata"`
	Summary         Summary                  `json:"summary"`
	DetailedResults map[string]types.Outcome `json:"detailed_results"`
	CorruptedFiles  []Corruption             `json:"corrupted_files"`
	Errors          []string                 `json:"errors"`
}

// Tally recomputes the summary from the detailed results.
func (r *Report) Tally() Summary {
	var s Summary
	for _, outcome := range r.DetailedResults {
		switch outcome {
		case types.OutcomeMatch:
			s.Matches++
		case types.OutcomeMismatch:
			s.Mismatches++
		case types.OutcomeFileNotFound:
			s.NotFound++
		case types.OutcomeReadError:
			s.ReadErrors++
		case types.OutcomeVerificationError:
			s.VerificationErrors++
		}
	}
	return s
}
