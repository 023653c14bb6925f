// Package types provides core data types shared across the hashguard
// integrity engine: progress reporting, verification outcomes, and
// formatting helpers used by the CLI.
package types

import (
	"github.com/dustin/go-humanize"
)

// ProgressFunc is called after each completed unit of work.
// completed is the number of finished paths so far, total the number of
// paths submitted, and path the path that just finished. Implementations
// must be safe to call from the goroutine that owns result aggregation;
// hashguard never invokes a ProgressFunc concurrently with itself.
type ProgressFunc func(completed, total int, path string)

// Outcome classifies the result of verifying a single manifest entry.
type Outcome string

// Verification outcomes, persisted verbatim in report files.
const (
	OutcomeMatch             Outcome = "MATCH"
	OutcomeMismatch          Outcome = "MISMATCH"
	OutcomeFileNotFound      Outcome = "FILE_NOT_FOUND"
	OutcomeReadError         Outcome = "READ_ERROR"
	OutcomeVerificationError Outcome = "VERIFICATION_ERROR"
)

// Failure pairs a path with the reason its digest could not be computed.
type Failure struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// String returns the failure formatted as the single-line form used in
// manifest error lists and error report files.
func (f Failure) String() string {
	if f.Reason == "" {
		return f.Path
	}
	return f.Path + " - " + f.Reason
}

// FormatSize converts a size in bytes to a human-readable string using
// binary (IEC) units.
func FormatSize(bytes int64) string {
	return humanize.IBytes(uint64(bytes))
}

// FormatCount renders an integer with thousands separators for CLI
// summaries.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}
