// Package history provides an on-disk journal of scan and verify runs.
package history

import (
	"time"

	"github.com/jamesainslie/hashguard/pkg/hashguard/digest"
)

// OperationType represents the type of operation.
type OperationType string

const (
	// OpScan represents a scan operation.
	OpScan OperationType = "scan"
	// OpVerify represents a verification operation.
	OpVerify OperationType = "verify"
)

// Entry represents a single journal entry.
type Entry struct {
	ID        string           `json:"id"`
	Timestamp time.Time        `json:"timestamp"`
	Operation OperationType    `json:"operation"`
	Location  string           `json:"location"`
	Algorithm digest.Algorithm `json:"algorithm"`
	Artifact  string           `json:"artifact,omitempty"` // Manifest or report path, when saved.
	Summary   Summary          `json:"summary"`
}

// Summary contains operation counts. Scan runs fill TotalFiles and
// ErrorFiles; verify runs additionally fill the outcome counts.
type Summary struct {
	TotalFiles int `json:"total_files"`
	ErrorFiles int `json:"error_files"`
	Matches    int `json:"matches,omitempty"`
	Mismatches int `json:"mismatches,omitempty"`
	NotFound   int `json:"not_found,omitempty"`
}
