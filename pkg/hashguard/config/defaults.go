// Package config provides configuration management for hashguard.
package config

// Default configuration values for hashguard.
const (
	// DefaultAlgorithm is the digest algorithm used when none is
	// specified.
	DefaultAlgorithm = "SHA256"

	// DefaultWorkers is the default digest worker count.
	DefaultWorkers = 4

	// DefaultChunkSize is the default read buffer size in bytes.
	DefaultChunkSize = 8192

	// DefaultRetentionDays is the default number of days to retain
	// history entries.
	DefaultRetentionDays = 30
)
