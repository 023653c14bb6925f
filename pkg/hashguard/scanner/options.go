// Package scanner fans file digest computation out across a bounded
// worker pool and aggregates results in completion order.
package scanner

import (
	"github.com/jamesainslie/hashguard/pkg/hashguard/cache"
	"github.com/jamesainslie/hashguard/pkg/hashguard/digest"
	"github.com/jamesainslie/hashguard/pkg/hashguard/types"
)

// Worker pool bounds.
const (
	DefaultWorkers = 4
	MaxWorkers     = 16
)

// Options configures a scan run.
type Options struct {
	// Algorithm is the digest function applied to every file.
	Algorithm digest.Algorithm

	// Workers is the number of concurrent digest workers, clamped to
	// [1, MaxWorkers].
	Workers int

	// ChunkSize is the read buffer size in bytes. Zero or negative
	// selects digest.DefaultChunkSize.
	ChunkSize int

	// OnProgress, if set, is called exactly once per completed path, in
	// completion order. It is always invoked from the single collector
	// goroutine, never concurrently.
	OnProgress types.ProgressFunc

	// Cache is an optional digest cache consulted before hashing.
	// If nil, every file is hashed fresh.
	Cache *cache.Cache
}

// DefaultOptions returns options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		Algorithm: digest.SHA256,
		Workers:   DefaultWorkers,
		ChunkSize: digest.DefaultChunkSize,
	}
}

// Validate clamps out-of-range values to their defaults.
func (o *Options) Validate() error {
	if o.Algorithm == "" {
		o.Algorithm = digest.SHA256
	}
	if o.Workers < 1 {
		o.Workers = DefaultWorkers
	}
	if o.Workers > MaxWorkers {
		o.Workers = MaxWorkers
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = digest.DefaultChunkSize
	}
	return nil
}
