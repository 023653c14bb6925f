package scanner

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jamesainslie/hashguard/pkg/hashguard/digest"
	"github.com/jamesainslie/hashguard/pkg/hashguard/logging"
	"github.com/jamesainslie/hashguard/pkg/hashguard/types"
)

// Result contains the aggregated outcome of a scan run.
type Result struct {
	// Digests maps each successfully hashed absolute path to its
	// lowercase hex digest.
	Digests map[string]string

	// Failed lists paths whose digest could not be computed, with the
	// reason. Local failures never abort the run.
	Failed []types.Failure

	// Stopped indicates the run was cancelled before all paths
	// completed. A stopped run is not an error; Digests and Failed hold
	// whatever finished before the stop.
	Stopped bool

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration

	// CacheHits and CacheMisses count digest cache activity. Both are
	// zero when no cache is configured.
	CacheHits   int64
	CacheMisses int64
}

// unit is one completed piece of work flowing from a worker to the
// collector.
type unit struct {
	path string
	hex  string
	err  error
}

// Scanner runs digest computation over a fixed set of paths.
type Scanner struct {
	opts Options
	log  *logging.Logger

	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
}

// New creates a Scanner with the given options. Options are validated
// and defaults applied.
func New(opts Options) *Scanner {
	_ = opts.Validate()
	return &Scanner{
		opts: opts,
		log:  logging.Get("scanner"),
	}
}

// Run dispatches every path to the digest worker pool and aggregates
// results as they complete, in completion order.
//
// The only precondition error is an unsupported algorithm, surfaced
// before any file I/O. Per-file failures are recorded in Result.Failed
// and never abort the run.
//
// Cancellation is cooperative: once ctx is done no new work is
// dispatched, but already-dispatched files drain and still report.
// Each goroutine checks the same ctx, so the caller must pass a fresh
// context for every run; reusing a cancelled context aborts the run
// immediately.
func (s *Scanner) Run(ctx context.Context, paths []string) (*Result, error) {
	if _, err := digest.New(s.opts.Algorithm); err != nil {
		return nil, err
	}

	start := time.Now()
	res := &Result{Digests: make(map[string]string, len(paths))}

	total := len(paths)
	if total == 0 {
		res.Elapsed = time.Since(start)
		return res, nil
	}

	s.log.Debug("scan started",
		"algorithm", s.opts.Algorithm, "files", total, "workers", s.opts.Workers)

	jobs := make(chan string)
	units := make(chan unit)

	var wg sync.WaitGroup
	for i := 0; i < s.opts.Workers; i++ {
		wg.Add(1)
		go s.worker(ctx, jobs, units, &wg)
	}

	// Dispatcher: submit all paths, stopping at cancellation so no new
	// work starts after a stop.
	go func() {
		defer close(jobs)
		for _, p := range paths {
			select {
			case jobs <- p:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Close the unit stream once every worker has drained.
	go func() {
		wg.Wait()
		close(units)
	}()

	// Single-consumer aggregation: the collector owns the result map,
	// failure list, and progress counter.
	completed := 0
	for u := range units {
		completed++
		switch {
		case u.err == nil:
			res.Digests[u.path] = u.hex
		case errors.Is(u.err, context.Canceled) || errors.Is(u.err, context.DeadlineExceeded):
			// Stopped, not failed.
			res.Stopped = true
		default:
			s.log.Warn("digest failed", "path", u.path, "error", u.err)
			res.Failed = append(res.Failed, types.Failure{Path: u.path, Reason: u.err.Error()})
		}

		if s.opts.OnProgress != nil {
			s.opts.OnProgress(completed, total, u.path)
		}
	}

	if ctx.Err() != nil {
		res.Stopped = true
	}
	res.CacheHits = s.cacheHits.Load()
	res.CacheMisses = s.cacheMisses.Load()
	res.Elapsed = time.Since(start)

	s.log.Debug("scan finished",
		"hashed", len(res.Digests), "failed", len(res.Failed),
		"stopped", res.Stopped, "elapsed", res.Elapsed)

	return res, nil
}

// worker consumes paths from jobs and emits one unit per path.
func (s *Scanner) worker(ctx context.Context, jobs <-chan string, units chan<- unit, wg *sync.WaitGroup) {
	defer wg.Done()
	for path := range jobs {
		units <- s.process(ctx, path)
	}
}

// process computes a single file's digest, consulting the cache first
// when one is configured.
func (s *Scanner) process(ctx context.Context, path string) unit {
	size, mtime, statOK := statFile(path)

	if s.opts.Cache != nil && statOK {
		if hex, ok := s.opts.Cache.Lookup(s.opts.Algorithm, path, size, mtime); ok {
			s.cacheHits.Add(1)
			return unit{path: path, hex: hex}
		}
	}

	hex, err := digest.File(ctx, path, s.opts.Algorithm, s.opts.ChunkSize)
	if err != nil {
		return unit{path: path, err: err}
	}

	if s.opts.Cache != nil && statOK {
		s.cacheMisses.Add(1)
		// Metadata was captured before hashing, so a write racing the
		// hash invalidates the entry on the next lookup.
		if err := s.opts.Cache.Store(s.opts.Algorithm, path, hex, size, mtime); err != nil {
			s.log.Warn("cache store failed", "path", path, "error", err)
		}
	}

	return unit{path: path, hex: hex}
}

// statFile returns the size and mtime used for cache validation.
func statFile(path string) (size, mtime int64, ok bool) {
	info, err := os.Lstat(path)
	if err != nil || !info.Mode().IsRegular() {
		return 0, 0, false
	}
	return info.Size(), info.ModTime().UnixNano(), true
}
