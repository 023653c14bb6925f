// Package walker expands a scan location into the list of regular files
// beneath it using parallel directory traversal.
package walker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charlievieth/fastwalk"
)

// Sentinel errors for invalid scan locations. Both abort an expansion
// before any traversal starts.
var (
	ErrLocationNotFound   = errors.New("location not found")
	ErrLocationUnreadable = errors.New("location unreadable")
)

// Expand resolves location to an absolute path and returns every
// regular file beneath it.
//
// A regular file expands to a single-element slice. A directory is
// traversed recursively; symlinks are not followed, and unreadable
// subtrees are skipped rather than failing the expansion (matching the
// behavior of per-file errors later in the pipeline: local problems
// never abort the pass). The result is sorted, so expansion is
// deterministic for a given filesystem snapshot.
//
// Cancellation is cooperative: the context is checked between directory
// entries, and a cancelled expansion returns the partial (possibly
// empty) list with a nil error.
func Expand(ctx context.Context, location string) ([]string, error) {
	abs, err := filepath.Abs(location)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", location, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrLocationNotFound, abs)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrLocationUnreadable, abs, err)
	}

	if info.Mode().IsRegular() {
		return []string{abs}, nil
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s: not a regular file or directory", ErrLocationNotFound, abs)
	}

	// Probe readability up front so an unreadable root is a hard error
	// rather than a silently empty result.
	if _, err := os.ReadDir(abs); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLocationUnreadable, abs, err)
	}

	var (
		mu    sync.Mutex
		files []string
	)

	conf := fastwalk.Config{
		Follow: false, // Don't follow symlinks.
	}

	walkErr := fastwalk.Walk(&conf, abs, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return context.Canceled
		default:
		}

		if err != nil {
			// Unreadable entry: skip and keep walking.
			return nil
		}

		if d.Type().IsRegular() {
			mu.Lock()
			files = append(files, path)
			mu.Unlock()
		}
		return nil
	})

	if walkErr != nil && !errors.Is(walkErr, context.Canceled) {
		return nil, fmt.Errorf("walk %s: %w", abs, walkErr)
	}

	// fastwalk visits directories in parallel; sort for a stable order.
	sort.Strings(files)
	return files, nil
}
