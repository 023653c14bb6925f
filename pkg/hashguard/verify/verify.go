// Package verify recomputes digests for the files recorded in a
// manifest and classifies each against its stored digest.
package verify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jamesainslie/hashguard/pkg/hashguard/digest"
	"github.com/jamesainslie/hashguard/pkg/hashguard/logging"
	"github.com/jamesainslie/hashguard/pkg/hashguard/manifest"
	"github.com/jamesainslie/hashguard/pkg/hashguard/types"
)

// errUnexpected marks a failure that is neither a read error nor a
// cancellation; it classifies as VERIFICATION_ERROR.
var errUnexpected = errors.New("verification failure")

// Options configures a verification run.
type Options struct {
	// BasePath optionally re-roots relative paths. When set, it takes
	// precedence over the stored absolute paths during resolution.
	BasePath string

	// ChunkSize is the read buffer size in bytes. Zero or negative
	// selects digest.DefaultChunkSize.
	ChunkSize int

	// OnProgress, if set, is called exactly once per checked path.
	OnProgress types.ProgressFunc
}

// Verify checks every entry of m against the files currently on disk
// and returns a report with one outcome per relative path.
//
// Each entry's current location is resolved in this exact precedence
// order, first existing candidate wins: (1) BasePath joined with the
// relative path, (2) the stored absolute path, (3) the bare relative
// path against the working directory. No candidate existing yields
// FILE_NOT_FOUND. Per-path failures never abort the run; the only
// precondition error is a manifest algorithm that is not available.
//
// Cancellation is cooperative: the context is checked between paths and
// during each digest, and a cancelled run returns the partial report
// with a nil error.
func Verify(ctx context.Context, m *manifest.Manifest, opts Options) (*manifest.Report, error) {
	algo := m.Metadata.Algorithm
	if _, err := digest.New(algo); err != nil {
		return nil, err
	}

	log := logging.Get("verify")
	log.Debug("verification started",
		"source", m.Path, "algorithm", algo, "files", len(m.Hashes))

	report := &manifest.Report{
		DetailedResults: make(map[string]types.Outcome, len(m.Hashes)),
		CorruptedFiles:  []manifest.Corruption{},
		Errors:          []string{},
	}

	// Sorted so progress order and report content are deterministic.
	keys := make([]string, 0, len(m.Hashes))
	for rel := range m.Hashes {
		keys = append(keys, rel)
	}
	sort.Strings(keys)

	total := len(keys)
	completed := 0

	for _, rel := range keys {
		if ctx.Err() != nil {
			break
		}

		rec := m.Hashes[rel]
		current := resolvePath(rel, rec.FullPath, opts.BasePath)
		if current == "" {
			report.DetailedResults[rel] = types.OutcomeFileNotFound
			report.Errors = append(report.Errors, rel+" - File not found")
			completed++
			reportProgress(opts.OnProgress, completed, total, rel)
			continue
		}

		hex, err := safeDigest(ctx, current, algo, opts.ChunkSize)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// Stopped mid-digest: the in-flight path stays unclassified
			// and does not count as progress.
			break
		}

		switch {
		case err == nil && hex == rec.Hash:
			report.DetailedResults[rel] = types.OutcomeMatch

		case err == nil:
			report.DetailedResults[rel] = types.OutcomeMismatch
			report.CorruptedFiles = append(report.CorruptedFiles, manifest.Corruption{
				Path:         current,
				RelativePath: rel,
				StoredHash:   rec.Hash,
				CurrentHash:  hex,
				Algorithm:    algo,
			})
			log.Warn("digest mismatch", "path", current)

		case errors.Is(err, errUnexpected):
			report.DetailedResults[rel] = types.OutcomeVerificationError
			report.Errors = append(report.Errors, fmt.Sprintf("%s - Verification error: %v", rel, err))
		default:
			report.DetailedResults[rel] = types.OutcomeReadError
			report.Errors = append(report.Errors, rel+" - Unable to read file")
		}

		// Every classified path reports progress, even when cancellation
		// lands during its digest; the next iteration ends the loop.
		completed++
		reportProgress(opts.OnProgress, completed, total, current)
	}

	report.Summary = report.Tally()
	report.Metadata = manifest.ReportMetadata{
		VerificationTime:  time.Now().Format(time.RFC3339),
		SourceHashFile:    m.Path,
		TotalFilesChecked: len(report.DetailedResults),
		CorruptedFiles:    len(report.CorruptedFiles),
		ErrorFiles:        len(report.Errors),
		Application:       manifest.Application,
	}

	log.Debug("verification finished",
		"checked", report.Metadata.TotalFilesChecked,
		"mismatches", report.Summary.Mismatches,
		"errors", report.Metadata.ErrorFiles)

	return report, nil
}

// resolvePath finds the current on-disk location for a manifest entry.
// The precedence order is fixed for compatibility with existing
// manifests; do not reorder.
func resolvePath(rel, fullPath, basePath string) string {
	if basePath != "" {
		if p := filepath.Join(basePath, rel); pathExists(p) {
			return p
		}
	}
	if fullPath != "" && pathExists(fullPath) {
		return fullPath
	}
	if pathExists(rel) {
		return rel
	}
	return ""
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// safeDigest shields the run from panics inside a digest attempt,
// converting them into an errUnexpected classification.
func safeDigest(ctx context.Context, path string, algo digest.Algorithm, chunkSize int) (hex string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errUnexpected, r)
		}
	}()
	return digest.File(ctx, path, algo, chunkSize)
}

func reportProgress(fn types.ProgressFunc, completed, total int, path string) {
	if fn != nil {
		fn(completed, total, path)
	}
}
