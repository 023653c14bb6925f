package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/jamesainslie/hashguard/pkg/hashguard/digest"
	"github.com/jamesainslie/hashguard/pkg/hashguard/types"
)

// Build constructs a Manifest from scan output. digests maps absolute
// paths to hex digests; failures lists paths that could not be hashed.
//
// Keys are relativized against location (or its parent directory when
// location is a single file). A path on a different filesystem root
// that cannot be relativized keeps its absolute path as the key. Two
// distinct files mapping to the same key fail with ErrDuplicateRelPath.
func Build(digests map[string]string, failures []types.Failure, algo digest.Algorithm, location string) (*Manifest, error) {
	base := location
	if info, err := os.Stat(location); err == nil && !info.IsDir() {
		base = filepath.Dir(location)
	}

	errs := make([]string, 0, len(failures))
	for _, f := range failures {
		errs = append(errs, f.String())
	}

	m := &Manifest{
		Metadata: Metadata{
			Algorithm:    algo,
			ScanLocation: location,
			Timestamp:    time.Now().Format(time.RFC3339),
			TotalFiles:   len(digests),
			ErrorFiles:   len(failures),
			Application:  Application,
		},
		Hashes: make(map[string]FileRecord, len(digests)),
		Errors: errs,
	}

	// Sorted for deterministic duplicate detection.
	paths := make([]string, 0, len(digests))
	for p := range digests {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		key, err := filepath.Rel(base, path)
		if err != nil {
			key = path
		}

		if _, exists := m.Hashes[key]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateRelPath, key)
		}

		var size int64
		var modified float64
		if info, err := os.Stat(path); err == nil {
			size = info.Size()
			modified = float64(info.ModTime().UnixNano()) / float64(time.Second)
		}

		m.Hashes[key] = FileRecord{
			Hash:     digests[path],
			FullPath: path,
			Size:     size,
			Modified: modified,
		}
	}

	return m, nil
}

// Save writes the manifest as indented JSON, atomically via a temp file
// and rename. When the manifest carries errors, a companion plain-text
// error report is written next to it (the _errors.txt artifact); the
// companion is derived and never required for loading.
func Save(m *Manifest, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	m.Path = path

	if len(m.Errors) > 0 {
		if err := writeErrorReport(m, errorReportPath(path)); err != nil {
			return fmt.Errorf("write error report: %w", err)
		}
	}

	return nil
}

// Load reads and validates a manifest. A file that is not JSON, or
// that lacks the metadata or hashes section, fails with
// ErrInvalidManifest.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	// Check required top-level sections before binding the full
	// structure, so a truncated or foreign JSON file is rejected with a
	// useful error.
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	for _, required := range []string{"metadata", "hashes"} {
		if _, ok := sections[required]; !ok {
			return nil, fmt.Errorf("%w: missing %q section", ErrInvalidManifest, required)
		}
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	if m.Hashes == nil {
		m.Hashes = make(map[string]FileRecord)
	}

	m.Path = path
	return &m, nil
}

// errorReportPath derives the companion error report path:
// manifest.json -> manifest_errors.txt.
func errorReportPath(path string) string {
	return strings.TrimSuffix(path, ".json") + "_errors.txt"
}

// writeErrorReport writes the plain-text error listing, one failed path
// per line under a short header.
func writeErrorReport(m *Manifest, path string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Error Report - %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&b, "Scan Location: %s\n", m.Metadata.ScanLocation)
	fmt.Fprintf(&b, "Algorithm: %s\n\n", m.Metadata.Algorithm)
	b.WriteString("Files with errors:\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")
	for _, e := range m.Errors {
		b.WriteString(e + "\n")
	}

	return writeAtomic(path, []byte(b.String()))
}

// writeAtomic writes data via a temp file and rename so a crashed write
// never leaves a partial artifact behind.
func writeAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		// Cleanup temp file on rename failure.
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
