package verify

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/hashguard/pkg/hashguard/digest"
	"github.com/jamesainslie/hashguard/pkg/hashguard/manifest"
	"github.com/jamesainslie/hashguard/pkg/hashguard/scanner"
	"github.com/jamesainslie/hashguard/pkg/hashguard/types"
	"github.com/jamesainslie/hashguard/pkg/hashguard/walker"
)

// scanToManifest hashes everything under root and builds the manifest a
// verification run will check against.
func scanToManifest(t *testing.T, root string) *manifest.Manifest {
	t.Helper()

	paths, err := walker.Expand(context.Background(), root)
	require.NoError(t, err)

	res, err := scanner.New(scanner.DefaultOptions()).Run(context.Background(), paths)
	require.NoError(t, err)
	require.Empty(t, res.Failed)

	m, err := manifest.Build(res.Digests, nil, digest.SHA256, root)
	require.NoError(t, err)
	return m
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, data := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	}
	return root
}

func TestVerifyAllMatch(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt":     "alpha",
		"sub/b.txt": "beta",
		"sub/c.txt": "gamma",
	})
	m := scanToManifest(t, root)

	report, err := Verify(context.Background(), m, Options{})
	require.NoError(t, err)

	assert.Equal(t, manifest.Summary{Matches: 3}, report.Summary)
	assert.Empty(t, report.CorruptedFiles)
	assert.Empty(t, report.Errors)
	for rel, outcome := range report.DetailedResults {
		assert.Equal(t, types.OutcomeMatch, outcome, "outcome for %s", rel)
	}
	assert.Equal(t, report.Tally(), report.Summary)
	assert.Equal(t, 3, report.Metadata.TotalFilesChecked)
}

func TestVerifyMismatch(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt":     "alpha",
		"sub/b.txt": "beta",
	})
	m := scanToManifest(t, root)

	// Flip content after the scan.
	mutated := filepath.Join(root, "sub", "b.txt")
	require.NoError(t, os.WriteFile(mutated, []byte("betA"), 0o644))

	report, err := Verify(context.Background(), m, Options{})
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeMismatch, report.DetailedResults[filepath.Join("sub", "b.txt")])
	assert.Equal(t, types.OutcomeMatch, report.DetailedResults["a.txt"])
	assert.Equal(t, 1, report.Summary.Mismatches)

	require.Len(t, report.CorruptedFiles, 1)
	c := report.CorruptedFiles[0]
	assert.Equal(t, mutated, c.Path)
	assert.Equal(t, filepath.Join("sub", "b.txt"), c.RelativePath)
	assert.Equal(t, digest.SHA256, c.Algorithm)
	assert.NotEqual(t, c.StoredHash, c.CurrentHash)
	assert.Equal(t, m.Hashes[filepath.Join("sub", "b.txt")].Hash, c.StoredHash)
}

func TestVerifyFileNotFound(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt": "alpha",
		"b.txt": "beta",
	})
	m := scanToManifest(t, root)

	require.NoError(t, os.Remove(filepath.Join(root, "b.txt")))

	report, err := Verify(context.Background(), m, Options{})
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeFileNotFound, report.DetailedResults["b.txt"])
	assert.Equal(t, 1, report.Summary.NotFound)
	assert.Contains(t, report.Errors, "b.txt - File not found")
	assert.Empty(t, report.CorruptedFiles)
}

func TestVerifyBasePathOverride(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt":     "alpha",
		"sub/b.txt": "beta",
	})
	m := scanToManifest(t, root)

	// Relocate the tree so the stored absolute paths are dead.
	moved := filepath.Join(t.TempDir(), "relocated")
	require.NoError(t, os.Rename(root, moved))

	report, err := Verify(context.Background(), m, Options{BasePath: moved})
	require.NoError(t, err)

	assert.Equal(t, manifest.Summary{Matches: 2}, report.Summary)
	assert.Empty(t, report.Errors)
}

func TestVerifyBasePathPrecedence(t *testing.T) {
	root := writeTree(t, map[string]string{"a.txt": "alpha"})
	m := scanToManifest(t, root)

	// Both candidates exist: the override holds the original content,
	// the stored path is mutated. The override must win.
	override := writeTree(t, map[string]string{"a.txt": "alpha"})
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("tampered"), 0o644))

	report, err := Verify(context.Background(), m, Options{BasePath: override})
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeMatch, report.DetailedResults["a.txt"])
	assert.Empty(t, report.CorruptedFiles)
}

func TestVerifyUnsupportedAlgorithm(t *testing.T) {
	m := &manifest.Manifest{
		Metadata: manifest.Metadata{Algorithm: "UNKNOWN"},
		Hashes:   map[string]manifest.FileRecord{"a.txt": {Hash: "aaaa"}},
	}

	progressed := false
	_, err := Verify(context.Background(), m, Options{
		OnProgress: func(completed, total int, path string) { progressed = true },
	})
	require.ErrorIs(t, err, digest.ErrUnsupportedAlgorithm)
	assert.False(t, progressed, "progress reported before precondition check")
}

func TestVerifyProgress(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt": "alpha",
		"b.txt": "beta",
		"c.txt": "gamma",
	})
	m := scanToManifest(t, root)

	var calls int
	_, err := Verify(context.Background(), m, Options{
		OnProgress: func(completed, total int, path string) {
			calls++
			assert.Equal(t, calls, completed)
			assert.Equal(t, 3, total)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestVerifyCancelled(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt": "alpha",
		"b.txt": "beta",
	})
	m := scanToManifest(t, root)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := Verify(ctx, m, Options{})
	require.NoError(t, err)

	assert.Empty(t, report.DetailedResults)
	assert.Equal(t, report.Tally(), report.Summary)
}

func TestVerifyCancelMidRun(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt": "alpha",
		"b.txt": "beta",
		"c.txt": "gamma",
		"d.txt": "delta",
	})
	m := scanToManifest(t, root)

	ctx, cancel := context.WithCancel(context.Background())

	report, err := Verify(ctx, m, Options{
		OnProgress: func(completed, total int, path string) {
			if completed == 2 {
				cancel()
			}
		},
	})
	require.NoError(t, err)

	assert.Len(t, report.DetailedResults, 2)
	assert.Equal(t, report.Tally(), report.Summary)
	assert.Equal(t, 2, report.Metadata.TotalFilesChecked)
}

func TestVerifyProgressMatchesClassified(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a.txt": "alpha",
		"b.txt": "beta",
		"c.txt": "gamma",
		"d.txt": "delta",
		"e.txt": "epsilon",
	})
	m := scanToManifest(t, root)

	ctx, cancel := context.WithCancel(context.Background())

	// Progress must fire for every path that lands in the report, even
	// when cancellation arrives while a digest is completing; only the
	// unclassified in-flight path may be skipped.
	var calls int
	report, err := Verify(ctx, m, Options{
		OnProgress: func(completed, total int, path string) {
			calls++
			if completed == 1 {
				cancel()
			}
		},
	})
	require.NoError(t, err)

	assert.Equal(t, len(report.DetailedResults), calls)
	assert.Equal(t, len(report.DetailedResults), report.Metadata.TotalFilesChecked)
	assert.Equal(t, report.Tally(), report.Summary)
}

func TestVerifyReadError(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks are bypassed when running as root")
	}

	root := writeTree(t, map[string]string{"a.txt": "alpha"})
	m := scanToManifest(t, root)

	path := filepath.Join(root, "a.txt")
	require.NoError(t, os.Chmod(path, 0o000))
	t.Cleanup(func() { _ = os.Chmod(path, 0o644) })

	report, err := Verify(context.Background(), m, Options{})
	require.NoError(t, err)

	assert.Equal(t, types.OutcomeReadError, report.DetailedResults["a.txt"])
	assert.Contains(t, report.Errors, "a.txt - Unable to read file")
}
