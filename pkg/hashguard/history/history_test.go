package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/hashguard/pkg/hashguard/digest"
)

func newTestHistory(t *testing.T) *History {
	t.Helper()
	h, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, h.EnsureDir())
	return h
}

func TestNewEmptyDir(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
}

func TestRecord(t *testing.T) {
	h := newTestHistory(t)

	entry, err := h.Record(Entry{
		Operation: OpScan,
		Location:  "/data/photos",
		Algorithm: digest.SHA256,
		Artifact:  "/out/manifest.json",
		Summary:   Summary{TotalFiles: 120, ErrorFiles: 2},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(entry.ID, "scan-"), "ID = %q", entry.ID)
	assert.False(t, entry.Timestamp.IsZero())
	assert.Equal(t, time.UTC, entry.Timestamp.Location())

	got, err := h.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.Operation, got.Operation)
	assert.Equal(t, entry.Location, got.Location)
	assert.Equal(t, entry.Algorithm, got.Algorithm)
	assert.Equal(t, entry.Summary, got.Summary)
}

func TestRecordUniqueIDs(t *testing.T) {
	h := newTestHistory(t)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		entry, err := h.Record(Entry{Operation: OpVerify, Location: "/data"})
		require.NoError(t, err)
		assert.False(t, seen[entry.ID], "duplicate ID %q", entry.ID)
		seen[entry.ID] = true
	}
}

func TestList(t *testing.T) {
	h := newTestHistory(t)

	for _, loc := range []string{"/first", "/second", "/third"} {
		_, err := h.Record(Entry{Operation: OpScan, Location: loc})
		require.NoError(t, err)
		// Distinct timestamps so ordering is observable.
		time.Sleep(10 * time.Millisecond)
	}

	entries, err := h.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first.
	assert.Equal(t, "/third", entries[0].Location)
	assert.Equal(t, "/first", entries[2].Location)

	limited, err := h.List(2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "/third", limited[0].Location)
}

func TestListMissingDir(t *testing.T) {
	h, err := New(filepath.Join(t.TempDir(), "never-created"))
	require.NoError(t, err)

	entries, err := h.List(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListSkipsUnparseable(t *testing.T) {
	h := newTestHistory(t)

	_, err := h.Record(Entry{Operation: OpScan, Location: "/data"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "garbage.json"), []byte("not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "notes.txt"), []byte("ignored"), 0o644))

	entries, err := h.List(0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGetNotFound(t *testing.T) {
	h := newTestHistory(t)

	_, err := h.Get("scan-2026-01-01T00-00-00-deadbeef")
	require.Error(t, err)

	_, err = h.Get("")
	require.Error(t, err)
}

func TestCleanup(t *testing.T) {
	h := newTestHistory(t)

	old, err := h.Record(Entry{Operation: OpScan, Location: "/old"})
	require.NoError(t, err)
	recent, err := h.Record(Entry{Operation: OpScan, Location: "/recent"})
	require.NoError(t, err)

	// Age the first entry past the retention window.
	stale := time.Now().AddDate(0, 0, -45)
	require.NoError(t, os.Chtimes(filepath.Join(h.dir, old.ID+".json"), stale, stale))

	require.NoError(t, h.Cleanup(30))

	entries, err := h.List(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, recent.ID, entries[0].ID)
}
