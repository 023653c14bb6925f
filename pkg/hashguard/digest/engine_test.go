package digest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTestFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

// TestFile verifies file digests against an independently computed
// reference and are stable across runs.
func TestFile(t *testing.T) {
	data := []byte("hashguard engine test payload")
	path := writeTestFile(t, "payload.bin", data)

	sum := sha256.Sum256(data)
	want := hex.EncodeToString(sum[:])

	got, err := File(context.Background(), path, SHA256, DefaultChunkSize)
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}
	if got != want {
		t.Errorf("File() = %q, want %q", got, want)
	}

	again, err := File(context.Background(), path, SHA256, DefaultChunkSize)
	if err != nil {
		t.Fatalf("File() second run error = %v", err)
	}
	if again != got {
		t.Errorf("File() not deterministic: %q then %q", got, again)
	}
}

// TestFileSmallChunks verifies a chunk size smaller than the file
// produces the same digest as the default.
func TestFileSmallChunks(t *testing.T) {
	path := writeTestFile(t, "payload.bin", []byte("0123456789abcdef0123456789abcdef"))

	full, err := File(context.Background(), path, SHA512, DefaultChunkSize)
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}
	small, err := File(context.Background(), path, SHA512, 7)
	if err != nil {
		t.Fatalf("File() small chunks error = %v", err)
	}
	if full != small {
		t.Errorf("chunk size changed digest: %q != %q", small, full)
	}
}

// TestFileEmpty verifies zero-length files digest cleanly.
func TestFileEmpty(t *testing.T) {
	path := writeTestFile(t, "empty", nil)

	got, err := File(context.Background(), path, SHA256, DefaultChunkSize)
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}
	if got != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("File() empty digest = %q", got)
	}
}

// TestFileUnsupportedAlgorithm verifies the algorithm is rejected
// before any file I/O happens.
func TestFileUnsupportedAlgorithm(t *testing.T) {
	_, err := File(context.Background(), filepath.Join(t.TempDir(), "never-created"), "UNKNOWN", DefaultChunkSize)
	if !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Errorf("File() error = %v, want ErrUnsupportedAlgorithm", err)
	}
}

// TestFileMissing verifies missing files surface the open error.
func TestFileMissing(t *testing.T) {
	_, err := File(context.Background(), filepath.Join(t.TempDir(), "missing"), SHA256, DefaultChunkSize)
	if err == nil {
		t.Fatal("File() expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("File() error = %v, want wrapped os.ErrNotExist", err)
	}
}

// TestFileCancelled verifies a cancelled context aborts the digest.
func TestFileCancelled(t *testing.T) {
	path := writeTestFile(t, "payload.bin", []byte("cancellation target"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := File(ctx, path, SHA256, DefaultChunkSize)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("File() error = %v, want context.Canceled", err)
	}
}
