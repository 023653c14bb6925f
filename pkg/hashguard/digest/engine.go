package digest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultChunkSize is the read buffer size used when none is specified.
const DefaultChunkSize = 8192

// File computes the digest of the file at path, reading it in bounded
// chunks and feeding each chunk to a streaming hasher for algo.
//
// The context is checked before and after every chunk read; a cancelled
// context aborts the read loop and returns ctx.Err(), which callers
// should treat as "stopped", not "failed" (distinguish with
// errors.Is(err, context.Canceled)). I/O failures are returned as
// wrapped errors and never panic. The file handle is released on every
// exit path.
func File(ctx context.Context, path string, algo Algorithm, chunkSize int) (string, error) {
	h, err := New(algo)
	if err != nil {
		return "", err
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		n, err := f.Read(buf)
		if n > 0 {
			// Hash state writes cannot fail.
			_, _ = h.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read %s: %w", path, err)
		}

		if err := ctx.Err(); err != nil {
			return "", err
		}
	}

	return h.Hex(), nil
}
