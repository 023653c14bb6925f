package cache

import (
	"bytes"
	"encoding/gob"

	"github.com/jamesainslie/hashguard/pkg/hashguard/digest"
)

// KeySeparator separates algorithm from path in cache keys.
const KeySeparator = '\x00'

// Entry is a cached file digest plus the file metadata it was computed
// against. An entry is valid only while both Size and Mtime match the
// file on disk.
type Entry struct {
	Digest string
	Size   int64 // File size in bytes.
	Mtime  int64 // Modification time as UnixNano.
}

// Encode serializes the entry to bytes using gob.
func (e *Entry) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes bytes into the entry using gob.
func (e *Entry) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(e)
}

// MakeKey creates a cache key from algorithm and absolute path.
// Format: <algorithm>\x00<path>
func MakeKey(algo digest.Algorithm, path string) []byte {
	return append(MakeKeyPrefix(algo), path...)
}

// MakeKeyPrefix returns the key prefix covering every entry for algo.
func MakeKeyPrefix(algo digest.Algorithm) []byte {
	return append([]byte(algo), KeySeparator)
}
