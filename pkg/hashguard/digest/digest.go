// Package digest provides the hash algorithm registry and the chunked
// file digest engine for hashguard.
//
// Algorithms are modeled as a capability registry: a static table maps
// each Algorithm to a constructor, filtered once at package init into
// the available set. Callers only ever see the filtered set, so an
// algorithm whose implementation is missing narrows the set instead of
// crashing.
package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Algorithm identifies a supported digest function. The string values
// are persisted in manifest metadata and must not change.
type Algorithm string

// Supported algorithms.
const (
	MD5      Algorithm = "MD5"
	SHA1     Algorithm = "SHA1"
	SHA3     Algorithm = "SHA-3"
	SHA256   Algorithm = "SHA256"
	SHA512   Algorithm = "SHA512"
	XXHash64 Algorithm = "xxHash64"
	Blake2b  Algorithm = "Blake2b"
	Blake3   Algorithm = "Blake3"
	CRC32    Algorithm = "CRC32"
)

// ErrUnsupportedAlgorithm is returned when a requested algorithm is not
// in the available set.
var ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

// Hasher is a streaming digest. Feed bytes with Write, finalize with
// Hex. Hex returns the lowercase hex encoding of the digest; its length
// is fixed per algorithm.
type Hasher interface {
	Write(p []byte) (int, error)
	Hex() string
}

// registry maps each algorithm to its constructor. A nil constructor
// marks an algorithm whose implementation is absent in this build; it
// is filtered out of the available set.
var registry = map[Algorithm]func() Hasher{
	MD5:      func() Hasher { return hashHasher{md5.New()} },
	SHA1:     func() Hasher { return hashHasher{sha1.New()} },
	SHA3:     func() Hasher { return hashHasher{sha3.New256()} },
	SHA256:   func() Hasher { return hashHasher{sha256.New()} },
	SHA512:   func() Hasher { return hashHasher{sha512.New()} },
	XXHash64: func() Hasher { return hashHasher{xxhash.New()} },
	Blake2b:  newBlake2b,
	Blake3:   func() Hasher { return hashHasher{blake3.New()} },
	CRC32:    func() Hasher { return &crcHasher{} },
}

// available is the filtered set, computed once at init and immutable
// for the process lifetime.
var available = func() []Algorithm {
	algos := make([]Algorithm, 0, len(registry))
	for algo, ctor := range registry {
		if ctor == nil {
			continue
		}
		algos = append(algos, algo)
	}
	sort.Slice(algos, func(i, j int) bool { return algos[i] < algos[j] })
	return algos
}()

// Available returns the algorithms usable in this process, sorted by
// name. The returned slice is a copy and may be modified by the caller.
func Available() []Algorithm {
	out := make([]Algorithm, len(available))
	copy(out, available)
	return out
}

// Supported reports whether algo is in the available set.
func Supported(algo Algorithm) bool {
	ctor, ok := registry[algo]
	return ok && ctor != nil
}

// New returns a fresh streaming hasher for algo, or
// ErrUnsupportedAlgorithm if algo is unknown or unavailable.
func New(algo Algorithm) (Hasher, error) {
	ctor, ok := registry[algo]
	if !ok || ctor == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algo)
	}
	return ctor(), nil
}

// hashHasher adapts a stdlib-style hash.Hash to the Hasher contract.
type hashHasher struct {
	hash.Hash
}

func (h hashHasher) Hex() string {
	return hex.EncodeToString(h.Sum(nil))
}

// newBlake2b constructs the 512-bit BLAKE2b hasher. The keyed
// constructor only errors for oversized keys, so an unkeyed New512
// cannot fail.
func newBlake2b() Hasher {
	h, err := blake2b.New512(nil)
	if err != nil {
		return nil
	}
	return hashHasher{h}
}

// crcHasher is the CRC32 special case: a running IEEE checksum exposed
// through the same update/finalize contract as the real hash functions.
type crcHasher struct {
	crc uint32
}

func (c *crcHasher) Write(p []byte) (int, error) {
	c.crc = crc32.Update(c.crc, crc32.IEEETable, p)
	return len(p), nil
}

// Hex returns the checksum as an 8-character lowercase hex string.
func (c *crcHasher) Hex() string {
	return fmt.Sprintf("%08x", c.crc)
}
