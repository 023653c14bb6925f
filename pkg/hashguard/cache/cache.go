// Package cache provides a persistent digest cache backed by Badger.
//
// Entries are keyed by (algorithm, absolute path) and validated against
// the file's current size and modification time, so a repeat scan only
// re-hashes files that changed. The cache is strictly an accelerator:
// every operation degrades to a miss on error.
package cache

import (
	"errors"

	"github.com/dgraph-io/badger/v4"

	"github.com/jamesainslie/hashguard/pkg/hashguard/digest"
)

// ErrNotFound is returned when a cache entry doesn't exist.
var ErrNotFound = errors.New("cache entry not found")

// Cache wraps a Badger store for digest lookups.
type Cache struct {
	db *badger.DB
}

// Open opens or creates a digest cache at the given path.
func Open(path string) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable badger logging.

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying store.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Lookup returns the cached digest for the file if an entry exists and
// its recorded size and mtime still match. A stale entry is a miss.
func (c *Cache) Lookup(algo digest.Algorithm, path string, size, mtime int64) (string, bool) {
	entry, err := c.get(algo, path)
	if err != nil {
		return "", false
	}
	if entry.Size != size || entry.Mtime != mtime {
		return "", false
	}
	return entry.Digest, true
}

// Store records the digest for a file along with the size and mtime it
// was computed against.
func (c *Cache) Store(algo digest.Algorithm, path, hexDigest string, size, mtime int64) error {
	entry := &Entry{
		Digest: hexDigest,
		Size:   size,
		Mtime:  mtime,
	}
	value, err := entry.Encode()
	if err != nil {
		return err
	}

	key := MakeKey(algo, path)
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// Delete removes the entry for a file, if present.
func (c *Cache) Delete(algo digest.Algorithm, path string) error {
	key := MakeKey(algo, path)
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// Purge removes every entry for the given algorithm.
func (c *Cache) Purge(algo digest.Algorithm) error {
	prefix := MakeKeyPrefix(algo)

	return c.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := txn.Delete(it.Item().KeyCopy(nil)); err != nil {
				return err
			}
		}
		return nil
	})
}

// get retrieves a raw entry by algorithm and path.
func (c *Cache) get(algo digest.Algorithm, path string) (*Entry, error) {
	key := MakeKey(algo, path)
	var entry Entry

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(entry.Decode)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
