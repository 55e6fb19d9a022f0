// Package scancache stores per-log scan results keyed by log content so that
// unchanged logs are not re-parsed on repeated corpus runs.
package scancache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/jonathan/convscan/internal/types"
)

// Current schema version - increment when Entry format changes
const schemaVersion uint16 = 1

// DefaultMemoryEntries is the size of the in-memory layer.
const DefaultMemoryEntries = 1024

// Entry is the cached outcome of scanning one log.
type Entry struct {
	Schema   uint16
	Records  []types.Record
	Failures []types.ScanFailure
	Lines    int
	Headers  int
}

// Cache is a two-level cache: an LRU in memory in front of msgpack files on disk.
// A nil *Cache is valid and never hits. Thread-safe for concurrent access.
type Cache struct {
	mu  sync.RWMutex
	dir string
	mem *lru.Cache[string, *Entry]
}

// Open creates the cache directory if needed. An empty dir gives a memory-only cache.
func Open(dir string, memEntries int) (*Cache, error) {
	if memEntries <= 0 {
		memEntries = DefaultMemoryEntries
	}
	mem, err := lru.New[string, *Entry](memEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	if dir != "" {
		if err := os.MkdirAll(filepath.Join(dir, "scans"), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
		}
	}
	return &Cache{dir: dir, mem: mem}, nil
}

// Key derives the cache key for one log of one package under one profile.
func Key(profile, packageID, logPath string, content []byte) string {
	h := sha256.New()
	for _, part := range []string{profile, packageID, logPath} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) pathFor(key string) string {
	return filepath.Join(c.dir, "scans", key+".mp")
}

// Get returns the cached entry for key. A stale schema counts as a miss.
func (c *Cache) Get(key string) (*Entry, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	if e, ok := c.mem.Get(key); ok {
		return e, true, nil
	}
	if c.dir == "" {
		return nil, false, nil
	}

	c.mu.RLock()
	data, err := os.ReadFile(c.pathFor(key))
	c.mu.RUnlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var e Entry
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return nil, false, fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}
	if e.Schema != schemaVersion {
		return nil, false, nil
	}
	c.mem.Add(key, &e)
	return &e, true, nil
}

// Put stores the entry in memory and, when a directory is configured, on disk.
func (c *Cache) Put(key string, e *Entry) error {
	if c == nil || e == nil {
		return nil
	}
	e.Schema = schemaVersion
	c.mem.Add(key, e)
	if c.dir == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if err := msgpack.NewEncoder(f).Encode(e); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Atomic replace
	return os.Rename(tmp, p)
}

// Len reports the number of entries held in memory.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.mem.Len()
}
