// Package cache provides file-based caching of per-unit analysis
// results, keyed by content hash so edits invalidate naturally.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/evidence"
	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/rules"
	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/score"
	"github.com/dooosp/ghostcode-auditor/pkg/analyzer/unit"
)

// Cache stores per-unit scan results on disk.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// Entry is one cached unit result. Evidence and scores are the
// expensive parts of a scan; extraction is cheap enough to redo.
type Entry struct {
	Evidence  *evidence.Evidence `json:"evidence"`
	Scores    score.UnitScores   `json:"scores"`
	Matches   []rules.Match      `json:"matches,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// New creates a cache rooted at dir. A disabled cache is a valid
// no-op instance.
func New(dir string, ttlDays int, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	return &Cache{
		dir:     dir,
		ttl:     time.Duration(ttlDays) * 24 * time.Hour,
		enabled: true,
	}, nil
}

// Enabled reports whether the cache persists anything.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// HashFile computes a BLAKE3 hash of a file's contents, truncated to
// 16 hex characters for compact keys.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return HashBytes(data), nil
}

// HashBytes computes a truncated BLAKE3 hash of bytes.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])[:16]
}

// Key derives the cache key for one unit: file content hash, unit
// span, and ruleset version. Any of the three changing misses.
func Key(fileHash string, span unit.Span, rulesetVersion string) string {
	raw := fmt.Sprintf("%s|%d:%d|%s", fileHash, span.Start, span.End, rulesetVersion)
	sum := blake3.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])[:32]
}

// Get retrieves a cached entry if present and unexpired.
func (c *Cache) Get(key string) (*Entry, bool) {
	if !c.enabled {
		return nil, false
	}

	path := c.keyPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}

	if time.Since(entry.Timestamp) > c.ttl {
		os.Remove(path)
		return nil, false
	}

	return &entry, true
}

// Set stores an entry under key.
func (c *Cache) Set(key string, entry *Entry) error {
	if !c.enabled {
		return nil
	}

	entry.Timestamp = time.Now()
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return os.WriteFile(c.keyPath(key), data, 0644)
}

// Clear removes all cached entries.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			os.Remove(filepath.Join(c.dir, e.Name()))
		}
	}
	return nil
}

// Stats reports entry count and total size on disk.
func (c *Cache) Stats() (count int, bytes int64) {
	if !c.enabled {
		return 0, 0
	}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, 0
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		count++
		if info, err := e.Info(); err == nil {
			bytes += info.Size()
		}
	}
	return count, bytes
}

func (c *Cache) keyPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}
