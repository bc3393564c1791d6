package cache

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// MatchCache records the composite record keys already emitted in a run
// session, preventing duplicate output rows when the same (book, catalog
// record) pair is normalized more than once. The backing file is
// namespaced by session, so a fresh invocation starts with an empty set
// while repeated passes inside one session share it.
type MatchCache struct {
	mu   sync.Mutex
	seen map[string]bool
	file *os.File
	w    *bufio.Writer
}

// OpenMatchCache opens the match set for the given session under
// dir/matches.
func OpenMatchCache(dir, session string) (*MatchCache, error) {
	matchDir := filepath.Join(dir, "matches")
	if err := os.MkdirAll(matchDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create match cache dir: %w", err)
	}

	path := filepath.Join(matchDir, session+".keys")
	c := &MatchCache{seen: make(map[string]bool)}

	if existing, err := os.Open(path); err == nil {
		scanner := bufio.NewScanner(existing)
		for scanner.Scan() {
			if key := scanner.Text(); key != "" {
				c.seen[key] = true
			}
		}
		existing.Close()
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("error reading match cache: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to open match cache: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open match cache: %w", err)
	}
	c.file = file
	c.w = bufio.NewWriter(file)

	slog.Debug("match cache opened", "path", path, "keys", len(c.seen))
	return c, nil
}

// Seen atomically checks and records key. The first caller for a key gets
// false and the key is committed to disk before the call returns; every
// later caller gets true.
func (c *MatchCache) Seen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.seen[key] {
		return true
	}
	c.seen[key] = true

	if _, err := c.w.WriteString(key + "\n"); err != nil {
		slog.Warn("failed to write match key", "key", key, "err", err)
	} else if err := c.w.Flush(); err != nil {
		slog.Warn("failed to flush match cache", "key", key, "err", err)
	}
	return false
}

// Len reports the number of recorded keys.
func (c *MatchCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

// Close flushes and closes the backing file.
func (c *MatchCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.file == nil {
		return nil
	}
	if err := c.w.Flush(); err != nil {
		c.file.Close()
		return fmt.Errorf("failed to flush match cache: %w", err)
	}
	err := c.file.Close()
	c.file = nil
	return err
}
