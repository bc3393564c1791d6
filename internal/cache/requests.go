package cache

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// requestEntry is one line of the request-cache journal.
type requestEntry struct {
	Signature string `json:"signature"`
	Response  string `json:"response"`
}

// RequestCache maps request signatures to raw response bodies. Entries are
// journaled to an append-only JSONL file and reloaded on open, so the
// cache persists across runs; nothing is ever evicted or expired.
type RequestCache struct {
	mu       sync.Mutex
	entries  map[string]string
	inflight map[string]*flight
	file     *os.File
	w        *bufio.Writer
}

type flight struct {
	done chan struct{}
	body string
	ok   bool
}

// OpenRequestCache opens (creating if needed) the request journal inside
// dir and loads all prior entries.
func OpenRequestCache(dir string) (*RequestCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}

	path := filepath.Join(dir, "requests.jsonl")
	c := &RequestCache{
		entries:  make(map[string]string),
		inflight: make(map[string]*flight),
	}

	if err := c.load(path); err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open request journal: %w", err)
	}
	c.file = file
	c.w = bufio.NewWriter(file)

	slog.Debug("request cache opened", "path", path, "entries", len(c.entries))
	return c, nil
}

func (c *RequestCache) load(path string) error {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open request journal: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)

	// Response bodies can be large XML documents.
	const maxCapacity = 16 * 1024 * 1024
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry requestEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			// A truncated final line from an interrupted run is not fatal.
			slog.Warn("skipping malformed cache journal line", "line", lineNum, "err", err)
			continue
		}
		c.entries[entry.Signature] = entry.Response
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading request journal: %w", err)
	}
	return nil
}

// Get returns the cached response body for sig, if present.
func (c *RequestCache) Get(sig string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	body, ok := c.entries[sig]
	return body, ok
}

// Put stores body under sig and commits it to the journal immediately, so
// an interrupted run keeps every completed fetch.
func (c *RequestCache) Put(sig, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.putLocked(sig, body)
}

func (c *RequestCache) putLocked(sig, body string) error {
	c.entries[sig] = body

	line, err := json.Marshal(requestEntry{Signature: sig, Response: body})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if _, err := c.w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := c.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush cache journal: %w", err)
	}
	return nil
}

// Do returns the cached body for sig or invokes fetch exactly once per key
// across concurrent callers. fetch reports whether its result should be
// cached (only full responses are); an uncacheable result is still handed
// to every waiter of this flight but will be re-fetched next time.
func (c *RequestCache) Do(sig string, fetch func() (string, bool)) string {
	c.mu.Lock()
	if body, ok := c.entries[sig]; ok {
		c.mu.Unlock()
		slog.Debug("request cache hit", "signature", sig)
		return body
	}
	if f, ok := c.inflight[sig]; ok {
		c.mu.Unlock()
		<-f.done
		return f.body
	}
	f := &flight{done: make(chan struct{})}
	c.inflight[sig] = f
	c.mu.Unlock()

	slog.Debug("request cache miss", "signature", sig)
	f.body, f.ok = fetch()

	c.mu.Lock()
	if f.ok {
		if err := c.putLocked(sig, f.body); err != nil {
			slog.Warn("failed to persist cache entry", "err", err)
		}
	}
	delete(c.inflight, sig)
	c.mu.Unlock()
	close(f.done)

	return f.body
}

// Len reports the number of cached responses.
func (c *RequestCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close flushes and closes the journal.
func (c *RequestCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.file == nil {
		return nil
	}
	if err := c.w.Flush(); err != nil {
		c.file.Close()
		return fmt.Errorf("failed to flush cache journal: %w", err)
	}
	err := c.file.Close()
	c.file = nil
	return err
}
