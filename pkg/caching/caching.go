// Package caching provides a TTL file cache for fetched CSS bodies, keyed
// by source URL. It backs the host's same-origin stylesheet loader so a
// page's sheets are not re-downloaded on every apply.
package caching

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Cache stores one file per stylesheet URL under dir.
type Cache struct {
	dir string
	ttl time.Duration
}

// New creates a Cache rooted at dir, creating it if needed. A ttl of zero
// or less means entries never expire.
func New(dir string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir, ttl: ttl}, nil
}

// key hashes the URL into a stable filename.
func (c *Cache) key(url string) string {
	hash := sha256.Sum256([]byte(url))
	return fmt.Sprintf("%x.css", hash)
}

// Get returns the cached CSS body for url and true on a fresh hit.
func (c *Cache) Get(url string) ([]byte, bool) {
	path := filepath.Join(c.dir, c.key(url))

	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if c.ttl > 0 && time.Since(info.ModTime()) > c.ttl {
		return nil, false // expired
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores the CSS body for url.
func (c *Cache) Set(url string, body []byte) error {
	path := filepath.Join(c.dir, c.key(url))
	if err := os.WriteFile(path, body, 0640); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}
