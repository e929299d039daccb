// Package artifacts manages the on-disk results of apply runs: rewritten
// HTML pages, named by a human-readable URL slug plus a stable short hash.
package artifacts

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	DefaultBaseDir = "fontshim-results"
	RewrittenDir   = "rewritten"
	CSSCacheDir    = "css-cache"
)

// Manager handles storage and retrieval of rewritten-page artifacts.
type Manager struct {
	baseDir string
	maxAge  time.Duration // age at which a stored artifact counts as stale
}

// NewManager creates the artifact directories under baseDir.
func NewManager(baseDir string, maxAge time.Duration) (*Manager, error) {
	if baseDir == "" {
		baseDir = DefaultBaseDir
	}
	if err := os.MkdirAll(filepath.Join(baseDir, RewrittenDir), 0750); err != nil {
		return nil, fmt.Errorf("failed to create rewritten directory: %w", err)
	}
	return &Manager{baseDir: baseDir, maxAge: maxAge}, nil
}

// CSSCachePath returns the directory the CSS body cache lives in.
func (m *Manager) CSSCachePath() string {
	return filepath.Join(m.baseDir, CSSCacheDir)
}

// MaxAge returns the configured artifact max age.
func (m *Manager) MaxAge() time.Duration {
	return m.maxAge
}

// normalizeURL creates a canonical representation of a URL for hashing:
// lowercase host, sorted query, fragment stripped.
func normalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	u.Host = strings.ToLower(u.Host)
	if u.RawQuery != "" {
		params := u.Query()
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sorted := url.Values{}
		for _, k := range keys {
			for _, v := range params[k] {
				sorted.Add(k, v)
			}
		}
		u.RawQuery = sorted.Encode()
	}
	u.Fragment = ""
	return u.String(), nil
}

func shortHash(s string) string {
	hash := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", hash[:6])
}

var invalidFilenameChar = regexp.MustCompile(`[^a-zA-Z0-9\-_]+`)

// slug makes a filesystem-safe name from a URL, host first.
func slug(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		safe := invalidFilenameChar.ReplaceAllString(rawURL, "_")
		return strings.Trim(safe, "_")
	}
	hostPart := strings.ReplaceAll(u.Host, ".", "_")
	pathPart := invalidFilenameChar.ReplaceAllString(strings.TrimPrefix(u.Path, "/"), "_")
	pathPart = strings.Trim(pathPart, "_")
	if pathPart == "" {
		return hostPart
	}
	return fmt.Sprintf("%s_%s", hostPart, pathPart)
}

// RewrittenPath returns the artifact path for a page URL.
func (m *Manager) RewrittenPath(pageURL string) (string, error) {
	normalized, err := normalizeURL(pageURL)
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("%s-%s.html", slug(pageURL), shortHash(normalized))
	return filepath.Join(m.baseDir, RewrittenDir, filename), nil
}

// GetRewritten retrieves a previously rewritten page if still fresh.
func (m *Manager) GetRewritten(pageURL string) ([]byte, bool, error) {
	path, err := m.RewrittenPath(pageURL)
	if err != nil {
		return nil, false, err
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("error statting artifact: %w", err)
	}
	if m.maxAge > 0 && time.Since(info.ModTime()) > m.maxAge {
		return nil, false, nil // stale
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, false, fmt.Errorf("error reading artifact: %w", err)
	}
	return data, true, nil
}

// SetRewritten stores a rewritten page.
func (m *Manager) SetRewritten(pageURL string, data []byte) error {
	path, err := m.RewrittenPath(pageURL)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0640); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}
