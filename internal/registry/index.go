package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/platkit-labs/platkit/internal/branding"
)

// CachedIndex holds a cached plugin listing along with search path
// modification times used for invalidation.
type CachedIndex struct {
	Plugins  []Summary        `json:"plugins"`
	PathMods map[string]int64 `json:"path_mods"` // search path -> mtime unix nanos
	CachedAt time.Time        `json:"cached_at"`
}

// DefaultCachePath returns the default cache file path: ~/.platkit/plugin-index.json.
func DefaultCachePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, branding.HomeDir(), "plugin-index.json"), nil
}

// ListCached returns plugin summaries for searchPaths, using the cache file
// when it is still valid. On a miss it rescans and rewrites the cache. Scan
// errors are returned with whatever summaries could be built, and a scan
// with errors is never cached.
func ListCached(searchPaths []string, cachePath string, opts LoadOptions) ([]Summary, error) {
	cached, err := loadCache(cachePath)
	if err == nil && isCacheValid(cached, searchPaths) {
		return cached.Plugins, nil
	}

	plugins, scanErr := LoadPlugins(searchPaths, opts)
	summaries := Summarize(plugins)
	if scanErr != nil {
		return summaries, scanErr
	}

	// Best effort; listing still works without caching.
	writeCache(cachePath, summaries, searchPaths)
	return summaries, nil
}

// loadCache reads and parses the cache file.
func loadCache(path string) (*CachedIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var idx CachedIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, err
	}
	return &idx, nil
}

// isCacheValid checks whether the cached mtimes still match the current
// directory mtimes. Any change (or missing path) invalidates.
func isCacheValid(cached *CachedIndex, searchPaths []string) bool {
	if cached == nil || len(cached.PathMods) == 0 {
		return false
	}
	if len(cached.PathMods) != len(searchPaths) {
		return false
	}
	for _, sp := range searchPaths {
		cachedMtime, ok := cached.PathMods[sp]
		if !ok {
			return false
		}
		if latestMtime(sp) != cachedMtime {
			return false
		}
	}
	return true
}

// latestMtime returns the latest modification time across the search path,
// its immediate subdirectories, and any manifest directly inside them. This
// catches added, removed, and edited plugins without a full walk.
func latestMtime(root string) int64 {
	var latest int64
	bump := func(path string) {
		if fi, err := os.Stat(path); err == nil {
			if t := fi.ModTime().UnixNano(); t > latest {
				latest = t
			}
		}
	}

	bump(root)
	for _, name := range branding.ManifestNames() {
		bump(filepath.Join(root, name))
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return latest
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sub := filepath.Join(root, entry.Name())
		bump(sub)
		for _, name := range branding.ManifestNames() {
			bump(filepath.Join(sub, name))
		}
	}
	return latest
}

// writeCache serializes the summaries and search path mtimes to disk.
func writeCache(path string, plugins []Summary, searchPaths []string) {
	mods := make(map[string]int64, len(searchPaths))
	for _, sp := range searchPaths {
		mods[sp] = latestMtime(sp)
	}

	idx := CachedIndex{
		Plugins:  plugins,
		PathMods: mods,
		CachedAt: time.Now(),
	}

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return
	}

	os.MkdirAll(filepath.Dir(path), 0755)
	os.WriteFile(path, data, 0644)
}
