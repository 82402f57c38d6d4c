package registry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/platkit-labs/platkit/internal/errkind"
	"github.com/platkit-labs/platkit/internal/plugin"
)

// Provider loads plugin descriptors and caches them by resolved directory,
// so the same directory always yields the same *plugin.Descriptor.
type Provider struct {
	mu     sync.Mutex
	cache  map[string]*plugin.Descriptor
	logger *slog.Logger
}

// NewProvider returns a Provider. A nil logger discards output.
func NewProvider(logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Provider{cache: make(map[string]*plugin.Descriptor), logger: logger}
}

// Get loads the plugin rooted at dir.
func (p *Provider) Get(dir string) (*plugin.Descriptor, error) {
	key, err := resolveDir(dir)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if d, ok := p.cache[key]; ok {
		return d, nil
	}
	d, err := plugin.Load(key)
	if err != nil {
		return nil, err
	}
	p.cache[key] = d
	return d, nil
}

// AllWithinSearchPath returns the plugins found at root. root itself may be
// a plugin; otherwise its immediate subdirectories are scanned in lexical
// order. Hidden directories are skipped. Plugins that fail to load are
// reported in the returned error; the valid ones are still returned.
func (p *Provider) AllWithinSearchPath(root string) ([]*plugin.Descriptor, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("search path %s: %w", root, errkind.ErrNotFound)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("search path %s is not a directory: %w", root, errkind.ErrNotFound)
	}

	if plugin.IsPluginDir(root) {
		d, err := p.Get(root)
		if err != nil {
			return nil, err
		}
		return []*plugin.Descriptor{d}, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading search path %s: %w", root, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var report errkind.Report
	var result []*plugin.Descriptor
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if !isDir(dir) || !plugin.IsPluginDir(dir) {
			continue
		}
		d, err := p.Get(dir)
		if err != nil {
			p.logger.Warn("skipping plugin", "dir", dir, "error", err)
			report.Add(errkind.Item(entry.Name(), "", err))
			continue
		}
		result = append(result, d)
	}
	return result, report.Err()
}

// LoadPlugins discovers plugins across searchPaths in order. Duplicates (by
// resolved path) keep their first position. Missing search paths and broken
// manifests are collected into the returned error, alongside every plugin
// that did load.
func (p *Provider) LoadPlugins(searchPaths []string, opts LoadOptions) ([]*plugin.Descriptor, error) {
	logger := opts.Logger
	if logger == nil {
		logger = p.logger
	}

	var report errkind.Report
	seen := make(map[string]bool)
	var result []*plugin.Descriptor

	for _, sp := range searchPaths {
		found, err := p.AllWithinSearchPath(sp)
		report.Add(err)
		for _, d := range found {
			if seen[d.Dir] {
				continue
			}
			seen[d.Dir] = true
			result = append(result, d)
		}
		logger.Debug("scanned search path", "path", sp, "plugins", len(found))
	}

	if opts.AddTests {
		var tests []*plugin.Descriptor
		for _, d := range result {
			testsDir := filepath.Join(d.Dir, testsDirName)
			if !plugin.IsPluginDir(testsDir) {
				continue
			}
			tp, err := p.Get(testsDir)
			if err != nil {
				report.Add(errkind.Item(d.ID, testsDirName, err))
				continue
			}
			key, _ := resolveDir(tp.Dir)
			if seen[key] {
				continue
			}
			seen[key] = true
			logger.Debug("adding test plugin", "plugin", tp.ID, "parent", d.ID)
			tests = append(tests, tp)
		}
		result = append(result, tests...)
	}

	return result, report.Err()
}

// LoadPlugins discovers plugins with a fresh Provider.
func LoadPlugins(searchPaths []string, opts LoadOptions) ([]*plugin.Descriptor, error) {
	return NewProvider(opts.Logger).LoadPlugins(searchPaths, opts)
}

// Summarize converts descriptors into listing summaries.
func Summarize(plugins []*plugin.Descriptor) []Summary {
	out := make([]Summary, 0, len(plugins))
	for _, d := range plugins {
		s := Summary{
			ID:          d.ID,
			Version:     d.Version,
			Name:        d.Name,
			Description: d.Description,
			Dir:         d.Dir,
		}
		for name := range d.Platforms {
			s.Platforms = append(s.Platforms, name)
		}
		sort.Strings(s.Platforms)
		out = append(out, s)
	}
	return out
}

// resolveDir returns the absolute, symlink-free form of dir.
func resolveDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real, nil
	}
	return abs, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
