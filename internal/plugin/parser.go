package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/platkit-labs/platkit/internal/branding"
	"github.com/platkit-labs/platkit/internal/errkind"
	"go.yaml.in/yaml/v3"
)

// ManifestPath returns the manifest file inside dir, or "" if dir does not
// look like a plugin.
func ManifestPath(dir string) string {
	for _, name := range branding.ManifestNames() {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p
		}
	}
	return ""
}

// IsPluginDir reports whether dir contains a plugin manifest.
func IsPluginDir(dir string) bool {
	return ManifestPath(dir) != ""
}

// Load reads the manifest in dir and returns its Descriptor with Dir set to
// the absolute plugin root.
func Load(dir string) (*Descriptor, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving plugin dir %s: %w", dir, err)
	}
	path := ManifestPath(abs)
	if path == "" {
		return nil, fmt.Errorf("no plugin manifest in %s: %w", abs, errkind.ErrNotFound)
	}
	d, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	d.Dir = abs
	return d, nil
}

// ParseFile reads a manifest file and returns the parsed Descriptor. Dir is
// set to the directory containing the file.
func ParseFile(path string) (*Descriptor, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	d.Dir = filepath.Dir(path)
	return d, nil
}

// Parse decodes manifest bytes and checks the fields the engine relies on:
// a non-empty id, a semantic version, known item kinds, and a src on every
// file, asset, and module.
func Parse(data []byte) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshaling YAML: %w", err)
	}

	if strings.TrimSpace(d.ID) == "" {
		return nil, fmt.Errorf("manifest missing required 'id' field")
	}

	v, err := semver.NewVersion(d.Version)
	if err != nil {
		return nil, fmt.Errorf("plugin %s: invalid version %q: %w", d.ID, d.Version, err)
	}
	d.semver = v

	if err := checkSources(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

func checkSources(d *Descriptor) error {
	names := make([]string, 0, len(d.Platforms))
	for name := range d.Platforms {
		names = append(names, name)
	}
	sort.Strings(names)

	sections := []PlatformSection{{JSModules: d.JSModules, Assets: d.Assets}}
	for _, name := range names {
		sections = append(sections, d.Platforms[name])
	}
	names = append([]string{""}, names...)

	for idx, sec := range sections {
		name := names[idx]
		where := "common"
		if name != "" {
			where = "platform " + name
		}
		for i, item := range sec.Files {
			if !item.Kind.Valid() {
				return errkind.Item(d.ID, item.Src, fmt.Errorf("%s files[%d]: kind %q: %w", where, i, item.Kind, errkind.ErrUnsupportedItemKind))
			}
			if item.Src == "" {
				return fmt.Errorf("plugin %s: %s files[%d]: missing src", d.ID, where, i)
			}
		}
		for i, a := range sec.Assets {
			if a.Src == "" || a.Target == "" {
				return fmt.Errorf("plugin %s: %s assets[%d]: src and target are required", d.ID, where, i)
			}
		}
		for i, m := range sec.JSModules {
			if m.Src == "" {
				return fmt.Errorf("plugin %s: %s js_modules[%d]: missing src", d.ID, where, i)
			}
		}
	}
	return nil
}

// readFile reads the contents of a file at the given path.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}
