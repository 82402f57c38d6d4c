package jsmodule

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/platkit-labs/platkit/internal/errkind"
	"github.com/platkit-labs/platkit/internal/platform"
	"github.com/platkit-labs/platkit/internal/plugin"
)

// ManifestName is the generated manifest file in the web root.
const ManifestName = "cordova_plugins.js"

// Module is one entry of the generated manifest.
type Module struct {
	File     string   `json:"file"`
	ID       string   `json:"id"`
	Clobbers []string `json:"clobbers,omitempty"`
	Merges   []string `json:"merges,omitempty"`
	Runs     bool     `json:"runs,omitempty"`
}

var stemRe = regexp.MustCompile(`([^/]+)\.js`)

var bom = []byte("\ufeff")

// ModuleID returns the fully-qualified id of mod: the plugin id joined with
// the declared name, or with the source file stem when no name is given.
func ModuleID(pluginID string, mod plugin.JSModule) (string, error) {
	if mod.Name != "" {
		return pluginID + "." + mod.Name, nil
	}
	m := stemRe.FindStringSubmatch(mod.Src)
	if m == nil {
		return "", fmt.Errorf("%w: cannot derive a name from %q", errkind.ErrAmbiguousModuleName, mod.Src)
	}
	return pluginID + "." + m[1], nil
}

// Wrap returns content inside the module envelope registered under id. A
// leading byte-order mark is dropped; data-only (.json) sources are exported
// as a value.
func Wrap(id, src string, content []byte) []byte {
	content = bytes.TrimPrefix(content, bom)
	var b bytes.Buffer
	fmt.Fprintf(&b, "cordova.define(%q, function(require, exports, module) { ", id)
	if strings.HasSuffix(src, ".json") {
		b.WriteString("module.exports = ")
	}
	b.Write(content)
	b.WriteString("\n});\n")
	return b.Bytes()
}

// Packager accumulates the modules of one batch and writes the manifest once
// at the end. The zero value is not usable; call New.
type Packager struct {
	wwwDir  string
	modules []Module
	index   map[string]int
	logger  *slog.Logger
}

// New returns a packager writing under wwwDir.
func New(wwwDir string, logger *slog.Logger) *Packager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Packager{wwwDir: wwwDir, index: make(map[string]int), logger: logger}
}

// Seed preloads entries from an earlier batch so the next manifest keeps
// them.
func (p *Packager) Seed(mods []Module) {
	for _, m := range mods {
		p.put(m)
	}
}

// Add wraps one module of d, writes it to
// <www>/plugins/<plugin id>/<src>, and records its manifest entry. A
// module id that is already present keeps its position and takes the new
// entry. A src that leaves the plugin directory is rejected with
// errkind.ErrMalformedEditDeclaration.
func (p *Packager) Add(d *plugin.Descriptor, mod plugin.JSModule) (Module, error) {
	id, err := ModuleID(d.ID, mod)
	if err != nil {
		return Module{}, err
	}

	src, err := platform.Within(d.Dir, mod.Src)
	if err != nil {
		return Module{}, fmt.Errorf("%w: module %v", errkind.ErrMalformedEditDeclaration, err)
	}
	dst, err := platform.Within(filepath.Join(p.wwwDir, "plugins", d.ID), mod.Src)
	if err != nil {
		return Module{}, fmt.Errorf("%w: module %v", errkind.ErrMalformedEditDeclaration, err)
	}

	content, err := os.ReadFile(src)
	if err != nil {
		if os.IsNotExist(err) {
			return Module{}, fmt.Errorf("%w: module source %s", errkind.ErrNotFound, mod.Src)
		}
		return Module{}, fmt.Errorf("reading module %s: %w", mod.Src, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return Module{}, fmt.Errorf("creating module directory: %w", err)
	}
	if err := os.WriteFile(dst, Wrap(id, mod.Src, content), 0644); err != nil {
		return Module{}, fmt.Errorf("writing module %s: %w", dst, err)
	}

	m := Module{
		File:     path.Join("plugins", d.ID, mod.Src),
		ID:       id,
		Clobbers: clone(mod.Clobbers),
		Merges:   clone(mod.Merges),
		Runs:     mod.Runs,
	}
	p.put(m)
	p.logger.Debug("packaged js module", "id", id, "file", m.File)
	return m, nil
}

// Modules returns the entries in manifest order.
func (p *Packager) Modules() []Module {
	out := make([]Module, len(p.modules))
	copy(out, p.modules)
	return out
}

// Flush writes the manifest with the given plugin metadata (id to version).
func (p *Packager) Flush(metadata map[string]string) error {
	data, err := Render(p.modules, metadata)
	if err != nil {
		return err
	}
	return writeManifest(filepath.Join(p.wwwDir, ManifestName), data)
}

func (p *Packager) put(m Module) {
	if i, ok := p.index[m.ID]; ok {
		p.modules[i] = m
		return
	}
	p.index[m.ID] = len(p.modules)
	p.modules = append(p.modules, m)
}

func clone(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	return append([]string(nil), s...)
}
