package plugin

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Descriptor is the in-memory form of one plugin manifest. Callers must treat
// it as read-only once returned by Load.
type Descriptor struct {
	ID          string                     `yaml:"id" json:"id"`
	Version     string                     `yaml:"version" json:"version"`
	Name        string                     `yaml:"name,omitempty" json:"name,omitempty"`
	Description string                     `yaml:"description,omitempty" json:"description,omitempty"`
	Preferences []Preference               `yaml:"preferences,omitempty" json:"preferences,omitempty"`
	JSModules   []JSModule                 `yaml:"js_modules,omitempty" json:"js_modules,omitempty"`
	Assets      []Asset                    `yaml:"assets,omitempty" json:"assets,omitempty"`
	ConfigFiles []ConfigEdit               `yaml:"config_files,omitempty" json:"config_files,omitempty"`
	Platforms   map[string]PlatformSection `yaml:"platforms,omitempty" json:"platforms,omitempty"`

	// Dir is the absolute path to the plugin root. Set by the loader.
	Dir string `yaml:"-" json:"-"`

	semver *semver.Version
}

// PlatformSection holds the declarations that apply to a single platform.
type PlatformSection struct {
	Files       []Item       `yaml:"files,omitempty" json:"files,omitempty"`
	JSModules   []JSModule   `yaml:"js_modules,omitempty" json:"js_modules,omitempty"`
	Assets      []Asset      `yaml:"assets,omitempty" json:"assets,omitempty"`
	ConfigFiles []ConfigEdit `yaml:"config_files,omitempty" json:"config_files,omitempty"`
}

// Preference declares a substitution variable and its optional default.
type Preference struct {
	Name    string  `yaml:"name" json:"name"`
	Default *string `yaml:"default,omitempty" json:"default,omitempty"`
}

// Item is one native file entry. Kind selects the install strategy.
type Item struct {
	Kind      ItemKind `yaml:"kind" json:"kind"`
	Src       string   `yaml:"src" json:"src"`
	TargetDir string   `yaml:"target_dir,omitempty" json:"target_dir,omitempty"`
	Target    string   `yaml:"target,omitempty" json:"target,omitempty"`
	Custom    bool     `yaml:"custom,omitempty" json:"custom,omitempty"`
}

// Asset is a web asset copied into the staged web root.
type Asset struct {
	Src    string `yaml:"src" json:"src"`
	Target string `yaml:"target" json:"target"`
}

// JSModule is a script module that is wrapped and registered with the web app.
type JSModule struct {
	Src      string   `yaml:"src" json:"src"`
	Name     string   `yaml:"name,omitempty" json:"name,omitempty"`
	Clobbers []string `yaml:"clobbers,omitempty" json:"clobbers,omitempty"`
	Merges   []string `yaml:"merges,omitempty" json:"merges,omitempty"`
	Runs     bool     `yaml:"runs,omitempty" json:"runs,omitempty"`
}

// ConfigEdit inserts XML into a config file under the node matched by Parent.
type ConfigEdit struct {
	Target string `yaml:"target" json:"target"`
	Parent string `yaml:"parent" json:"parent"`
	After  string `yaml:"after,omitempty" json:"after,omitempty"`
	XML    string `yaml:"xml" json:"xml"`
}

// ItemKind names a native file install strategy.
type ItemKind string

// The closed set of native item kinds.
const (
	KindSourceFile   ItemKind = "source-file"
	KindHeaderFile   ItemKind = "header-file"
	KindResourceFile ItemKind = "resource-file"
	KindFramework    ItemKind = "framework"
	KindLibFile      ItemKind = "lib-file"
)

// Kinds lists every native item kind in declaration order.
var Kinds = []ItemKind{KindSourceFile, KindHeaderFile, KindResourceFile, KindFramework, KindLibFile}

// Valid reports whether k is one of the known kinds.
func (k ItemKind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// SemVer returns the parsed plugin version.
func (d *Descriptor) SemVer() *semver.Version {
	return d.semver
}

// String returns "id@version".
func (d *Descriptor) String() string {
	return fmt.Sprintf("%s@%s", d.ID, d.Version)
}

// JSModulesFor returns the common modules followed by the platform's own.
func (d *Descriptor) JSModulesFor(platform string) []JSModule {
	return concat(d.JSModules, d.Platforms[platform].JSModules)
}

// AssetsFor returns the common assets followed by the platform's own.
func (d *Descriptor) AssetsFor(platform string) []Asset {
	return concat(d.Assets, d.Platforms[platform].Assets)
}

// ConfigEditsFor returns the common config edits followed by the platform's own.
func (d *Descriptor) ConfigEditsFor(platform string) []ConfigEdit {
	return concat(d.ConfigFiles, d.Platforms[platform].ConfigFiles)
}

// FilesFor returns the native items declared for platform.
func (d *Descriptor) FilesFor(platform string) []Item {
	return concat(nil, d.Platforms[platform].Files)
}

// Defaults returns the declared preference defaults keyed by name.
func (d *Descriptor) Defaults() map[string]string {
	out := make(map[string]string)
	for _, p := range d.Preferences {
		if p.Default != nil {
			out[p.Name] = *p.Default
		}
	}
	return out
}

// concat returns a fresh slice so callers cannot alias descriptor storage.
func concat[T any](a, b []T) []T {
	out := make([]T, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
