// Package branding provides compile-time identity values for the CLI.
//
// The values live in branding.yaml next to this file and are baked into the
// binary with //go:embed. Hard defaults apply when a key is missing.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName       string   `yaml:"cli_name"`
	DisplayName   string   `yaml:"display_name"`
	Description   string   `yaml:"description"`
	HomeDir       string   `yaml:"home_dir"`
	StateDir      string   `yaml:"state_dir"`
	EnvPrefix     string   `yaml:"env_prefix"`
	GoModule      string   `yaml:"go_module"`
	ManifestNames []string `yaml:"manifest_names"`
}

func load() {
	once.Do(func() {
		// Set hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:       "platkit",
			DisplayName:   "Platkit",
			Description:   "Build and plugin manager for hybrid mobile platform projects",
			HomeDir:       ".platkit",
			StateDir:      ".platkit",
			EnvPrefix:     "PLATKIT",
			GoModule:      "github.com/platkit-labs/platkit",
			ManifestNames: []string{"plugin.yaml", "plugin.json"},
		}
		// Overlay with embedded YAML values.
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "platkit").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".platkit").
func HomeDir() string { load(); return defaults.HomeDir }

// StateDir returns the directory name, relative to a platform project root,
// that holds persisted engine state.
func StateDir() string { load(); return defaults.StateDir }

// EnvPrefix returns the environment variable prefix (e.g., "PLATKIT").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// GoModule returns the Go module path. Not consumed at runtime.
func GoModule() string { load(); return defaults.GoModule }

// ManifestNames returns the plugin manifest file names in lookup priority.
func ManifestNames() []string {
	load()
	out := make([]string, len(defaults.ManifestNames))
	copy(out, defaults.ManifestNames)
	return out
}

// EnvVar returns a fully qualified env var name, e.g., EnvVar("HOME") → "PLATKIT_HOME".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
