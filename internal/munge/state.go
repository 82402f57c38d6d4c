package munge

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/platkit-labs/platkit/internal/branding"
	"github.com/platkit-labs/platkit/internal/jsmodule"
	"github.com/platkit-labs/platkit/internal/platform"
)

// StateFileName is the state file inside the project's state directory.
const StateFileName = "state.json"

// InstalledPlugin records one plugin present in a project.
type InstalledPlugin struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	Dir     string `json:"dir,omitempty"`
}

// State is what a project remembers between invocations: the applied munge,
// the installed plugins in install order, and the packaged JS modules.
type State struct {
	Platform         string            `json:"platform"`
	Munge            Munge             `json:"munge"`
	InstalledPlugins []InstalledPlugin `json:"installed_plugins"`
	JSModules        []jsmodule.Module `json:"js_modules"`
}

// StatePath returns the state file location under root.
func StatePath(root string) string {
	return filepath.Join(root, branding.StateDir(), StateFileName)
}

// LoadState reads the state of the project at root. A project that has never
// been applied has an empty state and no error.
func LoadState(root string) (State, error) {
	path := StatePath(root)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("reading state: %w", err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("parsing state %s: %w", path, err)
	}
	s.Munge = s.Munge.Clone()
	return s, nil
}

// SaveState atomically writes s for the project at root.
func SaveState(root string, s State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	data = append(data, '\n')
	if err := platform.WriteFileAtomic(StatePath(root), data, 0644); err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	return nil
}

// Equal reports whether two states would persist identically.
func (s State) Equal(o State) bool {
	if s.Platform != o.Platform || !Equal(s.Munge, o.Munge) {
		return false
	}
	if len(s.InstalledPlugins) != len(o.InstalledPlugins) || len(s.JSModules) != len(o.JSModules) {
		return false
	}
	return (len(s.InstalledPlugins) == 0 || reflect.DeepEqual(s.InstalledPlugins, o.InstalledPlugins)) &&
		(len(s.JSModules) == 0 || reflect.DeepEqual(s.JSModules, o.JSModules))
}
