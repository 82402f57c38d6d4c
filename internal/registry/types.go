package registry

import "log/slog"

// testsDirName is the conventional nested directory holding a plugin's
// test-harness plugin.
const testsDirName = "tests"

// LoadOptions controls plugin discovery.
type LoadOptions struct {
	// AddTests appends each discovered plugin's tests/ plugin, when present.
	AddTests bool
	Logger   *slog.Logger
}

// Summary is the listing view of a discovered plugin.
type Summary struct {
	ID          string   `json:"id"`
	Version     string   `json:"version"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Dir         string   `json:"dir"`
	Platforms   []string `json:"platforms,omitempty"`
}
