package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/platkit-labs/platkit/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Setting keys.
const (
	KeyLogLevel         = "log_level"
	KeyLogFormat        = "log_format"
	KeyPluginSearchPath = "plugin_search_path"
	KeyDefaultPlatform  = "default_platform"
)

// Keys lists every recognized setting.
var Keys = []string{KeyLogLevel, KeyLogFormat, KeyPluginSearchPath, KeyDefaultPlatform}

// Dir returns the path to the platkit config directory (~/.platkit/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.platkit/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	viper.SetDefault(KeyLogLevel, "info")
	viper.SetDefault(KeyLogFormat, "text")
	viper.SetDefault(KeyDefaultPlatform, "")

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	if key == KeyPluginSearchPath {
		return strings.Join(SearchPaths(), string(os.PathListSeparator))
	}
	return viper.GetString(key)
}

// Source reports where the effective value of key comes from: "env",
// "file" or "default".
func Source(key string) string {
	if _, ok := os.LookupEnv(branding.EnvPrefix() + "_" + strings.ToUpper(key)); ok {
		return "env"
	}
	if viper.InConfig(key) {
		return "file"
	}
	return "default"
}

// LogLevel returns the configured slog level name.
func LogLevel() string { return viper.GetString(KeyLogLevel) }

// LogFormat returns "text" or "json".
func LogFormat() string { return viper.GetString(KeyLogFormat) }

// DefaultPlatform returns the platform used when a command names none.
func DefaultPlatform() string { return viper.GetString(KeyDefaultPlatform) }

// SearchPaths returns the plugin search path. The file may hold a YAML list;
// the environment variable is split on the OS path-list separator.
func SearchPaths() []string {
	raw := viper.Get(KeyPluginSearchPath)
	var paths []string
	switch v := raw.(type) {
	case string:
		paths = filepath.SplitList(v)
	case []string:
		paths = v
	case []any:
		for _, p := range v {
			paths = append(paths, fmt.Sprint(p))
		}
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Set writes a config key-value pair and saves the config file. Unknown keys
// are rejected. plugin_search_path takes a path list.
func Set(key, value string) error {
	if !IsKey(key) {
		return fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(Keys, ", "))
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	if key == KeyPluginSearchPath {
		viper.Set(key, filepath.SplitList(value))
	} else {
		viper.Set(key, value)
	}

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// IsKey reports whether key is a known setting.
func IsKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}
