package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	viper.Reset()
	t.Cleanup(viper.Reset)
	return home
}

func TestLoadDefaults(t *testing.T) {
	withHome(t)
	Load()

	if got := LogLevel(); got != "info" {
		t.Errorf("LogLevel() = %q, want info", got)
	}
	if got := LogFormat(); got != "text" {
		t.Errorf("LogFormat() = %q, want text", got)
	}
	if got := SearchPaths(); len(got) != 0 {
		t.Errorf("SearchPaths() = %v, want empty", got)
	}
}

func TestSetPersists(t *testing.T) {
	home := withHome(t)
	Load()

	if err := Set(KeyDefaultPlatform, "android"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	list := "/a/plugins" + string(os.PathListSeparator) + "/b/plugins"
	if err := Set(KeyPluginSearchPath, list); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if FilePath() != filepath.Join(home, ".platkit", "config.yaml") {
		t.Errorf("FilePath() = %s", FilePath())
	}

	viper.Reset()
	Load()
	if got := DefaultPlatform(); got != "android" {
		t.Errorf("DefaultPlatform() = %q, want android", got)
	}
	paths := SearchPaths()
	if len(paths) != 2 || paths[0] != "/a/plugins" || paths[1] != "/b/plugins" {
		t.Errorf("SearchPaths() = %v", paths)
	}
	if got := Get(KeyPluginSearchPath); got != list {
		t.Errorf("Get(plugin_search_path) = %q, want %q", got, list)
	}
}

func TestSetRejectsUnknownKey(t *testing.T) {
	withHome(t)
	Load()
	if err := Set("colour", "blue"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestEnvOverrides(t *testing.T) {
	withHome(t)
	t.Setenv("PLATKIT_LOG_FORMAT", "json")
	t.Setenv("PLATKIT_PLUGIN_SEARCH_PATH", "/x"+string(os.PathListSeparator)+"/y")
	Load()

	if got := LogFormat(); got != "json" {
		t.Errorf("LogFormat() = %q, want json", got)
	}
	if got := SearchPaths(); len(got) != 2 || got[1] != "/y" {
		t.Errorf("SearchPaths() = %v", got)
	}
}

func TestSource(t *testing.T) {
	withHome(t)
	Load()
	if err := Set(KeyDefaultPlatform, "ios"); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PLATKIT_LOG_FORMAT", "json")
	Load()

	tests := map[string]string{
		KeyDefaultPlatform:  "file",
		KeyLogFormat:        "env",
		KeyLogLevel:         "default",
		KeyPluginSearchPath: "default",
	}
	for key, want := range tests {
		if got := Source(key); got != want {
			t.Errorf("Source(%s) = %q, want %q", key, got, want)
		}
	}
}
