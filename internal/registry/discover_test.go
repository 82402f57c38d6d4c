package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/platkit-labs/platkit/internal/errkind"
)

func writePlugin(t *testing.T, dir, id string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	content := fmt.Sprintf("id: %s\nversion: 1.0.0\nplatforms:\n  ios: {}\n", id)
	if err := os.WriteFile(filepath.Join(dir, "plugin.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadPlugins_SearchPathOrder(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, filepath.Join(root, "b-plugin"), "com.example.b")
	writePlugin(t, filepath.Join(root, "a-plugin"), "com.example.a")
	writePlugin(t, filepath.Join(root, ".hidden"), "com.example.hidden")
	if err := os.MkdirAll(filepath.Join(root, "not-a-plugin"), 0755); err != nil {
		t.Fatal(err)
	}

	plugins, err := LoadPlugins([]string{root}, LoadOptions{})
	if err != nil {
		t.Fatalf("LoadPlugins: %v", err)
	}
	if len(plugins) != 2 {
		t.Fatalf("got %d plugins, want 2", len(plugins))
	}
	if plugins[0].ID != "com.example.a" || plugins[1].ID != "com.example.b" {
		t.Errorf("order = [%s %s], want lexical by directory", plugins[0].ID, plugins[1].ID)
	}
}

func TestLoadPlugins_RootIsPlugin(t *testing.T) {
	root := filepath.Join(t.TempDir(), "solo")
	writePlugin(t, root, "com.example.solo")

	plugins, err := LoadPlugins([]string{root}, LoadOptions{})
	if err != nil {
		t.Fatalf("LoadPlugins: %v", err)
	}
	if len(plugins) != 1 || plugins[0].ID != "com.example.solo" {
		t.Fatalf("plugins = %v", plugins)
	}
}

func TestLoadPlugins_DeduplicatesByResolvedPath(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, filepath.Join(root, "foo"), "com.example.foo")

	// The same root, once directly and once through a non-clean path and the
	// plugin dir itself.
	paths := []string{root, filepath.Join(root, "foo", ".."), filepath.Join(root, "foo")}
	plugins, err := LoadPlugins(paths, LoadOptions{})
	if err != nil {
		t.Fatalf("LoadPlugins: %v", err)
	}
	if len(plugins) != 1 {
		t.Fatalf("got %d plugins, want 1", len(plugins))
	}
}

func TestLoadPlugins_Symlink(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, filepath.Join(root, "real"), "com.example.real")
	other := t.TempDir()
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(other, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	plugins, err := LoadPlugins([]string{root, other}, LoadOptions{})
	if err != nil {
		t.Fatalf("LoadPlugins: %v", err)
	}
	if len(plugins) != 1 {
		t.Fatalf("got %d plugins, want 1", len(plugins))
	}
}

func TestLoadPlugins_EmptyAndMissingRoots(t *testing.T) {
	empty := t.TempDir()
	plugins, err := LoadPlugins([]string{empty}, LoadOptions{})
	if err != nil {
		t.Fatalf("empty root should not error: %v", err)
	}
	if len(plugins) != 0 {
		t.Fatalf("got %d plugins, want 0", len(plugins))
	}

	writePlugin(t, filepath.Join(empty, "foo"), "com.example.foo")
	plugins, err = LoadPlugins([]string{filepath.Join(empty, "missing"), empty}, LoadOptions{})
	if !errors.Is(err, errkind.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing root, got %v", err)
	}
	if len(plugins) != 1 {
		t.Fatalf("valid plugins should still load, got %d", len(plugins))
	}
}

func TestLoadPlugins_BrokenManifestIsReported(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, filepath.Join(root, "good"), "com.example.good")
	bad := filepath.Join(root, "bad")
	if err := os.MkdirAll(bad, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bad, "plugin.yaml"), []byte("version: nope\n"), 0644); err != nil {
		t.Fatal(err)
	}

	plugins, err := LoadPlugins([]string{root}, LoadOptions{})
	if err == nil {
		t.Fatal("expected error for broken manifest")
	}
	var ie *errkind.ItemError
	if !errors.As(err, &ie) || ie.Plugin != "bad" {
		t.Errorf("expected ItemError for dir bad, got %v", err)
	}
	if len(plugins) != 1 || plugins[0].ID != "com.example.good" {
		t.Fatalf("plugins = %v", plugins)
	}
}

func TestLoadPlugins_AddTests(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, filepath.Join(root, "a"), "com.example.a")
	writePlugin(t, filepath.Join(root, "a", "tests"), "com.example.a.tests")
	writePlugin(t, filepath.Join(root, "b"), "com.example.b")
	// A tests dir without a manifest is ignored.
	if err := os.MkdirAll(filepath.Join(root, "b", "tests"), 0755); err != nil {
		t.Fatal(err)
	}

	without, err := LoadPlugins([]string{root}, LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(without) != 2 {
		t.Fatalf("without tests: got %d, want 2", len(without))
	}

	with, err := LoadPlugins([]string{root}, LoadOptions{AddTests: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(with) != 3 {
		t.Fatalf("with tests: got %d, want 3", len(with))
	}
	if with[2].ID != "com.example.a.tests" {
		t.Errorf("test plugin should be appended last, got %s", with[2].ID)
	}
}

func TestProvider_CachesByDir(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, filepath.Join(root, "foo"), "com.example.foo")

	p := NewProvider(nil)
	a, err := p.Get(filepath.Join(root, "foo"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.Get(filepath.Join(root, ".", "foo"))
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("expected the cached descriptor for the same directory")
	}
}

func TestSummarize(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, filepath.Join(root, "foo"), "com.example.foo")
	plugins, err := LoadPlugins([]string{root}, LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	s := Summarize(plugins)
	if len(s) != 1 || s[0].ID != "com.example.foo" || s[0].Version != "1.0.0" {
		t.Fatalf("Summarize = %+v", s)
	}
	if len(s[0].Platforms) != 1 || s[0].Platforms[0] != "ios" {
		t.Errorf("Platforms = %v, want [ios]", s[0].Platforms)
	}
}
