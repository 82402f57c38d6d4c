package platform

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/platkit-labs/platkit/internal/configxml"
	"github.com/platkit-labs/platkit/internal/errkind"
	"github.com/platkit-labs/platkit/internal/plugin"
)

// Installer places native plugin items into a platform tree. There is one
// method per plugin.ItemKind so that a new kind cannot be added without every
// platform deciding how to host it. A platform that cannot host a kind
// returns an error wrapping errkind.ErrUnsupportedItemKind.
type Installer interface {
	InstallSourceFile(item plugin.Item, pluginDir, root, pluginID string) error
	InstallHeaderFile(item plugin.Item, pluginDir, root, pluginID string) error
	InstallResourceFile(item plugin.Item, pluginDir, root, pluginID string) error
	InstallFramework(item plugin.Item, pluginDir, root, pluginID string) error
	InstallLibFile(item plugin.Item, pluginDir, root, pluginID string) error
}

// Handler is everything the project orchestrator needs to know about one
// native platform.
type Handler interface {
	Installer

	// Name is the platform key used in plugin manifests ("ios", "android").
	Name() string

	// ConfigXMLPath returns the platform's runtime config.xml under root.
	ConfigXMLPath(root string) (string, error)

	// WWWDir returns the web root under root.
	WWWDir(root string) string

	// ResolveConfigTarget maps a logical config target named by a plugin
	// ("config.xml", "AndroidManifest.xml", "*-Info.plist") to a file path.
	ResolveConfigTarget(root, target string) (string, error)

	// NormalizeName prepares an application name for the create script.
	NormalizeName(name string) string

	// UpdateFromConfig pushes project identity (package, version, display
	// name) from cfg into the native project files.
	UpdateFromConfig(root string, cfg *configxml.Config) error
}

var (
	_ Handler = (*IOS)(nil)
	_ Handler = (*Android)(nil)
)

// Factory builds a handler that logs to logger.
type Factory func(logger *slog.Logger) Handler

var factories = map[string]Factory{
	"ios":     func(l *slog.Logger) Handler { return NewIOS(l) },
	"android": func(l *slog.Logger) Handler { return NewAndroid(l) },
}

// Lookup returns the handler registered under name.
func Lookup(name string, logger *slog.Logger) (Handler, error) {
	f, ok := factories[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: platform %q (known: %s)", errkind.ErrNotFound, name, strings.Join(Names(), ", "))
	}
	return f(orDiscard(logger)), nil
}

// Names returns the registered platform names, sorted.
func Names() []string {
	names := make([]string, 0, len(factories))
	for n := range factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}

// files holds the copy logic shared by the handlers.
type files struct {
	platform string
	logger   *slog.Logger
}

// install copies a plugin-relative src to dst, warning about every file that
// held different content before.
func (f files) install(pluginID, pluginDir, src, dst string) error {
	from := filepath.Join(pluginDir, filepath.FromSlash(src))
	replaced, err := CopyPath(from, dst)
	for _, path := range replaced {
		f.logger.Warn("overwrote file with different content",
			"platform", f.platform, "plugin", pluginID, "path", path)
	}
	if err != nil {
		return err
	}
	f.logger.Debug("installed plugin file", "platform", f.platform, "plugin", pluginID, "src", src, "dst", dst)
	return nil
}

func (f files) unsupported(kind plugin.ItemKind) error {
	return fmt.Errorf("%w: %s on %s", errkind.ErrUnsupportedItemKind, kind, f.platform)
}

// Within joins the slash-separated rel onto root and rejects results that
// escape root.
func Within(root, rel string) (string, error) {
	p := filepath.Join(root, filepath.FromSlash(rel))
	r, err := filepath.Rel(root, p)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes %s", rel, root)
	}
	return p, nil
}
