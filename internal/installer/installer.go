// Package installer projects a plugin's native items and web assets into a
// platform tree.
package installer

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/platkit-labs/platkit/internal/errkind"
	"github.com/platkit-labs/platkit/internal/platform"
	"github.com/platkit-labs/platkit/internal/plugin"
)

// Install places one native item by dispatching on its kind. Failures are
// attributed to the plugin and item.
func Install(h platform.Installer, item plugin.Item, pluginDir, root, pluginID string) error {
	var err error
	switch item.Kind {
	case plugin.KindSourceFile:
		err = h.InstallSourceFile(item, pluginDir, root, pluginID)
	case plugin.KindHeaderFile:
		err = h.InstallHeaderFile(item, pluginDir, root, pluginID)
	case plugin.KindResourceFile:
		err = h.InstallResourceFile(item, pluginDir, root, pluginID)
	case plugin.KindFramework:
		err = h.InstallFramework(item, pluginDir, root, pluginID)
	case plugin.KindLibFile:
		err = h.InstallLibFile(item, pluginDir, root, pluginID)
	default:
		err = fmt.Errorf("%w: %q", errkind.ErrUnsupportedItemKind, item.Kind)
	}
	if err != nil {
		return errkind.Item(pluginID, string(item.Kind)+" "+item.Src, err)
	}
	return nil
}

// InstallAsset copies a plugin asset into wwwDir. Directory assets are
// copied recursively.
func InstallAsset(asset plugin.Asset, pluginDir, wwwDir string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	src := filepath.Join(pluginDir, filepath.FromSlash(asset.Src))
	dst := filepath.Join(wwwDir, filepath.FromSlash(asset.Target))
	if rel, err := filepath.Rel(wwwDir, dst); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("asset target %q escapes the web root", asset.Target)
	}

	replaced, err := platform.CopyPath(src, dst)
	for _, path := range replaced {
		logger.Warn("overwrote asset with different content", "path", path)
	}
	if err != nil {
		return fmt.Errorf("installing asset %s: %w", asset.Src, err)
	}
	return nil
}

// InstallPlugin installs every native item and asset d declares for the
// handler's platform. It keeps going after a failure; the returned Report
// lists every item that could not be installed.
func InstallPlugin(h platform.Handler, d *plugin.Descriptor, root string, logger *slog.Logger) *errkind.Report {
	var report errkind.Report
	for _, item := range d.FilesFor(h.Name()) {
		report.Add(Install(h, item, d.Dir, root, d.ID))
	}
	www := h.WWWDir(root)
	for _, asset := range d.AssetsFor(h.Name()) {
		if err := InstallAsset(asset, d.Dir, www, logger); err != nil {
			report.Add(errkind.Item(d.ID, "asset "+asset.Src, err))
		}
	}
	return &report
}
