package platform

import (
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/platkit-labs/platkit/internal/configxml"
	"github.com/platkit-labs/platkit/internal/plugin"
)

// Android lays plugins out in an Android project rooted at root.
type Android struct {
	files
}

// NewAndroid returns the Android handler.
func NewAndroid(logger *slog.Logger) *Android {
	return &Android{files{platform: "android", logger: orDiscard(logger)}}
}

func (h *Android) Name() string { return "android" }

func (h *Android) ConfigXMLPath(root string) (string, error) {
	return filepath.Join(root, "res", "xml", "config.xml"), nil
}

func (h *Android) WWWDir(root string) string { return filepath.Join(root, "assets", "www") }

func (h *Android) ResolveConfigTarget(root, target string) (string, error) {
	switch target {
	case "config.xml", "res/xml/config.xml":
		return h.ConfigXMLPath(root)
	case "AndroidManifest.xml":
		return filepath.Join(root, "AndroidManifest.xml"), nil
	}
	return Within(root, target)
}

func (h *Android) NormalizeName(name string) string { return name }

func (h *Android) InstallSourceFile(item plugin.Item, pluginDir, root, pluginID string) error {
	dir, err := Within(root, item.TargetDir)
	if err != nil {
		return err
	}
	return h.install(pluginID, pluginDir, item.Src, filepath.Join(dir, path.Base(item.Src)))
}

func (h *Android) InstallHeaderFile(item plugin.Item, pluginDir, root, pluginID string) error {
	return h.unsupported(plugin.KindHeaderFile)
}

func (h *Android) InstallResourceFile(item plugin.Item, pluginDir, root, pluginID string) error {
	target := item.Target
	if target == "" {
		target = path.Base(item.Src)
	}
	dst, err := Within(root, target)
	if err != nil {
		return err
	}
	return h.install(pluginID, pluginDir, item.Src, dst)
}

// InstallFramework copies custom library projects to <id>/<src>. Other
// frameworks are Gradle dependencies and are only noted.
func (h *Android) InstallFramework(item plugin.Item, pluginDir, root, pluginID string) error {
	if !item.Custom {
		h.logger.Info("library reference requested", "plugin", pluginID, "framework", item.Src)
		return nil
	}
	dst, err := Within(filepath.Join(root, pluginID), item.Src)
	if err != nil {
		return err
	}
	return h.install(pluginID, pluginDir, item.Src, dst)
}

func (h *Android) InstallLibFile(item plugin.Item, pluginDir, root, pluginID string) error {
	dst := filepath.Join(root, "libs", path.Base(item.Src))
	return h.install(pluginID, pluginDir, item.Src, dst)
}

// UpdateFromConfig sets the manifest package and versionName and the
// app_name string resource. Files the template did not generate are skipped.
func (h *Android) UpdateFromConfig(root string, cfg *configxml.Config) error {
	if err := h.updateManifest(filepath.Join(root, "AndroidManifest.xml"), cfg); err != nil {
		return err
	}
	return h.updateStrings(filepath.Join(root, "res", "values", "strings.xml"), cfg)
}

func (h *Android) updateManifest(manifestPath string, cfg *configxml.Config) error {
	if _, err := os.Stat(manifestPath); os.IsNotExist(err) {
		h.logger.Debug("no AndroidManifest.xml to update", "path", manifestPath)
		return nil
	}
	doc, err := configxml.ReadDocument(manifestPath)
	if err != nil {
		return err
	}
	manifest := doc.SelectElement("manifest")
	if manifest == nil {
		h.logger.Warn("AndroidManifest.xml has no <manifest> root", "path", manifestPath)
		return nil
	}
	if pkg := cfg.PackageName(); pkg != "" {
		manifest.CreateAttr("package", pkg)
	}
	if v := cfg.Version(); v != "" {
		manifest.CreateAttr("android:versionName", v)
	}
	if code := cfg.Root().SelectAttrValue("android-versionCode", ""); code != "" {
		manifest.CreateAttr("android:versionCode", code)
	}
	return configxml.WriteDocument(doc, manifestPath)
}

func (h *Android) updateStrings(stringsPath string, cfg *configxml.Config) error {
	name := cfg.Name()
	if name == "" {
		return nil
	}
	if _, err := os.Stat(stringsPath); os.IsNotExist(err) {
		h.logger.Debug("no strings.xml to update", "path", stringsPath)
		return nil
	}
	doc, err := configxml.ReadDocument(stringsPath)
	if err != nil {
		return err
	}
	resources := doc.SelectElement("resources")
	if resources == nil {
		h.logger.Warn("strings.xml has no <resources> root", "path", stringsPath)
		return nil
	}
	appName := resources.FindElement("string[@name='app_name']")
	if appName == nil {
		appName = resources.CreateElement("string")
		appName.CreateAttr("name", "app_name")
	}
	appName.SetText(name)
	return configxml.WriteDocument(doc, stringsPath)
}
