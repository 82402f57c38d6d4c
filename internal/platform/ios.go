package platform

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/unicode/norm"

	"github.com/platkit-labs/platkit/internal/configxml"
	"github.com/platkit-labs/platkit/internal/errkind"
	"github.com/platkit-labs/platkit/internal/plugin"
)

// IOS lays plugins out in an Xcode project. Everything lives under a
// directory named after the .xcodeproj bundle found in the root.
type IOS struct {
	files
}

// NewIOS returns the iOS handler.
func NewIOS(logger *slog.Logger) *IOS {
	return &IOS{files{platform: "ios", logger: orDiscard(logger)}}
}

func (h *IOS) Name() string { return "ios" }

// ProjectName returns the stem of the single .xcodeproj in root.
func (h *IOS) ProjectName(root string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(root, "*.xcodeproj"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: no .xcodeproj in %s", errkind.ErrNotFound, root)
	}
	return strings.TrimSuffix(filepath.Base(matches[0]), ".xcodeproj"), nil
}

func (h *IOS) ConfigXMLPath(root string) (string, error) {
	name, err := h.ProjectName(root)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, name, "config.xml"), nil
}

func (h *IOS) WWWDir(root string) string { return filepath.Join(root, "www") }

func (h *IOS) ResolveConfigTarget(root, target string) (string, error) {
	switch {
	case target == "config.xml":
		return h.ConfigXMLPath(root)
	case target == "*-Info.plist" || target == "Info.plist":
		return h.infoPlistPath(root)
	}
	name, err := h.ProjectName(root)
	if err != nil {
		return "", err
	}
	return Within(filepath.Join(root, name), target)
}

// NormalizeName converts name to Unicode NFD, the form Xcode uses for file
// names on HFS+ and APFS.
func (h *IOS) NormalizeName(name string) string {
	return norm.NFD.String(name)
}

func (h *IOS) InstallSourceFile(item plugin.Item, pluginDir, root, pluginID string) error {
	return h.installPluginCode(item, pluginDir, root, pluginID)
}

func (h *IOS) InstallHeaderFile(item plugin.Item, pluginDir, root, pluginID string) error {
	return h.installPluginCode(item, pluginDir, root, pluginID)
}

func (h *IOS) InstallResourceFile(item plugin.Item, pluginDir, root, pluginID string) error {
	name, err := h.ProjectName(root)
	if err != nil {
		return err
	}
	dst := filepath.Join(root, name, "Resources", path.Base(item.Src))
	return h.install(pluginID, pluginDir, item.Src, dst)
}

// InstallFramework copies custom frameworks into the project. System
// frameworks are linked by the Xcode project itself, so they are only noted.
func (h *IOS) InstallFramework(item plugin.Item, pluginDir, root, pluginID string) error {
	if !item.Custom {
		h.logger.Info("system framework requested", "plugin", pluginID, "framework", item.Src)
		return nil
	}
	name, err := h.ProjectName(root)
	if err != nil {
		return err
	}
	dst := filepath.Join(root, name, pluginID, path.Base(item.Src))
	return h.install(pluginID, pluginDir, item.Src, dst)
}

func (h *IOS) InstallLibFile(item plugin.Item, pluginDir, root, pluginID string) error {
	return h.unsupported(plugin.KindLibFile)
}

func (h *IOS) installPluginCode(item plugin.Item, pluginDir, root, pluginID string) error {
	name, err := h.ProjectName(root)
	if err != nil {
		return err
	}
	dir := filepath.Join(root, name, "Plugins", pluginID)
	if item.TargetDir != "" {
		if dir, err = Within(dir, item.TargetDir); err != nil {
			return err
		}
	}
	return h.install(pluginID, pluginDir, item.Src, filepath.Join(dir, path.Base(item.Src)))
}

func (h *IOS) infoPlistPath(root string) (string, error) {
	name, err := h.ProjectName(root)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, name, name+"-Info.plist"), nil
}

// UpdateFromConfig writes the bundle identifier and versions into the
// project's Info.plist. A template without an Info.plist is left alone.
func (h *IOS) UpdateFromConfig(root string, cfg *configxml.Config) error {
	plistPath, err := h.infoPlistPath(root)
	if err != nil {
		return err
	}
	if _, err := os.Stat(plistPath); os.IsNotExist(err) {
		h.logger.Debug("no Info.plist to update", "path", plistPath)
		return nil
	}

	doc, err := configxml.ReadDocument(plistPath)
	if err != nil {
		return err
	}
	dict := doc.FindElement("/plist/dict")
	if dict == nil {
		return fmt.Errorf("%s: no top-level <dict>", plistPath)
	}

	bundleVersion := cfg.Root().SelectAttrValue("ios-CFBundleVersion", cfg.Version())
	for _, kv := range [][2]string{
		{"CFBundleIdentifier", cfg.PackageName()},
		{"CFBundleShortVersionString", cfg.Version()},
		{"CFBundleVersion", bundleVersion},
	} {
		if kv[1] != "" {
			setPlistString(dict, kv[0], kv[1])
		}
	}

	if err := configxml.WriteDocument(doc, plistPath); err != nil {
		return err
	}
	h.logger.Debug("updated Info.plist", "path", plistPath)
	return nil
}

// setPlistString sets <key>key</key><string>value</string> in dict, adding
// the pair when the key is absent.
func setPlistString(dict *etree.Element, key, value string) {
	children := dict.ChildElements()
	for i, child := range children {
		if child.Tag != "key" || strings.TrimSpace(child.Text()) != key {
			continue
		}
		if i+1 < len(children) && children[i+1].Tag == "string" {
			children[i+1].SetText(value)
			return
		}
		if i+1 < len(children) && children[i+1].Tag != "key" {
			dict.RemoveChild(children[i+1])
		}
		s := etree.NewElement("string")
		s.SetText(value)
		dict.InsertChildAt(child.Index()+1, s)
		return
	}
	dict.CreateElement("key").SetText(key)
	dict.CreateElement("string").SetText(value)
}
