//go:build integration

package integration_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testEnv holds paths to an isolated workspace: a fake platform template,
// a plugin search path and an application.
type testEnv struct {
	HomeDir     string // HOME, so user config never leaks in
	TemplateDir string // fake Android template with bin/create
	PluginsDir  string // plugin search path
	AppDir      string // config.xml and www/
	BuildDir    string // parent of generated platform projects
}

// androidCreate lays down the skeleton an Android template produces.
const androidCreate = `#!/bin/sh
root="$1"; pkg="$2"; name="$3"
mkdir -p "$root/cordova" "$root/assets/www" "$root/res/values" "$root/res/xml" "$root/src"
cat > "$root/AndroidManifest.xml" <<XML
<?xml version="1.0" encoding="utf-8"?>
<manifest xmlns:android="http://schemas.android.com/apk/res/android" package="$pkg" android:versionName="0.0.1">
    <uses-sdk android:minSdkVersion="24"/>
    <application android:label="@string/app_name"/>
</manifest>
XML
cat > "$root/res/values/strings.xml" <<XML
<?xml version="1.0" encoding="utf-8"?>
<resources>
    <string name="app_name">$name</string>
</resources>
XML
cat > "$root/cordova/defaults.xml" <<XML
<?xml version="1.0" encoding="utf-8"?>
<widget id="io.platkit.template" version="0.0.1">
    <preference name="loglevel" value="DEBUG"/>
</widget>
XML
echo "// android runtime" > "$root/assets/www/cordova.js"
printf '#!/bin/sh\necho "BUILD OK $*"\n' > "$root/cordova/build"
printf '#!/bin/sh\necho "no devices found" >&2\nexit 2\n' > "$root/cordova/run"
chmod +x "$root/cordova/build" "$root/cordova/run"
`

const appConfig = `<?xml version="1.0" encoding="utf-8"?>
<widget id="com.example.cameraapp" version="1.4.0" android-versionCode="14">
    <name>Camera App</name>
    <preference name="Fullscreen" value="true"/>
    <platform name="android">
        <preference name="AndroidLaunchMode" value="singleTop"/>
    </platform>
    <platform name="ios">
        <preference name="BackupWebStorage" value="none"/>
    </platform>
</widget>
`

// setupTestEnv creates the isolated workspace and points HOME at it.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	base := t.TempDir()
	env := &testEnv{
		HomeDir:     filepath.Join(base, "home"),
		TemplateDir: filepath.Join(base, "platkit-android"),
		PluginsDir:  filepath.Join(base, "plugins"),
		AppDir:      filepath.Join(base, "app"),
		BuildDir:    filepath.Join(base, "build"),
	}
	for _, dir := range []string{env.HomeDir, env.PluginsDir, env.BuildDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("creating %s: %v", dir, err)
		}
	}
	t.Setenv("HOME", env.HomeDir)

	writeExec(t, filepath.Join(env.TemplateDir, "bin", "create"), androidCreate)
	writeFile(t, filepath.Join(env.AppDir, "config.xml"), appConfig)
	writeFile(t, filepath.Join(env.AppDir, "www", "index.html"), "<html><body>camera</body></html>\n")
	writeFile(t, filepath.Join(env.AppDir, "www", "js", "app.js"), "document.title = 'camera';\n")
	return env
}

// writeProjectFile writes a project file for root and returns its path.
func (env *testEnv) writeProjectFile(t *testing.T, root string) string {
	t.Helper()
	path := filepath.Join(env.BuildDir, filepath.Base(root)+".yaml")
	writeFile(t, path, `platform: android
paths:
  root: `+root+`
  template: `+env.TemplateDir+`
  www: `+filepath.Join(env.AppDir, "www")+`
  plugins: [`+env.PluginsDir+`]
config: `+filepath.Join(env.AppDir, "config.xml")+`
variables:
  com.example.camera:
    CAMERA_USAGE: scan receipts
`)
	return path
}

// writeCameraPlugin writes a plugin touching every Android item kind it
// supports plus an asset, a JS module and two config targets.
func writeCameraPlugin(t *testing.T, pluginsDir string) string {
	t.Helper()
	dir := filepath.Join(pluginsDir, "camera")
	writeFile(t, filepath.Join(dir, "plugin.yaml"), `id: com.example.camera
version: 2.1.0
preferences:
  - name: CAMERA_USAGE
    default: take pictures
js_modules:
  - src: www/camera.js
    clobbers: [navigator.camera]
assets:
  - src: www/camera.css
    target: css/camera.css
platforms:
  android:
    files:
      - kind: source-file
        src: src/android/CameraLauncher.java
        target_dir: src/com/example/camera
      - kind: lib-file
        src: libs/exif.jar
      - kind: resource-file
        src: res/camera_strings.xml
        target: res/values/camera_strings.xml
    config_files:
      - target: res/xml/config.xml
        parent: /*
        xml: <feature name="Camera"><param name="android-package" value="com.example.camera.CameraLauncher"/></feature>
      - target: AndroidManifest.xml
        parent: /manifest
        after: application
        xml: <uses-permission android:name="android.permission.CAMERA"/>
      - target: res/xml/config.xml
        parent: /*
        xml: <preference name="CameraUsage" value="$CAMERA_USAGE"/>
`)
	writeFile(t, filepath.Join(dir, "www", "camera.js"), "\ufeffmodule.exports = { take: function () {} };\n")
	writeFile(t, filepath.Join(dir, "www", "camera.css"), ".camera { display: block; }\n")
	writeFile(t, filepath.Join(dir, "src", "android", "CameraLauncher.java"), "package com.example.camera;\n")
	writeFile(t, filepath.Join(dir, "libs", "exif.jar"), "PK")
	writeFile(t, filepath.Join(dir, "res", "camera_strings.xml"), "<resources/>\n")
	return dir
}

// writeStatusBarPlugin writes a plugin with a common config edit and a
// JSON module.
func writeStatusBarPlugin(t *testing.T, pluginsDir string) string {
	t.Helper()
	dir := filepath.Join(pluginsDir, "statusbar")
	writeFile(t, filepath.Join(dir, "plugin.yaml"), `id: com.example.statusbar
version: 0.3.0
js_modules:
  - src: www/defaults.json
    runs: true
config_files:
  - target: config.xml
    parent: /widget
    xml: <preference name="StatusBarOverlaysWebView" value="false"/>
`)
	writeFile(t, filepath.Join(dir, "www", "defaults.json"), `{"style": "dark"}`+"\n")
	return dir
}

// writeFile creates a file with the given content, creating parent dirs.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func writeExec(t *testing.T, path, content string) {
	t.Helper()
	writeFile(t, path, content)
	if err := os.Chmod(path, 0755); err != nil {
		t.Fatalf("chmod %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

// assertFileExists fails the test if path does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file to exist: %s", path)
	}
}

func assertContains(t *testing.T, content, substr string) {
	t.Helper()
	if !strings.Contains(content, substr) {
		t.Errorf("content does not contain %q\n--- content ---\n%s", substr, content)
	}
}

func assertNotContains(t *testing.T, content, substr string) {
	t.Helper()
	if strings.Contains(content, substr) {
		t.Errorf("content should not contain %q\n--- content ---\n%s", substr, content)
	}
}
