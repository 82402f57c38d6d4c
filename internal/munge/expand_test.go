package munge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platkit-labs/platkit/internal/errkind"
	"github.com/platkit-labs/platkit/internal/plugin"
)

func strPtr(s string) *string { return &s }

func edit(xml string) plugin.ConfigEdit {
	return plugin.ConfigEdit{Target: "config.xml", Parent: "/*", XML: xml}
}

func TestSubstituteLongestFirst(t *testing.T) {
	got := Substitute(`<p a="$FOO" b="$FOO_BAR" c="$MISSING"/>`, map[string]string{"FOO": "1", "FOO_BAR": "2"})
	assert.Equal(t, `<p a="1" b="2" c="$MISSING"/>`, got)
}

func TestVariablesPriority(t *testing.T) {
	d := &plugin.Descriptor{
		ID: "com.example.foo",
		Preferences: []plugin.Preference{
			{Name: "API_KEY", Default: strPtr("default-key")},
			{Name: PackageNameVar, Default: strPtr("from-default")},
			{Name: "REGION", Default: strPtr("eu")},
		},
	}
	opts := ExpandOptions{
		PackageName: "com.example.app",
		Vars:        map[string]map[string]string{"com.example.foo": {"API_KEY": "caller-key"}},
	}

	vars := opts.Variables(d)
	assert.Equal(t, "caller-key", vars["API_KEY"])
	assert.Equal(t, "com.example.app", vars[PackageNameVar])
	assert.Equal(t, "eu", vars["REGION"])
}

func TestExpandCanonicalizes(t *testing.T) {
	d := &plugin.Descriptor{
		ID:          "com.example.foo",
		Preferences: []plugin.Preference{{Name: "KEY"}},
		ConfigFiles: []plugin.ConfigEdit{edit("<feature name=\"Foo\">\n    <param name=\"k\" value=\"$KEY\" />\n</feature>")},
		Platforms: map[string]plugin.PlatformSection{
			"ios": {ConfigFiles: []plugin.ConfigEdit{{Target: "*-Info.plist", Parent: "/plist/dict", XML: "<key>$PACKAGE_NAME</key>"}}},
		},
	}

	m, report := Expand("ios", d, ExpandOptions{PackageName: "com.example.app"})
	require.NoError(t, report.Err())

	assert.Equal(t, 1, m.Count("config.xml", "/*", `<feature name="Foo"><param name="k" value="$KEY"/></feature>`),
		"unresolved variables stay verbatim")
	assert.Equal(t, 1, m.Count("*-Info.plist", "/plist/dict", `<key>com.example.app</key>`))

	android, _ := Expand("android", d, ExpandOptions{})
	assert.Equal(t, []string{"config.xml"}, android.FileNames())
}

func TestExpandReportsMalformedEdits(t *testing.T) {
	d := &plugin.Descriptor{
		ID: "com.example.bad",
		ConfigFiles: []plugin.ConfigEdit{
			edit(`<feature name="Ok"/>`),
			edit(`<feature name="Broken"`),
			{Target: "config.xml", Parent: "", XML: `<feature name="NoParent"/>`},
			{Target: "", Parent: "/*", XML: `<feature name="NoTarget"/>`},
		},
	}

	m, report := Expand("ios", d, ExpandOptions{})
	assert.Equal(t, 3, report.Len())
	assert.True(t, errors.Is(report, errkind.ErrMalformedEditDeclaration))
	assert.Equal(t, 1, m.Count("config.xml", "/*", `<feature name="Ok"/>`), "valid edits survive")

	var ie *errkind.ItemError
	require.True(t, errors.As(report, &ie))
	assert.Equal(t, "com.example.bad", ie.Plugin)
}

func TestExpandAllFoldsInOrder(t *testing.T) {
	shared := edit(`<feature name="Shared"/>`)
	a := &plugin.Descriptor{ID: "a", ConfigFiles: []plugin.ConfigEdit{shared, edit(`<feature name="A"/>`)}}
	b := &plugin.Descriptor{ID: "b", ConfigFiles: []plugin.ConfigEdit{shared, edit(`<feature name="B"`)}}

	ab, originsAB, reportAB := ExpandAll(context.Background(), "ios", []*plugin.Descriptor{a, b}, ExpandOptions{})
	ba, originsBA, reportBA := ExpandAll(context.Background(), "ios", []*plugin.Descriptor{b, a}, ExpandOptions{})

	assert.Equal(t, 2, ab.Count("config.xml", "/*", `<feature name="Shared"/>`))
	assert.Equal(t, ab, ba)
	assert.Equal(t, 1, reportAB.Len())
	assert.Equal(t, 1, reportBA.Len())

	assert.Equal(t, []string{"a", "b"}, originsAB.Plugins("config.xml", "/*", `<feature name="Shared"/>`))
	assert.Equal(t, []string{"a", "b"}, originsBA.Plugins("config.xml", "/*", `<feature name="Shared"/>`))
	assert.Equal(t, []string{"a"}, originsAB.Plugins("config.xml", "/*", `<feature name="A"/>`))
	assert.Empty(t, originsAB.Plugins("config.xml", "/*", `<feature name="B"/>`), "malformed edits have no origin")
}

func TestExpandAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := &plugin.Descriptor{ID: "a", ConfigFiles: []plugin.ConfigEdit{edit(`<feature name="A"/>`)}}

	m, _, report := ExpandAll(ctx, "ios", []*plugin.Descriptor{d}, ExpandOptions{})
	assert.True(t, m.Empty())
	assert.ErrorIs(t, report, context.Canceled)
}
