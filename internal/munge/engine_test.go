package munge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platkit-labs/platkit/internal/errkind"
	"github.com/platkit-labs/platkit/internal/plugin"
)

const baseConfig = `<?xml version="1.0" encoding="utf-8"?>
<widget id="com.example.app" version="1.0.0">
    <name>App</name>
    <access origin="*"/>
</widget>
`

// tree is a temp directory whose logical targets resolve to files of the
// same name.
func tree(t *testing.T) (string, *Engine) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.xml"), []byte(baseConfig), 0644))
	resolve := ResolverFunc(func(target string) (string, error) {
		if strings.Contains(target, "..") {
			return "", errors.New("outside tree")
		}
		return filepath.Join(dir, target), nil
	})
	return dir, NewEngine(resolve, nil)
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestApplyGraftsAddedEntries(t *testing.T) {
	dir, e := tree(t)
	frag := Munge{}.Add("config.xml", "/*", "", `<feature name="Foo"/>`, 1)

	next, err := e.Apply(context.Background(), Munge{}, frag)
	require.NoError(t, err)
	assert.Equal(t, 1, next.Count("config.xml", "/*", `<feature name="Foo"/>`))

	cfg := read(t, filepath.Join(dir, "config.xml"))
	assert.Equal(t, 1, strings.Count(cfg, `<feature name="Foo"/>`))
	assert.Contains(t, cfg, "    <feature name=\"Foo\"/>\n", "written with four-space indentation")
}

func TestApplyIsIdempotent(t *testing.T) {
	dir, e := tree(t)
	frag := Munge{}.Add("config.xml", "/widget", "", `<feature name="Foo"/>`, 1)

	first, err := e.Apply(context.Background(), Munge{}, frag)
	require.NoError(t, err)
	before := read(t, filepath.Join(dir, "config.xml"))
	info, err := os.Stat(filepath.Join(dir, "config.xml"))
	require.NoError(t, err)

	second, err := e.Apply(context.Background(), first, frag)
	require.NoError(t, err)

	assert.Equal(t, 2, second.Count("config.xml", "/widget", `<feature name="Foo"/>`))
	assert.Equal(t, before, read(t, filepath.Join(dir, "config.xml")))
	info2, err := os.Stat(filepath.Join(dir, "config.xml"))
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), info2.ModTime(), "unchanged file must not be rewritten")
}

func TestApplyDeterministicAcrossOrder(t *testing.T) {
	a := Munge{}.Add("config.xml", "/*", "", `<feature name="A"/>`, 1)
	b := Munge{}.Add("config.xml", "/*", "", `<feature name="B"/>`, 1)

	dir1, e1 := tree(t)
	_, err := e1.Apply(context.Background(), Munge{}, Increment(a, b))
	require.NoError(t, err)

	dir2, e2 := tree(t)
	_, err = e2.Apply(context.Background(), Munge{}, Increment(b, a))
	require.NoError(t, err)

	assert.Equal(t, read(t, filepath.Join(dir1, "config.xml")), read(t, filepath.Join(dir2, "config.xml")))
}

func TestApplySharedEditRefCount(t *testing.T) {
	dir, e := tree(t)
	node := `<feature name="Shared"/>`
	frag := Increment(
		Munge{}.Add("config.xml", "/*", "", node, 1),
		Munge{}.Add("config.xml", "/*", "", node, 1),
	)

	next, err := e.Apply(context.Background(), Munge{}, frag)
	require.NoError(t, err)
	assert.Equal(t, 2, next.Count("config.xml", "/*", node))
	assert.Equal(t, 1, strings.Count(read(t, filepath.Join(dir, "config.xml")), node))
}

func TestApplyAfter(t *testing.T) {
	dir, e := tree(t)
	frag := Munge{}.
		Add("config.xml", "/*", "name", `<preference name="P" value="1"/>`, 1).
		Add("config.xml", "/*", "splash;icon", `<icon src="i.png"/>`, 1)

	_, err := e.Apply(context.Background(), Munge{}, frag)
	require.NoError(t, err)

	cfg := read(t, filepath.Join(dir, "config.xml"))
	iIcon := strings.Index(cfg, "<icon")
	iName := strings.Index(cfg, "<name>")
	iPref := strings.Index(cfg, "<preference")
	iAccess := strings.Index(cfg, "<access")
	assert.Less(t, iIcon, iName, "unmatched after inserts first")
	assert.Less(t, iName, iPref)
	assert.Less(t, iPref, iAccess)
}

func TestApplyPartialFailure(t *testing.T) {
	dir, e := tree(t)
	good := `<feature name="Good"/>`
	frag := Munge{}.
		Add("config.xml", "/*", "", good, 1).
		Add("config.xml", "/widget/platform[@name='ios']", "", `<feature name="Orphan"/>`, 1).
		Add("../escape.xml", "/*", "", `<x/>`, 1).
		Add("broken.xml", "/*", "", `<y/>`, 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.xml"), []byte("<<< not xml"), 0644))

	next, err := e.Apply(context.Background(), Munge{}, frag)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errkind.ErrConfigTargetMissing))

	var report *errkind.Report
	require.True(t, errors.As(err, &report))
	assert.Equal(t, 3, report.Len())

	assert.Equal(t, 1, next.Count("config.xml", "/*", good))
	assert.Equal(t, []string{"config.xml"}, next.FileNames(), "failed entries are not persisted")
	assert.Len(t, next.Selectors("config.xml"), 1)
	assert.Contains(t, read(t, filepath.Join(dir, "config.xml")), good)
}

func TestApplyAttributesFailuresToPlugins(t *testing.T) {
	_, e := tree(t)
	orphan := plugin.ConfigEdit{Target: "config.xml", Parent: "/widget/platform[@name='ios']", XML: `<feature name="Orphan"/>`}
	plugins := []*plugin.Descriptor{
		{ID: "com.example.b", ConfigFiles: []plugin.ConfigEdit{orphan}},
		{ID: "com.example.a", ConfigFiles: []plugin.ConfigEdit{orphan}},
		{ID: "com.example.c", ConfigFiles: []plugin.ConfigEdit{edit(`<feature name="Good"/>`)}},
		{ID: "com.example.d", ConfigFiles: []plugin.ConfigEdit{{Target: "../outside.xml", Parent: "/*", XML: `<x/>`}}},
	}
	frag, origins, report := ExpandAll(context.Background(), "ios", plugins, ExpandOptions{})
	require.NoError(t, report.Err())

	_, err := e.Attribute(origins).Apply(context.Background(), Munge{}, frag)
	require.Error(t, err)

	var r *errkind.Report
	require.True(t, errors.As(err, &r))
	owners := map[string]error{}
	for _, item := range r.Errors() {
		var ie *errkind.ItemError
		require.True(t, errors.As(item, &ie))
		owners[ie.Plugin] = ie.Err
	}
	require.Len(t, owners, 2)
	assert.ErrorIs(t, owners["com.example.a,com.example.b"], errkind.ErrConfigTargetMissing)
	assert.ErrorIs(t, owners["com.example.d"], errkind.ErrConfigTargetMissing)
	assert.Contains(t, err.Error(), "plugin com.example.a,com.example.b: config.xml /widget/platform[@name='ios']")
}

func TestApplyCreatesMissingFile(t *testing.T) {
	dir, e := tree(t)
	frag := Munge{}.
		Add("res/xml/extra.xml", "/resources", "", `<string name="x">y</string>`, 1).
		Add("nowhere.xml", "feature", "", `<param/>`, 1)

	next, err := e.Apply(context.Background(), Munge{}, frag)
	require.Error(t, err)

	extra := read(t, filepath.Join(dir, "res", "xml", "extra.xml"))
	assert.True(t, strings.HasPrefix(extra, `<?xml version="1.0" encoding="utf-8"?>`))
	assert.Contains(t, extra, `<string name="x">y</string>`)
	assert.Equal(t, 1, next.Count("res/xml/extra.xml", "/resources", `<string name="x">y</string>`))
	assert.Equal(t, 0, next.Count("nowhere.xml", "feature", `<param/>`))
	_, statErr := os.Stat(filepath.Join(dir, "nowhere.xml"))
	assert.True(t, os.IsNotExist(statErr), "no root tag means no file is created")
}

func TestUnapplyHonorsRefCount(t *testing.T) {
	dir, e := tree(t)
	node := `<feature name="Shared"/>`
	one := Munge{}.Add("config.xml", "/*", "", node, 1)

	state, err := e.Apply(context.Background(), Munge{}, Increment(one, one))
	require.NoError(t, err)

	state, err = e.Unapply(context.Background(), state, one)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Count("config.xml", "/*", node))
	assert.Contains(t, read(t, filepath.Join(dir, "config.xml")), node, "still referenced")

	state, err = e.Unapply(context.Background(), state, one)
	require.NoError(t, err)
	assert.True(t, state.Empty())
	assert.NotContains(t, read(t, filepath.Join(dir, "config.xml")), node)
}
