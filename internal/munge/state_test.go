package munge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platkit-labs/platkit/internal/jsmodule"
)

func TestStateRoundTrip(t *testing.T) {
	root := t.TempDir()

	empty, err := LoadState(root)
	require.NoError(t, err)
	assert.True(t, empty.Munge.Empty())
	assert.Empty(t, empty.InstalledPlugins)

	s := State{
		Platform:         "ios",
		Munge:            Munge{}.Add("config.xml", "/*", "", `<feature name="Foo"/>`, 2),
		InstalledPlugins: []InstalledPlugin{{ID: "com.example.foo", Version: "1.0.0", Dir: "/plugins/foo"}},
		JSModules:        []jsmodule.Module{{File: "plugins/com.example.foo/www/foo.js", ID: "com.example.foo.foo"}},
	}
	require.NoError(t, SaveState(root, s))

	data, err := os.ReadFile(StatePath(root))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"count": 2`)

	loaded, err := LoadState(root)
	require.NoError(t, err)
	assert.True(t, s.Equal(loaded))
	assert.Equal(t, s.InstalledPlugins, loaded.InstalledPlugins)
}

func TestStateEqual(t *testing.T) {
	a := State{Platform: "ios"}
	b := State{Platform: "ios", InstalledPlugins: []InstalledPlugin{}}
	assert.True(t, a.Equal(b), "nil and empty lists persist the same")

	b.InstalledPlugins = append(b.InstalledPlugins, InstalledPlugin{ID: "x"})
	assert.False(t, a.Equal(b))
}

func TestLoadStateCorrupt(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Dir(StatePath(root)), 0755))
	require.NoError(t, os.WriteFile(StatePath(root), []byte("{not json"), 0644))
	_, err := LoadState(root)
	assert.Error(t, err)
}
