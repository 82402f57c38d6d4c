package jsmodule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/platkit-labs/platkit/internal/platform"
)

const (
	manifestHeader = "cordova.define('cordova/plugin_list', function(require, exports, module) {\n"
	exportsPrefix  = "module.exports = "
	metadataIntro  = ";\nmodule.exports.metadata = \n"
	topMarker      = "// TOP OF METADATA\n"
	bottomMarker   = "// BOTTOM OF METADATA\n"
	manifestFooter = "});"
)

// Render produces the manifest source for modules and plugin metadata.
func Render(modules []Module, metadata map[string]string) ([]byte, error) {
	if modules == nil {
		modules = []Module{}
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	mods, err := marshal(modules)
	if err != nil {
		return nil, fmt.Errorf("encoding module list: %w", err)
	}
	meta, err := marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("encoding plugin metadata: %w", err)
	}

	var b bytes.Buffer
	b.WriteString(manifestHeader)
	b.WriteString(exportsPrefix)
	b.Write(mods)
	b.WriteString(metadataIntro)
	b.WriteString(topMarker)
	b.Write(meta)
	b.WriteString("\n")
	b.WriteString(bottomMarker)
	b.WriteString(manifestFooter)
	return b.Bytes(), nil
}

// ReadManifest loads a manifest written by Flush.
func ReadManifest(path string) ([]Module, map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest is the inverse of Render.
func ParseManifest(data []byte) ([]Module, map[string]string, error) {
	body, ok := bytes.CutPrefix(data, []byte(manifestHeader+exportsPrefix))
	if !ok {
		return nil, nil, fmt.Errorf("manifest: missing plugin_list header")
	}
	modsJSON, rest, ok := bytes.Cut(body, []byte(metadataIntro))
	if !ok {
		return nil, nil, fmt.Errorf("manifest: missing metadata section")
	}
	_, rest, ok = bytes.Cut(rest, []byte(topMarker))
	if !ok {
		return nil, nil, fmt.Errorf("manifest: missing %q", topMarker)
	}
	metaJSON, _, ok := bytes.Cut(rest, []byte(bottomMarker))
	if !ok {
		return nil, nil, fmt.Errorf("manifest: missing %q", bottomMarker)
	}

	var modules []Module
	if err := json.Unmarshal(modsJSON, &modules); err != nil {
		return nil, nil, fmt.Errorf("manifest: decoding module list: %w", err)
	}
	metadata := map[string]string{}
	if err := json.Unmarshal(metaJSON, &metadata); err != nil {
		return nil, nil, fmt.Errorf("manifest: decoding metadata: %w", err)
	}
	return modules, metadata, nil
}

// marshal encodes v with four-space indentation and no HTML escaping, the
// layout JSON.stringify(v, null, 4) produces.
func marshal(v any) ([]byte, error) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(b.Bytes(), []byte("\n")), nil
}

func writeManifest(path string, data []byte) error {
	if err := platform.WriteFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
