// Package plugin handles parsing and validation of plugin manifests. A
// manifest (plugin.yaml) declares the plugin's identity, the native files and
// web assets it contributes per target platform, its script modules, and the
// structural config edits it needs. Parsed manifests are returned as
// immutable Descriptors; schema validation runs against an embedded JSON
// Schema.
package plugin
