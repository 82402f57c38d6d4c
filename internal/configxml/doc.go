// Package configxml wraps the XML config-file dialect used by platform
// projects. It loads and writes config documents, exposes the project
// identity (package name, display name, version), resolves parent selectors,
// grafts and prunes nodes by canonical identity, and merges a project-level
// config into a platform config.
package configxml
