// Package platform knows the native targets a project can be generated for.
// Each target is a Handler: it maps plugin items onto its own directory
// layout, locates its config file and web root, and pushes project identity
// into its native manifests. The package also holds the filesystem helpers
// the handlers share (copying and permission management).
package platform
