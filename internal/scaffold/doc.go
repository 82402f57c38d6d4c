// Package scaffold generates new plugin skeletons from embedded templates.
// It powers "platkit plugin new", producing a manifest, a JS module and a
// native stub per requested platform, and checks the manifest against the
// plugin schema before returning.
package scaffold
