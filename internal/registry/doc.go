// Package registry discovers plugins under one or more search paths. A
// search path may be a plugin directory itself or contain plugin directories
// one level down. Results are deduplicated by resolved absolute path, keep
// search-path order, and can optionally include each plugin's nested tests/
// plugin. A small mtime-validated index speeds up repeated listings.
package registry
