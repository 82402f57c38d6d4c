// Package munge is the config-merge engine. A plugin's config edits are
// expanded into a Munge: reference-counted XML nodes keyed by target file
// and parent selector. Munges are folded across plugins, diffed against the
// persisted state of a project, and only the nodes whose count rises from
// zero are grafted into the files on disk. The persisted State records what
// was applied so a later pass, or a removal, can compute its delta.
package munge
