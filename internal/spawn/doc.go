// Package spawn runs the native scripts a platform template ships (create,
// build, run). Output is streamed to the caller's terminal and stderr is
// captured so a failure can carry the script's diagnostics.
package spawn
