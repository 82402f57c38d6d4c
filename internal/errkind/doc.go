// Package errkind defines the failure taxonomy shared by the plugin engine
// and the platform project lifecycle. Sentinel errors classify a failure,
// ItemError attributes it to a plugin and declared item, and Report collects
// the per-item failures of one batch operation so callers can inspect them
// with errors.Is / errors.As after the pass completes.
package errkind
