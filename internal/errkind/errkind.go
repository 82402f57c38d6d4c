package errkind

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds. Match them with errors.Is.
var (
	ErrNotFound                 = errors.New("not found")
	ErrConfigTargetMissing      = errors.New("config target missing")
	ErrUnsupportedItemKind      = errors.New("unsupported item kind")
	ErrAmbiguousModuleName      = errors.New("ambiguous module name")
	ErrExternalProcessFailure   = errors.New("external process failure")
	ErrMalformedEditDeclaration = errors.New("malformed edit declaration")
	ErrInvalidState             = errors.New("invalid project state")
)

// ItemError attributes a failure to one plugin and, optionally, the declared
// item (file src, module src, edit selector) that caused it.
type ItemError struct {
	Plugin string
	Item   string
	Err    error
}

func (e *ItemError) Error() string {
	switch {
	case e.Plugin == "" && e.Item == "":
		return e.Err.Error()
	case e.Item == "":
		return fmt.Sprintf("plugin %s: %v", e.Plugin, e.Err)
	case e.Plugin == "":
		return fmt.Sprintf("%s: %v", e.Item, e.Err)
	default:
		return fmt.Sprintf("plugin %s: %s: %v", e.Plugin, e.Item, e.Err)
	}
}

func (e *ItemError) Unwrap() error { return e.Err }

// Item builds an ItemError wrapping err.
func Item(plugin, item string, err error) *ItemError {
	return &ItemError{Plugin: plugin, Item: item, Err: err}
}

// Report collects the failures of one batch operation. The zero value is
// ready to use. A nil or empty Report is not an error; use Err to convert.
type Report struct {
	errs []error
}

// Add appends err to the report. Nil errors are ignored. A nested Report is
// flattened into this one.
func (r *Report) Add(err error) {
	if err == nil {
		return
	}
	if nested, ok := err.(*Report); ok && nested != r {
		if nested != nil {
			r.errs = append(r.errs, nested.errs...)
		}
		return
	}
	r.errs = append(r.errs, err)
}

// Len returns the number of collected failures.
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.errs)
}

// Errors returns a copy of the collected failures in the order they were added.
func (r *Report) Errors() []error {
	if r == nil {
		return nil
	}
	out := make([]error, len(r.errs))
	copy(out, r.errs)
	return out
}

// Err returns r as an error, or nil when nothing was collected.
func (r *Report) Err() error {
	if r.Len() == 0 {
		return nil
	}
	return r
}

func (r *Report) Error() string {
	if r.Len() == 1 {
		return r.errs[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d failures:", len(r.errs))
	for _, err := range r.errs {
		b.WriteString("\n  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap exposes the collected failures to errors.Is and errors.As.
func (r *Report) Unwrap() []error { return r.errs }

// ProcessError records a failed external script. Stderr holds the script's
// diagnostic output exactly as it was written.
type ProcessError struct {
	Path     string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Path, e.ExitCode)
	if e.Err != nil && e.ExitCode < 0 {
		msg = fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}
	return msg
}

// Unwrap reports the failure as ErrExternalProcessFailure and keeps the
// underlying exec error reachable.
func (e *ProcessError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrExternalProcessFailure}
	}
	return []error{ErrExternalProcessFailure, e.Err}
}
