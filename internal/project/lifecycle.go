package project

import (
	"fmt"

	"github.com/platkit-labs/platkit/internal/errkind"
)

// Stage is a point in the project lifecycle.
type Stage int

const (
	Unopened Stage = iota
	Opened
	PluginsAdded
	ConfigUpdated
	WwwCopied
)

func (s Stage) String() string {
	switch s {
	case Unopened:
		return "unopened"
	case Opened:
		return "opened"
	case PluginsAdded:
		return "plugins-added"
	case ConfigUpdated:
		return "config-updated"
	case WwwCopied:
		return "www-copied"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// require returns ErrInvalidState unless the project is in one of allowed.
func (p *Project) require(op string, allowed ...Stage) error {
	for _, s := range allowed {
		if p.stage == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %s not allowed while %s", errkind.ErrInvalidState, op, p.stage)
}

// opened lists every stage after Open.
var opened = []Stage{Opened, PluginsAdded, ConfigUpdated, WwwCopied}
