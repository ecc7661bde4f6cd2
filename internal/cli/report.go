package cli

import (
	"fmt"

	"github.com/mfouesneau/gh-app/internal/installer"
	"github.com/mfouesneau/gh-app/internal/ui"
	"github.com/mfouesneau/gh-app/pkg/version"
)

// report renders one outcome on the console. Progress details were
// already printed by the dispatcher; this is the per-app verdict.
func report(r *ui.Reporter, o installer.Outcome) {
	switch o.Kind {
	case installer.KindUpToDate:
		r.Success("%s is up to date (%s)", o.App, version.Display(o.Local))
	case installer.KindUpdateAvailable:
		r.Info("%s %s -> %s available", o.App, version.Display(o.Local), version.Display(o.Remote))
	case installer.KindNotInstalled:
		if o.Remote != "" {
			r.Warn("%s is not installed (latest %s)", o.App, version.Display(o.Remote))
		} else {
			r.Warn("%s is not installed", o.App)
		}
	case installer.KindInstalled:
		r.Success("installed %s %s", o.App, version.Display(o.Remote))
	case installer.KindUpdated:
		r.Success("updated %s %s -> %s", o.App, version.Display(o.Local), version.Display(o.Remote))
	case installer.KindSkippedPixiManaged:
		// already reported by the dispatcher
	case installer.KindDryRun:
		r.Info("%s: %d step(s) previewed, nothing executed", o.App, len(o.Steps))
	case installer.KindFailed:
		r.Fail("%s [%s]: %v", o.App, o.ErrKind, o.Err)
	}
}

// finish prints all verdicts and converts failures into the exit
// error.
func finish(r *ui.Reporter, outcomes []installer.Outcome) error {
	failures := 0
	for _, o := range outcomes {
		report(r, o)
		if o.Kind == installer.KindFailed {
			failures++
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d app(s) failed", failures)
	}
	return nil
}
