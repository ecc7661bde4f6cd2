package installer

import (
	"context"
	"fmt"

	"github.com/mfouesneau/gh-app/internal/config"
)

// Batch orchestrates the dispatcher over an ordered app list.
type Batch struct {
	Installer   *Installer
	StopOnError bool
}

// Run processes each app in order and returns one outcome per app
// processed, preserving input order. A non-empty selector restricts
// the run to the single app matching by name or bin. With StopOnError
// set, iteration halts immediately after recording a failure.
func (b *Batch) Run(ctx context.Context, apps []config.App, selector string, mode Mode) ([]Outcome, error) {
	selected := apps
	if selector != "" {
		selected = nil
		for i := range apps {
			if apps[i].Name == selector || apps[i].Bin == selector {
				selected = apps[i : i+1]
				break
			}
		}
		if selected == nil {
			return nil, fmt.Errorf("app %q not found in configuration", selector)
		}
	}

	var outcomes []Outcome
	for i := range selected {
		outcome := b.Installer.Process(ctx, &selected[i], mode)
		outcomes = append(outcomes, outcome)
		if outcome.Kind == KindFailed && b.StopOnError {
			break
		}
	}
	return outcomes, nil
}

// Failed reports whether any outcome is a failure; it decides the
// process exit status.
func Failed(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if o.Kind == KindFailed {
			return true
		}
	}
	return false
}
