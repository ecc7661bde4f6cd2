package installer

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/mfouesneau/gh-app/internal/shell"
	"github.com/mfouesneau/gh-app/pkg/version"
)

// probeFlags are tried in order of preference when asking a binary for
// its version.
var probeFlags = []string{"--version", "-V", "-v", "version"}

// probeVersion determines the installed version of bin by invoking it
// with common version flags, then bare (some tools only print a
// version in their help output). An empty result means not installed
// or no recognizable version.
func probeVersion(ctx context.Context, runner shell.Runner, bin string) string {
	for _, flag := range probeFlags {
		code, out, err := runner.Run(ctx, bin+" "+flag)
		if err != nil || code != 0 {
			continue
		}
		if v := version.Extract(out); v != "" {
			log.Debug("version detected", "bin", bin, "flag", flag, "version", v)
			return v
		}
	}

	_, out, _ := runner.Run(ctx, bin)
	if v := version.Extract(out); v != "" {
		log.Debug("version detected from bare invocation", "bin", bin, "version", v)
		return v
	}
	log.Debug("could not detect version", "bin", bin)
	return ""
}

// pixiManaged reports whether bin is installed through the pixi
// package manager. Absence of pixi itself means not managed.
func pixiManaged(ctx context.Context, runner shell.Runner, bin string) bool {
	if code, _, err := runner.Run(ctx, "pixi --version"); err != nil || code != 0 {
		return false
	}
	code, out, _ := runner.Run(ctx, "pixi global list "+bin)
	if code != 0 {
		return false
	}
	return !strings.Contains(out, "No global environments found")
}
