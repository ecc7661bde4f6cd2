// Package cli wires the cobra command tree around the install engine.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mfouesneau/gh-app/internal/config"
	"github.com/mfouesneau/gh-app/internal/ghrelease"
	"github.com/mfouesneau/gh-app/internal/hostenv"
	"github.com/mfouesneau/gh-app/internal/installer"
	"github.com/mfouesneau/gh-app/internal/platform"
	"github.com/mfouesneau/gh-app/internal/shell"
	"github.com/mfouesneau/gh-app/internal/ui"
)

// Version is stamped at link time; keep the default digit-led so the
// self-update comparison always has something to parse.
var Version = "0.0.0-dev"

// SelfRepo is the repository self-update resolves against.
const SelfRepo = "mfouesneau/gh-app"

var (
	configPath  string
	stopOnError bool
	debug       bool
)

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gh-app",
		Short:         "Install and update applications from GitHub releases",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if debug {
				log.SetLevel(log.DebugLevel)
				log.Debug("debug logging enabled", "PATH", os.Getenv("PATH"))
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the apps configuration file")
	cmd.PersistentFlags().BoolVar(&stopOnError, "stop-on-error", false, "Stop on first error instead of continuing")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug diagnostics")

	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newInstallCmd())
	cmd.AddCommand(newSelfUpdateCmd())
	cmd.AddCommand(newInitCmd())

	return cmd
}

// env bundles everything the subcommands share for one run.
type env struct {
	file     *config.File
	batch    *installer.Batch
	reporter *ui.Reporter
}

// setup detects the platform, locates (or creates) the apps file and
// assembles the engine. Failures here abort the whole run; per-app
// errors never do.
func setup() (*env, error) {
	reporter := ui.New()

	plat, err := platform.Detect()
	if err != nil {
		return nil, err
	}
	log.Debug("platform", "os", plat.OS, "arch", plat.Arch, "suffix", plat.Suffix, "bin_dir", plat.BinDir)
	if hostenv.IsNoExecMount(plat.BinDir) {
		reporter.Warn("%s is mounted noexec, installed binaries will not run from there", plat.BinDir)
	}

	path, err := config.Locate(configPath)
	if err != nil {
		if configPath == "" && errors.Is(err, config.ErrNotFound) {
			// first run: create a starter config and continue with it
			if werr := config.WriteSample(config.DefaultFileName); werr != nil {
				return nil, werr
			}
			reporter.Warn("no configuration found, created sample %s", config.DefaultFileName)
			path = config.DefaultFileName
		} else {
			return nil, err
		}
	}
	file, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	resolver := ghrelease.NewResolver()
	ins := &installer.Installer{
		Platform: plat,
		Runner:   &shell.Interp{},
		Resolver: resolver,
		Reporter: reporter,
	}
	return &env{
		file:     file,
		batch:    &installer.Batch{Installer: ins, StopOnError: stopOnError},
		reporter: reporter,
	}, nil
}

func selectorArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
