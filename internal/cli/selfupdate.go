package cli

import (
	"github.com/spf13/cobra"

	"github.com/mfouesneau/gh-app/internal/ghrelease"
	"github.com/mfouesneau/gh-app/internal/platform"
	"github.com/mfouesneau/gh-app/internal/selfupdate"
	"github.com/mfouesneau/gh-app/internal/ui"
)

func newSelfUpdateCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "self-update",
		Short: "Update this tool to the latest release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plat, err := platform.Detect()
			if err != nil {
				return err
			}
			u := &selfupdate.Updater{
				Repo:           SelfRepo,
				Bin:            "gh-app",
				CurrentVersion: Version,
				Platform:       plat,
				Resolver:       ghrelease.NewResolver(),
				Reporter:       ui.New(),
			}
			return u.Run(cmd.Context(), dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview what would be done without doing it")
	return cmd
}
