package cli

import (
	"github.com/spf13/cobra"

	"github.com/mfouesneau/gh-app/internal/installer"
)

func newInstallCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "install [app]",
		Short: "Install or update applications",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			mode := installer.ModeInstall
			if dryRun {
				mode = installer.ModeDryRun
			}
			outcomes, err := e.batch.Run(cmd.Context(), e.file.Apps, selectorArg(args), mode)
			if err != nil {
				return err
			}
			return finish(e.reporter, outcomes)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview what would be done without doing it")
	return cmd
}
