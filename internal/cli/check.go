package cli

import (
	"github.com/spf13/cobra"

	"github.com/mfouesneau/gh-app/internal/installer"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [app]",
		Short: "Check installed versions against the latest releases",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup()
			if err != nil {
				return err
			}
			outcomes, err := e.batch.Run(cmd.Context(), e.file.Apps, selectorArg(args), installer.ModeCheck)
			if err != nil {
				return err
			}
			return finish(e.reporter, outcomes)
		},
	}
}
