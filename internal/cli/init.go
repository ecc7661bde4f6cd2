package cli

import (
	"github.com/spf13/cobra"

	"github.com/mfouesneau/gh-app/internal/config"
	"github.com/mfouesneau/gh-app/internal/ui"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a sample apps configuration file",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			path := configPath
			if path == "" {
				path = config.DefaultFileName
			}
			if err := config.WriteSample(path); err != nil {
				return err
			}
			ui.New().Success("created sample config file: %s", path)
			return nil
		},
	}
}
