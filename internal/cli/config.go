package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"llamaconv/pkg/config"
)

func ConfigCommands(g *globalOpts) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the llamaconv config file",
	}
	configCmd.AddCommand(initConfigCommand(g))
	return configCmd
}

func initConfigCommand(g *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:     "init",
		Short:   "Write a config file with the defaults unless one already exists",
		Example: "llamaconv config init --config ./llamaconv.toml",
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := config.EnsureExists(g.configPath)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote default config to %s\n", g.configPath)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Config %s already exists, leaving it untouched\n", g.configPath)
			}
			return nil
		},
	}
}
