package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func (a *app) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the YAML config file",
	}
	cmd.AddCommand(a.configInitCmd())
	return cmd
}

func (a *app) configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init <file>",
		Short: "Write the effective configuration to a file",
		Long: `Write the configuration in effect (defaults, then --config, then --log-level)
as YAML, ready to be edited and passed back with --config.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := a.cfg.Save(path); err != nil {
				return err
			}
			a.log.Debug("saved config", "path", path)
			_, err := green.Fprintf(cmd.OutOrStdout(), "Wrote config: %s\n", path)
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
