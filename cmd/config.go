package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"flightbook/config"
)

func newConfigCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Manage the flightbook config file",
	}

	var force bool
	var path string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := path
			if target == "" {
				var err error
				if target, err = config.DefaultPath(); err != nil {
					return err
				}
			}
			if err := config.WriteDefault(target, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", target)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	initCmd.Flags().StringVar(&path, "path", "", "where to write the file")

	cfg.AddCommand(initCmd)
	return cfg
}
