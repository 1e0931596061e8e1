package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/entrhq/securedocs-e2e/pkg/config"
)

const defaultConfigPath = "securedocs-e2e.yaml"

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the suite configuration",
		// Generating a config must work even when the current one is broken
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
	}
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration to a YAML file",
		Long: `Write the default configuration to path (default securedocs-e2e.yaml).

Every key can also be set through the environment with the SECUREDOCS_ prefix,
e.g. SECUREDOCS_TARGET_BASE_URL or SECUREDOCS_CREDENTIALS_ADMIN_PASSWORD.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigPath
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteTemplate(path, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}
