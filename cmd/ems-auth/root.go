package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the ems-auth CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ems-auth",
		Short:         "Employee records with token based authentication",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewBootstrapAdminCmd())

	return cmd
}
