package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-ems-auth/config"
	"github.com/goliatone/go-ems-auth/persistence"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log)

	cmd.Println("Connecting to database...")
	db, err := openDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	cmd.Println("Creating schema...")
	if err := persistence.Migrate(ctx, db); err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "create schema").Wrap(err)
	}

	cmd.Println("Schema is up to date")
	return nil
}

// NewBootstrapAdminCmd creates the bootstrap-admin subcommand.
func NewBootstrapAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap-admin",
		Short: "Create the default administrator when missing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := buildDeps(cmd.Context())
			if err != nil {
				return err
			}
			defer d.Close()

			created, err := d.lifecycle.BootstrapDefaultAdmin(cmd.Context())
			if err != nil {
				return oops.Code("BOOTSTRAP_FAILED").With("operation", "bootstrap admin").Wrap(err)
			}

			if created {
				cmd.Printf("Administrator %q created\n", d.cfg.Admin.Username)
			} else {
				cmd.Printf("Administrator %q already exists\n", d.cfg.Admin.Username)
			}
			return nil
		},
	}
}
