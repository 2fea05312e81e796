package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-ems-auth/api"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server. The schema is created when missing and the
default administrator is bootstrapped unless ADMIN_BOOTSTRAP=false.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	if d.cfg.Admin.Bootstrap {
		if _, err := d.lifecycle.BootstrapDefaultAdmin(ctx); err != nil {
			return oops.Code("BOOTSTRAP_FAILED").With("operation", "bootstrap admin").Wrap(err)
		}
	}

	app := api.New(api.Options{
		Lifecycle:    d.lifecycle,
		Experience:   d.experience,
		Codec:        d.codec,
		Accounts:     d.repo.Accounts(),
		Metrics:      d.recorder,
		Health:       func(ctx context.Context) error { return d.db.PingContext(ctx) },
		Logger:       d.logger.With("component", "api"),
		CORSOrigins:  d.cfg.HTTP.CORSOrigins,
		ReadTimeout:  d.cfg.HTTP.ReadTimeout,
		WriteTimeout: d.cfg.HTTP.WriteTimeout,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d.logger.Info("http server listening", "addr", d.cfg.HTTP.Addr)
		if err := app.Listen(d.cfg.HTTP.Addr); err != nil {
			return oops.Code("HTTP_SERVER_FAILED").With("addr", d.cfg.HTTP.Addr).Wrap(err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		d.logger.Info("shutting down http server")
		if err := app.ShutdownWithTimeout(d.cfg.HTTP.ShutdownTimeout); err != nil {
			return oops.Code("HTTP_SHUTDOWN_FAILED").Wrap(err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
