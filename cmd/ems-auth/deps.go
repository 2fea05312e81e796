package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/samber/oops"
	"github.com/uptrace/bun"

	auth "github.com/goliatone/go-ems-auth"
	"github.com/goliatone/go-ems-auth/config"
	"github.com/goliatone/go-ems-auth/metrics"
	"github.com/goliatone/go-ems-auth/notify"
	"github.com/goliatone/go-ems-auth/persistence"
)

// deps holds everything a command needs, built once from the config
type deps struct {
	cfg        config.AppConfig
	logger     *slog.Logger
	db         *bun.DB
	repo       auth.RepositoryManager
	codec      *auth.TokenCodec
	recorder   *metrics.Recorder
	dispatcher *notify.Dispatcher
	lifecycle  *auth.AccountLifecycle
	experience *auth.ExperienceService
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func openDB(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) (*bun.DB, error) {
	db, err := persistence.Open(ctx, persistence.Options{
		Driver: cfg.DB.Driver,
		DSN:    cfg.DB.DSN,
		Debug:  cfg.DB.Debug,
		Logger: logger.With("component", "persistence"),
	})
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
	}
	return db, nil
}

func buildDeps(ctx context.Context) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg.Log)

	db, err := openDB(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := persistence.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	repo := auth.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	codec, err := auth.NewTokenCodec([]byte(cfg.JWT.Secret), cfg.JWT.TTL(),
		auth.WithTokenIssuer(cfg.JWT.Issuer),
		auth.WithTokenLogger(logger.With("component", "token_codec")),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	recorder := metrics.NewRecorder()

	dispatcher, err := newDispatcher(cfg.Mail, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	dispatcher.WithObserver(recorder.ObserveNotification)

	admin, err := cfg.Admin.Defaults()
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	lifecycle := auth.NewAccountLifecycle(repo, codec).
		WithLogger(logger.With("component", "account_lifecycle")).
		WithNotifier(dispatcher).
		WithActivitySink(recorder).
		WithAdminDefaults(admin)

	return &deps{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		repo:       repo,
		codec:      codec,
		recorder:   recorder,
		dispatcher: dispatcher,
		lifecycle:  lifecycle,
		experience: auth.NewExperienceService(repo).WithLogger(logger.With("component", "experience")),
	}, nil
}

func newDispatcher(cfg config.MailConfig, logger *slog.Logger) (*notify.Dispatcher, error) {
	renderer, err := notify.NewRenderer(nil, cfg.LoginURL)
	if err != nil {
		return nil, err
	}

	var sender notify.Sender = notify.LogSender{Logger: logger.With("component", "mail")}
	if cfg.Host != "" {
		sender, err = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Username: cfg.Username,
			Password: cfg.Password,
			From:     cfg.From,
		})
		if err != nil {
			return nil, err
		}
	}

	return notify.NewDispatcher(sender, renderer).
		WithLogger(logger.With("component", "notify")).
		WithTimeout(cfg.Timeout), nil
}

func (d *deps) Close() {
	d.dispatcher.Wait()
	if err := d.db.Close(); err != nil {
		d.logger.Warn("failed to close database", "error", err)
	}
}
