package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	auth "github.com/goliatone/go-ems-auth"
	"github.com/goliatone/go-ems-auth/metrics"
	"github.com/goliatone/go-ems-auth/middleware/jwtware"
)

// Options wires the HTTP surface
type Options struct {
	Lifecycle *auth.AccountLifecycle
	// Experience is optional, the /api/experience routes are only mounted when set
	Experience *auth.ExperienceService
	Codec      *auth.TokenCodec
	Accounts   auth.Accounts
	// Metrics is optional, /metrics is only served when set
	Metrics *metrics.Recorder
	// Health is optional, it backs GET /health
	Health       func(ctx context.Context) error
	Logger       *slog.Logger
	CORSOrigins  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// New builds the fiber application with every route mounted
func New(opts Options) *fiber.App {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "api")
	}

	app := fiber.New(fiber.Config{
		AppName:               "ems-auth",
		DisableStartupMessage: true,
		ErrorHandler:          NewErrorHandler(logger),
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
	})

	app.Use(recover.New())
	app.Use(requestLogger(logger))
	if opts.CORSOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: opts.CORSOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		}))
	}

	gate := jwtware.Config{
		Decoder:  opts.Codec,
		Accounts: opts.Accounts,
		Logger:   logger.With("component", "jwtware"),
	}
	if opts.Metrics != nil {
		gate.Observer = opts.Metrics.ObserveToken
		app.Get("/metrics", adaptor.HTTPHandler(opts.Metrics.Handler()))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if opts.Health != nil {
			if err := opts.Health(c.UserContext()); err != nil {
				logger.Warn("health check failed", "error", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
			}
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Use(jwtware.New(gate))

	NewAuthController(opts.Lifecycle, WithAuthLogger(logger)).Register(app)
	NewEmployeeController(opts.Lifecycle).Register(app)
	if opts.Experience != nil {
		NewExperienceController(opts.Experience).Register(app)
	}

	return app
}

func requestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = StatusFor(err)
		}

		logger.Debug("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration", time.Since(start),
		)
		return err
	}
}
