package config

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/samber/oops"

	auth "github.com/goliatone/go-ems-auth"
)

// AppConfig is the service configuration, loaded from environment
// variables
type AppConfig struct {
	JWT   JWTConfig
	HTTP  HTTPConfig
	DB    DBConfig    `envPrefix:"DB_"`
	Mail  MailConfig  `envPrefix:"MAIL_"`
	Admin AdminConfig `envPrefix:"ADMIN_"`
	Log   LogConfig   `envPrefix:"LOG_"`
}

// JWTConfig configures session tokens
type JWTConfig struct {
	Secret       string `env:"JWT_SECRET"`
	ExpirationMS int64  `env:"JWT_EXPIRATION_MS" envDefault:"18000000"`
	Issuer       string `env:"JWT_ISSUER"`
}

// TTL returns the token lifetime
func (c JWTConfig) TTL() time.Duration {
	return time.Duration(c.ExpirationMS) * time.Millisecond
}

type HTTPConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	// CORSOrigins is a comma separated allow list, * allows any origin
	CORSOrigins string `env:"HTTP_CORS_ORIGINS" envDefault:"*"`
}

// DBConfig selects the storage driver. Driver is sqlite or postgres.
type DBConfig struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"`
	DSN    string `env:"DSN" envDefault:"file:ems.db?cache=shared"`
	Debug  bool   `env:"DEBUG" envDefault:"false"`
}

// MailConfig configures credential notices. An empty host logs notices
// instead of sending them.
type MailConfig struct {
	Host     string        `env:"HOST"`
	Port     int           `env:"PORT" envDefault:"587"`
	Username string        `env:"USERNAME"`
	Password string        `env:"PASSWORD"`
	From     string        `env:"FROM" envDefault:"EMS Portal <noreply@ems.com>"`
	LoginURL string        `env:"LOGIN_URL" envDefault:"https://main.d15ztt0s52f8f4.amplifyapp.com/"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"30s"`
}

// AdminConfig describes the administrator created on first start
type AdminConfig struct {
	Bootstrap   bool    `env:"BOOTSTRAP" envDefault:"true"`
	Username    string  `env:"USERNAME" envDefault:"admin"`
	Password    string  `env:"PASSWORD" envDefault:"admin123"`
	Name        string  `env:"NAME" envDefault:"Admin User"`
	Email       string  `env:"EMAIL" envDefault:"admin@ems.com"`
	Designation string  `env:"DESIGNATION" envDefault:"Administrator"`
	Salary      float64 `env:"SALARY" envDefault:"60000"`
	BirthDate   string  `env:"BIRTH_DATE" envDefault:"1990-01-01"`
}

// Defaults converts the admin settings for the account lifecycle
func (c AdminConfig) Defaults() (auth.AdminDefaults, error) {
	birth, err := time.Parse(time.DateOnly, c.BirthDate)
	if err != nil {
		return auth.AdminDefaults{}, oops.Code("INVALID_CONFIG").
			With("field", "ADMIN_BIRTH_DATE").
			Wrapf(err, "admin birth date must be YYYY-MM-DD")
	}
	return auth.AdminDefaults{
		Username:    c.Username,
		Password:    c.Password,
		Name:        c.Name,
		Email:       c.Email,
		Designation: c.Designation,
		Salary:      c.Salary,
		BirthDate:   birth,
	}, nil
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// SlogLevel maps Level to a slog level, defaulting to info
func (c LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Level))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Load reads a .env file when present and parses the environment
func Load() (AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return AppConfig{}, oops.Code("CONFIG_DOTENV_FAILED").Wrapf(err, "load .env file")
		}
	}

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, oops.Code("CONFIG_PARSE_FAILED").Wrapf(err, "parse config")
	}

	return cfg, cfg.Validate()
}

// LoadFrom parses the given variables only, ignoring the process
// environment
func LoadFrom(vars map[string]string) (AppConfig, error) {
	var cfg AppConfig
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return cfg, oops.Code("CONFIG_PARSE_FAILED").Wrapf(err, "parse config")
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the service can not start with
func (c AppConfig) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return oops.Code("INVALID_CONFIG").With("field", "JWT_SECRET").Errorf("jwt secret is required")
	}

	if c.JWT.ExpirationMS <= 0 {
		return oops.Code("INVALID_CONFIG").
			With("field", "JWT_EXPIRATION_MS").
			Errorf("jwt expiration must be positive, got %d", c.JWT.ExpirationMS)
	}

	switch c.DB.Driver {
	case "sqlite", "postgres":
	default:
		return oops.Code("INVALID_CONFIG").
			With("field", "DB_DRIVER").
			Errorf("unsupported db driver %q", c.DB.Driver)
	}

	if _, err := c.Admin.Defaults(); err != nil {
		return err
	}

	return nil
}
