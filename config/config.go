// Package config reads server settings from the environment
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is everything the server binaries read from KINGDOMS_*
// variables. List values are separated by semicolons.
type Config struct {
	Addr           string        `env:"KINGDOMS_ADDR,default=:8000"`
	DBDialect      string        `env:"KINGDOMS_DB_DIALECT,default=memory"`
	DBDSN          string        `env:"KINGDOMS_DB_DSN"`
	TokenSecret    string        `env:"KINGDOMS_TOKEN_SECRET,required"`
	TokenTTL       time.Duration `env:"KINGDOMS_TOKEN_TTL,default=24h"`
	LogLevel       string        `env:"KINGDOMS_LOG_LEVEL,default=info"`
	LogPretty      bool          `env:"KINGDOMS_LOG_PRETTY,default=false"`
	AllowedOrigins []string      `env:"KINGDOMS_ALLOWED_ORIGINS,default=*"`
}

// Load reads .env files, when present, and then the environment.
// Variables already set in the environment win over the files.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values make sense together
func (c Config) Validate() error {
	switch c.DBDialect {
	case "memory", "sqlite":
	case "postgres":
		if c.DBDSN == "" {
			return fmt.Errorf("%w: postgres needs KINGDOMS_DB_DSN", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown KINGDOMS_DB_DIALECT %q", ErrInvalidConfig, c.DBDialect)
	}
	if strings.TrimSpace(c.TokenSecret) == "" {
		return fmt.Errorf("%w: KINGDOMS_TOKEN_SECRET is empty", ErrInvalidConfig)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("%w: KINGDOMS_TOKEN_TTL must be positive", ErrInvalidConfig)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}
	return nil
}

// Logger builds the process logger
func (c Config) Logger(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if c.LogPretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
