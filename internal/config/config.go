package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"sappers/logging"
)

// Mode selects which roles the process runs.
type Mode string

const (
	// ModeSolo plays locally with no network.
	ModeSolo Mode = "solo"
	// ModeHost runs a server and a local client connected over loopback.
	ModeHost Mode = "host"
	// ModeJoin connects a client to a remote server.
	ModeJoin Mode = "join"
	// ModeServe runs a headless server.
	ModeServe Mode = "serve"
)

// Config is the process configuration read from the environment.
type Config struct {
	Mode         Mode          `env:"SAPPERS_MODE"           envDefault:"host"`
	Address      string        `env:"SAPPERS_ADDR"           envDefault:"127.0.0.1:6000"`
	FieldSize    uint8         `env:"SAPPERS_FIELD_SIZE"     envDefault:"8"`
	MineDensity  float64       `env:"SAPPERS_MINE_DENSITY"   envDefault:"0.2"`
	Bots         uint8         `env:"SAPPERS_BOTS"           envDefault:"0"`
	BotReaction  time.Duration `env:"SAPPERS_BOT_REACTION"   envDefault:"1s"`
	TickInterval time.Duration `env:"SAPPERS_TICK_INTERVAL"  envDefault:"100ms"`
	SuspendLimit int           `env:"SAPPERS_SUSPEND_LIMIT"  envDefault:"0"`
	Seed         string        `env:"SAPPERS_SEED"`
	LogFile      string        `env:"SAPPERS_LOG_FILE"       envDefault:"sappers.log"`
	LogJSON      string        `env:"SAPPERS_LOG_JSON"`
	LogLevel     string        `env:"SAPPERS_LOG_LEVEL"      envDefault:"info"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Mode = Mode(strings.ToLower(string(cfg.Mode)))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every out of range setting at once.
func (c Config) Validate() error {
	var errs []error
	switch c.Mode {
	case ModeSolo, ModeHost, ModeJoin, ModeServe:
	default:
		errs = append(errs, fmt.Errorf("SAPPERS_MODE: unknown mode %q", c.Mode))
	}
	if c.Mode != ModeSolo && strings.TrimSpace(c.Address) == "" {
		errs = append(errs, errors.New("SAPPERS_ADDR: address is required"))
	}
	if c.FieldSize == 0 {
		errs = append(errs, errors.New("SAPPERS_FIELD_SIZE: must be between 1 and 255"))
	}
	if c.MineDensity < 0 || c.MineDensity > 1 {
		errs = append(errs, fmt.Errorf("SAPPERS_MINE_DENSITY: %v is outside 0..1", c.MineDensity))
	}
	if c.BotReaction < 0 {
		errs = append(errs, errors.New("SAPPERS_BOT_REACTION: must not be negative"))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, errors.New("SAPPERS_TICK_INTERVAL: must be positive"))
	}
	if c.SuspendLimit < 0 {
		errs = append(errs, errors.New("SAPPERS_SUSPEND_LIMIT: must not be negative"))
	}
	if _, ok := logging.ParseSeverity(strings.ToLower(c.LogLevel)); !ok {
		errs = append(errs, fmt.Errorf("SAPPERS_LOG_LEVEL: unknown level %q", c.LogLevel))
	}
	return errors.Join(errs...)
}

// Severity is the minimum log severity for the router.
func (c Config) Severity() logging.Severity {
	severity, _ := logging.ParseSeverity(strings.ToLower(c.LogLevel))
	return severity
}

// Authoritative reports whether the process owns the canonical field.
func (c Config) Authoritative() bool {
	return c.Mode != ModeJoin
}

// Networked reports whether the process needs a transport.
func (c Config) Networked() bool {
	return c.Mode != ModeSolo
}
