// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Credentials Contributors

// Package config loads and validates the application configuration from
// a YAML file layered under command-line flags.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/juanarrow/credentials/internal/guard"
	"github.com/juanarrow/credentials/internal/xdg"
)

// Strategy names.
const (
	StrategyLocal  = "local"
	StrategyRemote = "remote"
)

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config is the full application configuration.
type Config struct {
	Strategy string        `koanf:"strategy" json:"strategy" jsonschema:"enum=local,enum=remote"`
	Gateway  GatewayConfig `koanf:"gateway" json:"gateway,omitempty"`
	Store    StoreConfig   `koanf:"store" json:"store,omitempty"`
	Errors   ErrorsConfig  `koanf:"errors" json:"errors,omitempty"`
	Log      LogConfig     `koanf:"log" json:"log,omitempty"`
	Guard    GuardConfig   `koanf:"guard" json:"guard,omitempty"`
}

// GatewayConfig configures the remote identity provider.
type GatewayConfig struct {
	URL     string        `koanf:"url" json:"url,omitempty" jsonschema:"format=uri"`
	Timeout time.Duration `koanf:"timeout" json:"timeout,omitempty" jsonschema:"type=string"`
}

// StoreConfig selects and configures the key-value store backend.
type StoreConfig struct {
	Backend  string `koanf:"backend" json:"backend" jsonschema:"enum=file,enum=sqlite,enum=redis"`
	Path     string `koanf:"path" json:"path,omitempty"`
	RedisURL string `koanf:"redis_url" json:"redis_url,omitempty" jsonschema:"format=uri"`
}

// ErrorsConfig tunes the error classifier.
type ErrorsConfig struct {
	DisplayDuration time.Duration `koanf:"display_duration" json:"display_duration,omitempty" jsonschema:"type=string"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// GuardConfig configures the navigation guard.
type GuardConfig struct {
	PublicPaths []string `koanf:"public_paths" json:"public_paths,omitempty"`
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		Strategy: StrategyLocal,
		Gateway: GatewayConfig{
			Timeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Backend: BackendFile,
			Path:    filepath.Join(xdg.DataDir(), "credentials.json"),
		},
		Errors: ErrorsConfig{
			DisplayDuration: 5 * time.Second,
		},
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
		Guard: GuardConfig{
			PublicPaths: append([]string(nil), guard.DefaultPublicPatterns...),
		},
	}
}

// defaultMap mirrors Default as flat koanf keys.
func defaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"strategy":                d.Strategy,
		"gateway.timeout":         d.Gateway.Timeout.String(),
		"store.backend":           d.Store.Backend,
		"store.path":              d.Store.Path,
		"errors.display_duration": d.Errors.DisplayDuration.String(),
		"log.format":              d.Log.Format,
		"log.level":               d.Log.Level,
		"guard.public_paths":      d.Guard.PublicPaths,
	}
}

// DefaultPath is where Load looks when no explicit path is given.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigDir(), "config.yaml")
}

// Load builds the configuration: defaults, then the YAML file (validated
// against the generated schema), then flag overrides. A missing file at
// the default path is fine; an explicitly named file must exist.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	k := koanf.New(".")

	// Seed the defaults so unchanged flags don't shadow file values.
	if err := k.Load(confmap.Provider(defaultMap(), "."), nil); err != nil {
		return Config{}, oops.Code("VALIDATION_CONFIG").Wrap(err)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := ValidateSchema(data); err != nil {
			return Config{}, oops.Code("VALIDATION_CONFIG").
				With("path", path).
				Wrap(err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("VALIDATION_CONFIG").
				With("path", path).
				Wrap(err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// Defaults only.
	default:
		return Config{}, oops.Code("VALIDATION_CONFIG").
			With("path", path).
			Wrap(err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, oops.Code("VALIDATION_CONFIG").Wrap(err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("VALIDATION_CONFIG").Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the cross-field rules the schema cannot express.
func (c Config) Validate() error {
	switch c.Strategy {
	case StrategyLocal, StrategyRemote:
	default:
		return oops.Code("VALIDATION_CONFIG").
			With("strategy", c.Strategy).
			Errorf("strategy must be %q or %q", StrategyLocal, StrategyRemote)
	}

	if c.Strategy == StrategyRemote && c.Gateway.URL == "" {
		return oops.Code("VALIDATION_CONFIG").Errorf("gateway.url is required for the remote strategy")
	}

	switch c.Store.Backend {
	case BackendFile, BackendSQLite:
		if c.Store.Path == "" {
			return oops.Code("VALIDATION_CONFIG").Errorf("store.path is required for the %s backend", c.Store.Backend)
		}
	case BackendRedis:
		if c.Store.RedisURL == "" {
			return oops.Code("VALIDATION_CONFIG").Errorf("store.redis_url is required for the redis backend")
		}
	default:
		return oops.Code("VALIDATION_CONFIG").
			With("backend", c.Store.Backend).
			Errorf("unknown store backend")
	}

	if c.Errors.DisplayDuration < 0 {
		return oops.Code("VALIDATION_CONFIG").Errorf("errors.display_duration cannot be negative")
	}
	return nil
}
