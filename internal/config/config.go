// Package config loads stopwatch settings from a TOML file and STOPWATCH_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	configName    = "config"
	configType    = "toml"
	configDirName = "stopwatch"
	configFile    = "config.toml"
	envPrefix     = "STOPWATCH"
	configDirMode = 0o755
	configMode    = 0o644

	keyTickInterval = "tick_interval"
	keyAccentColor  = "accent_color"
	keyStats        = "stats"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrConfigExists  = errors.New("config file already exists")
)

// Config is the effective configuration.
type Config struct {
	TickInterval time.Duration
	AccentColor  string
	Stats        bool
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		TickInterval: 10 * time.Millisecond,
		AccentColor:  "212",
		Stats:        true,
	}
}

type fileSchema struct {
	TickInterval string `toml:"tick_interval"`
	AccentColor  string `toml:"accent_color"`
	Stats        bool   `toml:"stats"`
}

func toSchema(cfg Config) fileSchema {
	return fileSchema{
		TickInterval: cfg.TickInterval.String(),
		AccentColor:  cfg.AccentColor,
		Stats:        cfg.Stats,
	}
}

// DefaultPath is config.toml under the user's config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config directory: %w", err)
	}
	return filepath.Join(dir, configDirName, configFile), nil
}

// Load reads path, or the default location when path is empty. A missing
// file at the default location is not an error; a missing explicit path is.
func Load(v *viper.Viper, path string) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	def := toSchema(Default())
	v.SetDefault(keyTickInterval, def.TickInterval)
	v.SetDefault(keyAccentColor, def.AccentColor)
	v.SetDefault(keyStats, def.Stats)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetConfigType(configType)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		defaultPath, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		v.SetConfigName(configName)
		v.AddConfigPath(filepath.Dir(defaultPath))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	tick, err := parseDuration(v.GetString(keyTickInterval))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		TickInterval: tick,
		AccentColor:  v.GetString(keyAccentColor),
		Stats:        v.GetBool(keyStats),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %v", ErrInvalidConfig, keyTickInterval, s, err)
	}
	return d, nil
}

// Validate rejects settings the stopwatch cannot run with.
func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidConfig, keyTickInterval, c.TickInterval)
	}
	if c.AccentColor == "" {
		return fmt.Errorf("%w: %s is empty", ErrInvalidConfig, keyAccentColor)
	}
	return nil
}

// Encode renders cfg in the config file format.
func Encode(cfg Config) ([]byte, error) {
	data, err := toml.Marshal(toSchema(cfg))
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// WriteFile writes cfg to path, creating parent directories. An existing
// file is only replaced when force is set.
func WriteFile(path string, cfg Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}

	data, err := Encode(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), configDirMode); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, configMode); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
