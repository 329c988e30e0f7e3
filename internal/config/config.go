// Copyright (c) 2025 ToeiRei
// Querydeck - terminal database browser
// This source code is licensed under the MIT license found in the LICENSE file.

// package config loads and writes querydeck configuration. Values come
// from flags, QUERYDECK_* environment variables and a YAML config file,
// in that precedence order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Database tunes the connection pools handed to drivers.
type Database struct {
	MaxOpenConns           int `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds" yaml:"conn_max_lifetime_seconds"`
	CloseGraceSeconds      int `mapstructure:"close_grace_seconds" yaml:"close_grace_seconds"`
}

// Config is the full application configuration.
type Config struct {
	DataDir    string   `mapstructure:"data_dir" yaml:"data_dir"`
	Debug      bool     `mapstructure:"debug" yaml:"debug"`
	LogFile    string   `mapstructure:"log_file" yaml:"log_file"`
	DebounceMs int      `mapstructure:"debounce_ms" yaml:"debounce_ms"`
	ExportDir  string   `mapstructure:"export_dir" yaml:"export_dir"`
	Database   Database `mapstructure:"database" yaml:"database"`
}

// DefaultDataDir returns the per-user data directory.
func DefaultDataDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get user config directory: %w", err)
	}
	return filepath.Join(dir, "querydeck"), nil
}

// Load builds the configuration from defaults, the config file (the
// explicit path when given, else querydeck.yaml in the data dir or
// current dir), environment and the command's flags.
func Load(cmd *cobra.Command, cfgFile string) (Config, error) {
	var c Config
	v := viper.New()

	dataDir, err := DefaultDataDir()
	if err != nil {
		return c, err
	}
	v.SetDefault("data_dir", dataDir)
	v.SetDefault("debounce_ms", 500)
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime_seconds", 300)
	v.SetDefault("database.close_grace_seconds", 3)

	v.SetConfigName("querydeck")
	v.SetConfigType("yaml")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}
	v.AddConfigPath(dataDir)
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; a malformed one is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, err
		}
	}

	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix("querydeck")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}

// Write persists the configuration as YAML in the data dir with
// owner-only permissions.
func Write(c *Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.DataDir, 0o700); err != nil {
		return fmt.Errorf("could not create data directory %s: %w", c.DataDir, err)
	}
	return os.WriteFile(filepath.Join(c.DataDir, "querydeck.yaml"), data, 0o600)
}

// ProfilesPath is the saved-connections file.
func (c Config) ProfilesPath() string { return filepath.Join(c.DataDir, "connections.json") }

// KeyPath is the credential encryption key file.
func (c Config) KeyPath() string { return filepath.Join(c.DataDir, ".key") }

// HistoryPath is the query history file.
func (c Config) HistoryPath() string { return filepath.Join(c.DataDir, "history.json") }

// DebounceDelay converts the configured window into a duration.
func (c Config) DebounceDelay() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}
