// Package config loads application settings and the saved-connection store.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const appDirName = "quern"

// Config holds all application configuration.
type Config struct {
	General GeneralConfig `mapstructure:"general"`
	History HistoryConfig `mapstructure:"history"`
}

type GeneralConfig struct {
	// ConfirmDestructiveOps asks before running destructive statements on
	// connections flagged dangerous.
	ConfirmDestructiveOps bool `mapstructure:"confirm_destructive_ops"`
	// RowLimit caps how many rows a single query result may hold.
	RowLimit int `mapstructure:"row_limit"`
}

type HistoryConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	MaxEntries int  `mapstructure:"max_entries"`
}

// Load reads configuration, falling back to defaults when no file exists.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, appDirName))
	}
	v.AddConfigPath(".")

	v.SetDefault("general.confirm_destructive_ops", true)
	v.SetDefault("general.row_limit", 1000)
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.max_entries", 1000)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Dir returns the application config directory, creating it if needed.
func Dir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(configDir, appDirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
