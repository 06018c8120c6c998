// Copyright 2024-2026 Aiku AI

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
	"maunium.net/go/mautrix/id"
)

// Config holds the persisted CLI configuration.
type Config struct {
	Homeserver  string    `mapstructure:"homeserver" yaml:"homeserver"`
	UserID      id.UserID `mapstructure:"user_id" yaml:"user_id"`
	AccessToken string    `mapstructure:"access_token" yaml:"access_token"`
	Log         LogConfig `mapstructure:"log" yaml:"log"`
}

// LogConfig holds the logging section.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "roomkit")
}

// loadConfig reads the config file and environment. A missing file is not
// an error; login creates it.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("homeserver", "")
	v.SetDefault("user_id", "")
	v.SetDefault("access_token", "")
	v.SetDefault("log.level", "info")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigDir())
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("ROOMKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// saveConfig writes the config as YAML. The file holds an access token, so
// it is created user-readable only.
func saveConfig(path string, cfg *Config) error {
	if path == "" {
		path = filepath.Join(defaultConfigDir(), "config.yaml")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
