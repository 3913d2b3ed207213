// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret settings are kept here; stored DSNs go to the OS keychain unless the
// user lists them under connections explicitly.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"sprocket/cli/internal/reply"
	"sprocket/cli/internal/xdg"
)

// EnvPrefix prefixes environment overrides, e.g. SPROCKET_LOG_LEVEL.
const EnvPrefix = "SPROCKET"

// Config holds non-sensitive CLI settings.
type Config struct {
	LogLevel          string            `mapstructure:"log_level"`
	LogFormat         string            `mapstructure:"log_format"`
	DefaultConnection string            `mapstructure:"default_connection"`
	Connections       map[string]string `mapstructure:"connections"`
	IsolationLevel    string            `mapstructure:"isolation_level"`
	ConnectTimeout    time.Duration     `mapstructure:"connect_timeout"`
	Reply             ReplyConfig       `mapstructure:"reply"`
}

// ReplyConfig extends the stock status codes and names the return value column.
type ReplyConfig struct {
	SuccessCodes      []string `mapstructure:"success_codes"`
	WarningCodes      []string `mapstructure:"warning_codes"`
	ErrorCodes        []string `mapstructure:"error_codes"`
	NotFoundCodes     []string `mapstructure:"not_found_codes"`
	ReturnValueColumn string   `mapstructure:"return_value_column"`
}

// Codebook returns the stock codebook extended with the configured codes.
func (r ReplyConfig) Codebook() reply.Codebook {
	extra := reply.NewCodebook(r.SuccessCodes, r.WarningCodes, r.ErrorCodes, r.NotFoundCodes)
	return reply.DefaultCodebook().Merge(extra)
}

func defaults(v *viper.Viper) {
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "colorful")
	v.SetDefault("default_connection", "default")
	v.SetDefault("connections", map[string]string{})
	v.SetDefault("isolation_level", "default")
	v.SetDefault("connect_timeout", "10s")
	v.SetDefault("reply.success_codes", []string{})
	v.SetDefault("reply.warning_codes", []string{})
	v.SetDefault("reply.error_codes", []string{})
	v.SetDefault("reply.not_found_codes", []string{})
	v.SetDefault("reply.return_value_column", "return_value")
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetConfigPermissions(0o600)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	defaults(v)
	return v
}

// Load reads the config file from the XDG config dir; a missing file yields defaults.
func Load() (Config, error) {
	p, err := xdg.ConfigFile()
	if err != nil {
		return Config{}, err
	}
	return LoadFile(p)
}

// LoadFile reads configuration from path with SPROCKET_* environment overrides.
func LoadFile(path string) (Config, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Connections == nil {
		c.Connections = map[string]string{}
	}
	return c, nil
}

// Save writes configuration to the XDG config dir with 0600 permissions.
func Save(c Config) error {
	p, err := xdg.ConfigFile()
	if err != nil {
		return err
	}
	return SaveFile(p, c)
}

// SaveFile writes c as YAML to path with 0600 permissions.
func SaveFile(path string, c Config) error {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigPermissions(0o600)
	v.Set("log_level", c.LogLevel)
	v.Set("log_format", c.LogFormat)
	v.Set("default_connection", c.DefaultConnection)
	v.Set("connections", c.Connections)
	v.Set("isolation_level", c.IsolationLevel)
	v.Set("connect_timeout", c.ConnectTimeout.String())
	v.Set("reply.success_codes", c.Reply.SuccessCodes)
	v.Set("reply.warning_codes", c.Reply.WarningCodes)
	v.Set("reply.error_codes", c.Reply.ErrorCodes)
	v.Set("reply.not_found_codes", c.Reply.NotFoundCodes)
	v.Set("reply.return_value_column", c.Reply.ReturnValueColumn)
	return v.WriteConfigAs(path)
}
