// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"sprocket/cli/internal/keychain"
)

// Source tells where a resolved DSN came from.
type Source string

const (
	SourceEnv      Source = "env"
	SourceConfig   Source = "config"
	SourceKeychain Source = "keychain"
)

// EnvVars are consulted, in order, for the default connection only.
var EnvVars = []string{"SPROCKET_DSN", "DATABASE_URL"}

// ErrNotConfigured is returned when no source knows the requested name.
var ErrNotConfigured = errors.New("no DSN configured")

// Secrets loads DSNs stored outside the config file.
type Secrets interface {
	LoadDSN(name string) (string, error)
}

// Sources are the places Lookup searches.
type Sources struct {
	// DefaultName is the name used when none is given.
	DefaultName string
	// Connections maps names to DSNs from the config file.
	Connections map[string]string
	// Secrets is the keychain; nil skips it.
	Secrets Secrets
	// Getenv reads the environment; nil means os.Getenv.
	Getenv func(string) string
}

// Resolved is a DSN ready to hand to the driver.
type Resolved struct {
	Name   string
	DSN    string
	Source Source
	Info   *Info
}

// Lookup resolves name to a normalized DSN. Environment variables only apply to the
// default name; then the config file is searched, then the keychain.
func Lookup(name string, src Sources) (Resolved, error) {
	def := src.DefaultName
	if def == "" {
		def = "default"
	}
	if name == "" {
		name = def
	}
	getenv := src.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	raw, source, err := find(name, name == def, src, getenv)
	if err != nil {
		return Resolved{}, err
	}
	info, err := Parse(raw)
	if err != nil {
		return Resolved{}, fmt.Errorf("connection %q from %s: %w", name, source, err)
	}
	norm, err := Normalize(info)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{Name: name, DSN: norm, Source: source, Info: info}, nil
}

func find(name string, isDefault bool, src Sources, getenv func(string) string) (string, Source, error) {
	if isDefault {
		for _, k := range EnvVars {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				return v, SourceEnv, nil
			}
		}
	}
	if v := strings.TrimSpace(src.Connections[name]); v != "" {
		return v, SourceConfig, nil
	}
	if src.Secrets != nil {
		v, err := src.Secrets.LoadDSN(name)
		switch {
		case err == nil && strings.TrimSpace(v) != "":
			return strings.TrimSpace(v), SourceKeychain, nil
		case err != nil && !errors.Is(err, keychain.ErrNotFound):
			return "", "", err
		}
	}
	return "", "", fmt.Errorf("%w for %q", ErrNotConfigured, name)
}
