// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package xdg resolves XDG Base Directory paths for sprocket.
//
// The configuration directory holds settings only; connection secrets are kept in the
// OS keychain. The directory is private to the user.
package xdg

import (
	"os"
	"path/filepath"
)

const appDir = "sprocket"

// ConfigDir returns the XDG config directory for sprocket.
// The directory is created with private permissions (0700) if missing.
// It falls back to ~/.config/sprocket when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	dir := filepath.Join(base, appDir)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}

// ConfigFile returns the path of the main config file. The file itself may not exist.
func ConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}
