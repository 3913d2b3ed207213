// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"sprocket/cli/internal/keychain"
)

type fakeSecrets map[string]string

func (f fakeSecrets) LoadDSN(name string) (string, error) {
	if v, ok := f[name]; ok {
		return v, nil
	}
	return "", keychain.ErrNotFound
}

type brokenSecrets struct{}

func (brokenSecrets) LoadDSN(string) (string, error) { return "", errors.New("keychain locked") }

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestLookupPrecedence(t *testing.T) {
	src := Sources{
		Connections: map[string]string{"default": "postgres://cfg@h/db", "staging": "postgres://stg@h/db"},
		Secrets:     fakeSecrets{"default": "postgres://kc@h/db", "prod": "postgres://prod@h/db"},
		Getenv:      env(map[string]string{"DATABASE_URL": "postgres://env@h/db"}),
	}

	tests := []struct {
		name       string
		lookup     string
		wantSource Source
		wantUser   string
	}{
		{"env wins for default", "", SourceEnv, "env"},
		{"env ignored for other names", "staging", SourceConfig, "stg"},
		{"keychain last", "prod", SourceKeychain, "prod"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Lookup(tt.lookup, src)
			require.NoError(t, err)
			require.Equal(t, tt.wantSource, got.Source)
			require.Equal(t, tt.wantUser, got.Info.User)
			require.Regexp(t, `^postgresql://`, got.DSN)
		})
	}
}

func TestLookupPrefersSprocketDSN(t *testing.T) {
	got, err := Lookup("", Sources{Getenv: env(map[string]string{
		"SPROCKET_DSN": "postgres://first@h/db",
		"DATABASE_URL": "postgres://second@h/db",
	})})
	require.NoError(t, err)
	require.Equal(t, "first", got.Info.User)
	require.Equal(t, "default", got.Name)
}

func TestLookupFallsThroughToKeychain(t *testing.T) {
	got, err := Lookup("default", Sources{
		Secrets: fakeSecrets{"default": "postgres://kc@h/db"},
		Getenv:  env(nil),
	})
	require.NoError(t, err)
	require.Equal(t, SourceKeychain, got.Source)
}

func TestLookupNotConfigured(t *testing.T) {
	_, err := Lookup("nope", Sources{Secrets: fakeSecrets{}, Getenv: env(nil)})
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestLookupKeychainFailure(t *testing.T) {
	_, err := Lookup("x", Sources{Secrets: brokenSecrets{}, Getenv: env(nil)})
	require.EqualError(t, err, "keychain locked")
}

func TestLookupRejectsInvalidDSN(t *testing.T) {
	_, err := Lookup("bad", Sources{Connections: map[string]string{"bad": "postgres://nohost"}, Getenv: env(nil)})
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}
