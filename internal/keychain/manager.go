// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain stores named connection strings in the OS credential store.
//
// On macOS the native security command is used when available; elsewhere, and as the
// macOS fallback, the 99designs/keyring backends are used. Every DSN lives under the key
// "db_dsn/<name>", and the list of stored names is kept alongside so it can be shown
// without enumerating the store.
package keychain

import (
	"errors"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/99designs/keyring"
)

// ErrNotFound is returned when no secret is stored under a key.
var ErrNotFound = errors.New("keychain: key not found")

var (
	globalManager *Manager
	mu            sync.Mutex
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "sprocket"

const (
	dsnPrefix = "db_dsn/"
	namesKey  = "db_dsn_names"
)

// backend is the minimal store a Manager needs.
type backend interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// Manager provides thread-safe DSN storage on top of a backend.
type Manager struct {
	mu      sync.RWMutex
	backend backend
}

// NewManager opens the platform credential store.
func NewManager() (*Manager, error) {
	if runtime.GOOS == "darwin" {
		if b, err := newSecurityBackend(); err == nil {
			return &Manager{backend: b}, nil
		}
	}
	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return NewWithKeyring(ring), nil
}

// NewWithKeyring builds a Manager over an already opened keyring.
func NewWithKeyring(ring keyring.Keyring) *Manager {
	return &Manager{backend: ringBackend{ring: ring}}
}

// GetManager returns the process-wide Manager, retrying initialization after a failure.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()
	if globalManager != nil {
		return globalManager, nil
	}
	m, err := NewManager()
	if err != nil {
		return nil, err
	}
	globalManager = m
	return m, nil
}

func openRing() (keyring.Keyring, error) {
	var allowed []keyring.BackendType
	switch runtime.GOOS {
	case "darwin":
		allowed = []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		allowed = []keyring.BackendType{keyring.WinCredBackend}
	case "linux", "freebsd", "openbsd":
		allowed = []keyring.BackendType{keyring.SecretServiceBackend, keyring.KWalletBackend, keyring.PassBackend}
	default:
		return nil, errors.New("secure storage not supported on this OS")
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:             ServiceName,
		AllowedBackends:         allowed,
		PassPrefix:              ServiceName,
		WinCredPrefix:           ServiceName,
		LibSecretCollectionName: ServiceName,
		KWalletAppID:            ServiceName,
		KWalletFolder:           ServiceName,
	})
	if err != nil {
		if runtime.GOOS == "darwin" {
			return nil, errors.New("macOS Keychain unavailable. Install 'pass': brew install pass gnupg && gpg --generate-key && pass init <gpg-key-id>")
		}
		return nil, err
	}
	return ring, nil
}

// ringBackend adapts a keyring.Keyring.
type ringBackend struct {
	ring keyring.Keyring
}

func (r ringBackend) Set(key, value string) error {
	return r.ring.Set(keyring.Item{Key: key, Data: []byte(value)})
}

func (r ringBackend) Get(key string) (string, error) {
	it, err := r.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return string(it.Data), nil
}

func (r ringBackend) Delete(key string) error {
	err := r.ring.Remove(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil
	}
	return err
}

// SaveDSN stores dsn under name and records the name.
func (m *Manager) SaveDSN(name, dsn string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.backend.Set(dsnPrefix+name, dsn); err != nil {
		return err
	}
	names, err := m.names()
	if err != nil {
		return err
	}
	for _, n := range names {
		if n == name {
			return nil
		}
	}
	return m.setNames(append(names, name))
}

// LoadDSN returns the DSN stored under name, or ErrNotFound.
func (m *Manager) LoadDSN(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, err := m.backend.Get(dsnPrefix + name)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", ErrNotFound
	}
	return v, nil
}

// DeleteDSN removes the DSN stored under name. Missing names are not an error.
func (m *Manager) DeleteDSN(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.backend.Delete(dsnPrefix + name); err != nil {
		return err
	}
	names, err := m.names()
	if err != nil {
		return err
	}
	kept := names[:0]
	for _, n := range names {
		if n != name {
			kept = append(kept, n)
		}
	}
	return m.setNames(kept)
}

// Names lists the stored connection names in sorted order.
func (m *Manager) Names() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names, err := m.names()
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (m *Manager) names() ([]string, error) {
	raw, err := m.backend.Get(namesKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, n := range strings.Split(raw, "\n") {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *Manager) setNames(names []string) error {
	if len(names) == 0 {
		return m.backend.Delete(namesKey)
	}
	return m.backend.Set(namesKey, strings.Join(names, "\n"))
}
