// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pterm/pterm"
)

var (
	mu     sync.RWMutex
	logger = pterm.DefaultLogger.WithLevel(pterm.LogLevelWarn).WithWriter(os.Stderr)
)

// ParseLevel maps a config value to a pterm log level.
func ParseLevel(s string) (pterm.LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return pterm.LogLevelTrace, nil
	case "debug":
		return pterm.LogLevelDebug, nil
	case "info":
		return pterm.LogLevelInfo, nil
	case "", "warn", "warning":
		return pterm.LogLevelWarn, nil
	case "error":
		return pterm.LogLevelError, nil
	case "disabled", "off", "none":
		return pterm.LogLevelDisabled, nil
	}
	return pterm.LogLevelWarn, fmt.Errorf("unknown log level %q", s)
}

// Configure sets the level ("debug", "info", ...) and format ("colorful" or "json").
func Configure(level, format string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	var f pterm.LogFormatter
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "colorful", "text":
		f = pterm.LogFormatterColorful
	case "json":
		f = pterm.LogFormatterJSON
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	mu.Lock()
	logger = logger.WithLevel(lvl).WithFormatter(f)
	mu.Unlock()
	return nil
}

// SetOutput redirects log output, mostly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	logger = logger.WithWriter(w)
	mu.Unlock()
}

// Logger returns the process-wide logger.
func Logger() *pterm.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Enabled reports whether messages at level would be written.
func Enabled(level pterm.LogLevel) bool {
	return Logger().CanPrint(level)
}

// Debug logs msg with key/value pairs.
func Debug(msg string, kv ...any) {
	l := Logger()
	l.Debug(msg, l.Args(kv...))
}

// Info logs msg with key/value pairs.
func Info(msg string, kv ...any) {
	l := Logger()
	l.Info(msg, l.Args(kv...))
}

// Warn logs msg with key/value pairs.
func Warn(msg string, kv ...any) {
	l := Logger()
	l.Warn(msg, l.Args(kv...))
}

// Error logs msg with key/value pairs.
func Error(msg string, kv ...any) {
	l := Logger()
	l.Error(msg, l.Args(kv...))
}
