// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"sprocket/cli/internal/dsn"
	"sprocket/cli/internal/keychain"
	"sprocket/cli/internal/logging"
	"sprocket/cli/internal/reply"
	"sprocket/cli/internal/sqlexec"
)

// resolveConnection finds the DSN for name across env, config and keychain.
func resolveConnection(name string) (dsn.Resolved, error) {
	src := dsn.Sources{
		DefaultName: cfg.DefaultConnection,
		Connections: cfg.Connections,
	}
	if km, err := keychain.GetManager(); err == nil {
		src.Secrets = km
	} else {
		logging.Debug("keychain unavailable", "error", err.Error())
	}
	return dsn.Lookup(name, src)
}

// newSession resolves the connection and prepares a session; nothing is dialed yet.
func newSession(name string) (*sqlexec.Session, dsn.Resolved, error) {
	res, err := resolveConnection(name)
	if err != nil {
		return nil, res, err
	}
	connector, err := sqlexec.NewPgxConnector(res.DSN)
	if err != nil {
		return nil, res, err
	}
	if cfg.ConnectTimeout > 0 {
		connector.Config.ConnectTimeout = cfg.ConnectTimeout
	}
	logging.Debug("connection resolved", "name", res.Name, "source", string(res.Source), "dsn", logging.Mask(res.DSN))

	var opts []sqlexec.Option
	if col := cfg.Reply.ReturnValueColumn; col != "" {
		opts = append(opts, sqlexec.WithReturnValueColumn(col))
	}
	return sqlexec.NewSession(connector, opts...), res, nil
}

// isolationLevel picks the flag value when given, else the configured default.
func isolationLevel(flag string) (sqlexec.IsolationLevel, error) {
	if flag == "" {
		flag = cfg.IsolationLevel
	}
	return sqlexec.ParseIsolationLevel(flag)
}

func replyProtocol() *reply.Protocol {
	return reply.New(cfg.Reply.Codebook())
}

// parseParams turns "name=value" flag values into named parameters.
// Values that look like integers, booleans or null are passed typed.
func parseParams(raw []string) (sqlexec.Params, error) {
	params := make(sqlexec.Params, 0, len(raw))
	for _, r := range raw {
		name, value, named := strings.Cut(r, "=")
		if !named {
			return nil, fmt.Errorf("parameter %q is not name=value", r)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("parameter %q has an empty name", r)
		}
		params = params.Add(name, paramValue(value))
	}
	return params, nil
}

// positionalParams turns trailing command arguments into unnamed parameters.
func positionalParams(raw []string) sqlexec.Params {
	values := make([]any, len(raw))
	for i, r := range raw {
		values[i] = paramValue(r)
	}
	return sqlexec.Positional(values...)
}

func paramValue(s string) any {
	switch strings.ToLower(s) {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}
