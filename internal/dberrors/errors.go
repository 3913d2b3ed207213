// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package dberrors turns connection failures into messages a user can act on.
package dberrors

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pterm/pterm"
)

// Kind classifies a connection failure.
type Kind int

const (
	KindOther Kind = iota
	KindTimeout
	KindDNS
	KindRefused
	KindTLS
	KindAuth
	KindNoDatabase
)

// Classify inspects err and reports what kind of connection failure it is.
func Classify(err error) Kind {
	if err == nil {
		return KindOther
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "28P01", "28000":
			return KindAuth
		case "3D000":
			return KindNoDatabase
		}
	}
	switch {
	case isTimeout(err):
		return KindTimeout
	case isDNS(err):
		return KindDNS
	case isRefused(err):
		return KindRefused
	case isTLS(err):
		return KindTLS
	}
	return KindOther
}

// FormatConnectError prints troubleshooting hints for err and returns it wrapped.
// host names the server being contacted.
func FormatConnectError(err error, host string) error {
	if err == nil {
		return nil
	}
	if host == "" {
		host = "the database server"
	}
	show(Classify(err), host, err.Error())
	return fmt.Errorf("connection failed: %w", err)
}

func show(kind Kind, host, details string) {
	switch kind {
	case KindTimeout:
		pterm.Printf("⏱️  Timed out connecting to %s\n", host)
		hints("The server took too long to respond. This could mean:",
			"The server is down or overloaded",
			"A firewall drops the connection",
			"connect_timeout is too short for this network")
	case KindDNS:
		pterm.Printf("🌐 Cannot resolve %s\n", host)
		hints("Please check:",
			"The host name in the DSN is spelled correctly",
			"Your DNS settings and VPN connection")
	case KindRefused:
		pterm.Printf("🚫 Connection refused by %s\n", host)
		hints("Nothing is accepting connections there. This could mean:",
			"PostgreSQL is not running",
			"The port in the DSN is wrong",
			"listen_addresses does not include this interface")
	case KindTLS:
		pterm.Printf("🔒 Secure connection to %s failed\n", host)
		hints("Try:",
			"Checking the sslmode parameter of the DSN",
			"Verifying the server certificate and your system clock")
	case KindAuth:
		pterm.Printf("🔑 Authentication failed at %s\n", host)
		hints("Please check:",
			"The user name and password in the DSN",
			"pg_hba.conf allows this user from your address")
	case KindNoDatabase:
		pterm.Printf("🗄️  Database not found on %s\n", host)
		hints("Please check the database name in the DSN.")
	default:
		pterm.Printf("❌ Cannot connect to %s\n", host)
		pterm.Println()
		if details != "" {
			if len(details) > 100 {
				details = details[:100] + "..."
			}
			pterm.Debug.Printf("Technical details: %s\n", details)
			pterm.Println()
		}
	}
}

func hints(intro string, items ...string) {
	pterm.Println()
	pterm.Println(intro)
	for _, it := range items {
		pterm.Println("  • " + it)
	}
	pterm.Println()
}

func isTimeout(err error) bool {
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "timeout") || strings.Contains(s, "deadline exceeded") {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isDNS(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isRefused(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

func isTLS(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "tls") ||
		strings.Contains(s, "ssl") ||
		strings.Contains(s, "certificate")
}
