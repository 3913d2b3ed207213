// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dberrors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"auth", &pgconn.PgError{Code: "28P01", Message: "password authentication failed"}, KindAuth},
		{"wrapped auth", fmt.Errorf("connect: %w", &pgconn.PgError{Code: "28000"}), KindAuth},
		{"no database", &pgconn.PgError{Code: "3D000"}, KindNoDatabase},
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"dns", &net.DNSError{Err: "no such host", Name: "db.invalid"}, KindDNS},
		{"refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, KindRefused},
		{"refused text", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), KindRefused},
		{"tls", errors.New("tls: failed to verify certificate"), KindTLS},
		{"other", errors.New("boom"), KindOther},
		{"nil", nil, KindOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestFormatConnectError(t *testing.T) {
	require.NoError(t, FormatConnectError(nil, "db"))

	cause := &pgconn.PgError{Code: "3D000"}
	err := FormatConnectError(cause, "")
	require.Error(t, err)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "connection failed")
}
