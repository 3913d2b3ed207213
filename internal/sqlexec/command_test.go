// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "sprocket/cli/internal/errors"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		mode renderMode
		slot string
		want string
	}{
		{"text", SQL("SELECT $1", 1), renderExec, "return_value", "SELECT $1"},
		{"call no params", Call("app.ping", nil), renderExec, "", "CALL app.ping()"},
		{"call positional with slot", Call("bump", Positional(1)), renderExec, "return_value", "CALL bump($1, NULL::integer)"},
		{"call named with slot", Call("app.f", Params{}.Add("a", 1).Add("b", 2)), renderExec, "rv", "CALL app.f(a => $1, b => $2, rv => NULL::integer)"},
		{"select", Call("app.list", Params{}.Add("p", 1)), renderQuery, "return_value", "SELECT * FROM app.list(p => $1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, args, err := tt.cmd.render(tt.mode, tt.slot)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Len(t, args, len(tt.cmd.Params))
		})
	}
}

func TestRenderRejectsBadNames(t *testing.T) {
	tests := []Command{
		Call("app.f; DROP TABLE x", nil),
		Call("app.f", Params{}.Add("a b", 1)),
		Call("app.f", Params{}.Add("s.p", 1)),
		SQL("   "),
	}
	for _, cmd := range tests {
		_, _, err := cmd.render(renderExec, "")
		require.True(t, apperrors.IsKind(err, apperrors.BindFailed), cmd.Text)
	}
}

func TestCommandHelpers(t *testing.T) {
	cmd := Call("app.f", Positional(1, 2)).With(Params{}.Add("x", 1).Add("", 2))
	require.Equal(t, []string{"x", "$2"}, cmd.ParamNames())
	require.Equal(t, "routine", cmd.Kind.String())
	require.Equal(t, "text", SQL("SELECT 1").Kind.String())
}

func TestWithReturnValueColumnIgnoresInvalidNames(t *testing.T) {
	s, _ := newFakeSession(WithReturnValueColumn("bad name"))
	require.Equal(t, DefaultReturnValueColumn, s.options().ReturnValueColumn)
	s, _ = newFakeSession(WithReturnValueColumn("rc"))
	require.Equal(t, "rc", s.options().ReturnValueColumn)
}
