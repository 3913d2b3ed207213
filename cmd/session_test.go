// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"testing"

	"github.com/stretchr/testify/require"

	"sprocket/cli/internal/reply/mock"
	"sprocket/cli/internal/sqlexec"
)

func TestParseParams(t *testing.T) {
	got, err := parseParams([]string{"p_id=42", "p_email=a=b@x", "p_active=true", "p_note=null"})
	require.NoError(t, err)
	require.Equal(t, sqlexec.Params{
		{Name: "p_id", Value: int64(42)},
		{Name: "p_email", Value: "a=b@x"},
		{Name: "p_active", Value: true},
		{Name: "p_note", Value: nil},
	}, got)

	_, err = parseParams([]string{"=1"})
	require.Error(t, err)
	_, err = parseParams([]string{"bare"})
	require.Error(t, err)
}

func TestPositionalParams(t *testing.T) {
	got := positionalParams([]string{"a=b", "7", "FALSE"})
	require.Equal(t, sqlexec.Params{{Value: "a=b"}, {Value: int64(7)}, {Value: false}}, got)
}

func TestIsolationLevelFallsBackToConfig(t *testing.T) {
	cfg.IsolationLevel = "serializable"
	t.Cleanup(func() { cfg.IsolationLevel = "" })

	iso, err := isolationLevel("")
	require.NoError(t, err)
	require.Equal(t, sqlexec.Serializable, iso)

	iso, err = isolationLevel("read committed")
	require.NoError(t, err)
	require.Equal(t, sqlexec.ReadCommitted, iso)
}

func TestAllResultSets(t *testing.T) {
	rs := mock.New(
		mock.Set{Columns: []string{"id"}, Rows: [][]any{{int64(1)}, {int64(2)}}},
		mock.Set{},
		mock.Set{Columns: []string{"name"}, Rows: [][]any{{"x"}}},
	)
	sets, err := allResultSets(rs)
	require.NoError(t, err)
	require.Len(t, sets, 2)
	require.Len(t, sets[0].records, 2)
	require.Equal(t, []string{"name"}, sets[1].columns)
}
