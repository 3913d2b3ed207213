// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package terminal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLines(t *testing.T) {
	tests := []struct {
		length, width, want int
	}{
		{0, 80, 1},
		{79, 80, 1},
		{80, 80, 1},
		{81, 80, 2},
		{200, 0, 3},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, lines(tt.length, tt.width))
	}
}

func TestReadLine(t *testing.T) {
	got, err := readLine(strings.NewReader("  postgres://u@h/db \nignored"))
	require.NoError(t, err)
	require.Equal(t, "postgres://u@h/db", got)

	got, err = readLine(strings.NewReader("no newline"))
	require.NoError(t, err)
	require.Equal(t, "no newline", got)
}
