// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// PresentError formats an error for user display with masking.
// Server errors are shown with their SQLSTATE, detail and hint.
func PresentError(context string, err error) string {
	if err == nil {
		return ""
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Sprintf("%s: %s", context, Mask(err.Error()))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s: %s (SQLSTATE %s)", context, pgErr.Severity, Mask(pgErr.Message), pgErr.Code)
	if pgErr.Detail != "" {
		b.WriteString("\n  detail: " + Mask(pgErr.Detail))
	}
	if pgErr.Hint != "" {
		b.WriteString("\n  hint: " + pgErr.Hint)
	}
	if pgErr.Where != "" {
		b.WriteString("\n  where: " + pgErr.Where)
	}
	return b.String()
}
