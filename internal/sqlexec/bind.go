// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	apperrors "sprocket/cli/internal/errors"
)

// bindLiterals substitutes $n placeholders with typed literals so that a command can run
// over the simple query protocol, which is the only one that returns several result sets.
// Placeholders inside quoted strings, quoted identifiers, dollar-quoted bodies and
// comments are left untouched. Every argument must be referenced at least once.
func bindLiterals(m *pgtype.Map, sql string, args []any) (string, error) {
	if len(args) == 0 {
		return sql, nil
	}
	lits := make([]string, len(args))
	for i, a := range args {
		lit, err := literal(m, a)
		if err != nil {
			return "", apperrors.Wrap(apperrors.BindFailed, "parameter $"+strconv.Itoa(i+1), err)
		}
		lits[i] = lit
	}

	used := make([]bool, len(args))
	var b strings.Builder
	b.Grow(len(sql) + 16*len(args))
	for i := 0; i < len(sql); {
		c := sql[i]
		switch {
		case c == '\'' || c == '"':
			backslash := c == '\'' && i > 0 && (sql[i-1] == 'E' || sql[i-1] == 'e')
			end := skipQuoted(sql, i, c, backslash)
			b.WriteString(sql[i:end])
			i = end
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			end := strings.IndexByte(sql[i:], '\n')
			if end < 0 {
				end = len(sql)
			} else {
				end += i
			}
			b.WriteString(sql[i:end])
			i = end
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				end = len(sql)
			} else {
				end += i + 4
			}
			b.WriteString(sql[i:end])
			i = end
		case c == '$':
			j := i + 1
			for j < len(sql) && sql[j] >= '0' && sql[j] <= '9' {
				j++
			}
			if j > i+1 {
				n, _ := strconv.Atoi(sql[i+1 : j])
				if n < 1 || n > len(args) {
					return "", apperrors.Newf(apperrors.BindFailed, "placeholder $%d has no argument (%d given)", n, len(args))
				}
				b.WriteString(lits[n-1])
				used[n-1] = true
				i = j
				continue
			}
			if tagEnd := dollarTag(sql, i); tagEnd > 0 {
				tag := sql[i:tagEnd]
				end := strings.Index(sql[tagEnd:], tag)
				if end < 0 {
					end = len(sql)
				} else {
					end += tagEnd + len(tag)
				}
				b.WriteString(sql[i:end])
				i = end
				continue
			}
			b.WriteByte(c)
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}

	for i, u := range used {
		if !u {
			return "", apperrors.Newf(apperrors.BindFailed, "argument $%d is never referenced", i+1)
		}
	}
	return b.String(), nil
}

// skipQuoted returns the index just past the quoted token starting at start.
func skipQuoted(sql string, start int, quote byte, backslash bool) int {
	for j := start + 1; j < len(sql); j++ {
		switch sql[j] {
		case '\\':
			if backslash {
				j++
			}
		case quote:
			if j+1 < len(sql) && sql[j+1] == quote {
				j++
				continue
			}
			return j + 1
		}
	}
	return len(sql)
}

// dollarTag returns the end of a $tag$ opener at start, or -1.
func dollarTag(sql string, start int) int {
	for j := start + 1; j < len(sql); j++ {
		c := sql[j]
		switch {
		case c == '$':
			return j + 1
		case c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || (j > start+1 && c >= '0' && c <= '9'):
		default:
			return -1
		}
	}
	return -1
}

// literal renders v as a quoted, type-cast SQL literal using the connection's codecs.
func literal(m *pgtype.Map, v any) (string, error) {
	if v == nil {
		return "NULL", nil
	}
	dt, ok := m.TypeForValue(v)
	if !ok {
		return "", apperrors.Newf(apperrors.BindFailed, "no PostgreSQL type for %T", v)
	}
	buf, err := m.Encode(dt.OID, pgtype.TextFormatCode, v, nil)
	if err != nil {
		return "", err
	}
	if buf == nil {
		return "NULL", nil
	}
	return quoteString(string(buf)) + "::" + dt.Name, nil
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
