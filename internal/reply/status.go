// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package reply

import (
	"errors"
	"fmt"
	"strings"
)

// Outcome is the category a status code maps to.
type Outcome int

const (
	Unknown Outcome = iota
	Success
	Warning
	Failure
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Failure:
		return "error"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Status is a parsed status cell.
type Status struct {
	Code    string
	Outcome Outcome
}

// Codebook maps status codes to outcomes. Lookups are case-insensitive.
type Codebook map[string]Outcome

// NewCodebook builds a codebook from code lists per outcome.
func NewCodebook(success, warning, failure, notFound []string) Codebook {
	c := make(Codebook)
	c.add(Success, success)
	c.add(Warning, warning)
	c.add(Failure, failure)
	c.add(NotFound, notFound)
	return c
}

// DefaultCodebook recognizes the codes emitted by the stock routines.
func DefaultCodebook() Codebook {
	return NewCodebook(
		[]string{"OK", "SUCCESS"},
		[]string{"WARN", "WARNING"},
		[]string{"ERR", "ERROR", "ERR_VALIDATION", "ERR_CONFLICT", "ERR_FORBIDDEN"},
		[]string{"ERR_NOTFOUND", "NOT_FOUND"},
	)
}

func (c Codebook) add(o Outcome, codes []string) {
	for _, code := range codes {
		c[strings.ToUpper(strings.TrimSpace(code))] = o
	}
}

// Parse maps raw to a Status. The original spelling of the code is kept.
func (c Codebook) Parse(raw string) (Status, bool) {
	code := strings.TrimSpace(raw)
	o, ok := c[strings.ToUpper(code)]
	if !ok {
		return Status{}, false
	}
	return Status{Code: code, Outcome: o}, true
}

// Severity grades a reply message.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ParseSeverity normalizes common spellings; anything else is kept lower-cased.
func ParseSeverity(s string) Severity {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "", "err", "error", "fatal":
		return SeverityError
	case "warn", "warning":
		return SeverityWarning
	case "info", "notice":
		return SeverityInfo
	default:
		return Severity(v)
	}
}

// Message is one line of a non-success reply.
type Message struct {
	Code     string
	Text     string
	Severity Severity
}

// Error is returned by Gate for a non-success status.
type Error struct {
	Status   Status
	Messages []Message
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "reply status %s (%s)", e.Status.Code, e.Status.Outcome)
	for i, m := range e.Messages {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		if m.Code != "" {
			b.WriteString(m.Code)
			b.WriteString(" ")
		}
		b.WriteString(m.Text)
	}
	return b.String()
}

// IsStatus reports whether err carries a reply *Error with the given status code.
func IsStatus(err error, code string) bool {
	var re *Error
	if !errors.As(err, &re) {
		return false
	}
	return strings.EqualFold(re.Status.Code, code)
}

// Merge copies every entry of other into c, replacing existing codes.
func (c Codebook) Merge(other Codebook) Codebook {
	for code, o := range other {
		c[code] = o
	}
	return c
}
