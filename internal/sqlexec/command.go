// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "sprocket/cli/internal/errors"
)

// Kind tells how a Command's text is interpreted.
type Kind int

const (
	// Text is literal SQL using $1..$n placeholders. It may hold several statements,
	// each producing one result set.
	Text Kind = iota
	// Routine is the (optionally schema-qualified) name of a stored procedure or function.
	Routine
)

func (k Kind) String() string {
	if k == Routine {
		return "routine"
	}
	return "text"
}

// Param is one command parameter. Name is optional for Text commands; for Routine
// commands a name selects PostgreSQL named notation (name => value).
type Param struct {
	Name  string
	Value any
}

// Binder produces command parameters. Order and name/value pairs are preserved.
type Binder interface {
	Bind() []Param
}

// Params is a statically built parameter list.
//
//	params := sqlexec.Params{}.Add("p_email", email).Add("p_name", name)
type Params []Param

// Add appends a named parameter.
func (p Params) Add(name string, value any) Params {
	return append(p, Param{Name: name, Value: value})
}

// Bind implements Binder.
func (p Params) Bind() []Param { return p }

// Positional builds unnamed parameters from values, in order.
func Positional(values ...any) Params {
	p := make(Params, len(values))
	for i, v := range values {
		p[i] = Param{Value: v}
	}
	return p
}

// Command is a unit of work sent to the database.
type Command struct {
	Kind   Kind
	Text   string
	Params []Param
}

// SQL builds a Text command with positional parameters.
func SQL(text string, args ...any) Command {
	return Command{Kind: Text, Text: text, Params: Positional(args...)}
}

// Call builds a Routine command. A nil binder means no parameters.
func Call(routine string, b Binder) Command {
	c := Command{Kind: Routine, Text: routine}
	if b != nil {
		c.Params = b.Bind()
	}
	return c
}

// With returns a copy of c with its parameters replaced by b's.
func (c Command) With(b Binder) Command {
	c.Params = b.Bind()
	return c
}

// ParamNames lists parameter names, using $n for unnamed ones.
func (c Command) ParamNames() []string {
	names := make([]string, len(c.Params))
	for i, p := range c.Params {
		if p.Name == "" {
			names[i] = fmt.Sprintf("$%d", i+1)
		} else {
			names[i] = p.Name
		}
	}
	return names
}

type renderMode int

const (
	// renderExec runs procedures with CALL.
	renderExec renderMode = iota
	// renderQuery selects from set-returning functions.
	renderQuery
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*(\.[A-Za-z_][A-Za-z0-9_$]*)*$`)

// render returns the SQL text and argument list for c.
// For routines in exec mode a non-empty returnSlot appends a NULL integer argument
// that the procedure fills through its INOUT parameter of that name.
func (c Command) render(mode renderMode, returnSlot string) (string, []any, error) {
	args := make([]any, len(c.Params))
	for i, p := range c.Params {
		args[i] = p.Value
	}
	if c.Kind == Text {
		if strings.TrimSpace(c.Text) == "" {
			return "", nil, apperrors.New(apperrors.BindFailed, "empty command text")
		}
		return c.Text, args, nil
	}

	if !identRe.MatchString(c.Text) {
		return "", nil, apperrors.Newf(apperrors.BindFailed, "invalid routine name %q", c.Text)
	}
	named := false
	list := make([]string, 0, len(c.Params)+1)
	for i, p := range c.Params {
		if p.Name == "" {
			list = append(list, fmt.Sprintf("$%d", i+1))
			continue
		}
		if !identRe.MatchString(p.Name) || strings.Contains(p.Name, ".") {
			return "", nil, apperrors.Newf(apperrors.BindFailed, "invalid parameter name %q", p.Name)
		}
		named = true
		list = append(list, fmt.Sprintf("%s => $%d", p.Name, i+1))
	}

	if mode == renderQuery {
		return fmt.Sprintf("SELECT * FROM %s(%s)", c.Text, strings.Join(list, ", ")), args, nil
	}
	if returnSlot != "" {
		if named {
			list = append(list, returnSlot+" => NULL::integer")
		} else {
			list = append(list, "NULL::integer")
		}
	}
	return fmt.Sprintf("CALL %s(%s)", c.Text, strings.Join(list, ", ")), args, nil
}
