// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sprocket/cli/internal/reply"
	"sprocket/cli/internal/sqlexec"
)

var (
	callSQL       bool
	callParams    []string
	callIsolation string
)

// resultSet is one payload result set as read for display.
type resultSet struct {
	columns []string
	records []sqlexec.Record
}

// allResultSets reads the current and every following result set.
func allResultSets(rs reply.ResultSets) ([]resultSet, error) {
	var out []resultSet
	for {
		cols := append([]string(nil), rs.Columns()...)
		recs, err := sqlexec.Records()(rs)
		if err != nil {
			return nil, err
		}
		if len(cols) > 0 {
			out = append(out, resultSet{columns: cols, records: recs})
		}
		if !rs.NextResultSet() {
			return out, rs.Err()
		}
	}
}

// callCmd calls a routine that follows the status/message reply convention.
var callCmd = &cobra.Command{
	Use:   "call <routine|sql> [value...]",
	Short: "Call a routine through the reply status gate and print its payload",
	Long: `The call command runs a set-returning routine (or, with --sql, literal SQL) inside a
transaction and reads its first result set as a status code. On success the payload
result sets are printed as tables and the transaction commits; on any other status the
reply messages are printed and the transaction rolls back.

Routines returning refcursors have each cursor read as its own result set.`,
	Example: `  sprocket call app.get_user --param p_id=42
  sprocket call --sql "SELECT 'OK'; SELECT * FROM users WHERE id = $1" 42`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		named, err := parseParams(callParams)
		if err != nil {
			return err
		}
		params := append(positionalParams(args[1:]), named...)

		command := sqlexec.Call(args[0], params)
		if callSQL {
			command = sqlexec.Command{Kind: sqlexec.Text, Text: args[0], Params: params}
		}

		iso, err := isolationLevel(callIsolation)
		if err != nil {
			return err
		}
		sess, _, err := newSession(connectionName)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		defer sess.Close(context.WithoutCancel(ctx))

		var sets []resultSet
		err = withSpinner("calling "+args[0], func() error {
			return sess.BeginTransaction(ctx, iso, func(ctx context.Context, tx *sqlexec.Tx) error {
				var err error
				sets, err = sqlexec.QueryReply(ctx, tx, replyProtocol(), command, sqlexec.Projector[[]resultSet](allResultSets))
				return err
			})
		})
		if err != nil {
			return err
		}

		for i, s := range sets {
			if len(sets) > 1 {
				pterm.Println(pterm.NewStyle(pterm.FgLightCyan, pterm.Bold).Sprintf("Result set %d", i+1))
			}
			if err := renderRecords(s.records, s.columns); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(callCmd)
	callCmd.Flags().BoolVar(&callSQL, "sql", false, "Treat the first argument as SQL text")
	callCmd.Flags().StringArrayVarP(&callParams, "param", "p", nil, "Parameter as name=value (repeatable)")
	callCmd.Flags().StringVar(&callIsolation, "isolation", "", "Transaction isolation level")
}
