// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sprocket/cli/internal/sqlexec"
)

var (
	execRoutine   bool
	execParams    []string
	execReturn    bool
	execTx        bool
	execIsolation string
)

// execCmd runs one command and reports rows affected or the routine's return value.
var execCmd = &cobra.Command{
	Use:   "exec <sql|routine> [value...]",
	Short: "Run a SQL command or stored procedure",
	Long: `The exec command runs a SQL command (with $1..$n bound to the trailing values) or,
with --routine, calls a stored procedure by name using --param name=value pairs.

With --return the procedure receives an extra integer INOUT argument named after the
configured return value column, and its final value is printed (0 when never set).
With --tx the command runs inside a transaction that commits on success.`,
	Example: `  sprocket exec "UPDATE users SET active = $1 WHERE id = $2" false 42
  sprocket exec --routine --return app.create_user --param p_email=a@example.com`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := parseParams(execParams)
		if err != nil {
			return err
		}
		all := append(positionalParams(args[1:]), params...)
		command := sqlexec.Command{Kind: sqlexec.Text, Text: args[0], Params: all}
		if execRoutine {
			command = sqlexec.Call(args[0], all)
		}

		iso, err := isolationLevel(execIsolation)
		if err != nil {
			return err
		}
		sess, _, err := newSession(connectionName)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		defer sess.Close(context.WithoutCancel(ctx))

		run := func(ctx context.Context, ex sqlexec.Executor) error {
			if execReturn {
				rv, err := sqlexec.ExecReturn(ctx, ex, command)
				if err != nil {
					return err
				}
				pterm.Printfln("return value: %d", rv)
				return nil
			}
			n, err := sqlexec.Exec(ctx, ex, command)
			if err != nil {
				return err
			}
			pterm.Printfln("rows affected: %d", n)
			return nil
		}

		return withSpinner("running", func() error {
			if !execTx {
				return run(ctx, sess)
			}
			return sess.BeginTransaction(ctx, iso, func(ctx context.Context, tx *sqlexec.Tx) error {
				return run(ctx, tx)
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
	execCmd.Flags().BoolVar(&execRoutine, "routine", false, "Treat the first argument as a stored procedure name")
	execCmd.Flags().StringArrayVarP(&execParams, "param", "p", nil, "Parameter as name=value (repeatable)")
	execCmd.Flags().BoolVar(&execReturn, "return", false, "Read the integer return value")
	execCmd.Flags().BoolVar(&execTx, "tx", false, "Run inside a transaction")
	execCmd.Flags().StringVar(&execIsolation, "isolation", "", "Transaction isolation level (read committed, repeatable read, serializable)")
}
