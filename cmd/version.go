// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"sprocket/cli/internal/sqlexec"
)

var (
	// Version holds the CLI version information.
	// This value is typically set at build time using -ldflags.
	Version = "0.0.0-dev"

	versionServer bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show CLI version, and optionally the server version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("sprocket %s\n", Version)
		if !versionServer {
			return nil
		}
		sess, res, err := newSession(connectionName)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		defer sess.Close(context.WithoutCancel(ctx))

		v, err := sqlexec.Query(ctx, sess, sqlexec.SQL("SHOW server_version"), sqlexec.Scalar[string]())
		if err != nil {
			return err
		}
		fmt.Printf("postgres %s (%s)\n", v, res.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionServer, "server", false, "Also query the server version")
}
