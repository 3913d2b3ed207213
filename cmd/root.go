// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for sprocket.
// It implements subcommands to store and inspect connections, run commands and stored
// routines, and render hierarchical query results, using the Cobra CLI framework.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sprocket/cli/internal/config"
	"sprocket/cli/internal/logging"
	"sprocket/cli/internal/reply"
)

var (
	showVersion    bool
	connectionName string
	logLevel       string
	logFormat      string
	verbose        bool

	cfg config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sprocket",
	Short: "Run PostgreSQL commands and stored routines",
	Long: `Sprocket runs SQL commands and stored routines against PostgreSQL, applying the
status/message reply convention and rebuilding hierarchical results as trees.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		cfg = c
		level, format := cfg.LogLevel, cfg.LogFormat
		if cmd.Flags().Changed("log-level") {
			level = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			format = logFormat
		}
		if verbose {
			level = "debug"
		}
		return logging.Configure(level, format)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("sprocket %s\n", Version)
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the CLI application.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var re *reply.Error
		if errors.As(err, &re) {
			renderReplyError(re)
		} else {
			fmt.Fprintln(os.Stderr, logging.PresentError("error", err))
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI version information")
	rootCmd.PersistentFlags().StringVarP(&connectionName, "connection", "c", "", "Named connection (defaults to default_connection from config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error, disabled")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: colorful or json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}
