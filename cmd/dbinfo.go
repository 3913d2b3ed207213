// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"errors"
	"sort"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"sprocket/cli/internal/dsn"
	"sprocket/cli/internal/keychain"
	"sprocket/cli/internal/logging"
)

// dbinfoCmd shows which DSN a connection name resolves to, with credentials masked.
var dbinfoCmd = &cobra.Command{
	Use:   "dbinfo [name]",
	Short: "Show the resolved connection string and where it came from",
	Long: `The dbinfo command resolves a connection name the same way every other command does
(SPROCKET_DSN / DATABASE_URL for the default name, then the config file, then the OS
keychain) and prints the result with credentials masked. Known names are listed below it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := connectionName
		if len(args) == 1 {
			name = args[0]
		}

		res, err := resolveConnection(name)
		if errors.Is(err, dsn.ErrNotConfigured) {
			pterm.Println("⚠️  No database connection configured")
			pterm.Println("   Please run: sprocket connect")
			return nil
		}
		if err != nil {
			return err
		}

		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprintf("Connection %q", res.Name)).
			WithTopPadding(1).WithBottomPadding(1).WithLeftPadding(1).WithRightPadding(1).
			Println(logging.Mask(res.DSN))
		pterm.Println(pterm.NewStyle(pterm.FgGray).Sprint("source: " + string(res.Source)))
		pterm.Println()

		return renderKnownConnections()
	},
}

func renderKnownConnections() error {
	sources := map[string]string{}
	for n := range cfg.Connections {
		sources[n] = string(dsn.SourceConfig)
	}
	if km, err := keychain.GetManager(); err == nil {
		names, err := km.Names()
		if err != nil {
			return err
		}
		for _, n := range names {
			if _, ok := sources[n]; !ok {
				sources[n] = string(dsn.SourceKeychain)
			}
		}
	}
	if len(sources) == 0 {
		return nil
	}

	names := make([]string, 0, len(sources))
	for n := range sources {
		names = append(names, n)
	}
	sort.Strings(names)
	data := pterm.TableData{{"Name", "Source"}}
	for _, n := range names {
		data = append(data, []string{n, sources[n]})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func init() {
	rootCmd.AddCommand(dbinfoCmd)
}
