// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"github.com/spf13/cobra"

	"sprocket/cli/internal/sqlexec"
	"sprocket/cli/internal/tree"
)

var (
	treeID     string
	treeParent string
	treeLabel  string
	treeSorted bool
	treeSingle bool
)

// treeCmd rebuilds a parent/child hierarchy from a query and prints it.
var treeCmd = &cobra.Command{
	Use:   "tree <sql> [value...]",
	Short: "Render query rows as a tree using identity and parent columns",
	Long: `The tree command runs a query whose rows carry an identity column and a nullable
parent identity column, links them into a forest and prints it.

With --sorted every parent must appear before its children (for example when the query
orders by path or depth); rows are then linked in a single pass and an out-of-order row
is an error. Without it rows may come in any order. --single requires exactly one root.`,
	Example: `  sprocket tree "SELECT id, parent_id, name FROM categories"
  sprocket tree --sorted --label title "SELECT id, parent_id, title FROM menu ORDER BY depth"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, _, err := newSession(connectionName)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		command := sqlexec.Command{Kind: sqlexec.Text, Text: args[0], Params: positionalParams(args[1:])}
		scan := sqlexec.NodeScanner[string, string](treeID, treeParent, func(r sqlexec.Record) (string, error) {
			return r.String(treeLabel), nil
		})

		var roots []*tree.Node[string, string]
		err = withSpinner("loading", func() error {
			if treeSingle {
				root, err := sqlexec.Query(ctx, sess, command, sqlexec.Tree[string](scan, treeSorted))
				roots = []*tree.Node[string, string]{root}
				return err
			}
			var err error
			roots, err = sqlexec.Query(ctx, sess, command, sqlexec.Forest[string](scan, treeSorted))
			return err
		})
		if err != nil {
			return err
		}
		return renderForest(roots)
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().StringVar(&treeID, "id", "id", "Identity column")
	treeCmd.Flags().StringVar(&treeParent, "parent", "parent_id", "Parent identity column")
	treeCmd.Flags().StringVar(&treeLabel, "label", "name", "Column shown for each node")
	treeCmd.Flags().BoolVar(&treeSorted, "sorted", false, "Rows are ordered parent before child")
	treeCmd.Flags().BoolVar(&treeSingle, "single", false, "Require exactly one root")
}
