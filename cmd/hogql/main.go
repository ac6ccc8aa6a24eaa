// Command hogql parses a query and prints the normalized AST as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	hogql "github.com/PostHog/posthog-sub001"
)

func main() {
	root := &cobra.Command{
		Use:           "hogql",
		Short:         "Parse HogQL queries into their normalized AST",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "expr [query]",
			Short: "Parse a single expression",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				query, err := readQuery(args)
				if err != nil {
					return err
				}
				node, err := hogql.ParseExpr(query)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), node)
			},
		},
		&cobra.Command{
			Use:   "select [query]",
			Short: "Parse a SELECT statement",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				query, err := readQuery(args)
				if err != nil {
					return err
				}
				node, err := hogql.ParseSelect(query)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), node)
			},
		},
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func readQuery(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func printJSON(w io.Writer, node any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(node)
}
