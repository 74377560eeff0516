//go:build sqlite_vtable

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/asg017/sqlite-http/internal/version"
)

// registerBuiltinCommands registers all built-in commands
func (cli *CLI) registerBuiltinCommands() {
	cli.rootCmd.AddCommand(
		&cobra.Command{
			Use:   "query <sql>",
			Short: "Run SQL and print rows tab-separated",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return cli.runQuery(strings.Join(args, " "))
			},
		},
		&cobra.Command{
			Use:   "functions",
			Short: "List the functions and tables loaded for the selected variant",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				for _, name := range cli.variant().Names() {
					fmt.Fprintln(cli.out, name)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cli.out, version.Debug())
				return nil
			},
		},
	)
}

// runQuery executes query and writes each row as tab-separated text. NULL is
// written as an empty field.
func (cli *CLI) runQuery(query string) error {
	db, err := cli.openDB()
	if err != nil {
		return err
	}

	rows, err := db.Query(query)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("failed to read columns: %w", err)
	}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	fields := make([]string, len(cols))
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			fields[i] = formatValue(v)
		}
		fmt.Fprintln(cli.out, strings.Join(fields, "\t"))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	return nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}
