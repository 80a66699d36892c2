package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tabledesk/internal/engine"
	"github.com/roach88/tabledesk/internal/ir"
)

// withSession opens the database, runs fn and closes it.
func withSession(opts *RootOptions, fn func(*session) error) error {
	s, err := openSession(opts)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// NewTablesCommand creates the tables command.
func NewTablesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List allow-listed tables that exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return withSession(opts, func(s *session) error {
				tables, err := s.engine.Tables(cmd.Context())
				if err != nil {
					return f.Report(ExitFailure, err)
				}
				if f.Format == "json" {
					return f.Success(tables)
				}
				if len(tables) == 0 {
					fmt.Fprintln(f.Writer, "(no tables)")
				}
				for _, t := range tables {
					fmt.Fprintln(f.Writer, t)
				}
				return nil
			})
		},
	}
}

// NewColumnsCommand creates the columns command.
func NewColumnsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "columns <table>",
		Short: "List the live columns of a table",
		Long: `List the live columns of a table in declaration order.

A table that does not exist has no columns; this is not an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return withSession(opts, func(s *session) error {
				cols, err := s.engine.Columns(cmd.Context(), args[0])
				if err != nil {
					return f.Report(ExitFailure, err)
				}
				if f.Format == "json" {
					return f.Success(cols)
				}
				if len(cols) == 0 {
					fmt.Fprintln(f.Writer, "(no columns)")
					return nil
				}
				fmt.Fprintf(f.Writer, "%s: %s\n", args[0], strings.Join(cols, ", "))
				return nil
			})
		},
	}
}

type selectOptions struct {
	where   string
	columns []string
	orderBy []string
	limit   int
}

// NewSelectCommand creates the select command.
func NewSelectCommand(opts *RootOptions) *cobra.Command {
	sel := &selectOptions{}

	cmd := &cobra.Command{
		Use:   "select <table>",
		Short: "Show rows of a table",
		Long: `Show the rows of a table, optionally filtered.

Examples:
  tabledesk select roles
  tabledesk select students --where "first_name LIKE 'A%' AND group_id = 2"
  tabledesk select roles --columns id,name --order-by name --limit 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if sel.limit < 0 {
				return NewExitError(ExitCommandError, "--limit must not be negative")
			}
			return withSession(opts, func(s *session) error {
				rows, err := s.engine.SelectWith(cmd.Context(), args[0], sel.where, engine.SelectOptions{
					Columns: sel.columns,
					OrderBy: sel.orderBy,
					Limit:   sel.limit,
				})
				if err != nil {
					return f.Report(ExitFailure, err)
				}
				return f.Rows(rows)
			})
		},
	}

	cmd.Flags().StringVar(&sel.where, "where", "", "row filter, e.g. \"id = 1\"")
	cmd.Flags().StringSliceVar(&sel.columns, "columns", nil, "columns to show")
	cmd.Flags().StringSliceVar(&sel.orderBy, "order-by", nil, "columns to sort by (default primary key)")
	cmd.Flags().IntVar(&sel.limit, "limit", 0, "maximum number of rows (0 = all)")

	return cmd
}

// NewCountCommand creates the count command.
func NewCountCommand(opts *RootOptions) *cobra.Command {
	var where string

	cmd := &cobra.Command{
		Use:   "count <table>",
		Short: "Count rows of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return withSession(opts, func(s *session) error {
				n, err := s.engine.Count(cmd.Context(), args[0], where)
				if err != nil {
					return f.Report(ExitFailure, err)
				}
				if f.Format == "json" {
					return f.Success(map[string]int64{"count": n})
				}
				fmt.Fprintln(f.Writer, n)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&where, "where", "", "row filter")
	return cmd
}

// NewInsertCommand creates the insert command.
func NewInsertCommand(opts *RootOptions) *cobra.Command {
	var fields, values []string

	cmd := &cobra.Command{
		Use:   "insert <table>",
		Short: "Insert one row",
		Long: `Insert one row. Fields and values are paired by position.

Values containing commas must be quoted CSV style:
  tabledesk insert roles --fields name,description --values 'editor,"read, write"'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return withSession(opts, func(s *session) error {
				res, err := s.engine.Insert(cmd.Context(), args[0], fields, values)
				if err != nil {
					return f.Report(ExitFailure, err)
				}
				return f.Result("inserted", res)
			})
		},
	}

	cmd.Flags().StringSliceVar(&fields, "fields", nil, "comma-separated field names")
	cmd.Flags().StringSliceVar(&values, "values", nil, "comma-separated values")
	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(opts *RootOptions) *cobra.Command {
	var sets []string
	var where string

	cmd := &cobra.Command{
		Use:   "update <table>",
		Short: "Update rows matching a filter",
		Long: `Update rows matching a filter. --where is required.

Examples:
  tabledesk update users --set email=a@b.uz --where "id = 1"
  tabledesk update roles --set name=root --set description=all --where "name = 'admin'"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			assignments, err := parseAssignments(sets)
			if err != nil {
				return err
			}
			return withSession(opts, func(s *session) error {
				res, err := s.engine.UpdateSet(cmd.Context(), args[0], assignments, where)
				if err != nil {
					return f.Report(ExitFailure, err)
				}
				return f.Result("updated", res)
			})
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "column=value (repeatable)")
	cmd.Flags().StringVar(&where, "where", "", "row filter (required)")
	return cmd
}

// parseAssignments splits column=value pairs on the first '='.
func parseAssignments(sets []string) ([]ir.Assignment, error) {
	out := make([]ir.Assignment, 0, len(sets))
	for _, s := range sets {
		col, val, ok := strings.Cut(s, "=")
		if !ok {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid --set %q: want column=value", s))
		}
		out = append(out, ir.Assignment{Column: strings.TrimSpace(col), Value: val})
	}
	return out, nil
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(opts *RootOptions) *cobra.Command {
	var where string
	var all, yes bool

	cmd := &cobra.Command{
		Use:   "delete <table>",
		Short: "Delete rows matching a filter",
		Long: `Delete rows matching a filter.

Deleting every row needs --all together with --yes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if all && where != "" {
				return NewExitError(ExitCommandError, "--all and --where are mutually exclusive")
			}
			if all && !yes {
				return NewExitError(ExitCommandError, "refusing to delete every row without --yes")
			}
			return withSession(opts, func(s *session) error {
				var res ir.Result
				var err error
				if all {
					res, err = s.engine.DeleteAll(cmd.Context(), args[0])
				} else {
					res, err = s.engine.Delete(cmd.Context(), args[0], where)
				}
				if err != nil {
					return f.Report(ExitFailure, err)
				}
				return f.Result("deleted", res)
			})
		},
	}

	cmd.Flags().StringVar(&where, "where", "", "row filter")
	cmd.Flags().BoolVar(&all, "all", false, "delete every row")
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm --all")
	return cmd
}
