package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tabledesk/internal/entity"
)

type entityOptions struct {
	sets  []string
	field string
	yes   bool
}

// entityAction is one verb of the entity command.
type entityAction struct {
	args  []string // positional argument names
	short string
	run   func(ctx context.Context, f *OutputFormatter, e *entity.Entity, opts *entityOptions, args []string) error
}

var entityActions = map[string]entityAction{
	"add": {
		short: "validate and insert a record (--set field=value ...)",
		run: func(ctx context.Context, f *OutputFormatter, e *entity.Entity, opts *entityOptions, _ []string) error {
			record, err := parseRecord(opts.sets)
			if err != nil {
				return err
			}
			res, err := e.Add(ctx, record)
			if err != nil {
				return f.Report(ExitFailure, err)
			}
			return f.Result("inserted", res)
		},
	},
	"list": {
		short: "show every record",
		run: func(ctx context.Context, f *OutputFormatter, e *entity.Entity, _ *entityOptions, _ []string) error {
			rows, err := e.List(ctx)
			if err != nil {
				return f.Report(ExitFailure, err)
			}
			return f.Rows(rows)
		},
	},
	"get": {
		args:  []string{"id"},
		short: "show one record",
		run: func(ctx context.Context, f *OutputFormatter, e *entity.Entity, _ *entityOptions, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rows, err := e.Get(ctx, id)
			if err != nil {
				return f.Report(ExitFailure, err)
			}
			return f.Rows(rows)
		},
	},
	"update": {
		args:  []string{"id"},
		short: "change fields of one record (--set field=value ...)",
		run: func(ctx context.Context, f *OutputFormatter, e *entity.Entity, opts *entityOptions, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			record, err := parseRecord(opts.sets)
			if err != nil {
				return err
			}
			res, err := e.Update(ctx, id, record)
			if err != nil {
				return f.Report(ExitFailure, err)
			}
			return f.Result("updated", res)
		},
	},
	"delete": {
		args:  []string{"id"},
		short: "remove one record",
		run: func(ctx context.Context, f *OutputFormatter, e *entity.Entity, _ *entityOptions, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			res, err := e.Delete(ctx, id)
			if err != nil {
				return f.Report(ExitFailure, err)
			}
			return f.Result("deleted", res)
		},
	},
	"delete-all": {
		short: "remove every record (needs --yes)",
		run: func(ctx context.Context, f *OutputFormatter, e *entity.Entity, opts *entityOptions, _ []string) error {
			if !opts.yes {
				return NewExitError(ExitCommandError, "refusing to delete every record without --yes")
			}
			res, err := e.DeleteAll(ctx)
			if err != nil {
				return f.Report(ExitFailure, err)
			}
			return f.Result("deleted", res)
		},
	},
	"count": {
		short: "count records",
		run: func(ctx context.Context, f *OutputFormatter, e *entity.Entity, _ *entityOptions, _ []string) error {
			n, err := e.Count(ctx)
			if err != nil {
				return f.Report(ExitFailure, err)
			}
			if f.Format == "json" {
				return f.Success(map[string]int64{"count": n})
			}
			fmt.Fprintln(f.Writer, n)
			return nil
		},
	},
	"ids": {
		short: "list record ids",
		run: func(ctx context.Context, f *OutputFormatter, e *entity.Entity, _ *entityOptions, _ []string) error {
			ids, err := e.IDs(ctx)
			if err != nil {
				return f.Report(ExitFailure, err)
			}
			if f.Format == "json" {
				return f.Success(ids)
			}
			parts := make([]string, len(ids))
			for i, id := range ids {
				parts[i] = strconv.FormatInt(id, 10)
			}
			fmt.Fprintln(f.Writer, strings.Join(parts, " "))
			return nil
		},
	},
	"search": {
		args:  []string{"term"},
		short: "find records by a search field (--field, default all search fields)",
		run: func(ctx context.Context, f *OutputFormatter, e *entity.Entity, opts *entityOptions, args []string) error {
			rows, err := e.Search(ctx, opts.field, args[0])
			if err != nil {
				return f.Report(ExitFailure, err)
			}
			return f.Rows(rows)
		},
	},
	"range": {
		args:  []string{"field", "low", "high"},
		short: "find records whose field lies between low and high",
		run: func(ctx context.Context, f *OutputFormatter, e *entity.Entity, _ *entityOptions, args []string) error {
			rows, err := e.Range(ctx, args[0], args[1], args[2])
			if err != nil {
				return f.Report(ExitFailure, err)
			}
			return f.Rows(rows)
		},
	},
	"last-saved": {
		args:  []string{"id"},
		short: "show when a record was last saved",
		run: func(ctx context.Context, f *OutputFormatter, e *entity.Entity, _ *entityOptions, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			stamp, err := e.LastSaved(ctx, id)
			if err != nil {
				return f.Report(ExitFailure, err)
			}
			if f.Format == "json" {
				return f.Success(map[string]string{"last_saved": stamp})
			}
			fmt.Fprintln(f.Writer, stamp)
			return nil
		},
	},
}

// NewEntityCommand creates the entity command.
func NewEntityCommand(opts *RootOptions) *cobra.Command {
	eopts := &entityOptions{}

	cmd := &cobra.Command{
		Use:   "entity <profile> <action> [args]",
		Short: "Work with profile-backed records (student, ticher, inson, ...)",
		Long: `Work with records of an entity profile.

The profile table is created on first use. Values are checked against the
profile before they reach the database, and saves are stamped with the
current time.

Actions:
` + entityUsage() + `
Examples:
  tabledesk entity student add --set familya=Aliyev --set ismi=Vali --set kurs=2
  tabledesk entity student search Ali
  tabledesk entity student range kurs 1 3
  tabledesk entity inson last-saved 1`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEntity(cmd, opts, eopts, args)
		},
	}

	cmd.Flags().StringArrayVar(&eopts.sets, "set", nil, "field=value (repeatable)")
	cmd.Flags().StringVar(&eopts.field, "field", "", "search field")
	cmd.Flags().BoolVar(&eopts.yes, "yes", false, "confirm delete-all")

	return cmd
}

func runEntity(cmd *cobra.Command, opts *RootOptions, eopts *entityOptions, args []string) error {
	profile, verb, rest := args[0], args[1], args[2:]
	action, ok := entityActions[verb]
	if !ok {
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown action %q", verb))
	}
	if len(rest) != len(action.args) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("%s takes %d argument(s): %s", verb, len(action.args), strings.Join(action.args, " ")))
	}

	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	return withSession(opts, func(s *session) error {
		e, ok := s.entities.Get(profile)
		if !ok {
			return NewExitError(ExitCommandError,
				fmt.Sprintf("unknown profile %q (known: %s)", profile, strings.Join(s.entities.Names(), ", ")))
		}
		if err := e.Bootstrap(cmd.Context()); err != nil {
			return f.Report(ExitFailure, err)
		}
		f.VerboseLog("profile %s -> table %s", profile, e.Table())
		return action.run(cmd.Context(), f, e, eopts, rest)
	})
}

func entityUsage() string {
	verbs := make([]string, 0, len(entityActions))
	for v := range entityActions {
		verbs = append(verbs, v)
	}
	sort.Strings(verbs)

	var sb strings.Builder
	for _, v := range verbs {
		a := entityActions[v]
		usage := strings.TrimSpace(v + " " + strings.Join(wrapArgs(a.args), " "))
		fmt.Fprintf(&sb, "  %-26s %s\n", usage, a.short)
	}
	return sb.String()
}

func wrapArgs(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = "<" + n + ">"
	}
	return out
}

// parseRecord turns field=value pairs into a record.
func parseRecord(sets []string) (map[string]string, error) {
	record := make(map[string]string, len(sets))
	for _, s := range sets {
		k, v, ok := strings.Cut(s, "=")
		if !ok {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid --set %q: want field=value", s))
		}
		record[strings.TrimSpace(k)] = v
	}
	return record, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid id %q", s))
	}
	return id, nil
}
