package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/tabledesk/internal/engine"
)

const shellMenu = `
1. View rows
2. Add a row
3. Update rows
4. Delete rows
5. Exit`

// NewShellCommand creates the interactive shell command.
func NewShellCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive menu over the database",
		Long: `Start the interactive menu.

Each choice asks for a table name and then for fields, values or a
condition. Errors are printed and the menu continues; choose 5 or send
end of input to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(opts, func(s *session) error {
				sh := newShell(s.engine, cmd.InOrStdin(), cmd.OutOrStdout())
				return sh.run(cmd.Context())
			})
		},
	}
}

// shell is the menu loop. It owns no state besides its streams.
type shell struct {
	eng  *engine.Engine
	in   *bufio.Scanner
	out  io.Writer
	rows *OutputFormatter

	ok   *color.Color
	fail *color.Color
}

func newShell(eng *engine.Engine, in io.Reader, out io.Writer) *shell {
	return &shell{
		eng:  eng,
		in:   bufio.NewScanner(in),
		out:  out,
		rows: &OutputFormatter{Format: "text", Writer: out},
		ok:   color.New(color.FgGreen),
		fail: color.New(color.FgRed),
	}
}

func (sh *shell) run(ctx context.Context) error {
	for {
		fmt.Fprintln(sh.out, shellMenu)
		choice, ok := sh.prompt("Choose: ")
		if !ok {
			return sh.in.Err()
		}

		switch strings.TrimSpace(choice) {
		case "1":
			ok = sh.view(ctx)
		case "2":
			ok = sh.add(ctx)
		case "3":
			ok = sh.update(ctx)
		case "4":
			ok = sh.delete(ctx)
		case "5":
			fmt.Fprintln(sh.out, "Bye.")
			return nil
		default:
			sh.fail.Fprintf(sh.out, "Invalid choice %q\n", choice)
		}
		if !ok {
			return sh.in.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// prompt prints label and reads one line. ok is false at end of input.
func (sh *shell) prompt(label string) (string, bool) {
	fmt.Fprint(sh.out, label)
	if !sh.in.Scan() {
		fmt.Fprintln(sh.out)
		return "", false
	}
	return sh.in.Text(), true
}

func (sh *shell) report(err error) {
	sh.fail.Fprintf(sh.out, "✗ %v\n", err)
}

// table reads a table name and shows its columns when it has any.
func (sh *shell) table(ctx context.Context, showColumns bool) (string, []string, bool) {
	name, ok := sh.prompt("Table (e.g. students, users): ")
	if !ok {
		return "", nil, false
	}
	name = strings.TrimSpace(name)
	if !showColumns {
		return name, nil, true
	}

	cols, err := sh.eng.Columns(ctx, name)
	if err != nil {
		sh.report(err)
		return name, nil, true
	}
	fmt.Fprintf(sh.out, "Columns of %s: %s\n", name, strings.Join(cols, ", "))
	return name, cols, true
}

func (sh *shell) view(ctx context.Context) bool {
	name, _, ok := sh.table(ctx, false)
	if !ok {
		return false
	}
	rows, err := sh.eng.SelectAll(ctx, name)
	if err != nil {
		sh.report(err)
		return true
	}
	if rows.Len() == 0 {
		fmt.Fprintf(sh.out, "Table %s is empty.\n", name)
		return true
	}
	if err := sh.rows.Rows(rows); err != nil {
		sh.report(err)
	}
	return true
}

func (sh *shell) add(ctx context.Context) bool {
	name, cols, ok := sh.table(ctx, true)
	if !ok {
		return false
	}
	fields, ok := sh.prompt(fmt.Sprintf("Fields (%s): ", strings.Join(cols, ", ")))
	if !ok {
		return false
	}
	values, ok := sh.prompt("Values (comma-separated): ")
	if !ok {
		return false
	}

	res, err := sh.eng.Insert(ctx, name, strings.Split(fields, ","), strings.Split(values, ","))
	if err != nil {
		sh.report(err)
		return true
	}
	sh.ok.Fprintf(sh.out, "✓ Row added (id %d)\n", res.LastInsertID)
	return true
}

func (sh *shell) update(ctx context.Context) bool {
	name, _, ok := sh.table(ctx, true)
	if !ok {
		return false
	}
	field, ok := sh.prompt("Field to change (e.g. email): ")
	if !ok {
		return false
	}
	value, ok := sh.prompt("New value: ")
	if !ok {
		return false
	}
	where, ok := sh.prompt("Condition (e.g. id = 1): ")
	if !ok {
		return false
	}

	res, err := sh.eng.Update(ctx, name, strings.TrimSpace(field), value, where)
	if err != nil {
		sh.report(err)
		return true
	}
	sh.ok.Fprintf(sh.out, "✓ %d row(s) updated\n", res.RowsAffected)
	return true
}

func (sh *shell) delete(ctx context.Context) bool {
	name, _, ok := sh.table(ctx, false)
	if !ok {
		return false
	}
	where, ok := sh.prompt("Condition (e.g. id = 1): ")
	if !ok {
		return false
	}

	res, err := sh.eng.Delete(ctx, name, where)
	if err != nil {
		sh.report(err)
		return true
	}
	sh.ok.Fprintf(sh.out, "✓ %d row(s) deleted\n", res.RowsAffected)
	return true
}
