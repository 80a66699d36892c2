package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/roach88/tabledesk/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	DBPath     string
	ConfigFile string
	Allow      []string
	Profiles   string

	// Resolved in PersistentPreRunE.
	Config *config.Config
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the tabledesk CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tabledesk",
		Short: "tabledesk - generic CRUD over SQLite tables",
		Long: `Inspect and edit the rows of allow-listed SQLite tables.

Table names are checked against an allow-list and the live schema, field
names against the table's columns, and every value is bound as a statement
parameter.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVar(&opts.DBPath, "db", "", "database file (default all_databas/tabledesk.db)")
	pf.StringVar(&opts.ConfigFile, "config", "", "config file (default ./tabledesk.yaml, ~/tabledesk.yaml)")
	pf.StringSliceVar(&opts.Allow, "allow", nil, "extra allow-listed tables")
	pf.StringVar(&opts.Profiles, "profiles", "", "directory of extra entity profiles")

	// Add subcommands
	cmd.AddCommand(NewShellCommand(opts))
	cmd.AddCommand(NewTablesCommand(opts))
	cmd.AddCommand(NewColumnsCommand(opts))
	cmd.AddCommand(NewSelectCommand(opts))
	cmd.AddCommand(NewCountCommand(opts))
	cmd.AddCommand(NewInsertCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewEntityCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// resolve loads configuration and installs the logger.
func (opts *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(config.Options{
		ConfigFile: opts.ConfigFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "loading config", err)
	}

	if !isValidFormat(cfg.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", cfg.Format, ValidFormats))
	}
	opts.Format = cfg.Format

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return WrapExitError(ExitCommandError, "invalid log_level", err)
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	opts.Logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	opts.Config = cfg

	if color.NoColor {
		pterm.DisableStyling()
	}

	opts.Logger.Debug("config resolved",
		"db_path", cfg.DBPath,
		"config_file", cfg.ConfigFile,
		"allowed_tables", cfg.AllowedTables,
	)
	return nil
}

// Execute runs cmd and returns the process exit code. Errors that a
// command has not already printed are written to stderr.
func Execute(ctx context.Context, cmd *cobra.Command) int {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if !exitErr.Reported {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return exitErr.Code
	}

	// Flag and argument errors from cobra.
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	return ExitCommandError
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
