package cli

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tabledesk/internal/config"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or write configuration",
	}

	cmd.AddCommand(newConfigShowCommand(opts))
	cmd.AddCommand(newConfigInitCommand(opts))
	return cmd
}

func newConfigShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Long: `Print the configuration after applying defaults, the config file,
TABLEDESK_* environment variables and flags, in that order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if f.Format == "json" {
				return f.Success(opts.Config)
			}

			data, err := yaml.Marshal(opts.Config)
			if err != nil {
				return err
			}
			if opts.Config.ConfigFile != "" {
				fmt.Fprintf(f.Writer, "# %s\n", opts.Config.ConfigFile)
			}
			_, err = f.Writer.Write(data)
			return err
		},
	}
}

func newConfigInitCommand(opts *RootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the resolved configuration to a file",
		Long: `Write the resolved configuration to a YAML file
(default ./` + config.FileName + `.yaml). An existing file is kept unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FileName + ".yaml"
			if len(args) == 1 {
				path = args[0]
			}

			exists, err := afero.Exists(config.AppFs, path)
			if err != nil {
				return WrapExitError(ExitCommandError, "checking config file", err)
			}
			if exists && !force {
				return NewExitError(ExitCommandError, fmt.Sprintf("%s already exists (use --force to overwrite)", path))
			}

			if err := config.Save(opts.Config, path); err != nil {
				return WrapExitError(ExitCommandError, "writing config", err)
			}
			opts.Logger.Debug("config written", "path", path)
			fmt.Fprintf(cmd.OutOrStdout(), "✓ wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
