package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tabledesk/internal/compiler"
	"github.com/roach88/tabledesk/internal/ir"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Profiles []string                   `json:"profiles,omitempty"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [profiles-dir]",
		Short: "Validate entity profiles",
		Long: `Compile and validate CUE entity profiles.

Without an argument the built-in profiles are checked, together with the
configured profiles directory when one is set.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if rootOpts.Config != nil {
				dir = rootOpts.Config.ProfilesDir
			}
			if len(args) == 1 {
				dir = args[0]
			}
			return runValidate(rootOpts, dir, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	profiles, err := compiler.Builtin()
	if err != nil {
		return outputValidateError(formatter, compiler.ErrCodeBuildFailed, err.Error(), nil)
	}
	formatter.VerboseLog("Loaded %d built-in profile(s)", len(profiles))

	var validationErrors []compiler.ValidationError
	if dir != "" {
		loadResult, loadErrors := compiler.LoadProfiles(dir, compiler.LoadModeCollectAll)

		// Handle load errors (directory not found, no files, etc.)
		if loadResult == nil && len(loadErrors) > 0 {
			var loadErr *compiler.LoadError
			if errors.As(loadErrors[0], &loadErr) {
				return outputValidateError(formatter, loadErr.Code, loadErr.Message, nil)
			}
			return outputValidateError(formatter, compiler.ErrCodeGeneric, loadErrors[0].Error(), nil)
		}
		formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, dir)

		for _, err := range loadErrors {
			var loadErr *compiler.LoadError
			if errors.As(err, &loadErr) {
				validationErrors = append(validationErrors, compiler.ValidationError{
					Field:   "load",
					Message: loadErr.Message,
					Code:    loadErr.Code,
					Line:    lineOf(loadErr),
				})
			}
		}
		profiles = mergeProfiles(profiles, loadResult.Profiles)
	}

	names := make([]string, 0, len(profiles))
	for i := range profiles {
		formatter.VerboseLog("Validating profile: %s", profiles[i].Name)
		names = append(names, profiles[i].Name)
		for _, verr := range compiler.Validate(&profiles[i]) {
			verr.Field = "profile." + profiles[i].Name + "." + verr.Field
			validationErrors = append(validationErrors, verr)
		}
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	return outputValidateSuccess(formatter, names)
}

// mergeProfiles overlays extra on base by name, keeping base order.
func mergeProfiles(base, extra []ir.EntityProfile) []ir.EntityProfile {
	out := append([]ir.EntityProfile(nil), base...)
	for _, p := range extra {
		replaced := false
		for i := range out {
			if out[i].Name == p.Name {
				out[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, p)
		}
	}
	return out
}

func lineOf(err *compiler.LoadError) int {
	if err.Pos.IsValid() {
		return err.Pos.Line()
	}
	return 0
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, names []string) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Profiles: names})
	}

	fmt.Fprintf(formatter.Writer, "✓ %d profile(s) valid\n", len(names))
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Load errors are command-level errors (exit code 2)
	return &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("%s: %s", code, message), Reported: true}
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	failed := &ExitError{
		Code:     ExitFailure,
		Message:  fmt.Sprintf("validation failed with %d error(s)", len(errs)),
		Reported: true,
	}

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return failed
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	return failed
}
