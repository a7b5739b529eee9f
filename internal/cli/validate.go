package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/hql/internal/compiler"
	"github.com/roach88/hql/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Path    string            `json:"path"`
	Valid   bool              `json:"valid"`
	Options *compiler.Options `json:"options,omitempty"`
	Error   *config.Error     `json:"error,omitempty"`
}

func (r ValidationResult) String() string {
	if r.Valid {
		return fmt.Sprintf("✓ %s is valid", r.Path)
	}
	return fmt.Sprintf("✗ %s", r.Error)
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config>",
		Short: "Check a compiler options file",
		Long: `Check a .yaml or .cue compiler options file against the options schema
and print the options it resolves to.

Exit codes:
  0 - File is valid
  1 - File is invalid
  2 - Command error (file not readable)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	f.VerboseLog("validating %s", path)

	resolved, err := config.Load(path)
	var cfgErr *config.Error
	switch {
	case err == nil:
		return f.Success(ValidationResult{Path: path, Valid: true, Options: &resolved})
	case errors.As(err, &cfgErr):
		res := ValidationResult{Path: path, Error: cfgErr}
		if f.Format == "json" {
			if err := f.Error(ErrCodeConfig, cfgErr.Message, res); err != nil {
				return err
			}
		} else {
			fmt.Fprintln(f.Writer, res)
		}
		return &ExitError{Code: ExitFailure, Message: "invalid config", Reported: true}
	default:
		return f.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}
}
