package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/easelhq/easel/internal/docfile"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// ValidationIssue is a single reported violation.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Validate a document file without loading it into an editor",
		Long: `Validate a document file against the schema and model invariants.

Checks shape and value constraints (layer kinds, opacity bounds, frame
dimensions) plus id uniqueness and group ownership. Reports every
violation found, not just the first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	d, errs := docfile.Load(path)
	if len(errs) > 0 {
		issues := toIssues(errs)
		// A file we could not even read is a command error, not a
		// validation failure.
		var verr *docfile.ValidationError
		if !errors.As(errs[0], &verr) {
			_ = formatter.Error(ErrCodeGeneric, errs[0].Error(), nil)
			return WrapExitError(ExitCommandError, "cannot load document", errs[0])
		}
		return outputValidationErrors(formatter, issues)
	}

	formatter.VerboseLog("Loaded document version %d with %d frame(s)", d.Version, len(d.Frames))
	return outputValidateSuccess(formatter)
}

func toIssues(errs []error) []ValidationIssue {
	out := make([]ValidationIssue, 0, len(errs))
	for _, err := range errs {
		var verr *docfile.ValidationError
		if errors.As(err, &verr) {
			out = append(out, ValidationIssue{Code: verr.Code, Message: verr.Message})
			continue
		}
		out = append(out, ValidationIssue{Code: ErrCodeGeneric, Message: err.Error()})
	}
	return out
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter) error {
	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true})
	}

	fmt.Fprintln(formatter.Writer, "✓ Document valid")
	return nil
}

// outputValidationErrors reports every violation found, with the first
// one filling the envelope's error slot.
func outputValidationErrors(formatter *OutputFormatter, issues []ValidationIssue) error {
	if formatter.JSON() {
		result := ValidationResult{Valid: false, Errors: issues}
		if err := formatter.ErrorWithData(issues[0].Code, issues[0].Message, result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, issue := range issues {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", issue.Code, issue.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
}
