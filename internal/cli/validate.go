package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/loom/internal/config"
	"github.com/roach88/loom/internal/harness"
	"github.com/roach88/loom/internal/platform/script"
)

// File kinds accepted by validate.
const (
	KindConfig   = "config"
	KindScript   = "script"
	KindScenario = "scenario"
)

var validKinds = []string{KindConfig, KindScript, KindScenario}

// FileValidation is the validation outcome for one file.
type FileValidation struct {
	Path  string `json:"path"`
	Kind  string `json:"kind"`
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var as string

	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate config, script and scenario files",
		Long: `Validate files without running anything.

.cue files are checked against the config schema. YAML files are checked as
scripts unless --as scenario is given. Environment overrides are not applied.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if as != "" && !slices.Contains(validKinds, as) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid kind %q: must be one of %v", as, validKinds))
			}
			return runValidate(rootOpts, args, as, cmd)
		},
	}

	cmd.Flags().StringVar(&as, "as", "", "file kind (config|script|scenario); inferred from the extension by default")

	return cmd
}

func runValidate(opts *RootOptions, paths []string, as string, cmd *cobra.Command) error {
	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(paths))}
	for _, path := range paths {
		fv := validateFile(path, as)
		if !fv.Valid {
			result.Valid = false
		}
		result.Files = append(result.Files, fv)
	}

	var failure *CLIError
	if !result.Valid {
		failure = &CLIError{Code: "E_INVALID", Message: "validation failed"}
	}

	f := newFormatter(opts, cmd.OutOrStdout())
	if err := f.Result(result, failure, func(w io.Writer) {
		for _, fv := range result.Files {
			if fv.Valid {
				fmt.Fprintf(w, "✓ %s (%s)\n", fv.Path, fv.Kind)
				continue
			}
			fmt.Fprintf(w, "✗ %s (%s)\n  %s\n", fv.Path, fv.Kind, fv.Error)
		}
	}); err != nil {
		return err
	}

	if failure != nil {
		return NewExitError(ExitFailure, failure.Message)
	}
	return nil
}

func validateFile(path, as string) FileValidation {
	kind := as
	if kind == "" {
		kind = KindScript
		if filepath.Ext(path) == ".cue" {
			kind = KindConfig
		}
	}

	var err error
	switch kind {
	case KindConfig:
		_, err = config.Loader{Environment: map[string]string{}}.Load(path)
	case KindScenario:
		_, err = harness.LoadScenario(path)
	default:
		_, err = script.Load(path)
	}

	fv := FileValidation{Path: path, Kind: kind, Valid: err == nil}
	if err != nil {
		fv.Error = err.Error()
	}
	return fv
}
