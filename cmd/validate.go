package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shotrec/shotrec/internal/driver"
	"github.com/shotrec/shotrec/internal/script"
	"github.com/spf13/cobra"
)

// ValidationResult represents the validation outcome for a single script file.
type ValidationResult struct {
	File   string   `json:"file"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

var errValidationFailed = errors.New("validation failed")

var validateFormatFlag string

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Validate script files without running them",
	Long: `Validate one or more script YAML files without starting a browser.

Checks schema compliance (known fields, non-empty meta.name, at least one
step) and that every step uses a command the browser driver supports with
enough arguments. Script names must be unique across the given files since
they name the screenshot directories.

Exit code 0 if all files are valid, 1 if any file has errors.

Formats:
  text   Human-readable output to stderr (default)
  json   Structured JSON to stdout

Examples:
  shotrec validate login.yaml
  shotrec validate --format json scripts/*.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() { //nolint:gochecknoinits // Standard cobra pattern
	validateCmd.Flags().StringVar(&validateFormatFlag, "format", "text",
		"Output format: text, json")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(validateFormatFlag)
	switch format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid format %q: valid values are text, json", validateFormatFlag)
	}

	results := make([]ValidationResult, 0, len(args))
	owners := make(map[string]string)
	hasErrors := false

	for _, path := range args {
		result, sc := validateFile(path)
		if sc != nil {
			if first, dup := owners[sc.Meta.Name]; dup {
				result.Valid = false
				result.Errors = append(result.Errors,
					fmt.Sprintf("meta.name %q is already used by %s", sc.Meta.Name, first))
			} else {
				owners[sc.Meta.Name] = path
			}
		}
		results = append(results, result)
		if !result.Valid {
			hasErrors = true
		}
	}

	switch format {
	case "text":
		formatValidateText(cmd.ErrOrStderr(), results)
	case "json":
		if err := formatValidateJSON(cmd.OutOrStdout(), results); err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
	}

	if hasErrors {
		return errValidationFailed
	}
	return nil
}

// validateFile loads a single script and checks its steps against the
// driver's command table. The script is returned when it parsed.
func validateFile(path string) (ValidationResult, *script.Script) {
	sc, err := script.LoadFile(path)
	if err != nil {
		return ValidationResult{File: path, Valid: false, Errors: []string{err.Error()}}, nil
	}

	errs := []string{}
	for i, step := range sc.Steps {
		if err := driver.CheckCommand(step.Command, len(step.Args)); err != nil {
			errs = append(errs, fmt.Sprintf("step %d: %v", i, err))
		}
	}
	return ValidationResult{File: path, Valid: len(errs) == 0, Errors: errs}, sc
}

// formatValidateText writes human-readable validation results.
func formatValidateText(w io.Writer, results []ValidationResult) {
	validCount := 0
	for _, r := range results {
		if r.Valid {
			validCount++
			fmt.Fprintf(w, "✓ %s: valid\n", r.File)
		} else {
			fmt.Fprintf(w, "✗ %s:\n", r.File)
			for _, e := range r.Errors {
				fmt.Fprintf(w, "  - %s\n", e)
			}
		}
	}

	if len(results) > 1 {
		fmt.Fprintf(w, "\nResult: %d/%d files valid\n", validCount, len(results))
	}
}

// formatValidateJSON writes JSON-encoded validation results.
func formatValidateJSON(w io.Writer, results []ValidationResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(results)
}
