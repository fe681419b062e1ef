package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dirt-web/dirt/internal/config"
	"github.com/dirt-web/dirt/internal/errors"
	"github.com/dirt-web/dirt/internal/registry"
	"github.com/dirt-web/dirt/internal/services"
	"github.com/dirt-web/dirt/internal/validation"
	"github.com/spf13/cobra"
)

var (
	validateFormat        string
	validateSkipToolchain bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and every page without building",
	Long: `Validate the configuration and the serve directory:

- configuration values and declared packages
- page and helper file names usable as module names
- pages that share a route or a name
- endpoints declared by more than one page
- unbalanced elements in page markup
- whether the cargo toolchain can be found

Examples:
  dirt validate                     # Validate everything
  dirt validate --skip-toolchain    # Do not look for cargo
  dirt validate --format json       # Output results as JSON`,
	RunE: runValidateCommand,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFormat, "format", "f", "text", "Output format (text, json)")
	validateCmd.Flags().BoolVar(&validateSkipToolchain, "skip-toolchain", false, "Do not check that cargo is installed")

	AddFlagValidation(validateCmd.Flags(), "format", func(format string) error {
		return ValidateFormatWithSuggestion(format, []string{"text", "json"})
	})
}

// ValidationResult holds the findings for one subject: the configuration,
// the toolchain, a page, or a collision.
type ValidationResult struct {
	Subject  string   `json:"subject"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ValidationSummary aggregates every result of a validate run.
type ValidationSummary struct {
	Total   int                `json:"total"`
	Valid   int                `json:"valid"`
	Invalid int                `json:"invalid"`
	Results []ValidationResult `json:"results"`
}

func (s *ValidationSummary) add(result ValidationResult) {
	result.Valid = len(result.Errors) == 0
	if result.Errors == nil {
		result.Errors = []string{}
	}
	if result.Warnings == nil {
		result.Warnings = []string{}
	}

	s.Total++
	if result.Valid {
		s.Valid++
	} else {
		s.Invalid++
	}
	s.Results = append(s.Results, result)
}

func runValidateCommand(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	cfg := loadConfig(ctx)

	summary, err := validateSite(cmd, cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if strings.ToLower(validateFormat) == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(summary); err != nil {
			return err
		}
	} else {
		printValidationSummary(out, summary)
	}

	if summary.Invalid > 0 {
		return errors.NewValidationError(errors.ErrCodeValidationFailed,
			fmt.Sprintf("%d of %d checks failed", summary.Invalid, summary.Total))
	}
	return nil
}

func validateSite(cmd *cobra.Command, cfg *config.Config) (*ValidationSummary, error) {
	ctx := commandContext(cmd)
	summary := &ValidationSummary{Results: make([]ValidationResult, 0)}

	configResult := ValidationResult{Subject: "configuration"}
	details := config.ValidateConfigWithDetails(cfg)
	for _, e := range details.Errors {
		configResult.Errors = append(configResult.Errors, describe(e))
	}
	for _, w := range details.Warnings {
		configResult.Warnings = append(configResult.Warnings, describe(w))
	}
	summary.add(configResult)

	if !validateSkipToolchain {
		toolchainResult := ValidationResult{Subject: "toolchain " + cfg.Toolchain}
		if err := newToolchain(cfg).Available(); err != nil {
			toolchainResult.Errors = append(toolchainResult.Errors, err.Error())
		}
		summary.add(toolchainResult)
	}

	discovery, err := services.NewBuildService(cfg, newToolchain(cfg), logger).Discover(ctx)
	if err != nil {
		return nil, err
	}

	for _, problem := range discovery.Problems {
		subject := "serve directory"
		if de, ok := errors.AsDirtError(problem); ok && de.FilePath != "" {
			subject = de.FilePath
		}
		summary.add(ValidationResult{Subject: subject, Errors: []string{problem.Error()}})
	}

	for _, m := range discovery.Modules {
		result := ValidationResult{Subject: m.Path}
		for _, issue := range validation.CheckMarkup(m.Markup) {
			result.Warnings = append(result.Warnings, issue.String())
		}
		if m.Code != nil && len(m.Services) == 0 && !m.HasTemplateHook {
			result.Warnings = append(result.Warnings, "code block declares no endpoints and no template hook")
		}
		summary.add(result)
	}

	reg := registry.NewModuleRegistry()
	reg.Replace(discovery.Modules)
	for _, c := range reg.RouteCollisions() {
		summary.add(ValidationResult{
			Subject:  "route " + c.Key,
			Warnings: []string{"shared by " + strings.Join(c.Paths, ", ") + "; the first page wins"},
		})
	}
	for _, c := range reg.NameCollisions() {
		summary.add(ValidationResult{
			Subject: "module " + c.Key,
			Errors:  []string{"generated files of " + strings.Join(c.Paths, ", ") + " overwrite each other"},
		})
	}
	for _, c := range reg.EndpointCollisions() {
		summary.add(ValidationResult{
			Subject:  "endpoint " + c.Key,
			Warnings: []string{"declared by " + strings.Join(c.Paths, ", ")},
		})
	}

	return summary, nil
}

func describe(e config.ValidationError) string {
	msg := e.Field + ": " + e.Message
	if len(e.Suggestions) > 0 {
		msg += " (" + strings.Join(e.Suggestions, "; ") + ")"
	}
	return msg
}

func printValidationSummary(out io.Writer, summary *ValidationSummary) {
	for _, result := range summary.Results {
		if result.Valid && len(result.Warnings) == 0 {
			continue
		}
		mark := "⚠️ "
		if !result.Valid {
			mark = "❌"
		}
		fmt.Fprintf(out, "%s %s\n", mark, result.Subject)
		for _, e := range result.Errors {
			fmt.Fprintf(out, "   error: %s\n", e)
		}
		for _, w := range result.Warnings {
			fmt.Fprintf(out, "   warning: %s\n", w)
		}
	}

	fmt.Fprintf(out, "\n%d checks, %d passed, %d failed\n", summary.Total, summary.Valid, summary.Invalid)
}
