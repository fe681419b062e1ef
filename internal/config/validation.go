package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dirt-web/dirt/internal/validation"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("Validation errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("      hint: %s\n", suggestion))
			}
		}
		builder.WriteString("\n")
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("Validation warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("      hint: %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

var crateNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// ValidateConfigWithDetails performs comprehensive validation with detailed feedback
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateServerDetails(config, result)
	validateBuildDetails(config, result)
	validatePackagesDetails(config.AdditionalPackages, result)

	result.Valid = !result.HasErrors()

	return result
}

func validateServerDetails(config *Config, result *ValidationResult) {
	if config.Port < 1 || config.Port > 65535 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "port",
			Value:   config.Port,
			Message: fmt.Sprintf("port %d is not in valid range 1-65535", config.Port),
			Suggestions: []string{
				fmt.Sprintf("The default port is %d", DefaultPort),
			},
		})
	} else if config.Port < 1024 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "port",
			Value:   config.Port,
			Message: "port below 1024 requires elevated privileges",
			Suggestions: []string{
				"Consider using a port above 1024",
			},
		})
	}

	if err := validateHostname(config.HostAddr); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "host_addr",
			Value:   config.HostAddr,
			Message: err.Error(),
			Suggestions: []string{
				"Use '127.0.0.1' for local serving",
				"Use '0.0.0.0' to bind to all interfaces",
			},
		})
	}
}

func validateBuildDetails(config *Config, result *ValidationResult) {
	if !crateNameRegex.MatchString(config.AppName) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "app_name",
			Value:   config.AppName,
			Message: "app_name must be a valid crate name",
			Suggestions: []string{
				"Start with a letter and use only letters, digits, '-' and '_'",
			},
		})
	}

	if err := validation.ValidatePath(config.ServeDir); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "serve_dir",
			Value:   config.ServeDir,
			Message: err.Error(),
		})
	} else if !pathExists(config.ServeDir) {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "serve_dir",
			Value:   config.ServeDir,
			Message: "directory does not exist, no modules will be found",
			Suggestions: []string{
				"Create the directory and add .rsr files to it",
			},
		})
	}

	if err := validation.ValidatePath(config.ProjectDir); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "project_dir",
			Value:   config.ProjectDir,
			Message: err.Error(),
		})
	}

	if err := validation.ValidatePath(config.Output); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "output",
			Value:   config.Output,
			Message: err.Error(),
		})
	} else if pathWithin(config.Output, config.ProjectDir) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "output",
			Value:   config.Output,
			Message: "output must lie outside project_dir",
			Suggestions: []string{
				"Omit output to use " + config.AppName + DefaultOutputSuffix,
				"Move project_dir to a separate directory such as .dirt/" + config.AppName,
			},
		})
	}

	if config.StaticDir != "" && filepath.IsAbs(config.StaticDir) && !config.Cleanup {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "static_dir",
			Value:   config.StaticDir,
			Message: "absolute static_dir is not linked into the project",
			Suggestions: []string{
				"Use a path relative to the working directory to get an asset symlink",
			},
		})
	}

	if err := validation.ValidateArgument(filepath.Base(config.Toolchain)); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "toolchain",
			Value:   config.Toolchain,
			Message: err.Error(),
		})
	}

	if config.BuildTimeout < 0 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "build_timeout",
			Value:   config.BuildTimeout,
			Message: "build_timeout cannot be negative",
			Suggestions: []string{
				"Omit build_timeout to wait for the compiler indefinitely",
			},
		})
	}
}

func validatePackagesDetails(packages []Package, result *ValidationResult) {
	seen := make(map[string]bool)
	for i, pkg := range packages {
		field := fmt.Sprintf("additional_packages[%d]", i)
		if strings.TrimSpace(pkg.Name) == "" {
			result.Errors = append(result.Errors, ValidationError{
				Field:   field + ".name",
				Value:   pkg.Name,
				Message: "package name cannot be empty",
			})
			continue
		}
		if seen[pkg.Name] {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   field,
				Value:   pkg.Name,
				Message: fmt.Sprintf("package '%s' is declared more than once", pkg.Name),
			})
		}
		seen[pkg.Name] = true

		switch {
		case pkg.Version == "" && len(pkg.Options) == 0:
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   field,
				Value:   pkg.Name,
				Message: "no version or options given, the manifest line will be commented out",
				Suggestions: []string{
					`Add "version": "x.y.z" or an "options" block`,
				},
			})
		case pkg.Version != "" && len(pkg.Options) > 0:
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   field,
				Value:   pkg.Name,
				Message: "both version and options given, options take precedence",
				Suggestions: []string{
					"Move the version into the options block",
				},
			})
		}
	}
}

// Helper validation functions

func validateHostname(host string) error {
	if host == "" {
		return fmt.Errorf("host cannot be empty")
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
	for _, char := range dangerousChars {
		if strings.Contains(host, char) {
			return fmt.Errorf("contains dangerous character: %s", char)
		}
	}

	if net.ParseIP(host) != nil || host == "localhost" {
		return nil
	}

	hostnameRegex := regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)
	if !hostnameRegex.MatchString(host) {
		return fmt.Errorf("invalid hostname format")
	}

	return nil
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
