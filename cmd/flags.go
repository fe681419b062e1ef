package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// StandardFlags provides consistent flag definitions across commands
type StandardFlags struct {
	// Build flags
	Output    string
	Cleanup   bool
	NoCompile bool
	Timeout   time.Duration
	Port      int

	// Output flags
	Format  string
	Verbose bool
	Quiet   bool
}

// AddStandardFlags adds the named flag groups ("build", "output") to cmd.
func AddStandardFlags(cmd *cobra.Command, flagTypes ...string) *StandardFlags {
	flags := &StandardFlags{}

	for _, flagType := range flagTypes {
		switch flagType {
		case "build":
			addBuildFlags(cmd, flags)
		case "output":
			addOutputFlags(cmd, flags)
		}
	}

	return flags
}

func addBuildFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "Where to place the compiled binary (default is <app name>-server)")
	cmd.Flags().BoolVar(&flags.Cleanup, "cleanup", false, "Delete the generated project after a successful build")
	cmd.Flags().BoolVar(&flags.NoCompile, "no-compile", false, "Generate the project but do not run cargo")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "Abort cargo after this long (0 means no limit)")
	cmd.Flags().IntVarP(&flags.Port, "port", "p", 0, "Port the generated server listens on (overrides the config)")
}

func addOutputFlags(cmd *cobra.Command, flags *StandardFlags) {
	cmd.Flags().StringVarP(&flags.Format, "format", "f", "table", "Output format (table|json|yaml)")
	cmd.Flags().BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable verbose output")
	cmd.Flags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress output")
}

// ValidateFlags validates flag combinations and values
func (f *StandardFlags) ValidateFlags() error {
	if f.Format != "" {
		if err := ValidateFormatWithSuggestion(f.Format, []string{"table", "json", "yaml"}); err != nil {
			return err
		}
	}
	if f.Quiet && f.Verbose {
		return fmt.Errorf("cannot specify both --quiet and --verbose")
	}
	if f.Port != 0 && (f.Port < 1 || f.Port > 65535) {
		return fmt.Errorf("port must be between 1 and 65535, got %d", f.Port)
	}
	if f.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative, got %s", f.Timeout)
	}
	return nil
}

// AddFlagValidation wraps the value of flagName so that invalid values are
// rejected while the flags are parsed.
func AddFlagValidation(flags *pflag.FlagSet, flagName string, validator func(string) error) {
	flag := flags.Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidateFormatWithSuggestion accepts format when it is one of valid, case
// insensitively, and otherwise names the closest valid format.
func ValidateFormatWithSuggestion(format string, valid []string) error {
	lower := strings.ToLower(format)
	for _, v := range valid {
		if lower == v {
			return nil
		}
	}

	msg := fmt.Sprintf("invalid format %q, must be one of: %s", format, strings.Join(valid, ", "))
	for _, v := range valid {
		if lower != "" && (strings.HasPrefix(v, lower) || strings.HasPrefix(lower, v)) {
			return fmt.Errorf("%s (did you mean %q?)", msg, v)
		}
	}
	return fmt.Errorf("%s", msg)
}
