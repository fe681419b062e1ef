package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/dirt-web/dirt/internal/build"
	"github.com/dirt-web/dirt/internal/config"
	"github.com/dirt-web/dirt/internal/services"
	"github.com/dirt-web/dirt/internal/validation"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:     "build [config]",
	Aliases: []string{"b"},
	Short:   "Build the site into a server binary",
	Long: `Scan the serve directory, generate the Cargo project, compile it with
cargo build --release and place the binary at the output path.

Examples:
  dirt build                      # Build using ./config.{json,yaml,toml}
  dirt build site.toml            # Build using a specific config file
  dirt build --output bin/site    # Place the binary somewhere else
  dirt build --no-compile         # Only generate the project
  dirt build --cleanup            # Delete the generated project afterwards`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

var buildFlags *StandardFlags

func init() {
	rootCmd.AddCommand(buildCmd)

	buildFlags = AddStandardFlags(buildCmd, "build")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	if len(args) == 1 {
		if err := validation.ValidatePath(args[0]); err != nil {
			return fmt.Errorf("invalid config path: %w", err)
		}
		configReadErr = useConfigFile(args[0])
	}
	if err := buildFlags.ValidateFlags(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	cfg := loadConfig(ctx)
	applyBuildFlags(cmd, cfg, buildFlags)

	svc := services.NewBuildService(cfg, newToolchain(cfg), logger)
	result, err := svc.Build(ctx, services.BuildOptions{SkipCompile: buildFlags.NoCompile})
	printBuildResult(cmd.OutOrStdout(), result)

	return err
}

// applyBuildFlags lets explicitly set flags override the configuration.
func applyBuildFlags(cmd *cobra.Command, cfg *config.Config, flags *StandardFlags) {
	if cmd.Flags().Changed("output") {
		cfg.Output = flags.Output
	}
	if cmd.Flags().Changed("cleanup") {
		cfg.Cleanup = flags.Cleanup
	}
	if cmd.Flags().Changed("timeout") {
		cfg.BuildTimeout = flags.Timeout
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = flags.Port
	}
}

func newToolchain(cfg *config.Config) *build.CargoToolchain {
	return build.NewCargoToolchain(cfg.Toolchain)
}

func printBuildResult(w io.Writer, result *services.BuildResult) {
	if result == nil {
		return
	}

	for _, problem := range result.Errors {
		fmt.Fprintf(w, "⚠️  %v\n", problem)
	}

	if !result.Success {
		fmt.Fprintf(w, "❌ Build failed after %v\n", result.Duration.Round(time.Millisecond))
		return
	}

	fmt.Fprintf(w, "✅ Build completed in %v\n", result.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "   - %d modules, %d auxiliary sources\n", result.ModuleCount, result.AuxiliaryCount)
	if result.Project != nil {
		fmt.Fprintf(w, "   - Project: %s\n", result.Project.Dir)
	}
	if result.Outcome != nil {
		if result.Outcome.Placed {
			fmt.Fprintf(w, "   - Binary: %s\n", result.Outcome.OutputPath)
		} else {
			fmt.Fprintf(w, "   - Binary left at: %s\n", result.Outcome.BinaryPath)
		}
	}
}
