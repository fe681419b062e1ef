package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dirt-web/dirt/internal/build"
	"github.com/dirt-web/dirt/internal/registry"
	"github.com/dirt-web/dirt/internal/scanner"
	"github.com/dirt-web/dirt/internal/services"
	"github.com/dirt-web/dirt/internal/watcher"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Rebuild the site whenever a page or helper file changes",
	Long: `Build once, then watch the serve directory and run a full rebuild after
every burst of changes to .rsr or .rs files. The generated project directory
is never watched.

Examples:
  dirt watch                      # Watch with the default debounce
  dirt watch --debounce 1s        # Wait longer for editors that write twice
  dirt watch --no-compile         # Only regenerate the project`,
	RunE: runWatch,
}

var (
	watchDebounce  time.Duration
	watchNoCompile bool
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "Quiet period before a rebuild starts")
	watchCmd.Flags().BoolVar(&watchNoCompile, "no-compile", false, "Generate the project but do not run cargo")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := loadConfig(ctx)
	root, err := cfg.ServeRoot()
	if err != nil {
		return fmt.Errorf("failed to resolve serve directory: %w", err)
	}

	out := cmd.OutOrStdout()
	svc := services.NewBuildService(cfg, newToolchain(cfg), logger)
	metrics := build.NewBuildMetrics()

	events := svc.Registry().Watch()
	defer svc.Registry().UnWatch(events)
	go reportModuleEvents(ctx, out, events)

	rebuild := func() {
		result, err := svc.Build(ctx, services.BuildOptions{SkipCompile: watchNoCompile})
		var (
			outcome  *build.BuildOutcome
			duration time.Duration
		)
		if result != nil {
			outcome = result.Outcome
			duration = result.Duration
		}
		metrics.RecordBuild(outcome, duration, err)
		printBuildResult(out, result)
		if err != nil {
			fmt.Fprintf(out, "   %v\n", err)
		}
	}

	fmt.Fprintln(out, "🔨 Initial build...")
	rebuild()

	fileWatcher, err := watcher.NewFileWatcher(watchDebounce, logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fileWatcher.Stop()

	fileWatcher.AddFilter(watcher.SourceFilter(scanner.HybridExtension, scanner.AuxiliaryExtension))
	fileWatcher.AddFilter(watcher.NoGitFilter)
	fileWatcher.ExcludeDir(cfg.ProjectDir)

	fileWatcher.AddHandler(func(changes []watcher.ChangeEvent) error {
		fmt.Fprintf(out, "📁 %d file(s) changed\n", len(changes))
		for _, change := range changes {
			logger.Debug(ctx, "change detected", "type", change.Type.String(), "path", change.Path)
		}
		rebuild()
		return nil
	})

	if err := fileWatcher.AddRecursive(root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	if err := fileWatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	fmt.Fprintf(out, "👀 Watching %s for changes... (Press Ctrl+C to stop)\n", root)
	<-ctx.Done()

	snapshot := metrics.GetSnapshot()
	fmt.Fprintf(out, "\n🛑 Stopped after %d builds (%.0f%% succeeded, %d with warnings, average %v)\n",
		snapshot.TotalBuilds, metrics.GetSuccessRate(), snapshot.WarnedBuilds, snapshot.AverageDuration.Round(time.Millisecond))

	return nil
}

// reportModuleEvents prints which pages a rebuild added, changed or removed.
func reportModuleEvents(ctx context.Context, out io.Writer, events <-chan registry.ModuleEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(out, "   %s %s (%s)\n", event.Type, event.Module.Route, event.Module.Name)
		}
	}
}
