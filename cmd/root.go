package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/dirt-web/dirt/internal/config"
	"github.com/dirt-web/dirt/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	// configReadErr is the last failure to read a configuration file
	configReadErr error
	logger        logging.Logger = logging.Discard()
)

// configKeys are bound to DIRT_ environment variables.
var configKeys = []string{
	"app_name",
	"serve_dir",
	"host_addr",
	"port",
	"cleanup",
	"project_dir",
	"output",
	"static_dir",
	"toolchain",
	"workers",
	"build_timeout",
}

var rootCmd = &cobra.Command{
	Use:   "dirt",
	Short: "Compile hybrid markup and Rust pages into a single server binary",
	Long: `dirt scans a directory of .rsr pages (markup with an optional <rust> block)
and .rs helper files, generates an actix-web project from them, compiles it
with cargo and places the binary next to you.

Quick Start:
  dirt init                       Create config.yaml and a starter site
  dirt build                      Build the site into a binary
  dirt list                       Show discovered pages and endpoints
  dirt validate                   Check configuration and pages
  dirt watch                      Rebuild whenever a page changes`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = newLogger()
	},
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.{json,yaml,toml}, can also use DIRT_CONFIG_FILE)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	bindGlobalFlags()

	AddFlagValidation(rootCmd.PersistentFlags(), "log-format", func(format string) error {
		return ValidateFormatWithSuggestion(format, []string{"text", "json"})
	})
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("DIRT_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
	}
	bindEnv()

	configReadErr = viper.ReadInConfig()
}

// useConfigFile drops whatever configuration was loaded so far and reads
// path instead. When path cannot be read the defaults apply, still subject
// to flags and DIRT_ environment overrides.
func useConfigFile(path string) error {
	viper.Reset()
	bindGlobalFlags()
	bindEnv()
	return config.ReadFile(path)
}

func bindGlobalFlags() {
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func bindEnv() {
	viper.SetEnvPrefix("DIRT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	for _, key := range configKeys {
		_ = viper.BindEnv(key)
	}
}

func newLogger() logging.Logger {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(viper.GetString("log-level"))
	cfg.Format = viper.GetString("log-format")
	return logging.NewLogger(cfg)
}

// loadConfig returns the configuration for a command. It never fails: read
// and decode problems are logged and the defaults are used.
func loadConfig(ctx context.Context) *config.Config {
	if configReadErr != nil {
		logger.Warn(ctx, configReadErr, "could not read configuration file, falling back to defaults")
	} else {
		logger.Debug(ctx, "using config file", "path", viper.ConfigFileUsed())
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Warn(ctx, err, "could not decode configuration, falling back to defaults")
	}
	return cfg
}

// commandContext returns the context of cmd, which is nil when a command
// function is called directly.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
