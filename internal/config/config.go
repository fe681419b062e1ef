// Package config provides configuration management for dirt using Viper for
// loading from JSON, YAML or TOML files and DIRT_ environment variables.
//
// Configuration is a flat document read once at startup. A missing or
// unparsable document never aborts a run: Load reports the problem and
// returns the documented defaults instead.
package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/dirt-web/dirt/internal/errors"
	"github.com/spf13/viper"
)

// Defaults used when no configuration can be loaded.
const (
	DefaultAppName    = "app"
	DefaultServeDir   = "dist"
	DefaultHostAddr   = "127.0.0.1"
	DefaultPort       = 7642
	DefaultProjectDir = "app"
	DefaultToolchain  = "cargo"
)

// DefaultOutputSuffix is appended to app_name to form the default output
// path, so the binary never lands on a project directory named after the app.
const DefaultOutputSuffix = "-server"

// Config is the build configuration.
type Config struct {
	AppName            string        `mapstructure:"app_name" json:"app_name" yaml:"app_name"`
	ServeDir           string        `mapstructure:"serve_dir" json:"serve_dir" yaml:"serve_dir"`
	HostAddr           string        `mapstructure:"host_addr" json:"host_addr" yaml:"host_addr"`
	Port               int           `mapstructure:"port" json:"port" yaml:"port"`
	AdditionalPackages []Package     `mapstructure:"additional_packages" json:"additional_packages,omitempty" yaml:"additional_packages,omitempty"`
	Cleanup            bool          `mapstructure:"cleanup" json:"cleanup" yaml:"cleanup"`
	ProjectDir         string        `mapstructure:"project_dir" json:"project_dir" yaml:"project_dir"`
	Output             string        `mapstructure:"output" json:"output" yaml:"output"`
	StaticDir          string        `mapstructure:"static_dir" json:"static_dir" yaml:"static_dir"`
	Toolchain          string        `mapstructure:"toolchain" json:"toolchain" yaml:"toolchain"`
	Workers            int           `mapstructure:"workers" json:"workers" yaml:"workers"`
	BuildTimeout       time.Duration `mapstructure:"build_timeout" json:"build_timeout" yaml:"build_timeout"`
}

// Package is a caller-declared manifest dependency. Options, when present,
// wins over Version.
type Package struct {
	Name    string                 `mapstructure:"name" json:"name" yaml:"name"`
	Version string                 `mapstructure:"version" json:"version,omitempty" yaml:"version,omitempty"`
	Options map[string]interface{} `mapstructure:"options" json:"options,omitempty" yaml:"options,omitempty"`
}

// Defaults returns the fallback configuration.
func Defaults() *Config {
	cfg := &Config{
		AppName:  DefaultAppName,
		ServeDir: DefaultServeDir,
		HostAddr: DefaultHostAddr,
		Port:     DefaultPort,
	}
	applyDefaults(cfg)
	return cfg
}

// Load decodes the configuration held by the global viper instance.
// The returned Config is never nil; a non-nil error means the defaults were
// used and should be reported as a warning.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom decodes the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Defaults(), errors.WrapConfig(err, errors.ErrCodeConfigFallback,
			"could not parse configuration, using defaults")
	}

	if cfg.AppName == "" {
		cfg.AppName = DefaultAppName
	}
	if cfg.ServeDir == "" {
		cfg.ServeDir = DefaultServeDir
	}
	if cfg.HostAddr == "" {
		cfg.HostAddr = DefaultHostAddr
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	applyDefaults(&cfg)

	return &cfg, nil
}

// ReadFile points the global viper instance at path and reads it.
func ReadFile(path string) error {
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return errors.WrapConfig(err, errors.ErrCodeConfigFallback,
			"could not read configuration file "+path)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.ProjectDir == "" {
		cfg.ProjectDir = DefaultProjectDir
	}
	if cfg.Output == "" {
		cfg.Output = cfg.AppName + DefaultOutputSuffix
		if runtime.GOOS == "windows" {
			cfg.Output += ".exe"
		}
	}
	if cfg.StaticDir == "" {
		cfg.StaticDir = cfg.ServeDir
	}
	if cfg.Toolchain == "" {
		cfg.Toolchain = DefaultToolchain
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
		if cfg.Workers > 8 {
			cfg.Workers = 8
		}
	}
}

// CheckOutput reports an output path that equals or lies inside the project
// directory. The binary placed there would be overwritten by the next build
// or removed together with the project on cleanup.
func (c *Config) CheckOutput() error {
	if !pathWithin(c.Output, c.ProjectDir) {
		return nil
	}
	return errors.NewConfigError(errors.ErrCodeConfigInvalid,
		fmt.Sprintf("output %q must lie outside project_dir %q", c.Output, c.ProjectDir), nil)
}

// pathWithin reports whether path is dir or below it, after both are made
// absolute.
func pathWithin(path, dir string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	return absPath == absDir || strings.HasPrefix(absPath, absDir+string(filepath.Separator))
}

// ServeRoot returns the absolute directory scanned for modules. A relative
// serve_dir is resolved against the working directory.
func (c *Config) ServeRoot() (string, error) {
	if filepath.IsAbs(c.ServeDir) {
		return filepath.Clean(c.ServeDir), nil
	}
	return filepath.Abs(c.ServeDir)
}
