// Package build compiles an assembled project with the external toolchain
// and places the resulting binary.
package build

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/dirt-web/dirt/internal/validation"
)

// Toolchain runs the external project commands inside dir. A relative dir
// resolves against the process working directory.
type Toolchain interface {
	// Init turns an empty directory into a project named name
	Init(ctx context.Context, dir, name string) error
	// Format rewrites the project sources in place
	Format(ctx context.Context, dir string) error
	// Build compiles the project in release mode
	Build(ctx context.Context, dir string) error
}

// AllowedToolchains lists the executables dirt is willing to run.
var AllowedToolchains = map[string]bool{
	"cargo": true,
}

// CargoToolchain drives cargo.
type CargoToolchain struct {
	command string
}

// NewCargoToolchain creates a toolchain running command, normally "cargo".
func NewCargoToolchain(command string) *CargoToolchain {
	if command == "" {
		command = "cargo"
	}
	return &CargoToolchain{command: command}
}

// Command returns the executable this toolchain runs.
func (c *CargoToolchain) Command() string {
	return c.command
}

// Init runs cargo init for a binary crate without version control.
func (c *CargoToolchain) Init(ctx context.Context, dir, name string) error {
	return c.run(ctx, dir, "init", "--bin", "--vcs", "none", "--name", name, ".")
}

// Format runs cargo fmt.
func (c *CargoToolchain) Format(ctx context.Context, dir string) error {
	return c.run(ctx, dir, "fmt")
}

// Build runs cargo build --release.
func (c *CargoToolchain) Build(ctx context.Context, dir string) error {
	return c.run(ctx, dir, "build", "--release")
}

// Available reports whether the toolchain executable can be found.
func (c *CargoToolchain) Available() error {
	if err := c.validate(nil); err != nil {
		return err
	}
	_, err := exec.LookPath(c.command)
	return err
}

func (c *CargoToolchain) run(ctx context.Context, dir string, args ...string) error {
	if err := c.validate(args); err != nil {
		return fmt.Errorf("command validation failed: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.command, args...)
	cmd.Dir = dir

	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s %s interrupted: %w", c.command, args[0], ctx.Err())
		}
		return fmt.Errorf("%s %s failed: %w\nOutput: %s", c.command, args[0], err, strings.TrimSpace(string(output)))
	}
	return nil
}

func (c *CargoToolchain) validate(args []string) error {
	if err := validation.ValidateCommand(c.command, AllowedToolchains); err != nil {
		return err
	}
	for _, arg := range args {
		if err := validation.ValidateArgument(arg); err != nil {
			return fmt.Errorf("invalid argument '%s': %w", arg, err)
		}
	}
	return nil
}

// BinaryName returns the file name of a compiled binary for packageName on
// the current platform.
func BinaryName(packageName string) string {
	if runtime.GOOS == "windows" {
		return packageName + ".exe"
	}
	return packageName
}
