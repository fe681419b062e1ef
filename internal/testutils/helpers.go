// Package testutils holds fixtures shared by the tests of the packages that
// sit above the build pipeline: site trees, a fake toolchain and working
// directory helpers.
package testutils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dirt-web/dirt/internal/build"
	"github.com/dirt-web/dirt/internal/config"
	"github.com/dirt-web/dirt/internal/manifest"
	"github.com/stretchr/testify/require"
)

// WriteTree writes files, keyed by slash separated paths relative to root.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

// CreateSite writes files into a fresh serve directory and returns a
// configuration whose paths are all absolute and inside the same temporary
// directory.
func CreateSite(t *testing.T, files map[string]string) *config.Config {
	t.Helper()
	root := t.TempDir()
	serve := filepath.Join(root, "site")
	require.NoError(t, os.MkdirAll(serve, 0755))
	WriteTree(t, serve, files)

	cfg := config.Defaults()
	cfg.AppName = "demo"
	cfg.ServeDir = serve
	cfg.StaticDir = serve
	cfg.ProjectDir = filepath.Join(root, "app")
	cfg.Output = filepath.Join(root, "demo-bin")
	cfg.Workers = 2
	return cfg
}

// Chdir changes the working directory for the rest of the test.
func Chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

// ManifestText is a minimal manifest for a package called name.
func ManifestText(name string) string {
	return fmt.Sprintf("[package]\nname = %q\nversion = \"0.1.0\"\nedition = \"2021\"\n\n[dependencies]\n", name)
}

// FakeToolchain behaves like cargo without compiling anything: Init writes
// a manifest and Build writes a dummy binary where cargo would put it.
type FakeToolchain struct {
	InitErr   error
	FormatErr error
	BuildErr  error

	mu      sync.Mutex
	inits   int
	formats int
	builds  int
}

// Init implements build.Toolchain.
func (f *FakeToolchain) Init(_ context.Context, dir, name string) error {
	f.mu.Lock()
	f.inits++
	f.mu.Unlock()
	if f.InitErr != nil {
		return f.InitErr
	}
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, manifest.FileName), []byte(ManifestText(name)), 0644)
}

// Format implements build.Toolchain.
func (f *FakeToolchain) Format(context.Context, string) error {
	f.mu.Lock()
	f.formats++
	f.mu.Unlock()
	return f.FormatErr
}

// Build implements build.Toolchain.
func (f *FakeToolchain) Build(_ context.Context, dir string) error {
	f.mu.Lock()
	f.builds++
	f.mu.Unlock()
	if f.BuildErr != nil {
		return f.BuildErr
	}
	name, err := manifest.PackageName(dir)
	if err != nil {
		return err
	}
	release := filepath.Join(dir, "target", "release")
	if err := os.MkdirAll(release, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(release, build.BinaryName(name)), []byte("binary"), 0755)
}

// Calls returns how often each step ran.
func (f *FakeToolchain) Calls() (inits, formats, builds int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inits, f.formats, f.builds
}
