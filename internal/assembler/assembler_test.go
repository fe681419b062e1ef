package assembler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dirt-web/dirt/internal/config"
	"github.com/dirt-web/dirt/internal/errors"
	"github.com/dirt-web/dirt/internal/logging"
	"github.com/dirt-web/dirt/internal/manifest"
	"github.com/dirt-web/dirt/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInit mimics a toolchain init by writing a minimal manifest.
type fakeInit struct {
	calls int
	err   error
}

func (f *fakeInit) Init(_ context.Context, dir, name string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	manifestText := fmt.Sprintf("[package]\nname = %q\nversion = \"0.1.0\"\nedition = \"2021\"\n\n[dependencies]\n", name)
	if err := os.MkdirAll(filepath.Join(dir, SourceDirName), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, SourceDirName, EntryFileName), []byte("fn main() {}\n"), 0644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, manifest.FileName), []byte(manifestText), 0644)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.ProjectDir = filepath.Join(t.TempDir(), "app")
	return cfg
}

func testRecords() []*types.ModuleRecord {
	code := "#[get(\"/hello\")]\npub async fn hello() -> impl Responder { \"hi\" }"
	return []*types.ModuleRecord{
		{
			Path:     "site/index.rsr",
			Name:     "index",
			Code:     &code,
			Markup:   "<h1>home</h1>",
			IsIndex:  true,
			Services: []types.ServiceEndpoint{{Method: "GET", Route: "/hello", Handler: "hello"}},
			Route:    "/",
		},
		{
			Path:     "site/about.rsr",
			Name:     "about",
			Markup:   "<p>about</p>",
			Services: []types.ServiceEndpoint{},
			Route:    "/about",
		},
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestAssembleFreshProject(t *testing.T) {
	cfg := testConfig(t)
	initer := &fakeInit{}
	auxDir := t.TempDir()
	helperPath := filepath.Join(auxDir, "helper.rs")
	require.NoError(t, os.WriteFile(helperPath, []byte("pub fn helper() -> u8 { 1 }\n"), 0644))
	aux := []types.AuxiliarySource{{Path: helperPath, Name: "helper"}}

	asm := New(cfg, initer, logging.Discard())
	handle, err := asm.Assemble(context.Background(), aux, testRecords(), "fn main() {}\n")
	require.NoError(t, err)

	assert.Equal(t, 1, initer.calls)
	assert.True(t, handle.Created)
	assert.Equal(t, cfg.ProjectDir, handle.Dir)
	assert.Empty(t, handle.Diagnostics)

	src := handle.SourceDir
	assert.Equal(t, "<h1>home</h1>", readFile(t, filepath.Join(src, "index.html")))
	assert.Contains(t, readFile(t, filepath.Join(src, "index.rs")), "pub async fn hello")
	assert.Equal(t, "<p>about</p>", readFile(t, filepath.Join(src, "about.html")))
	assert.NoFileExists(t, filepath.Join(src, "about.rs"))
	assert.Equal(t, "pub fn helper() -> u8 { 1 }\n", readFile(t, filepath.Join(src, "helper.rs")))

	assert.Equal(t, "mod index;\nmod about {}\nmod helper;\n\nfn main() {}\n", readFile(t, handle.EntryPath))

	manifestText := readFile(t, handle.ManifestPath)
	for _, line := range manifest.Baseline {
		assert.Contains(t, manifestText, line+"\n")
	}
}

func TestAssembleIsRepeatable(t *testing.T) {
	cfg := testConfig(t)
	cfg.AdditionalPackages = []config.Package{{Name: "rand", Version: "0.8.5"}}
	initer := &fakeInit{}
	asm := New(cfg, initer, logging.Discard())

	first, err := asm.Assemble(context.Background(), nil, testRecords(), "// one\n")
	require.NoError(t, err)
	manifestBefore := readFile(t, first.ManifestPath)

	second, err := asm.Assemble(context.Background(), nil, testRecords()[:1], "// two\n")
	require.NoError(t, err)

	assert.Equal(t, 1, initer.calls, "an existing project is not initialized again")
	assert.False(t, second.Created)
	assert.Equal(t, manifestBefore, readFile(t, second.ManifestPath))
	assert.Equal(t, 1, strings.Count(manifestBefore, `"rand" = "0.8.5"`))
	assert.Equal(t, "mod index;\n\n// two\n", readFile(t, second.EntryPath))
}

func TestAssembleInitFailureRemovesDirectory(t *testing.T) {
	cfg := testConfig(t)
	asm := New(cfg, &fakeInit{err: fmt.Errorf("cargo not found")}, logging.Discard())

	handle, err := asm.Assemble(context.Background(), nil, testRecords(), "")
	assert.Nil(t, handle)
	require.Error(t, err)

	de, ok := errors.AsDirtError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeScaffold, de.Code)
	assert.Equal(t, "init", de.Step)
	assert.NoDirExists(t, cfg.ProjectDir)
}

func TestAssembleMissingAuxiliaryIsFatal(t *testing.T) {
	cfg := testConfig(t)
	asm := New(cfg, &fakeInit{}, logging.Discard())

	aux := []types.AuxiliarySource{{Path: filepath.Join(t.TempDir(), "gone.rs"), Name: "gone"}}
	_, err := asm.Assemble(context.Background(), aux, testRecords(), "")
	require.Error(t, err)

	de, ok := errors.AsDirtError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeCopyAuxiliary, de.Code)
}

func TestAssembleExistingDirectoryWithoutManifest(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.ProjectDir, 0755))
	initer := &fakeInit{}

	_, err := New(cfg, initer, logging.Discard()).Assemble(context.Background(), nil, testRecords(), "")
	require.Error(t, err)
	assert.Equal(t, 0, initer.calls)

	de, ok := errors.AsDirtError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeManifest, de.Code)
	assert.Equal(t, "manifest", de.Step)
}

func TestAssembleReportsPackageDiagnostics(t *testing.T) {
	cfg := testConfig(t)
	cfg.AdditionalPackages = []config.Package{{Name: "mystery"}}

	handle, err := New(cfg, &fakeInit{}, logging.Discard()).Assemble(context.Background(), nil, nil, "")
	require.NoError(t, err)

	require.Len(t, handle.Diagnostics, 1)
	assert.Contains(t, handle.Diagnostics[0], "mystery")
	assert.Contains(t, readFile(t, handle.ManifestPath), `# "mystery"`)
}

func TestAssembleProjectPathIsFile(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.ProjectDir, []byte("not a dir"), 0644))

	_, err := New(cfg, &fakeInit{}, logging.Discard()).Assemble(context.Background(), nil, nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}
