// Package assembler materializes a buildable project from a batch of parsed
// modules.
//
// Every step is safe to repeat against an existing project directory: the
// manifest only grows by missing lines, module files are overwritten and the
// entry file is regenerated from scratch on each run.
package assembler

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/dirt-web/dirt/internal/config"
	"github.com/dirt-web/dirt/internal/errors"
	"github.com/dirt-web/dirt/internal/logging"
	"github.com/dirt-web/dirt/internal/manifest"
	"github.com/dirt-web/dirt/internal/types"
)

const (
	// SourceDirName is the source directory inside the project.
	SourceDirName = "src"
	// MarkupExtension is appended to a module name for its markup file.
	MarkupExtension = ".html"
	// CodeExtension is appended to a module name for its code file.
	CodeExtension = ".rs"
)

// Initializer turns a freshly created directory into an empty project.
type Initializer interface {
	Init(ctx context.Context, dir, name string) error
}

// Assembler writes modules, auxiliary sources and the entry file into one
// project directory.
type Assembler struct {
	dir         string
	appName     string
	packages    []config.Package
	initializer Initializer
	logger      logging.Logger
}

// New creates an assembler for the project directory named in cfg.
func New(cfg *config.Config, initializer Initializer, logger logging.Logger) *Assembler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Assembler{
		dir:         cfg.ProjectDir,
		appName:     cfg.AppName,
		packages:    cfg.AdditionalPackages,
		initializer: initializer,
		logger:      logger.WithComponent("assembler"),
	}
}

// Assemble brings the project directory up to date with records and aux and
// writes the entry file as their declarations followed by entryBody.
// Failures are fatal; manifest diagnostics are logged and returned on the
// handle.
func (a *Assembler) Assemble(ctx context.Context, aux []types.AuxiliarySource, records []*types.ModuleRecord, entryBody string) (*types.ProjectHandle, error) {
	dir, err := filepath.Abs(a.dir)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeInvalidPath, "failed to resolve project directory", a.dir)
	}

	handle := &types.ProjectHandle{
		Dir:          dir,
		ManifestPath: filepath.Join(dir, manifest.FileName),
		SourceDir:    filepath.Join(dir, SourceDirName),
		EntryPath:    filepath.Join(dir, SourceDirName, EntryFileName),
		Diagnostics:  make([]string, 0),
	}

	created, err := a.ensureProject(ctx, dir)
	if err != nil {
		return nil, err
	}
	handle.Created = created

	if err := a.ensureManifest(ctx, handle); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(handle.SourceDir, 0755); err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeWriteModule, "failed to create source directory", handle.SourceDir).
			WithStep("assemble")
	}

	for _, record := range records {
		if err := a.writeModule(handle.SourceDir, record); err != nil {
			return nil, err
		}
	}

	for _, src := range aux {
		if err := copyFile(src.Path, filepath.Join(handle.SourceDir, src.Name+CodeExtension)); err != nil {
			return nil, errors.WrapIO(err, errors.ErrCodeCopyAuxiliary, "failed to copy auxiliary source "+src.Name, src.Path).
				WithStep("assemble")
		}
	}

	entry := EntryFile(records, aux, entryBody)
	if err := os.WriteFile(handle.EntryPath, []byte(entry), 0644); err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeEntryFile, "failed to write entry file", handle.EntryPath).
			WithStep("assemble")
	}

	a.logger.Info(ctx, "project assembled",
		"dir", dir,
		"modules", len(records),
		"auxiliary", len(aux),
		"created", created)

	return handle, nil
}

// ensureProject creates and initializes dir when it does not exist yet. A
// directory whose initialization fails is removed again so the next run
// retries it.
func (a *Assembler) ensureProject(ctx context.Context, dir string) (bool, error) {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return false, errors.NewIOError(errors.ErrCodeScaffold, "project path exists and is not a directory", nil).
				WithFile(dir).WithStep("init")
		}
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, errors.WrapIO(err, errors.ErrCodeScaffold, "failed to stat project directory", dir).WithStep("init")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, errors.WrapIO(err, errors.ErrCodeScaffold, "failed to create project directory", dir).WithStep("init")
	}

	a.logger.Info(ctx, "initializing project", "dir", dir, "name", a.appName)
	if err := a.initializer.Init(ctx, dir, a.appName); err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			a.logger.Warn(ctx, rmErr, "failed to remove uninitialized project directory", "dir", dir)
		}
		return false, errors.WrapBuild(err, errors.ErrCodeScaffold, "failed to initialize project", "init").WithFile(dir)
	}

	return true, nil
}

func (a *Assembler) ensureManifest(ctx context.Context, handle *types.ProjectHandle) error {
	lines, diags := manifest.Lines(a.packages)
	for _, diag := range diags {
		a.logger.Warn(ctx, nil, "dependency left as placeholder", "package", diag.Package, "reason", diag.Message)
		handle.Diagnostics = append(handle.Diagnostics, diag.String())
	}

	added, err := manifest.EnsureLines(handle.ManifestPath, lines)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, errors.ErrCodeManifest, "failed to update manifest").WithStep("manifest")
	}
	if len(added) > 0 {
		a.logger.Debug(ctx, "manifest updated", "added", len(added))
	}
	return nil
}

func (a *Assembler) writeModule(srcDir string, record *types.ModuleRecord) error {
	markupPath := filepath.Join(srcDir, record.Name+MarkupExtension)
	if err := os.WriteFile(markupPath, []byte(record.Markup), 0644); err != nil {
		return errors.WrapIO(err, errors.ErrCodeWriteModule, "failed to write markup of "+record.Name, markupPath).
			WithStep("assemble")
	}

	if !record.HasCode() {
		return nil
	}

	codePath := filepath.Join(srcDir, record.Name+CodeExtension)
	if err := os.WriteFile(codePath, []byte(*record.Code), 0644); err != nil {
		return errors.WrapIO(err, errors.ErrCodeWriteModule, "failed to write code of "+record.Name, codePath).
			WithStep("assemble")
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
