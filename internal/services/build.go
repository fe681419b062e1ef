// Package services holds the use cases behind the CLI commands: discovering
// and building a site, and creating a starter site.
package services

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dirt-web/dirt/internal/assembler"
	"github.com/dirt-web/dirt/internal/build"
	"github.com/dirt-web/dirt/internal/config"
	"github.com/dirt-web/dirt/internal/errors"
	"github.com/dirt-web/dirt/internal/logging"
	"github.com/dirt-web/dirt/internal/parser"
	"github.com/dirt-web/dirt/internal/registry"
	"github.com/dirt-web/dirt/internal/scanner"
	"github.com/dirt-web/dirt/internal/types"
	"github.com/dirt-web/dirt/internal/validation"
	"github.com/google/uuid"
)

// BuildService handles site building business logic
type BuildService struct {
	config    *config.Config
	toolchain build.Toolchain
	registry  *registry.ModuleRegistry
	logger    logging.Logger
}

// NewBuildService creates a new build service. The registry it keeps is
// reused across builds so repeated runs report which modules changed.
func NewBuildService(cfg *config.Config, toolchain build.Toolchain, logger logging.Logger) *BuildService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &BuildService{
		config:    cfg,
		toolchain: toolchain,
		registry:  registry.NewModuleRegistry(),
		logger:    logger,
	}
}

// Registry returns the registry holding the modules of the last build.
func (s *BuildService) Registry() *registry.ModuleRegistry {
	return s.registry
}

// BuildOptions contains options for the build process
type BuildOptions struct {
	// SkipCompile stops after the project has been assembled
	SkipCompile bool
}

// BuildResult contains the result of a build operation
type BuildResult struct {
	RunID          string
	Duration       time.Duration
	ModuleCount    int
	AuxiliaryCount int
	Project        *types.ProjectHandle
	Outcome        *build.BuildOutcome
	Success        bool
	// Errors holds dropped modules and best-effort failures
	Errors []error
}

// Discovery is the parsed content of the serve directory.
type Discovery struct {
	Root      string
	Modules   []*types.ModuleRecord
	Auxiliary []types.AuxiliarySource
	// Problems holds files that were left out and endpoints that will not be
	// registered, with the reason
	Problems []error
}

// Discover scans the serve directory and parses every hybrid file. Files
// that cannot be read or whose name cannot be a module are left out and
// reported in Problems, as are handlers declared without pub. Only
// cancellation of ctx returns an error.
func (s *BuildService) Discover(ctx context.Context) (*Discovery, error) {
	root, err := s.config.ServeRoot()
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeInvalidPath, "failed to resolve serve directory", s.config.ServeDir)
	}

	sc := scanner.NewScanner(
		scanner.WithExclude(s.config.ProjectDir),
		scanner.WithLogger(s.logger),
	)
	descs := sc.Scan(root)
	aux := sc.ScanAuxiliary(root)

	s.logger.Debug(ctx, "scanned serve directory", "root", root, "modules", len(descs), "auxiliary", len(aux))

	records, parseErrs := parser.BuildRecords(ctx, descs, s.config.Workers)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	discovery := &Discovery{
		Root:      root,
		Modules:   make([]*types.ModuleRecord, 0, len(records)),
		Auxiliary: make([]types.AuxiliarySource, 0, len(aux)),
		Problems:  parseErrs,
	}

	names := make(map[string]bool, len(records))
	for _, record := range records {
		if err := validation.ValidateModuleName(record.Name); err != nil {
			discovery.Problems = append(discovery.Problems,
				errors.Wrap(err, errors.ErrorTypeValidation, errors.ErrCodeValidationFailed, "module skipped").
					WithFile(record.Path).WithStep(string(build.StepParse)))
			continue
		}
		names[record.Name] = true
		discovery.Modules = append(discovery.Modules, record)
		discovery.Problems = append(discovery.Problems, privateHandlers(record)...)
	}

	for _, src := range aux {
		if err := validation.ValidateModuleName(src.Name); err != nil {
			discovery.Problems = append(discovery.Problems,
				errors.Wrap(err, errors.ErrorTypeValidation, errors.ErrCodeValidationFailed, "auxiliary source skipped").
					WithFile(src.Path).WithStep(string(build.StepParse)))
			continue
		}
		if names[src.Name] {
			discovery.Problems = append(discovery.Problems,
				errors.NewValidationError(errors.ErrCodeValidationFailed, "auxiliary source skipped: name is used by a hybrid module").
					WithFile(src.Path).WithStep(string(build.StepParse)))
			continue
		}
		discovery.Auxiliary = append(discovery.Auxiliary, src)
	}

	for _, problem := range discovery.Problems {
		s.logger.Warn(ctx, problem, "source problem")
	}

	return discovery, nil
}

// privateHandlers reports endpoints of record that the entry file cannot
// register because their handler is not pub.
func privateHandlers(record *types.ModuleRecord) []error {
	problems := make([]error, 0)
	seen := make(map[string]bool)
	for _, svc := range record.Services {
		if !svc.Private || !assembler.RouteMacro(svc.Method) || seen[svc.Handler] {
			continue
		}
		seen[svc.Handler] = true
		problems = append(problems,
			errors.NewValidationError(errors.ErrCodeValidationFailed,
				fmt.Sprintf("handler %s is not pub, endpoint %s %s is not registered", svc.Handler, svc.Method, svc.Route)).
				WithFile(record.Path).WithStep(string(build.StepParse)).
				WithContext("handler", svc.Handler))
	}
	return problems
}

// Build performs the complete build process: discover, assemble, compile.
func (s *BuildService) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	startTime := time.Now()
	runID := uuid.NewString()
	logger := s.logger.With("run", runID)
	collector := errors.NewErrorCollector()

	result := &BuildResult{RunID: runID}
	finish := func(err error) (*BuildResult, error) {
		result.Duration = time.Since(startTime)
		result.Errors = collector.GetAllErrors()
		result.Success = err == nil
		if err != nil {
			logger.Error(ctx, err, "build failed", "duration", result.Duration)
		}
		return result, err
	}

	if err := s.config.CheckOutput(); err != nil {
		return finish(err)
	}

	discovery, err := s.Discover(ctx)
	if err != nil {
		return finish(err)
	}
	for _, problem := range discovery.Problems {
		collector.AddError(problem)
	}
	result.ModuleCount = len(discovery.Modules)
	result.AuxiliaryCount = len(discovery.Auxiliary)

	s.registry.Replace(discovery.Modules)
	s.reportCollisions(ctx, logger)

	body, err := assembler.RenderBootstrap(s.config, discovery.Modules)
	if err != nil {
		return finish(err)
	}

	asm := assembler.New(s.config, s.toolchain, logger)
	handle, err := asm.Assemble(ctx, discovery.Auxiliary, discovery.Modules, body)
	if err != nil {
		return finish(err)
	}
	result.Project = handle

	if opts.SkipCompile {
		logger.Info(ctx, "project assembled, compile skipped", "dir", handle.Dir)
		return finish(nil)
	}

	orch := build.NewOrchestrator(s.toolchain, build.Options{
		Output:    s.config.Output,
		StaticDir: s.config.StaticDir,
		Cleanup:   s.config.Cleanup,
		Timeout:   s.config.BuildTimeout,
	}, logger)

	outcome, err := orch.Build(ctx, handle, s.config.AppName)
	if err != nil {
		return finish(err)
	}
	result.Outcome = outcome
	for _, warning := range outcome.Warnings {
		collector.AddError(warning)
	}

	logger.Info(ctx, "build complete",
		"modules", result.ModuleCount,
		"output", outcome.OutputPath,
		"problems", collector.Count())

	return finish(nil)
}

// reportCollisions warns about modules that shadow or overwrite each other.
func (s *BuildService) reportCollisions(ctx context.Context, logger logging.Logger) {
	for _, c := range s.registry.RouteCollisions() {
		logger.Warn(ctx, nil, "several modules share a route, the first one wins", "route", c.Key, "files", c.Paths)
	}
	for _, c := range s.registry.NameCollisions() {
		logger.Warn(ctx, nil, "several modules share a name and overwrite each other's files", "name", c.Key, "files", c.Paths)
	}
	for _, c := range s.registry.EndpointCollisions() {
		logger.Warn(ctx, nil, "endpoint declared by several modules", "endpoint", c.Key, "files", c.Paths)
	}
}

// ProjectDir returns the absolute project directory.
func (s *BuildService) ProjectDir() (string, error) {
	return filepath.Abs(s.config.ProjectDir)
}
