package build

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dirt-web/dirt/internal/errors"
	"github.com/dirt-web/dirt/internal/logging"
	"github.com/dirt-web/dirt/internal/manifest"
	"github.com/dirt-web/dirt/internal/types"
)

// Step names one stage of a build run.
type Step string

const (
	StepParse    Step = "parse"
	StepInit     Step = "init"
	StepManifest Step = "manifest"
	StepAssemble Step = "assemble"
	StepChdir    Step = "chdir"
	StepFormat   Step = "format"
	StepCompile  Step = "compile"
	StepRestore  Step = "restore"
	StepPlace    Step = "place"
	StepCleanup  Step = "cleanup"
	StepLink     Step = "link"
)

// StepPolicy says what a failure of a step does to the run.
type StepPolicy int

const (
	// PolicyDegrade drops the failing item and continues with the rest
	PolicyDegrade StepPolicy = iota
	// PolicyBestEffort logs a warning and continues
	PolicyBestEffort
	// PolicyFatal aborts the run
	PolicyFatal
)

// String returns the policy name
func (p StepPolicy) String() string {
	switch p {
	case PolicyDegrade:
		return "degrade"
	case PolicyBestEffort:
		return "best-effort"
	case PolicyFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Policies is the failure policy of every step.
var Policies = map[Step]StepPolicy{
	StepParse:    PolicyDegrade,
	StepInit:     PolicyFatal,
	StepManifest: PolicyFatal,
	StepAssemble: PolicyFatal,
	StepChdir:    PolicyFatal,
	StepFormat:   PolicyBestEffort,
	StepCompile:  PolicyFatal,
	StepRestore:  PolicyFatal,
	StepPlace:    PolicyBestEffort,
	StepCleanup:  PolicyBestEffort,
	StepLink:     PolicyBestEffort,
}

// PolicyFor returns the policy of step; unknown steps are fatal.
func PolicyFor(step Step) StepPolicy {
	if p, ok := Policies[step]; ok {
		return p
	}
	return PolicyFatal
}

// Options configures what happens after a successful compile.
type Options struct {
	// Output is where the binary is placed
	Output string
	// StaticDir is the asset directory linked into the project when relative
	StaticDir string
	// Cleanup removes the project directory after placing the binary
	Cleanup bool
	// Timeout bounds the toolchain steps; zero means no limit
	Timeout time.Duration
}

// BuildOutcome reports what a build did.
type BuildOutcome struct {
	BinaryPath string        `json:"binary_path" yaml:"binary_path"`
	OutputPath string        `json:"output_path" yaml:"output_path"`
	Placed     bool          `json:"placed" yaml:"placed"`
	CleanedUp  bool          `json:"cleaned_up" yaml:"cleaned_up"`
	LinkPath   string        `json:"link_path,omitempty" yaml:"link_path,omitempty"`
	Warnings   []error       `json:"-" yaml:"-"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}

// Orchestrator formats and compiles a project and places its binary.
type Orchestrator struct {
	toolchain Toolchain
	opts      Options
	logger    logging.Logger
}

// NewOrchestrator creates an orchestrator running toolchain.
func NewOrchestrator(toolchain Toolchain, opts Options, logger logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Orchestrator{
		toolchain: toolchain,
		opts:      opts,
		logger:    logger.WithComponent("build"),
	}
}

// Build runs the toolchain inside the project directory and then places the
// binary, cleans up or links assets. The working directory is restored on
// every path out of the toolchain steps. Only a failed directory change, a
// failed compile or a failed restore return an error; everything after the
// compile is best effort and reported in the outcome's warnings.
func (o *Orchestrator) Build(ctx context.Context, handle *types.ProjectHandle, appName string) (*BuildOutcome, error) {
	start := time.Now()
	outcome := &BuildOutcome{Warnings: make([]error, 0)}

	// Resolve every configured path before leaving the caller's directory.
	outputPath, err := filepath.Abs(o.opts.Output)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeInvalidPath, "failed to resolve output path", o.opts.Output)
	}
	outcome.OutputPath = outputPath

	staticPath := ""
	if o.opts.StaticDir != "" && !filepath.IsAbs(o.opts.StaticDir) {
		if staticPath, err = filepath.Abs(o.opts.StaticDir); err != nil {
			return nil, errors.WrapIO(err, errors.ErrCodeInvalidPath, "failed to resolve static directory", o.opts.StaticDir)
		}
	}

	if err := o.compile(ctx, handle, outcome); err != nil {
		return nil, err
	}

	packageName, err := manifest.PackageName(handle.Dir)
	if err != nil {
		_ = o.apply(ctx, outcome, StepPlace, errors.WrapBuild(err, errors.ErrCodeArtifact, "falling back to app name for binary", string(StepPlace)))
		packageName = appName
	}
	outcome.BinaryPath = filepath.Join(handle.Dir, "target", "release", BinaryName(packageName))

	o.place(ctx, outcome)

	if o.opts.Cleanup {
		if err := os.RemoveAll(handle.Dir); err != nil {
			_ = o.apply(ctx, outcome, StepCleanup, errors.WrapIO(err, errors.ErrCodeCleanup, "failed to remove project directory", handle.Dir).WithStep(string(StepCleanup)))
		} else {
			outcome.CleanedUp = true
		}
	} else if staticPath != "" {
		o.link(ctx, handle, staticPath, outcome)
	}

	outcome.Duration = time.Since(start)
	o.logger.Info(ctx, "build finished",
		"binary", outcome.OutputPath,
		"placed", outcome.Placed,
		"warnings", len(outcome.Warnings),
		"duration", outcome.Duration)

	return outcome, nil
}

// compile runs the format and compile steps with the working directory set
// to the project.
func (o *Orchestrator) compile(ctx context.Context, handle *types.ProjectHandle, outcome *BuildOutcome) (err error) {
	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	guard, err := EnterDir(handle.Dir)
	if err != nil {
		return errors.WrapIO(err, errors.ErrCodeChdir, "failed to enter project directory", handle.Dir).WithStep(string(StepChdir))
	}
	defer func() {
		if rerr := guard.Restore(); rerr != nil && err == nil {
			err = errors.WrapIO(rerr, errors.ErrCodeChdir, "failed to restore working directory", guard.Previous()).
				WithStep(string(StepRestore))
		}
	}()

	perf := logging.StartOperation(o.logger, "format")
	if ferr := o.toolchain.Format(ctx, "."); ferr != nil {
		perf.EndWithError(ctx, ferr)
		if err := o.apply(ctx, outcome, StepFormat, errors.WrapBuild(ferr, errors.ErrCodeFormat, "formatting failed", string(StepFormat))); err != nil {
			return err
		}
	} else {
		perf.End(ctx)
	}

	perf = logging.StartOperation(o.logger, "compile")
	if cerr := o.toolchain.Build(ctx, "."); cerr != nil {
		perf.EndWithError(ctx, cerr)
		return o.apply(ctx, outcome, StepCompile, errors.WrapBuild(cerr, errors.ErrCodeCompile, "release build failed", string(StepCompile)).WithFile(handle.Dir))
	}
	perf.End(ctx)

	return nil
}

// place replaces the file at the output path with the compiled binary.
func (o *Orchestrator) place(ctx context.Context, outcome *BuildOutcome) {
	if err := os.Remove(outcome.OutputPath); err != nil && !os.IsNotExist(err) {
		_ = o.apply(ctx, outcome, StepPlace, errors.WrapIO(err, errors.ErrCodeArtifact, "failed to remove previous binary", outcome.OutputPath).WithStep(string(StepPlace)))
	}

	if err := copyExecutable(outcome.BinaryPath, outcome.OutputPath); err != nil {
		_ = o.apply(ctx, outcome, StepPlace, errors.WrapIO(err, errors.ErrCodeArtifact, "failed to copy binary", outcome.OutputPath).WithStep(string(StepPlace)))
		return
	}
	outcome.Placed = true
}

// link points <project>/<static dir> at the real asset directory so the
// binary finds its assets when started from the project.
func (o *Orchestrator) link(ctx context.Context, handle *types.ProjectHandle, staticPath string, outcome *BuildOutcome) {
	linkPath := filepath.Join(handle.Dir, o.opts.StaticDir)

	if current, err := os.Readlink(linkPath); err == nil {
		if current == staticPath {
			outcome.LinkPath = linkPath
			return
		}
		if err := os.Remove(linkPath); err != nil {
			_ = o.apply(ctx, outcome, StepLink, errors.WrapIO(err, errors.ErrCodeSymlink, "failed to replace stale asset link", linkPath).WithStep(string(StepLink)))
			return
		}
	}

	if err := os.MkdirAll(filepath.Dir(linkPath), 0755); err != nil {
		_ = o.apply(ctx, outcome, StepLink, errors.WrapIO(err, errors.ErrCodeSymlink, "failed to create asset link parent", linkPath).WithStep(string(StepLink)))
		return
	}
	if err := os.Symlink(staticPath, linkPath); err != nil {
		_ = o.apply(ctx, outcome, StepLink, errors.WrapIO(err, errors.ErrCodeSymlink, "failed to link asset directory", linkPath).WithStep(string(StepLink)))
		return
	}
	outcome.LinkPath = linkPath
}

// apply enforces the policy of step on err. A fatal step gets err back;
// any other step records it as a warning and gets nil.
func (o *Orchestrator) apply(ctx context.Context, outcome *BuildOutcome, step Step, err error) error {
	if err == nil {
		return nil
	}
	policy := PolicyFor(step)
	if policy == PolicyFatal {
		return err
	}
	outcome.Warnings = append(outcome.Warnings, err)
	o.logger.Warn(ctx, err, "step failed, continuing", "step", string(step), "policy", policy.String())
	return nil
}

func copyExecutable(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm()|0o111)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
