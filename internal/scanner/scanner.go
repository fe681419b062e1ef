// Package scanner discovers hybrid (.rsr) and auxiliary (.rs) source files.
//
// The scanner walks a root directory recursively and produces one descriptor
// per matching file, in walk order. Entries that cannot be read are skipped
// without failing the scan: a broken file or directory somewhere in the tree
// must never prevent the rest of the site from building. Symlinked
// directories are not followed, which is the behavior of filepath.WalkDir.
package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dirt-web/dirt/internal/logging"
	"github.com/dirt-web/dirt/internal/types"
)

const (
	// HybridExtension marks files with markup and an optional code region.
	HybridExtension = ".rsr"
	// AuxiliaryExtension marks plain source files copied into the project.
	AuxiliaryExtension = ".rs"
	// IndexName is the module name that always maps to the root route.
	IndexName = "index"
)

// Scanner walks a source tree looking for hybrid and auxiliary files.
type Scanner struct {
	// hybridExt is the extension of hybrid source files, dot included
	hybridExt string
	// auxiliaryExt is the extension of auxiliary source files, dot included
	auxiliaryExt string
	// exclude holds absolute directory paths that are never descended into
	exclude map[string]struct{}
	logger  logging.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithExtensions overrides the hybrid and auxiliary extensions.
func WithExtensions(hybrid, auxiliary string) Option {
	return func(s *Scanner) {
		s.hybridExt = normalizeExt(hybrid)
		s.auxiliaryExt = normalizeExt(auxiliary)
	}
}

// WithExclude skips the given directories and everything below them. The
// generated project usually lives under the scanned root and its sources
// must not be picked up as auxiliary files.
func WithExclude(dirs ...string) Option {
	return func(s *Scanner) {
		for _, dir := range dirs {
			if dir == "" {
				continue
			}
			if abs, err := filepath.Abs(dir); err == nil {
				s.exclude[abs] = struct{}{}
			}
		}
	}
}

// WithLogger sets the logger used to report skipped entries.
func WithLogger(logger logging.Logger) Option {
	return func(s *Scanner) {
		if logger != nil {
			s.logger = logger.WithComponent("scanner")
		}
	}
}

// NewScanner creates a scanner for .rsr and .rs files.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		hybridExt:    HybridExtension,
		auxiliaryExt: AuxiliaryExtension,
		exclude:      make(map[string]struct{}),
		logger:       logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan returns a descriptor for every hybrid file under root. Routes are
// derived from the path relative to root; a module named index always gets
// the route "/". Descriptors are not checked for uniqueness.
func (s *Scanner) Scan(root string) []types.ModuleDescriptor {
	descriptors := make([]types.ModuleDescriptor, 0)
	root = resolveRoot(root)

	s.walk(root, s.hybridExt, func(path, name string) {
		descriptors = append(descriptors, types.ModuleDescriptor{
			Path:  path,
			Name:  name,
			Route: DeriveRoute(root, path, name),
		})
	})

	return descriptors
}

// ScanAuxiliary returns every auxiliary source file under root.
func (s *Scanner) ScanAuxiliary(root string) []types.AuxiliarySource {
	sources := make([]types.AuxiliarySource, 0)
	root = resolveRoot(root)

	s.walk(root, s.auxiliaryExt, func(path, name string) {
		sources = append(sources, types.AuxiliarySource{
			Path: path,
			Name: name,
		})
	})

	return sources
}

func (s *Scanner) walk(root, ext string, visit func(path, name string)) {
	ctx := context.Background()

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Debug(ctx, "skipping unreadable entry", "path", path, "error", err)
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if s.excluded(path) {
				return fs.SkipDir
			}
			return nil
		}

		if filepath.Ext(path) != ext {
			return nil
		}

		visit(path, ModuleName(filepath.Base(path)))
		return nil
	})
	if err != nil {
		s.logger.Debug(ctx, "walk stopped early", "root", root, "error", err)
	}
}

func (s *Scanner) excluded(dir string) bool {
	if len(s.exclude) == 0 {
		return false
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	if _, ok := s.exclude[abs]; ok {
		return true
	}
	// The walk may run below a resolved root while excludes were given
	// through the link.
	for excl := range s.exclude {
		if resolved, err := filepath.EvalSymlinks(excl); err == nil && resolved == abs {
			return true
		}
	}
	return false
}

// resolveRoot follows root when it is itself a symlink. WalkDir never
// descends into a symlinked root.
func resolveRoot(root string) string {
	info, err := os.Lstat(root)
	if err != nil || info.Mode()&fs.ModeSymlink == 0 {
		return root
	}
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return root
	}
	return resolved
}

// ModuleName strips the extension at the last dot of a file name.
func ModuleName(fileName string) string {
	if i := strings.LastIndex(fileName, "."); i >= 0 {
		return fileName[:i]
	}
	return fileName
}

// DeriveRoute computes the URL path of a module from its location under root.
func DeriveRoute(root, path, name string) string {
	if name == IndexName {
		return "/"
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	rel = strings.ReplaceAll(rel, `\`, "/")
	rel = filepath.ToSlash(rel)

	return "/" + strings.TrimLeft(rel, "/")
}

func normalizeExt(ext string) string {
	if ext == "" || strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}
