package manifest

import (
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/dirt-web/dirt/internal/errors"
)

// CargoManifest is the subset of Cargo.toml that dirt reads back.
type CargoManifest struct {
	Package struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
		Edition string `toml:"edition"`
	} `toml:"package"`
	Dependencies map[string]interface{} `toml:"dependencies"`
}

// Inspect decodes the manifest at path.
func Inspect(path string) (*CargoManifest, error) {
	var m CargoManifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeManifest, "failed to decode manifest", path)
	}
	return &m, nil
}

// PackageName returns [package].name of the manifest in projectDir. The
// compiled binary carries this name.
func PackageName(projectDir string) (string, error) {
	path := filepath.Join(projectDir, FileName)
	m, err := Inspect(path)
	if err != nil {
		return "", err
	}
	if m.Package.Name == "" {
		return "", errors.NewIOError(errors.ErrCodeManifest, "manifest has no package name", nil).WithFile(path)
	}
	return m.Package.Name, nil
}

// HasDependency reports whether the manifest declares name.
func (m *CargoManifest) HasDependency(name string) bool {
	_, ok := m.Dependencies[name]
	return ok
}
