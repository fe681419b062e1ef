// Package manifest maintains the dependency lines of the generated project's
// Cargo.toml and reads back the fields the build needs from it.
//
// Lines are only ever appended. A line already present in the file, compared
// as exact text, is left alone, so repeated builds against the same project
// directory do not grow the manifest.
package manifest

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/dirt-web/dirt/internal/config"
	"github.com/dirt-web/dirt/internal/errors"
	toml "github.com/pelletier/go-toml/v2"
)

// FileName is the manifest file at the root of the generated project.
const FileName = "Cargo.toml"

// Baseline lists the dependencies every generated server needs.
var Baseline = []string{
	`"actix-web" = "4.4.1"`,
	`"actix-files" = "0.6.5"`,
	`"serde" = { version = "1.0.193", features = ["derive"] }`,
	`"serde_json" = "1.0.108"`,
	`"handlebars" = "4.5.0"`,
}

// Diagnostic describes a declared package that could not be turned into a
// usable dependency line.
type Diagnostic struct {
	Package string
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("package %q: %s", d.Package, d.Message)
}

// PackageLine renders one declared package as a manifest line. Options win
// over Version. A package with neither yields a commented placeholder and a
// diagnostic; so does one whose options cannot be encoded and that has no
// version to fall back on.
func PackageLine(pkg config.Package) (string, *Diagnostic) {
	key := `"` + pkg.Name + `"`

	if len(pkg.Options) > 0 {
		table, err := inlineTable(pkg.Options)
		if err == nil {
			return key + " = " + table, nil
		}
		diag := &Diagnostic{Package: pkg.Name, Message: "options cannot be encoded: " + err.Error()}
		if pkg.Version != "" {
			return key + ` = "` + pkg.Version + `"`, diag
		}
		return placeholder(key), diag
	}

	if pkg.Version != "" {
		return key + ` = "` + pkg.Version + `"`, nil
	}

	return placeholder(key), &Diagnostic{Package: pkg.Name, Message: "neither version nor options given"}
}

// Lines returns the baseline lines followed by one line per declared package,
// together with the diagnostics produced along the way.
func Lines(packages []config.Package) ([]string, []Diagnostic) {
	lines := make([]string, 0, len(Baseline)+len(packages))
	lines = append(lines, Baseline...)

	diags := make([]Diagnostic, 0)
	for _, pkg := range packages {
		line, diag := PackageLine(pkg)
		lines = append(lines, line)
		if diag != nil {
			diags = append(diags, *diag)
		}
	}
	return lines, diags
}

// EnsureLines appends every line of lines not already present in the file
// at path and returns the lines it appended. Existing content is never
// reordered or rewritten.
func EnsureLines(path string, lines []string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeManifest, "failed to read manifest", path)
	}

	existing := make(map[string]struct{})
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		existing[strings.TrimSuffix(scanner.Text(), "\r")] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeManifest, "failed to read manifest", path)
	}

	missing := make([]string, 0)
	for _, line := range lines {
		if _, ok := existing[line]; ok {
			continue
		}
		existing[line] = struct{}{}
		missing = append(missing, line)
	}
	if len(missing) == 0 {
		return missing, nil
	}

	var buf strings.Builder
	if len(data) > 0 && data[len(data)-1] != '\n' {
		buf.WriteByte('\n')
	}
	for _, line := range missing {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeManifest, "failed to open manifest", path)
	}
	if _, err := f.WriteString(buf.String()); err != nil {
		_ = f.Close()
		return nil, errors.WrapIO(err, errors.ErrCodeManifest, "failed to append dependencies", path)
	}
	if err := f.Close(); err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeManifest, "failed to append dependencies", path)
	}

	return missing, nil
}

// inlineTable encodes options as a single-line TOML inline table.
func inlineTable(options map[string]interface{}) (string, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetTablesInline(true)
	if err := enc.Encode(map[string]interface{}{"v": options}); err != nil {
		return "", err
	}

	_, table, ok := strings.Cut(buf.String(), "=")
	if !ok {
		return "", fmt.Errorf("unexpected encoder output %q", buf.String())
	}
	table = strings.TrimSpace(table)
	if strings.Contains(table, "\n") {
		return "", fmt.Errorf("options do not fit on one line")
	}
	return table, nil
}

func placeholder(key string) string {
	return "# " + key + " = ? (no version or options given)"
}
