// Package types provides the module data model shared by the scanner, parser,
// registry, assembler and build packages.
// This package contains shared types to avoid circular dependencies between packages.
package types

// ModuleDescriptor identifies one discovered hybrid source file before it is parsed.
type ModuleDescriptor struct {
	// Path is the file location as produced by the directory walk
	Path string
	// Name is the filename with its extension removed at the last dot
	Name string
	// Route is the URL path derived from the file's position under the scan root
	Route string
}

// ModuleContent is the result of splitting one hybrid file into its fragments.
type ModuleContent struct {
	// Code is the embedded code region, nil when the file has none
	Code *string
	// Markup is the comment-stripped text outside the code region
	Markup string
}

// HasCode reports whether a code region was found.
func (c ModuleContent) HasCode() bool {
	return c.Code != nil
}

// ServiceEndpoint is one HTTP handler declared inside a code fragment.
type ServiceEndpoint struct {
	Method  string `json:"method" yaml:"method"`
	Route   string `json:"route" yaml:"route"`
	Handler string `json:"handler" yaml:"handler"`
	// Private is set when the handler is declared without pub and cannot be
	// reached from the entry file
	Private bool `json:"private,omitempty" yaml:"private,omitempty"`
}

// ModuleRecord is a fully parsed hybrid module, ready for project assembly.
type ModuleRecord struct {
	Path string `json:"path" yaml:"path"`
	Name string `json:"name" yaml:"name"`
	// Code is the route-bound code fragment, nil for markup-only modules
	Code *string `json:"code,omitempty" yaml:"code,omitempty"`
	// Markup is the route-bound markup fragment
	Markup string `json:"-" yaml:"-"`
	// HasTemplateHook is set when the code defines the template data function
	HasTemplateHook bool `json:"has_template_hook" yaml:"has_template_hook"`
	// IsIndex marks the root module
	IsIndex  bool              `json:"is_index" yaml:"is_index"`
	Services []ServiceEndpoint `json:"services" yaml:"services"`
	Route    string            `json:"route" yaml:"route"`
}

// HasCode reports whether the module carries a code fragment.
func (r *ModuleRecord) HasCode() bool {
	return r.Code != nil
}

// AuxiliarySource is a plain source file copied verbatim into the project.
type AuxiliarySource struct {
	Path string `json:"path" yaml:"path"`
	Name string `json:"name" yaml:"name"`
}

// ProjectHandle describes a materialized project directory ready to build.
type ProjectHandle struct {
	// Dir is the absolute project directory
	Dir          string `json:"dir" yaml:"dir"`
	ManifestPath string `json:"manifest_path" yaml:"manifest_path"`
	SourceDir    string `json:"source_dir" yaml:"source_dir"`
	EntryPath    string `json:"entry_path" yaml:"entry_path"`
	// Created is set when this run created and initialized Dir
	Created bool `json:"created" yaml:"created"`
	// Diagnostics holds non-fatal problems found while assembling
	Diagnostics []string `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}
