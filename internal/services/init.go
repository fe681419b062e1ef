package services

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dirt-web/dirt/internal/config"
	"github.com/dirt-web/dirt/internal/errors"
	"github.com/dirt-web/dirt/internal/validation"
	"gopkg.in/yaml.v3"
)

// InitService creates starter sites
type InitService struct{}

// NewInitService creates a new initialization service
func NewInitService() *InitService {
	return &InitService{}
}

// InitOptions contains options for site initialization
type InitOptions struct {
	ProjectDir string
	AppName    string
	// Minimal writes the configuration file only
	Minimal bool
	// Force overwrites files that already exist
	Force bool
}

// starterConfig is the subset of the configuration written by init.
type starterConfig struct {
	AppName  string `yaml:"app_name"`
	ServeDir string `yaml:"serve_dir"`
	HostAddr string `yaml:"host_addr"`
	Port     int    `yaml:"port"`
	Cleanup  bool   `yaml:"cleanup"`
}

const starterIndex = `<!DOCTYPE html>
<html>
<head>
  <title>{{title}}</title>
  <link rel="stylesheet" href="/static/style.css">
</head>
<body>
  <h1>{{title}}</h1>
  <p>This page is served from <code>$route</code>.</p>
  <a href="/about">About</a>
</body>
</html>
<!-- Everything between the rust tags becomes src/index.rs -->
<rust>
use actix_web::{get, HttpRequest, Responder};
use std::collections::HashMap;

#[get("/api/hello")]
pub async fn hello() -> impl Responder {
    "hello from $route"
}

pub async fn template(req: HttpRequest) -> HashMap<String, String> {
    let mut data = HashMap::new();
    data.insert("title".to_string(), format!("Welcome, {}", req.peer_addr().map(|a| a.ip().to_string()).unwrap_or_default()));
    data
}
</rust>
`

const starterAbout = `<!DOCTYPE html>
<html>
<body>
  <h1>About</h1>
  <p>A markup-only page at <code>$route</code>.</p>
</body>
</html>
`

const starterStyle = `body {
  font-family: sans-serif;
  margin: 2rem auto;
  max-width: 40rem;
}
`

// InitProject writes a configuration file and, unless Minimal is set, a
// serve directory with two example pages and a stylesheet.
func (s *InitService) InitProject(opts InitOptions) error {
	if opts.ProjectDir == "" {
		opts.ProjectDir = "."
	}
	if opts.AppName == "" {
		opts.AppName = config.DefaultAppName
	}

	if err := validation.ValidatePath(opts.ProjectDir); err != nil {
		return errors.Wrap(err, errors.ErrorTypeValidation, errors.ErrCodeInvalidPath, "invalid project directory")
	}
	if err := os.MkdirAll(opts.ProjectDir, 0755); err != nil {
		return errors.WrapIO(err, errors.ErrCodeScaffold, "cannot create project directory", opts.ProjectDir)
	}

	cfg := starterConfig{
		AppName:  opts.AppName,
		ServeDir: config.DefaultServeDir,
		HostAddr: config.DefaultHostAddr,
		Port:     config.DefaultPort,
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return errors.NewIOError(errors.ErrCodeScaffold, "failed to encode configuration", err)
	}
	if err := s.writeFile(filepath.Join(opts.ProjectDir, "config.yaml"), data, opts.Force); err != nil {
		return err
	}

	if opts.Minimal {
		return nil
	}

	serveDir := filepath.Join(opts.ProjectDir, cfg.ServeDir)
	if err := os.MkdirAll(serveDir, 0755); err != nil {
		return errors.WrapIO(err, errors.ErrCodeScaffold, "failed to create serve directory", serveDir)
	}

	files := map[string]string{
		"index.rsr": starterIndex,
		"about.rsr": starterAbout,
		"style.css": starterStyle,
	}
	for name, content := range files {
		if err := s.writeFile(filepath.Join(serveDir, name), []byte(content), opts.Force); err != nil {
			return err
		}
	}

	return nil
}

func (s *InitService) writeFile(path string, data []byte, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return errors.NewValidationError(errors.ErrCodeScaffold,
				fmt.Sprintf("%s already exists, use --force to overwrite", path)).WithFile(path)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.WrapIO(err, errors.ErrCodeScaffold, "failed to write file", path)
	}
	return nil
}
