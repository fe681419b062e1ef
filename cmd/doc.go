// Package cmd provides the command-line interface for dirt.
//
// Configuration is read by viper from, in order of precedence:
//
//  1. the positional argument of build, or the --config flag
//  2. the DIRT_CONFIG_FILE environment variable
//  3. config.json, config.yaml or config.toml in the working directory
//
// Individual keys can be overridden with DIRT_<KEY> environment variables,
// for example DIRT_APP_NAME or DIRT_SERVE_DIR. A missing or unreadable file
// never stops a command: the defaults are used and a warning is logged.
//
// # Commands
//
//   - init: write config.yaml and a starter site
//   - build: generate the Cargo project, compile it and place the binary
//   - list: show the pages, endpoints and helper files that would be built
//   - validate: check configuration, page names, collisions and markup
//   - watch: rebuild on every change below the serve directory
//   - version: print build information
//
// Every command logs to stderr through the structured logger configured by
// --log-level and --log-format, and writes its report to stdout.
package cmd
