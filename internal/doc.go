// Package internal contains the implementation packages of the dirt CLI.
//
// # Package Organization
//
// A build flows through the packages in this order:
//
//   - scanner: finds .rsr pages and .rs helper files below the serve directory
//   - parser: splits pages into markup and code, binds $route and extracts endpoints
//   - registry: holds the parsed batch and reports route, name and endpoint collisions
//   - manifest: merges dependency lines into Cargo.toml and reads the package name
//   - assembler: writes the project sources and the generated src/main.rs
//   - build: runs cargo inside the project and places the binary
//   - services: ties the steps together for the CLI commands
//
// Supporting packages:
//
//   - config: viper backed configuration with fallback to defaults
//   - errors: structured errors naming the file and the step that failed
//   - logging: slog based structured logging
//   - validation: argument, path, module name and markup checks
//   - watcher: debounced file system notifications for dirt watch
//   - version: build information of the binary
//   - testutils: fixtures shared by tests
package internal
