// Package validation provides checks for the values dirt hands to external
// processes and writes to disk: toolchain commands and arguments, configured
// paths, module identifiers and markup fragments.
package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// ValidateArgument validates a command line argument to prevent injection attacks
func ValidateArgument(arg string) error {
	// Shell metacharacters that could be used for command injection
	dangerous := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\\", "\"", "'"}
	for _, char := range dangerous {
		if strings.Contains(arg, char) {
			return fmt.Errorf("contains dangerous character: %s", char)
		}
	}

	if strings.Contains(arg, "..") {
		return fmt.Errorf("contains path traversal: %s", arg)
	}

	if filepath.IsAbs(arg) && !strings.HasPrefix(arg, "/usr/bin/") && !strings.HasPrefix(arg, "/bin/") {
		return fmt.Errorf("absolute path not allowed: %s", arg)
	}

	return nil
}

// ValidateCommand validates a command against an allowlist of executable
// names. A path is accepted when its base name is allowed, so a toolchain
// installed outside PATH (e.g. ~/.cargo/bin/cargo) still resolves.
func ValidateCommand(command string, allowedCommands map[string]bool) error {
	if command == "" {
		return fmt.Errorf("command cannot be empty")
	}

	base := filepath.Base(command)
	base = strings.TrimSuffix(base, ".exe")
	if !allowedCommands[base] {
		return fmt.Errorf("command '%s' is not allowed", command)
	}

	if err := ValidateArgument(base); err != nil {
		return fmt.Errorf("invalid command '%s': %w", command, err)
	}

	dangerous := []string{";", "&", "|", "$", "`", "<", ">"}
	for _, char := range dangerous {
		if strings.Contains(command, char) {
			return fmt.Errorf("invalid command '%s': contains dangerous character: %s", command, char)
		}
	}

	return nil
}

// ValidatePath validates a configured file path to prevent path traversal
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path traversal detected: %s", path)
	}

	restrictedPaths := []string{
		"/etc/",
		"/proc/",
		"/sys/",
		"/dev/",
		"/boot/",
	}

	cleanPathLower := strings.ToLower(cleanPath)
	for _, restricted := range restrictedPaths {
		if strings.HasPrefix(cleanPathLower+"/", restricted) {
			return fmt.Errorf("access to restricted path denied: %s", path)
		}
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">"}
	for _, char := range dangerousChars {
		if strings.Contains(path, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

var identifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// rustKeywords cannot be used as module names without a raw identifier.
var rustKeywords = map[string]bool{
	"as": true, "async": true, "await": true, "break": true, "const": true,
	"continue": true, "crate": true, "dyn": true, "else": true, "enum": true,
	"extern": true, "false": true, "fn": true, "for": true, "if": true,
	"impl": true, "in": true, "let": true, "loop": true, "match": true,
	"mod": true, "move": true, "mut": true, "pub": true, "ref": true,
	"return": true, "self": true, "Self": true, "static": true, "struct": true,
	"super": true, "trait": true, "true": true, "type": true, "unsafe": true,
	"use": true, "where": true, "while": true,
}

// ValidateModuleName checks that name can be declared as a module in the
// generated entry file.
func ValidateModuleName(name string) error {
	if !identifierRegex.MatchString(name) {
		return fmt.Errorf("module name '%s' is not a valid identifier", name)
	}
	if rustKeywords[name] {
		return fmt.Errorf("module name '%s' is a reserved keyword", name)
	}
	if name == "main" {
		return fmt.Errorf("module name 'main' collides with the generated entry file")
	}
	return nil
}
