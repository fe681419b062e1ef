package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dirt-web/dirt/internal/testutils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir runs the rest of the test inside a fresh working directory.
func inTempDir(t *testing.T) {
	t.Helper()
	testutils.Chdir(t, t.TempDir())
}

// useConfig points the global viper instance at path.
func useConfig(t *testing.T, path string) {
	t.Helper()
	viper.Reset()
	viper.SetConfigFile(path)
	configReadErr = viper.ReadInConfig()
	t.Cleanup(viper.Reset)
}

func newTestCommand() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	return cmd, &out
}

// initSite creates the starter site and a project directory that already
// holds a manifest, so no toolchain is needed to assemble it.
func initSite(t *testing.T) {
	t.Helper()
	initName, initMinimal, initForce = "demo", false, false
	cmd, _ := newTestCommand()
	require.NoError(t, runInit(cmd, nil))
	testutils.WriteTree(t, ".", map[string]string{"app/Cargo.toml": testutils.ManifestText("demo")})
	useConfig(t, "config.yaml")
}

func TestInitCommand(t *testing.T) {
	inTempDir(t)
	initName, initMinimal, initForce = "", false, false

	cmd, out := newTestCommand()
	require.NoError(t, runInit(cmd, nil))

	assert.FileExists(t, "config.yaml")
	assert.FileExists(t, filepath.Join("dist", "index.rsr"))
	assert.FileExists(t, filepath.Join("dist", "about.rsr"))
	assert.Contains(t, out.String(), "dirt build")

	err := runInit(cmd, nil)
	assert.Error(t, err, "existing files are not overwritten")
}

func TestInitCommandInSubdirectory(t *testing.T) {
	inTempDir(t)
	initName, initMinimal, initForce = "blog", true, false

	cmd, out := newTestCommand()
	require.NoError(t, runInit(cmd, []string{"blog"}))

	data, err := os.ReadFile(filepath.Join("blog", "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "app_name: blog")
	assert.NoDirExists(t, filepath.Join("blog", "dist"))
	assert.Contains(t, out.String(), "cd blog")
}

func TestBuildCommandWithoutCompile(t *testing.T) {
	inTempDir(t)
	initSite(t)
	buildFlags = &StandardFlags{NoCompile: true}

	cmd, out := newTestCommand()
	require.NoError(t, runBuild(cmd, nil))

	entry, err := os.ReadFile(filepath.Join("app", "src", "main.rs"))
	require.NoError(t, err)
	assert.Contains(t, string(entry), "mod index;")
	assert.Contains(t, string(entry), "mod about {}")
	assert.FileExists(t, filepath.Join("app", "src", "index.rs"))
	assert.NoFileExists(t, filepath.Join("app", "src", "about.rs"))

	manifest, err := os.ReadFile(filepath.Join("app", "Cargo.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(manifest), `"actix-web" = "4.4.1"`)

	assert.Contains(t, out.String(), "2 modules")
}

func TestBuildCommandConfigArgument(t *testing.T) {
	inTempDir(t)
	initSite(t)
	testutils.WriteTree(t, ".", map[string]string{
		"other.toml": "app_name = \"other\"\nserve_dir = \"dist\"\nproject_dir = \"app\"\n",
	})
	viper.Reset()
	buildFlags = &StandardFlags{NoCompile: true}

	cmd, _ := newTestCommand()
	require.NoError(t, runBuild(cmd, []string{"other.toml"}))
	assert.Equal(t, "other", viper.GetString("app_name"))

	err := runBuild(cmd, []string{"../outside.toml"})
	assert.Error(t, err)
}

func TestBuildCommandUnreadableConfigUsesDefaults(t *testing.T) {
	inTempDir(t)
	initSite(t)
	t.Setenv("DIRT_PORT", "9000")
	require.Equal(t, "demo", viper.GetString("app_name"))
	buildFlags = &StandardFlags{NoCompile: true}

	cmd, _ := newTestCommand()
	require.NoError(t, runBuild(cmd, []string{"missing.toml"}))

	assert.Error(t, configReadErr)
	assert.False(t, viper.IsSet("app_name"), "settings of the previously loaded file are dropped")
	assert.Equal(t, 9000, viper.GetInt("port"), "environment overrides still apply")
}

func TestBuildCommandRejectsBadFlags(t *testing.T) {
	inTempDir(t)
	buildFlags = &StandardFlags{Port: 70000}

	cmd, _ := newTestCommand()
	err := runBuild(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
}

func TestListCommandJSON(t *testing.T) {
	inTempDir(t)
	initSite(t)
	listFlags = &StandardFlags{Format: "json"}

	cmd, out := newTestCommand()
	require.NoError(t, runList(cmd, nil))

	var listing siteListing
	require.NoError(t, json.Unmarshal(out.Bytes(), &listing))
	require.Len(t, listing.Modules, 2)

	byName := make(map[string]moduleListing)
	for _, m := range listing.Modules {
		byName[m.Name] = m
	}
	assert.Equal(t, "/", byName["index"].Route)
	assert.True(t, byName["index"].HasCode)
	assert.True(t, byName["index"].HasTemplate)
	require.Len(t, byName["index"].Services, 1)
	assert.Equal(t, "GET", byName["index"].Services[0].Method)
	assert.Equal(t, "/api/hello", byName["index"].Services[0].Route)
	assert.Equal(t, "/about", byName["about"].Route)
	assert.False(t, byName["about"].HasCode)
}

func TestListCommandTable(t *testing.T) {
	inTempDir(t)
	initSite(t)
	listFlags = &StandardFlags{Format: "table", Verbose: true}

	cmd, out := newTestCommand()
	require.NoError(t, runList(cmd, nil))

	assert.Contains(t, out.String(), "NAME")
	assert.Contains(t, out.String(), "/about")
	assert.Contains(t, out.String(), "GET /api/hello")
	assert.Contains(t, out.String(), "Total: 2 pages, 0 helper files")
}

func TestValidateCommand(t *testing.T) {
	inTempDir(t)
	initSite(t)
	validateFormat, validateSkipToolchain = "json", true

	cmd, out := newTestCommand()
	require.NoError(t, runValidateCommand(cmd, nil))

	var summary ValidationSummary
	require.NoError(t, json.Unmarshal(out.Bytes(), &summary))
	assert.Zero(t, summary.Invalid)
	assert.Equal(t, summary.Total, summary.Valid)
}

func TestValidateCommandReportsProblems(t *testing.T) {
	inTempDir(t)
	initSite(t)
	testutils.WriteTree(t, "dist", map[string]string{
		"my-page.rsr":    "<p>dash</p>",
		"blog/index.rsr": "<div><p>unclosed</div>",
	})
	validateFormat, validateSkipToolchain = "text", true

	cmd, out := newTestCommand()
	err := runValidateCommand(cmd, nil)
	require.Error(t, err)

	report := out.String()
	assert.Contains(t, report, "my-page.rsr")
	assert.Contains(t, report, "route /")
	assert.Contains(t, report, "module index")
	assert.True(t, strings.Contains(report, "failed"))
}

func TestValidateFormatWithSuggestion(t *testing.T) {
	valid := []string{"table", "json", "yaml"}

	testCases := []struct {
		format  string
		wantErr bool
		hint    string
	}{
		{"table", false, ""},
		{"JSON", false, ""},
		{"yml", true, ""},
		{"tab", true, `did you mean "table"`},
		{"jsonl", true, `did you mean "json"`},
		{"", true, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.format, func(t *testing.T) {
			err := ValidateFormatWithSuggestion(tc.format, valid)
			if !tc.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tc.hint != "" {
				assert.Contains(t, err.Error(), tc.hint)
			}
		})
	}
}

func TestStandardFlagsValidation(t *testing.T) {
	testCases := []struct {
		name    string
		flags   StandardFlags
		wantErr bool
	}{
		{"empty", StandardFlags{}, false},
		{"json", StandardFlags{Format: "json"}, false},
		{"bad format", StandardFlags{Format: "xml"}, true},
		{"quiet and verbose", StandardFlags{Quiet: true, Verbose: true}, true},
		{"port in range", StandardFlags{Port: 8080}, false},
		{"port out of range", StandardFlags{Port: -1}, true},
		{"negative timeout", StandardFlags{Timeout: -1}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.flags.ValidateFlags()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAddFlagValidation(t *testing.T) {
	cmd := &cobra.Command{}
	flags := AddStandardFlags(cmd, "output")
	AddFlagValidation(cmd.Flags(), "format", func(format string) error {
		return ValidateFormatWithSuggestion(format, []string{"table", "json"})
	})

	require.NoError(t, cmd.Flags().Set("format", "json"))
	assert.Equal(t, "json", flags.Format)

	assert.Error(t, cmd.Flags().Set("format", "xml"))
	assert.Equal(t, "json", flags.Format)
}

func TestApplyBuildFlagsOnlyOverridesChangedFlags(t *testing.T) {
	cmd := &cobra.Command{}
	flags := AddStandardFlags(cmd, "build")
	require.NoError(t, cmd.Flags().Set("output", "bin/site"))

	cfg := loadConfig(commandContext(cmd))
	cfg.Cleanup = true
	applyBuildFlags(cmd, cfg, flags)

	assert.Equal(t, "bin/site", cfg.Output)
	assert.True(t, cfg.Cleanup)
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"build", "init", "list", "validate", "watch", "version"})
}

func TestVersionCommand(t *testing.T) {
	versionFormat, versionShort, versionDetailed = "text", false, false
	cmd, out := newTestCommand()
	require.NoError(t, runVersionCommand(cmd, nil))
	assert.True(t, strings.HasPrefix(out.String(), "dirt "))

	versionFormat = "json"
	out.Reset()
	require.NoError(t, runVersionCommand(cmd, nil))
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Contains(t, info, "go_version")
}
