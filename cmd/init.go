package cmd

import (
	"fmt"

	"github.com/dirt-web/dirt/internal/services"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:     "init [directory]",
	Aliases: []string{"i"},
	Short:   "Create a configuration file and a starter site",
	Long: `Write config.yaml and a dist/ directory holding two example pages: one with
a <rust> block exposing an endpoint and a template hook, and one markup only.

Examples:
  dirt init                       # Initialize in the current directory
  dirt init my-site               # Initialize in a new directory
  dirt init --name blog           # Set the app name
  dirt init --minimal             # Only write config.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

var (
	initName    string
	initMinimal bool
	initForce   bool
)

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVarP(&initName, "name", "n", "", "App name; the binary is placed at <name>-server")
	initCmd.Flags().BoolVar(&initMinimal, "minimal", false, "Only write the configuration file")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing files")
}

func runInit(cmd *cobra.Command, args []string) error {
	projectDir := "."
	if len(args) > 0 {
		projectDir = args[0]
	}

	err := services.NewInitService().InitProject(services.InitOptions{
		ProjectDir: projectDir,
		AppName:    initName,
		Minimal:    initMinimal,
		Force:      initForce,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Site initialized in %s\n", projectDir)
	fmt.Fprintln(out, "\nNext steps:")
	if projectDir != "." {
		fmt.Fprintln(out, "  1. cd "+projectDir)
	} else {
		fmt.Fprintln(out, "  1. Edit the pages in dist/")
	}
	fmt.Fprintln(out, "  2. dirt build")
	fmt.Fprintln(out, "  3. Run the binary it places next to config.yaml")

	return nil
}
