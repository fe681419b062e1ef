package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dirt-web/dirt/internal/services"
	"github.com/dirt-web/dirt/internal/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List discovered pages, endpoints and helper files",
	Long: `Parse every page in the serve directory without building anything and
show what the generated project would contain.

Examples:
  dirt list                       # Table of pages
  dirt list -v                    # Include every endpoint
  dirt list -f json               # Output as JSON
  dirt list -f yaml               # Output as YAML`,
	RunE: runList,
}

var listFlags *StandardFlags

func init() {
	rootCmd.AddCommand(listCmd)

	listFlags = AddStandardFlags(listCmd, "output")

	AddFlagValidation(listCmd.Flags(), "format", func(format string) error {
		return ValidateFormatWithSuggestion(format, []string{"table", "json", "yaml"})
	})
}

// moduleListing is the serialized form of one page.
type moduleListing struct {
	Name        string                  `json:"name" yaml:"name"`
	Route       string                  `json:"route" yaml:"route"`
	Path        string                  `json:"path" yaml:"path"`
	HasCode     bool                    `json:"has_code" yaml:"has_code"`
	HasTemplate bool                    `json:"has_template_hook" yaml:"has_template_hook"`
	Services    []types.ServiceEndpoint `json:"services" yaml:"services"`
}

// siteListing is what list prints in the structured formats.
type siteListing struct {
	Root      string                  `json:"root" yaml:"root"`
	Modules   []moduleListing         `json:"modules" yaml:"modules"`
	Auxiliary []types.AuxiliarySource `json:"auxiliary" yaml:"auxiliary"`
	Problems  []string                `json:"problems,omitempty" yaml:"problems,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	if err := listFlags.ValidateFlags(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	ctx := commandContext(cmd)
	cfg := loadConfig(ctx)

	discovery, err := services.NewBuildService(cfg, newToolchain(cfg), logger).Discover(ctx)
	if err != nil {
		return err
	}

	listing := newSiteListing(discovery)
	out := cmd.OutOrStdout()

	switch strings.ToLower(listFlags.Format) {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(listing)
	case "yaml":
		encoder := yaml.NewEncoder(out)
		defer encoder.Close()
		return encoder.Encode(listing)
	default:
		return outputTable(out, listing, listFlags.Verbose)
	}
}

func newSiteListing(d *services.Discovery) siteListing {
	listing := siteListing{
		Root:      d.Root,
		Modules:   make([]moduleListing, 0, len(d.Modules)),
		Auxiliary: d.Auxiliary,
	}
	for _, m := range d.Modules {
		listing.Modules = append(listing.Modules, moduleListing{
			Name:        m.Name,
			Route:       m.Route,
			Path:        m.Path,
			HasCode:     m.Code != nil,
			HasTemplate: m.HasTemplateHook,
			Services:    m.Services,
		})
	}
	for _, p := range d.Problems {
		listing.Problems = append(listing.Problems, p.Error())
	}
	return listing
}

func outputTable(out io.Writer, listing siteListing, verbose bool) error {
	if len(listing.Modules) == 0 && len(listing.Auxiliary) == 0 {
		fmt.Fprintf(out, "No pages found in %s\n", listing.Root)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "NAME\tROUTE\tCODE\tHOOK\tENDPOINTS\tFILE")
	fmt.Fprintln(w, "----\t-----\t----\t----\t---------\t----")
	for _, m := range listing.Modules {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			m.Name, m.Route, yesNo(m.HasCode), yesNo(m.HasTemplate), len(m.Services), m.Path)
		if verbose {
			for _, svc := range m.Services {
				fmt.Fprintf(w, "\t  %s %s\t\t\t%s\t\n", svc.Method, svc.Route, svc.Handler)
			}
		}
	}
	for _, a := range listing.Auxiliary {
		fmt.Fprintf(w, "%s\t-\t%s\t%s\t%d\t%s\n", a.Name, yesNo(true), yesNo(false), 0, a.Path)
	}

	fmt.Fprintf(w, "\nTotal: %d pages, %d helper files\n", len(listing.Modules), len(listing.Auxiliary))
	if err := w.Flush(); err != nil {
		return err
	}

	for _, p := range listing.Problems {
		fmt.Fprintf(out, "⚠️  %s\n", p)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
