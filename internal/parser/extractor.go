package parser

import (
	"regexp"
	"strings"

	"github.com/dirt-web/dirt/internal/types"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Markers recognized in front of a handler, written as #[marker(args)].
var Markers = []string{
	"connect", "delete", "get", "head", "main", "options", "patch",
	"post", "put", "route", "routes", "dist", "trace",
}

var (
	markerRegex  = regexp.MustCompile(`#\[(` + strings.Join(Markers, "|") + `)\(([^)]*)\)\]`)
	handlerRegex = regexp.MustCompile(`(\bpub(?:\s*\([^)]*\))?\s+)?\basync\s+fn\s+([a-zA-Z_][a-zA-Z0-9_]*)`)
)

var hookRegex = regexp.MustCompile(
	`pub\s+async\s+fn\s+template\s*\(\s*(?:mut\s+)?[a-zA-Z_][a-zA-Z0-9_]*\s*:\s*` +
		`(?:[a-zA-Z_][a-zA-Z0-9_]*\s*::\s*)*HttpRequest\s*\)\s*->\s*` +
		`(?:std\s*::\s*collections\s*::\s*)?HashMap\s*<\s*String\s*,\s*String\s*>`)

// ExtractServices returns one endpoint per marker that has an async fn
// somewhere after it. The handler is the nearest following async fn, even
// when another marker sits in between, so two markers can share a handler.
// Endpoints are returned in marker order and are not deduplicated. A handler
// without a pub qualifier is marked Private.
func ExtractServices(code string) []types.ServiceEndpoint {
	services := make([]types.ServiceEndpoint, 0)
	// Casers keep state and must not be shared between parsing goroutines.
	upper := cases.Upper(language.Und)

	for _, loc := range markerRegex.FindAllStringSubmatchIndex(code, -1) {
		rest := code[loc[1]:]
		fn := handlerRegex.FindStringSubmatch(rest)
		if fn == nil {
			continue
		}

		services = append(services, types.ServiceEndpoint{
			Method:  upper.String(code[loc[2]:loc[3]]),
			Route:   strings.ReplaceAll(code[loc[4]:loc[5]], `"`, ""),
			Handler: fn[2],
			Private: fn[1] == "",
		})
	}

	return services
}

// HasTemplateHook reports whether code declares
//
//	pub async fn template(req: HttpRequest) -> HashMap<String, String>
//
// The parameter name is free and whitespace is tolerated anywhere a Rust
// tokenizer would allow it.
func HasTemplateHook(code string) bool {
	return hookRegex.MatchString(code)
}
