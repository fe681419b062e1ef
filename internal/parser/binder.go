package parser

import (
	"strings"

	"github.com/dirt-web/dirt/internal/types"
)

// RouteToken is replaced by the module's route in both fragments.
const RouteToken = "$route"

// BindRoute substitutes every literal RouteToken in the code fragment (when
// present) and the markup fragment with route.
func BindRoute(content types.ModuleContent, route string) types.ModuleContent {
	bound := types.ModuleContent{
		Markup: strings.ReplaceAll(content.Markup, RouteToken, route),
	}
	if content.Code != nil {
		code := strings.ReplaceAll(*content.Code, RouteToken, route)
		bound.Code = &code
	}
	return bound
}
