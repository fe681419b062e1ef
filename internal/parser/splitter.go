package parser

import (
	"regexp"
	"strings"

	"github.com/dirt-web/dirt/internal/types"
)

var (
	commentRegex  = regexp.MustCompile(`(?s)<!--.*?-->`)
	startTagRegex = regexp.MustCompile(`<rust(?:\s[^>]*)?>`)
	endTagRegex   = regexp.MustCompile(`</rust>`)
)

// StripComments removes every <!-- ... --> span, including multi-line ones.
func StripComments(raw string) string {
	return commentRegex.ReplaceAllString(raw, "")
}

// Split separates a hybrid file into its code and markup fragments. Only the
// first <rust> tag and the first </rust> after it are honored. When either is
// missing the whole comment-stripped text is markup.
func Split(raw string) types.ModuleContent {
	content := StripComments(raw)

	start := startTagRegex.FindStringIndex(content)
	if start == nil {
		return types.ModuleContent{Markup: content}
	}

	end := endTagRegex.FindStringIndex(content[start[1]:])
	if end == nil {
		return types.ModuleContent{Markup: content}
	}
	endStart := start[1] + end[0]
	endStop := start[1] + end[1]

	code := trimLines(content[start[1]:endStart])
	markup := content[:start[0]] + content[endStop:]

	return types.ModuleContent{
		Code:   &code,
		Markup: markup,
	}
}

// trimLines trims the region, then each of its lines, and joins them with \n.
func trimLines(region string) string {
	lines := strings.Split(strings.TrimSpace(region), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}
