package validation

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MarkupIssue is one structural problem found in a markup fragment.
type MarkupIssue struct {
	Line    int
	Message string
}

func (i MarkupIssue) String() string {
	return fmt.Sprintf("line %d: %s", i.Line, i.Message)
}

var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Link: true, atom.Meta: true, atom.Source: true, atom.Track: true,
	atom.Wbr: true,
}

type openTag struct {
	name string
	line int
}

// CheckMarkup tokenizes a markup fragment and reports unbalanced elements.
// It is a lint, not a validator: handlebars expressions and unknown elements
// pass through untouched.
func CheckMarkup(markup string) []MarkupIssue {
	var (
		issues []MarkupIssue
		stack  []openTag
		line   = 1
	)

	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		tt := z.Next()
		raw := string(z.Raw())
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				issues = append(issues, MarkupIssue{Line: line, Message: z.Err().Error()})
			}
			break
		}

		switch tt {
		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if !voidElements[atom.Lookup(name)] {
				stack = append(stack, openTag{name: tag, line: line})
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if voidElements[atom.Lookup(name)] {
				break
			}
			idx := -1
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].name == tag {
					idx = i
					break
				}
			}
			if idx == -1 {
				issues = append(issues, MarkupIssue{Line: line, Message: fmt.Sprintf("unexpected closing tag </%s>", tag)})
				break
			}
			for _, unclosed := range stack[idx+1:] {
				issues = append(issues, MarkupIssue{Line: unclosed.line, Message: fmt.Sprintf("<%s> is not closed before </%s>", unclosed.name, tag)})
			}
			stack = stack[:idx]
		}

		line += strings.Count(raw, "\n")
	}

	for _, unclosed := range stack {
		if unclosed.name == "html" || unclosed.name == "body" || unclosed.name == "head" {
			continue
		}
		issues = append(issues, MarkupIssue{Line: unclosed.line, Message: fmt.Sprintf("<%s> is never closed", unclosed.name)})
	}

	return issues
}
