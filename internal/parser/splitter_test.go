package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantCode   *string
		wantMarkup string
	}{
		{
			name:       "markup only",
			raw:        "<h1>Hi</h1>",
			wantMarkup: "<h1>Hi</h1>",
		},
		{
			name:       "code region is trimmed line by line",
			raw:        "<p>a</p>\n<rust>\n  fn x() {}\n     let y = 1;\n</rust>\n<p>b</p>",
			wantCode:   strPtr("fn x() {}\nlet y = 1;"),
			wantMarkup: "<p>a</p>\n\n<p>b</p>",
		},
		{
			name:       "comments are removed from markup",
			raw:        "<!-- header -->\n<p>x</p>",
			wantMarkup: "\n<p>x</p>",
		},
		{
			name:       "multi-line comment hides a code region",
			raw:        "<!--\n<rust>fn a() {}</rust>\n-->X",
			wantMarkup: "X",
		},
		{
			name:       "comment inside the code region",
			raw:        `<rust><!--c--> #[get("/")] async fn home(){} </rust>`,
			wantCode:   strPtr(`#[get("/")] async fn home(){}`),
			wantMarkup: "",
		},
		{
			name:       "start tag without end tag",
			raw:        "<rust>fn a() {}",
			wantMarkup: "<rust>fn a() {}",
		},
		{
			name:       "end tag before start tag",
			raw:        "</rust><rust>x",
			wantMarkup: "</rust><rust>x",
		},
		{
			name:       "only the first region is honored",
			raw:        "<rust>a</rust>mid<rust>b</rust>",
			wantCode:   strPtr("a"),
			wantMarkup: "mid<rust>b</rust>",
		},
		{
			name:       "start tag with attributes",
			raw:        `<rust lang="2021">a</rust>`,
			wantCode:   strPtr("a"),
			wantMarkup: "",
		},
		{
			name:       "similar tag name is not a delimiter",
			raw:        "<rustacean>crab</rustacean>",
			wantMarkup: "<rustacean>crab</rustacean>",
		},
		{
			name:       "empty region yields empty code",
			raw:        "<p>x</p><rust></rust>",
			wantCode:   strPtr(""),
			wantMarkup: "<p>x</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.raw)

			assert.Equal(t, tt.wantMarkup, got.Markup)
			if tt.wantCode == nil {
				assert.Nil(t, got.Code)
				assert.False(t, got.HasCode())
				return
			}
			require.NotNil(t, got.Code)
			assert.Equal(t, *tt.wantCode, *got.Code)
		})
	}
}

func TestStripComments(t *testing.T) {
	assert.Equal(t, "ab", StripComments("a<!-- one -->b"))
	assert.Equal(t, "a b c", StripComments("a <!--x-->b<!--\ny\n--> c"))
	assert.Equal(t, "a <!-- open", StripComments("a <!-- open"))
}

func strPtr(s string) *string {
	return &s
}
