package parser

import (
	"testing"

	"github.com/dirt-web/dirt/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestExtractServices(t *testing.T) {
	tests := []struct {
		name string
		code string
		want []types.ServiceEndpoint
	}{
		{
			name: "single handler",
			code: "#[get(\"/hello\")]\nasync fn hello() -> impl Responder {}",
			want: []types.ServiceEndpoint{{Method: "GET", Route: "/hello", Handler: "hello", Private: true}},
		},
		{
			name: "public handler",
			code: "#[post(\"/submit\")]\npub async fn submit(body: String) -> impl Responder {}",
			want: []types.ServiceEndpoint{{Method: "POST", Route: "/submit", Handler: "submit"}},
		},
		{
			name: "restricted visibility is public",
			code: "#[put(\"/item\")]\npub(crate) async fn item() {}",
			want: []types.ServiceEndpoint{{Method: "PUT", Route: "/item", Handler: "item"}},
		},
		{
			name: "pub on an earlier item does not carry over",
			code: "#[get(\"/s\")]\npub struct S;\nasync fn s() {}",
			want: []types.ServiceEndpoint{{Method: "GET", Route: "/s", Handler: "s", Private: true}},
		},
		{
			name: "two markers share the nearest handler",
			code: "#[get(\"/a\")]\n#[post(\"/b\")]\nasync fn both() {}",
			want: []types.ServiceEndpoint{
				{Method: "GET", Route: "/a", Handler: "both", Private: true},
				{Method: "POST", Route: "/b", Handler: "both", Private: true},
			},
		},
		{
			name: "handlers in sequence",
			code: "#[get(\"/a\")] async fn a() {}\n#[delete(\"/b\")] async fn b() {}",
			want: []types.ServiceEndpoint{
				{Method: "GET", Route: "/a", Handler: "a", Private: true},
				{Method: "DELETE", Route: "/b", Handler: "b", Private: true},
			},
		},
		{
			name: "marker without a later async fn",
			code: "#[get(\"/x\")]\nfn sync_only() {}",
			want: []types.ServiceEndpoint{},
		},
		{
			name: "every quote is removed from the arguments",
			code: "#[route(\"/x\", method = \"GET\")]\nasync fn x() {}",
			want: []types.ServiceEndpoint{{Method: "ROUTE", Route: "/x, method = GET", Handler: "x", Private: true}},
		},
		{
			name: "unknown attribute is ignored",
			code: "#[derive(Debug)]\nstruct S;\nasync fn s() {}",
			want: []types.ServiceEndpoint{},
		},
		{
			name: "duplicates are kept",
			code: "#[get(\"/\")] async fn a() {}\n#[get(\"/\")] async fn a() {}",
			want: []types.ServiceEndpoint{
				{Method: "GET", Route: "/", Handler: "a", Private: true},
				{Method: "GET", Route: "/", Handler: "a", Private: true},
			},
		},
		{
			name: "no code",
			code: "",
			want: []types.ServiceEndpoint{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractServices(tt.code)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasTemplateHook(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{"canonical", "pub async fn template(req: HttpRequest) -> HashMap<String, String> {", true},
		{"compact", "pub async fn template(_r:HttpRequest)->HashMap<String,String>{", true},
		{"spread over lines", "pub async fn template(\n    req: HttpRequest\n) -> HashMap<String, String>", true},
		{"trailing comma", "pub async fn template(req: HttpRequest,) -> HashMap<String, String>", false},
		{"qualified types", "pub async fn template(req: actix_web::HttpRequest) -> std::collections::HashMap<String, String>", true},
		{"mutable parameter", "pub async fn template(mut req: HttpRequest) -> HashMap<String, String>", true},
		{"not public", "async fn template(req: HttpRequest) -> HashMap<String, String>", false},
		{"wrong return type", "pub async fn template(req: HttpRequest) -> String", false},
		{"different name", "pub async fn templates(req: HttpRequest) -> HashMap<String, String>", false},
		{"inside a comment", "// pub async fn template(req: HttpRequest) -> HashMap<String, String>", true},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasTemplateHook(tt.code))
		})
	}
}
