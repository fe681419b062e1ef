package assembler

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/dirt-web/dirt/internal/config"
	"github.com/dirt-web/dirt/internal/errors"
	"github.com/dirt-web/dirt/internal/types"
)

// StaticMount is the URL prefix under which the asset directory is served.
const StaticMount = "/static"

// Registrable reports whether svc can be registered with App::service: its
// marker maps to a route macro and its handler is visible from the entry file.
func Registrable(svc types.ServiceEndpoint) bool {
	return RouteMacro(svc.Method) && !svc.Private
}

// RouteMacro reports whether method names an actix-web route macro.
func RouteMacro(method string) bool {
	return serviceMethods[method]
}

// serviceMethods are the markers backed by an actix-web route macro and
// therefore registrable with App::service.
var serviceMethods = map[string]bool{
	"CONNECT": true,
	"DELETE":  true,
	"GET":     true,
	"HEAD":    true,
	"OPTIONS": true,
	"PATCH":   true,
	"POST":    true,
	"PUT":     true,
	"ROUTE":   true,
	"ROUTES":  true,
	"TRACE":   true,
}

const bootstrapTemplate = `use actix_web::{web, App, HttpRequest, HttpResponse, HttpServer, Responder};
use handlebars::Handlebars;
use std::collections::HashMap;
{{range .Modules}}
async fn {{.PageFn}}(req: HttpRequest, hb: web::Data<Handlebars<'static>>) -> impl Responder {
{{- if .HasTemplateHook}}
    let data: HashMap<String, String> = {{.Name}}::template(req).await;
{{- else}}
    let _ = req;
    let data: HashMap<String, String> = HashMap::new();
{{- end}}
    match hb.render({{rust .Name}}, &data) {
        Ok(body) => HttpResponse::Ok()
            .content_type("text/html; charset=utf-8")
            .body(body),
        Err(err) => HttpResponse::InternalServerError().body(err.to_string()),
    }
}
{{end}}
#[actix_web::main]
async fn main() -> std::io::Result<()> {
    let mut handlebars = Handlebars::new();
{{- range .Modules}}
    handlebars
        .register_template_string({{rust .Name}}, include_str!({{rust .MarkupFile}}))
        .expect({{rust (printf "invalid markup in %s" .Name)}});
{{- end}}
    let handlebars = web::Data::new(handlebars);

    println!("{} listening on http://{}:{}", {{rust .AppName}}, {{rust .Host}}, {{.Port}});
    HttpServer::new(move || {
        App::new()
            .app_data(handlebars.clone())
{{- range .Modules}}
{{- $module := .Name}}
{{- range .Services}}
            .service({{$module}}::{{.Handler}})
{{- end}}
            .route({{rust .Route}}, web::get().to({{.PageFn}}))
{{- end}}
            .service(actix_files::Files::new({{rust .StaticMount}}, {{rust .StaticDir}}))
    })
    .bind(({{rust .Host}}, {{.Port}}))?
    .run()
    .await
}
`

var bootstrap = template.Must(template.New("bootstrap").
	Funcs(template.FuncMap{"rust": rustString}).
	Parse(bootstrapTemplate))

type moduleView struct {
	Name            string
	PageFn          string
	MarkupFile      string
	Route           string
	HasTemplateHook bool
	Services        []types.ServiceEndpoint
}

type bootstrapView struct {
	AppName     string
	Host        string
	Port        int
	StaticMount string
	StaticDir   string
	Modules     []moduleView
}

// RenderBootstrap renders the body of the entry file: one page handler per
// module that renders its markup, optionally fed by the module's template
// hook, plus every endpoint whose marker maps to a route macro, and the
// static asset directory. Markers without a route macro (main, dist) and
// private handlers are left out.
func RenderBootstrap(cfg *config.Config, records []*types.ModuleRecord) (string, error) {
	view := bootstrapView{
		AppName:     cfg.AppName,
		Host:        cfg.HostAddr,
		Port:        cfg.Port,
		StaticMount: StaticMount,
		StaticDir:   cfg.StaticDir,
		Modules:     make([]moduleView, 0, len(records)),
	}

	for _, record := range records {
		services := make([]types.ServiceEndpoint, 0, len(record.Services))
		seen := make(map[string]bool, len(record.Services))
		for _, svc := range record.Services {
			if !Registrable(svc) || seen[svc.Handler] {
				continue
			}
			seen[svc.Handler] = true
			services = append(services, svc)
		}

		view.Modules = append(view.Modules, moduleView{
			Name:            record.Name,
			PageFn:          "page_" + record.Name,
			MarkupFile:      record.Name + MarkupExtension,
			Route:           record.Route,
			HasTemplateHook: record.HasTemplateHook && record.HasCode(),
			Services:        services,
		})
	}

	var buf strings.Builder
	if err := bootstrap.Execute(&buf, view); err != nil {
		return "", errors.NewBuildError(errors.ErrCodeTemplate, "failed to render entry body", err).
			WithStep("render")
	}
	return buf.String(), nil
}

// rustString quotes s as a Rust string literal.
func rustString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u{%x}`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
