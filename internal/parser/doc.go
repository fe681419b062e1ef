// Package parser turns hybrid .rsr source files into module records.
//
// A hybrid file is free-form markup with at most one embedded code region:
//
//	<h1>Hello</h1>
//	<rust>
//	#[get("/hello")]
//	async fn hello() -> impl Responder { "hi" }
//	</rust>
//
// Parsing one file runs four steps in order: Split separates the code region
// from the markup after stripping <!-- --> comments, BindRoute substitutes the
// $route token, ExtractServices finds handler declarations and HasTemplateHook
// looks for the template data function. None of these steps can fail; only
// reading the file can, and a file that cannot be read is dropped from the
// batch rather than aborting it.
//
// Code inspection is pattern matching over a fixed grammar subset, not a Rust
// parser. Markers inside comments or string literals are matched too.
package parser
