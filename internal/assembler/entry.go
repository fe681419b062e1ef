package assembler

import (
	"strings"

	"github.com/dirt-web/dirt/internal/types"
)

// EntryFileName is the generated program entry inside the source directory.
const EntryFileName = "main.rs"

// Declarations returns one module declaration per record and then per
// auxiliary source, in the given order. Records without code are declared
// as empty inline modules since no source file is written for them.
func Declarations(records []*types.ModuleRecord, aux []types.AuxiliarySource) string {
	var b strings.Builder
	for _, record := range records {
		b.WriteString("mod ")
		b.WriteString(record.Name)
		if record.HasCode() {
			b.WriteString(";\n")
		} else {
			b.WriteString(" {}\n")
		}
	}
	for _, src := range aux {
		b.WriteString("mod ")
		b.WriteString(src.Name)
		b.WriteString(";\n")
	}
	return b.String()
}

// EntryFile is the full content of the entry file: declarations, a blank
// line, then body.
func EntryFile(records []*types.ModuleRecord, aux []types.AuxiliarySource, body string) string {
	decls := Declarations(records, aux)
	if decls == "" {
		return body
	}
	return decls + "\n" + body
}
