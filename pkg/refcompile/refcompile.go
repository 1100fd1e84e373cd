// Package refcompile is a small reference implementation of a
// host.CompileFunc, demonstrating the contract a real SRC->TGT
// transpiler plugs into pkg/host. It treats its SRC input as Go source
// text and applies one concrete rewrite rule: identifiers carrying a
// "civet_" prefix are unwrapped to their bare name, standing in for the
// kind of surface-syntax lowering a real Civet->TypeScript pass does.
//
// The rewrite is done as a byte-offset splice rather than an AST
// pretty-print so every source line keeps its original line number,
// which keeps the demo source map honest without needing a real
// generated-position tracker through go/printer's reflow.
package refcompile

import (
	"encoding/json"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"sort"
	"strings"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/MadAppGang/civetls/pkg/host"
	"github.com/MadAppGang/civetls/pkg/sourcemap"
	sm "github.com/MadAppGang/civetls/pkg/sourcemap/maptypes"
	"github.com/MadAppGang/civetls/pkg/sourcemap/remap"
)

const civetPrefix = "civet_"

// rewrite is one identifier due to be unwrapped: its byte offsets in
// the original source and its replacement text.
type rewrite struct {
	start, end int
	to         string
	pos        token.Position
}

// Compile implements host.CompileFunc. Parse errors are reported as
// CompileResult.Errors (non-fatal: the host still gets a best-effort
// mirror snapshot) unless the source fails to parse into any usable
// AST at all, in which case Compile returns a thrown error and the
// host keeps the previous mirror snapshot untouched.
func Compile(path string, source string) (host.CompileResult, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, source, parser.ParseComments)
	if file == nil || file.Package == token.NoPos {
		return host.CompileResult{}, fmt.Errorf("refcompile: %s: %w", path, err)
	}

	var nonFatal []error
	if err != nil {
		nonFatal = append(nonFatal, err)
	}

	var rewrites []rewrite
	astutil.Apply(file, func(c *astutil.Cursor) bool {
		ident, ok := c.Node().(*ast.Ident)
		if !ok || !strings.HasPrefix(ident.Name, civetPrefix) {
			return true
		}
		pos := fset.Position(ident.Pos())
		rewrites = append(rewrites, rewrite{
			start: pos.Offset,
			end:   pos.Offset + len(ident.Name),
			to:    strings.TrimPrefix(ident.Name, civetPrefix),
			pos:   pos,
		})
		return true
	}, nil)

	sort.Slice(rewrites, func(i, j int) bool { return rewrites[i].start < rewrites[j].start })

	var out strings.Builder
	cursor := 0
	for _, rw := range rewrites {
		out.WriteString(source[cursor:rw.start])
		out.WriteString(rw.to)
		cursor = rw.end
	}
	out.WriteString(source[cursor:])
	code := out.String()

	gen := sourcemap.NewGenerator(path, path+".ts")
	lineCount := strings.Count(source, "\n") + 1
	for line := 1; line <= lineCount; line++ {
		gen.AddMapping(token.Position{Line: line, Column: 0}, token.Position{Line: line, Column: 0})
	}
	for _, rw := range rewrites {
		gen.AddMappingWithName(
			token.Position{Line: rw.pos.Line, Column: rw.pos.Column - 1},
			token.Position{Line: rw.pos.Line, Column: rw.pos.Column - 1},
			rw.to,
		)
	}

	data, err := gen.Generate()
	if err != nil {
		return host.CompileResult{}, fmt.Errorf("refcompile: %s: building source map: %w", path, err)
	}

	var doc sm.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return host.CompileResult{}, fmt.Errorf("refcompile: %s: decoding source map: %w", path, err)
	}
	parsed, err := remap.ParseWithLines(doc)
	if err != nil {
		return host.CompileResult{}, fmt.Errorf("refcompile: %s: decoding source map: %w", path, err)
	}

	return host.CompileResult{
		Code:           code,
		SourcemapLines: parsed.Lines,
		Errors:         nonFatal,
	}, nil
}
