// Package sourcemap generates and consumes Source Map v3 documents for a
// SRC→TGT transpilation, sitting on top of the lower-level vlq, linemap,
// builder and remap packages.
package sourcemap

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"go/token"
	"sort"

	sm "github.com/MadAppGang/civetls/pkg/sourcemap/maptypes"
	"github.com/MadAppGang/civetls/pkg/sourcemap/remap"
	"github.com/MadAppGang/civetls/pkg/sourcemap/wire"
)

// Generator collects position mappings during transpilation and generates
// a Source Map v3 document from them.
type Generator struct {
	sourceFile string
	genFile    string
	mappings   []Mapping
}

// Mapping represents a single position mapping from source to generated code.
// Lines are 1-based, as in token.Position; columns are 0-based offsets
// (one less than token.Position's 1-based Column). The generator shifts
// lines to 0-based before encoding and uses columns as given.
type Mapping struct {
	SourceLine   int
	SourceColumn int

	GenLine   int
	GenColumn int

	// Name, when set, is the identifier this mapping points at.
	Name string
}

// NewGenerator creates a new source map generator.
func NewGenerator(sourceFile, genFile string) *Generator {
	return &Generator{
		sourceFile: sourceFile,
		genFile:    genFile,
		mappings:   make([]Mapping, 0),
	}
}

// AddMapping records a position mapping from source to generated code.
func (g *Generator) AddMapping(src, gen token.Position) {
	g.mappings = append(g.mappings, Mapping{
		SourceLine:   src.Line,
		SourceColumn: src.Column,
		GenLine:      gen.Line,
		GenColumn:    gen.Column,
	})
}

// AddMappingWithName records a position mapping with an identifier name.
func (g *Generator) AddMappingWithName(src, gen token.Position, name string) {
	g.mappings = append(g.mappings, Mapping{
		SourceLine:   src.Line,
		SourceColumn: src.Column,
		GenLine:      gen.Line,
		GenColumn:    gen.Column,
		Name:         name,
	})
}

// Generate builds the resolved-form lines from the recorded mappings and
// serializes them to a Source Map v3 JSON document, VLQ-encoding the
// mappings field via the wire package.
func (g *Generator) Generate() ([]byte, error) {
	names := g.collectNames()
	nameIndex := make(map[string]int, len(names))
	for i, n := range names {
		nameIndex[n] = i
	}

	doc := sm.Document{
		Version:  3,
		File:     g.genFile,
		Sources:  []string{g.sourceFile},
		Names:    names,
		Mappings: wire.Render(g.resolvedLines(nameIndex)),
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal source map: %w", err)
	}
	return data, nil
}

// resolvedLines converts the recorded token.Position mappings (1-based
// line, arbitrary column) into resolved-form sm.Lines (0-based throughout),
// one Line per distinct generated line, sorted by generated column within
// each line so GenColDelta accumulates correctly.
func (g *Generator) resolvedLines(nameIndex map[string]int) sm.Lines {
	maxGenLine := 0
	for _, m := range g.mappings {
		if m.GenLine > maxGenLine {
			maxGenLine = m.GenLine
		}
	}
	if maxGenLine == 0 {
		return nil
	}

	byLine := make([]Mapping, len(g.mappings))
	copy(byLine, g.mappings)
	sort.SliceStable(byLine, func(i, j int) bool {
		if byLine[i].GenLine != byLine[j].GenLine {
			return byLine[i].GenLine < byLine[j].GenLine
		}
		return byLine[i].GenColumn < byLine[j].GenColumn
	})

	lines := make(sm.Lines, maxGenLine)
	for i := range lines {
		lines[i] = sm.Line{}
	}

	lastGenCol := make([]int, maxGenLine)
	for _, m := range byLine {
		lineIx := m.GenLine - 1
		delta := m.GenColumn - lastGenCol[lineIx]
		lastGenCol[lineIx] = m.GenColumn

		seg := sm.Segment{
			GenColDelta: delta,
			SrcFileIx:   0,
			SrcLine:     m.SourceLine - 1,
			SrcCol:      m.SourceColumn,
			Arity:       4,
		}
		if m.Name != "" {
			seg.NameIx = nameIndex[m.Name]
			seg.Arity = 5
		}
		lines[lineIx] = append(lines[lineIx], seg)
	}
	return lines
}

// GenerateInline creates a base64-encoded inline source map comment.
func (g *Generator) GenerateInline() (string, error) {
	data, err := g.Generate()
	if err != nil {
		return "", err
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	return fmt.Sprintf("//# sourceMappingURL=data:application/json;base64,%s", encoded), nil
}

// collectNames extracts unique identifier names from mappings, preserving
// first-seen order (so NameIx assignment in resolvedLines is stable).
func (g *Generator) collectNames() []string {
	nameSet := make(map[string]bool)
	names := make([]string, 0)

	for _, m := range g.mappings {
		if m.Name != "" && !nameSet[m.Name] {
			nameSet[m.Name] = true
			names = append(names, m.Name)
		}
	}

	return names
}

// Consumer provides source map lookup functionality over a parsed Source
// Map v3 document, backed by the remap package's exact-match projection.
type Consumer struct {
	parsed remap.ParsedMap
}

// NewConsumer creates a source map consumer from raw source map JSON.
func NewConsumer(data []byte) (*Consumer, error) {
	var doc sm.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse source map: %w", err)
	}

	parsed, err := remap.ParseWithLines(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode source map mappings: %w", err)
	}

	return &Consumer{parsed: parsed}, nil
}

// Source looks up the original source position for a generated position.
// line and column follow token.Position convention (1-based line).
func (c *Consumer) Source(line, column int) (*token.Position, error) {
	pos, ok := remap.RemapPosition(line-1, column, c.parsed.Lines)
	if !ok {
		return nil, fmt.Errorf("no mapping found for position %d:%d", line, column)
	}

	file := ""
	if pos.Line >= 0 && len(c.parsed.Document.Sources) > 0 {
		file = c.parsed.Document.Sources[0]
	}

	return &token.Position{
		Filename: file,
		Line:     pos.Line + 1,
		Column:   pos.Column,
	}, nil
}
