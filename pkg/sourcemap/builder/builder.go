// Package builder accumulates resolved-form mapping segments while a
// transpiler emits output, and serializes the accumulated map to the
// Source Map v3 wire format.
package builder

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	sm "github.com/MadAppGang/civetls/pkg/sourcemap/maptypes"
	"github.com/MadAppGang/civetls/pkg/sourcemap/linemap"
	"github.com/MadAppGang/civetls/pkg/sourcemap/wire"
)

// newlineSplitter matches any of the three line-terminator conventions.
func splitLines(s string) []string {
	// Splitting on "\r\n", "\r", and "\n" without a regexp keeps this
	// on the hot path of Update, which runs once per emitted fragment.
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}

// Builder owns the incremental state of one map under construction: the
// lines of resolved segments emitted so far, the current generated line
// with the column distance from the last fragment's start on it (the
// next segment's GenColDelta), and the cursor into the source being
// transpiled.
type Builder struct {
	source string
	table  linemap.Table

	lines    sm.Lines
	genLine  int
	colOff   int
	srcLine  int
	srcCol   int
}

// New creates a builder over the given source text, building its
// location table once up front.
func New(source string) *Builder {
	return &Builder{
		source: source,
		table:  linemap.Build(source),
		lines:  sm.Lines{{}},
	}
}

// FromLines wraps an already-resolved set of lines without rebuilding a
// location table. Used when a map is constructed from a composition
// result rather than from a live transpile (the builder is then a
// read-only view; Update must not be called on it).
func FromLines(lines sm.Lines, source string) *Builder {
	return &Builder{source: source, lines: lines}
}

// Lines returns the resolved-form lines accumulated so far.
func (b *Builder) Lines() sm.Lines { return b.lines }

// Update records one emitted output fragment. inputPos, when >= 0, is
// the byte offset into the builder's source string that this fragment
// corresponds to; colOffset is added to the resolved source column.
func (b *Builder) Update(outputChunk string, inputPos int, colOffset int) {
	if inputPos >= 0 {
		line, col := linemap.Lookup(b.table, inputPos)
		b.srcLine = line
		b.srcCol = col + colOffset
	}

	subLines := splitLines(outputChunk)
	for i, sub := range subLines {
		if i > 0 {
			b.genLine++
			b.lines = append(b.lines, sm.Line{})
			b.srcLine++
			b.colOff = 0
			b.srcCol = colOffset
		}

		segColDelta := b.colOff
		b.colOff = len(sub)
		b.srcCol += len(sub)

		if len(sub) == 0 && segColDelta == 0 {
			continue
		}

		if inputPos >= 0 {
			b.appendSegment(sm.Segment{
				GenColDelta: segColDelta,
				SrcFileIx:   0,
				SrcLine:     b.srcLine,
				SrcCol:      b.srcCol - len(sub),
				Arity:       4,
			})
		} else if segColDelta != 0 {
			b.appendSegment(sm.Segment{GenColDelta: segColDelta, Arity: 1})
		}
	}
}

func (b *Builder) appendSegment(seg sm.Segment) {
	b.lines[len(b.lines)-1] = append(b.lines[len(b.lines)-1], seg)
}

// Render serializes this builder's accumulated lines to the
// ';'/','-separated base64-VLQ wire format.
func (b *Builder) Render() string { return wire.Render(b.lines) }

// ToJSON assembles the standard Source Map v3 envelope.
func (b *Builder) ToJSON(srcName, outName string) sm.Document {
	return sm.Document{
		Version:        3,
		File:           outName,
		Sources:        []string{srcName},
		SourcesContent: []string{b.source},
		Names:          []string{},
		Mappings:       b.Render(),
	}
}

// InlineComment renders srcName/outName's map as a trailing base64
// data-URL comment. The "//" and "#" literals are kept in separate
// fragments so this source file is never mistaken for carrying a map
// of its own.
func (b *Builder) InlineComment(srcName, outName string) (string, error) {
	doc := b.ToJSON(srcName, outName)
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	prefix := "//" + "#"
	return prefix + " sourceMappingURL=data:application/json;base64," +
		base64.StdEncoding.EncodeToString(data), nil
}
