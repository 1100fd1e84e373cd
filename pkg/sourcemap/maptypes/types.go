// Package maptypes defines the shared data model for mapping
// segments, lines, and the standard Source Map v3 document envelope,
// used by the vlq, linemap, builder, remap, and host packages.
package maptypes

// Segment is one generated-column anchor on a line of output.
//
// Arity distinguishes the three shapes the spec allows:
//   - 1: unmapped — only GenColDelta is meaningful.
//   - 4: mapped — GenColDelta, SrcFileIx, SrcLine, SrcCol.
//   - 5: named — as mapped, plus NameIx.
//
// In resolved form (the in-memory form used by the composer and the
// host), GenColDelta remains a delta within its line, but SrcLine and
// SrcCol are absolute. In delta form (the wire form), every field is a
// delta from its predecessor across the whole mapping stream.
type Segment struct {
	GenColDelta int
	SrcFileIx   int
	SrcLine     int
	SrcCol      int
	NameIx      int
	Arity       int
}

// Mapped reports whether the segment carries a source position.
func (s Segment) Mapped() bool { return s.Arity >= 4 }

// Named reports whether the segment carries an interned symbol name.
func (s Segment) Named() bool { return s.Arity == 5 }

// Line is an ordered sequence of segments, ordered by increasing
// generated column.
type Line []Segment

// Lines is an ordered sequence of generated lines.
type Lines []Line

// Document is the standard version-3 JSON envelope.
type Document struct {
	Version        int      `json:"version"`
	File           string   `json:"file"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}
