package remap

import (
	"testing"

	"github.com/stretchr/testify/require"

	sm "github.com/MadAppGang/civetls/pkg/sourcemap/maptypes"
)

func lines(ls ...sm.Line) sm.Lines { return sm.Lines(ls) }

func TestRemapPositionExactMatch(t *testing.T) {
	ls := lines(sm.Line{
		{GenColDelta: 0, SrcFileIx: 0, SrcLine: 10, SrcCol: 4, Arity: 4},
	})
	pos, ok := RemapPosition(0, 0, ls)
	require.True(t, ok)
	require.Equal(t, Position{Line: 10, Column: 4}, pos)
}

func TestRemapPositionInexactRejected(t *testing.T) {
	// anchors at generated columns 0 (mapped to (10,4)) and 5 (unmapped)
	ls := lines(sm.Line{
		{GenColDelta: 0, SrcFileIx: 0, SrcLine: 10, SrcCol: 4, Arity: 4},
		{GenColDelta: 5, Arity: 1},
	})
	_, ok := RemapPosition(0, 3, ls)
	require.False(t, ok)
}

func TestRemapPositionMissingLine(t *testing.T) {
	_, ok := RemapPosition(5, 0, sm.Lines{})
	require.False(t, ok)
}

func TestComposeLinesBasic(t *testing.T) {
	// upstream maps (0,0) <-> (5,2)
	upstream := lines(sm.Line{
		{GenColDelta: 0, SrcFileIx: 0, SrcLine: 5, SrcCol: 2, Arity: 4},
	})
	// downstream has a segment pointing at (0,0)
	downstream := lines(sm.Line{
		{GenColDelta: 0, SrcFileIx: 0, SrcLine: 0, SrcCol: 0, Arity: 4},
	})

	composed := ComposeLines(upstream, downstream)
	require.Len(t, composed, 1)
	require.Equal(t, 5, composed[0][0].SrcLine)
	require.Equal(t, 2, composed[0][0].SrcCol)
}

func TestComposeLinesDowngradesInexactMatch(t *testing.T) {
	upstream := lines(sm.Line{
		{GenColDelta: 0, SrcFileIx: 0, SrcLine: 5, SrcCol: 2, Arity: 4},
		{GenColDelta: 5, Arity: 1},
	})
	downstream := lines(sm.Line{
		{GenColDelta: 3, SrcFileIx: 0, SrcLine: 0, SrcCol: 3, Arity: 4},
	})

	composed := ComposeLines(upstream, downstream)
	require.Len(t, composed, 1)
	require.Equal(t, 1, composed[0][0].Arity, "inexact remap must downgrade to unmapped")
	require.Equal(t, 3, composed[0][0].GenColDelta, "generated column accounting must be preserved")
}

func TestComposeAssociativityAtMappedAnchors(t *testing.T) {
	// A: src -> mid, B: mid -> out. Anchor x in B maps exactly through A.
	a := lines(sm.Line{
		{GenColDelta: 0, SrcFileIx: 0, SrcLine: 100, SrcCol: 1, Arity: 4},
	})
	b := lines(sm.Line{
		{GenColDelta: 2, SrcFileIx: 0, SrcLine: 0, SrcCol: 0, Arity: 4},
	})

	composedAB := ComposeLines(a, b)
	viaComposed, ok1 := RemapPosition(0, 2, composedAB)
	require.True(t, ok1)

	viaStep, ok2 := RemapPosition(0, 2, b)
	require.True(t, ok2)
	viaStep2, ok3 := RemapPosition(viaStep.Line, viaStep.Column, a)
	require.True(t, ok3)

	require.Equal(t, viaStep2, viaComposed)
}

func TestParseWithLinesRoundTrip(t *testing.T) {
	doc := sm.Document{
		Version:  3,
		File:     "out.js",
		Sources:  []string{"in.src"},
		Names:    []string{},
		Mappings: "AAAA,CAAC;AACA",
	}
	parsed, err := ParseWithLines(doc)
	require.NoError(t, err)
	require.Len(t, parsed.Lines, 2)
	require.Len(t, parsed.Lines[0], 2)
	require.Len(t, parsed.Lines[1], 1)
}

func TestParseWithLinesMalformedArity(t *testing.T) {
	doc := sm.Document{Mappings: "AA"} // 2-field segment: malformed
	_, err := ParseWithLines(doc)
	require.Error(t, err)
}

func TestStripInlineCommentRoundTrip(t *testing.T) {
	doc := sm.Document{Version: 3, File: "a.out", Sources: []string{"a.src"}, Names: []string{}, Mappings: "AAAA"}
	comment, err := BuildInlineComment(doc)
	require.NoError(t, err)

	code := "var x = 1;\n" + comment
	stripped, parsedDoc, err := StripInlineComment(code)
	require.NoError(t, err)
	require.NotNil(t, parsedDoc)
	require.Equal(t, "var x = 1;", stripped)
	require.Equal(t, doc.Mappings, parsedDoc.Mappings)
}

func TestStripInlineCommentToleratesCharset(t *testing.T) {
	doc := sm.Document{Version: 3, Mappings: "AAAA"}
	data, _ := BuildInlineComment(doc)
	// Inject a charset parameter as the spec says parse must tolerate.
	withCharset := "//# sourceMappingURL=data:application/json;charset=utf-8;base64," +
		data[len("//# sourceMappingURL=data:application/json;base64,"):]

	_, parsedDoc, err := StripInlineComment("code\n" + withCharset)
	require.NoError(t, err)
	require.NotNil(t, parsedDoc)
}

func TestStripInlineCommentAbsentReturnsNil(t *testing.T) {
	stripped, doc, err := StripInlineComment("plain code, no map")
	require.NoError(t, err)
	require.Nil(t, doc)
	require.Equal(t, "plain code, no map", stripped)
}

func TestRemapMutatesUpstreamInPlace(t *testing.T) {
	upstreamDoc := sm.Document{
		Version: 3, File: "mid.js", Sources: []string{"orig.src"}, Names: []string{},
		Mappings: "AAAA", // (0,0,0,0)
	}
	upstream, err := ParseWithLines(upstreamDoc)
	require.NoError(t, err)

	downstreamDoc := sm.Document{
		Version: 3, File: "out.js", Sources: []string{"mid.js"}, Names: []string{},
		Mappings: "AAAA",
	}
	downstreamComment, err := BuildInlineComment(downstreamDoc)
	require.NoError(t, err)

	code := "out code\n" + downstreamComment
	rewritten, err := Remap(code, &upstream, "orig.src", "final.out")
	require.NoError(t, err)
	require.Contains(t, rewritten, "out code")
	require.Equal(t, "final.out", upstream.Document.File)
	require.Equal(t, []string{"orig.src"}, upstream.Document.Sources)
}
