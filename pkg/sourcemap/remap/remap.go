// Package remap implements composition of upstream and downstream
// source maps, and projection of a generated position back to its
// original source position through a resolved-form map.
package remap

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	sm "github.com/MadAppGang/civetls/pkg/sourcemap/maptypes"
	"github.com/MadAppGang/civetls/pkg/sourcemap/vlq"
	"github.com/MadAppGang/civetls/pkg/sourcemap/wire"
)

// ParsedMap is a map document decoded to resolved-form lines.
type ParsedMap struct {
	Document sm.Document
	Lines    sm.Lines
}

// ParseWithLines takes an already-decoded map document, splits its
// mappings into lines and segments, decodes each segment's VLQ run,
// and converts srcLine/srcCol to absolute values by walking the wire
// order while maintaining running absolutes ACROSS the whole mapping
// (not reset per generated line — that persistence is the wire
// format's defining trait).
func ParseWithLines(doc sm.Document) (ParsedMap, error) {
	var lines sm.Lines
	srcLine, srcCol, srcFileIx, nameIx := 0, 0, 0, 0

	rawLines := strings.Split(doc.Mappings, ";")
	for _, rawLine := range rawLines {
		var line sm.Line
		if rawLine != "" {
			for _, rawSeg := range strings.Split(rawLine, ",") {
				if rawSeg == "" {
					continue
				}
				values, err := vlq.Decode(rawSeg)
				if err != nil {
					return ParsedMap{}, fmt.Errorf("remap: %w", err)
				}

				switch len(values) {
				case 1:
					line = append(line, sm.Segment{GenColDelta: values[0], Arity: 1})
				case 4, 5:
					srcFileIx += values[1]
					srcLine += values[2]
					srcCol += values[3]
					seg := sm.Segment{
						GenColDelta: values[0],
						SrcFileIx:   srcFileIx,
						SrcLine:     srcLine,
						SrcCol:      srcCol,
						Arity:       4,
					}
					if len(values) == 5 {
						nameIx += values[4]
						seg.NameIx = nameIx
						seg.Arity = 5
					}
					line = append(line, seg)
				default:
					return ParsedMap{}, fmt.Errorf("remap: segment %q has %d fields", rawSeg, len(values))
				}
			}
		}
		lines = append(lines, line)
	}

	return ParsedMap{Document: doc, Lines: lines}, nil
}

// Position is a zero-based (line, column) pair in source coordinates.
type Position struct {
	Line   int
	Column int
}

// RemapPosition looks up the source position that exactly maps to
// (line, col) in a generated file described by mapLines.
//
// Only an exact match on the generated column of the most recent
// mapped segment is returned; approximate or nearest-segment matches
// are deliberately rejected (ok=false) so a bad remap never silently
// corrupts a downstream diagnostic.
func RemapPosition(line, col int, mapLines sm.Lines) (Position, bool) {
	if line < 0 || line >= len(mapLines) || len(mapLines[line]) == 0 {
		return Position{}, false
	}

	p := 0
	var lastMapped sm.Segment
	var haveMapped bool
	var lastMappedCol int

	for _, seg := range mapLines[line] {
		p += seg.GenColDelta
		if seg.Mapped() {
			lastMapped = seg
			lastMappedCol = p
			haveMapped = true
		}
		if p >= col {
			break
		}
	}

	if !haveMapped || lastMappedCol != col {
		return Position{}, false
	}
	return Position{Line: lastMapped.SrcLine, Column: lastMapped.SrcCol}, true
}

// ComposeLines produces the composition of an upstream map (src→mid)
// with a downstream map (mid→out): each mapped/named downstream
// segment has its source position replaced by the position it remaps
// to through upstream; segments that don't land on an exact upstream
// anchor are downgraded to unmapped, preserving their GenColDelta so
// later segments on the line keep correct column accounting.
func ComposeLines(upstream, downstream sm.Lines) sm.Lines {
	composed := make(sm.Lines, len(downstream))
	for i, line := range downstream {
		var newLine sm.Line
		for _, seg := range line {
			if !seg.Mapped() {
				newLine = append(newLine, seg)
				continue
			}
			pos, ok := RemapPosition(seg.SrcLine, seg.SrcCol, upstream)
			if !ok {
				newLine = append(newLine, sm.Segment{GenColDelta: seg.GenColDelta, Arity: 1})
				continue
			}
			newSeg := seg
			newSeg.SrcLine = pos.Line
			newSeg.SrcCol = pos.Column
			newLine = append(newLine, newSeg)
		}
		composed[i] = newLine
	}
	return composed
}

// inlineCommentPattern matches a trailing inline source map comment,
// tolerating an optional charset parameter before "base64,". It
// anchors to end-of-input with optional trailing whitespace, and an
// optional preceding newline.
var inlineCommentPattern = regexp.MustCompile(
	`(?:\r?\n)?//# sourceMappingURL=data:application/json;(?:charset=[^;]+;)?base64,([+A-Za-z0-9/]*=?=?)\s*$`)

// StripInlineComment removes a trailing inline map comment from code,
// returning the code with the comment removed and the decoded map
// document, if one was present.
func StripInlineComment(code string) (stripped string, doc *sm.Document, err error) {
	loc := inlineCommentPattern.FindStringSubmatchIndex(code)
	if loc == nil {
		return code, nil, nil
	}

	payload := code[loc[2]:loc[3]]
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("remap: malformed inline map payload: %w", err)
	}

	var parsed sm.Document
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", nil, fmt.Errorf("remap: malformed inline map json: %w", err)
	}

	return code[:loc[0]], &parsed, nil
}

// BuildInlineComment renders doc as a trailing base64 data-URL comment.
// The "//" and "#" literals are kept in separate string fragments so
// this source file is never mistaken for carrying a map of its own.
func BuildInlineComment(doc sm.Document) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	prefix := "//" + "#"
	return prefix + " sourceMappingURL=data:application/json;base64," +
		base64.StdEncoding.EncodeToString(data), nil
}

// Remap strips a trailing inline map comment from codeWithMapComment,
// if present, composes its lines through upstream, mutates
// upstream.Lines in place to the composed result, and appends a fresh
// inline comment derived from the mutated upstream map.
//
// The in-place mutation of upstream is deliberate (spec §5, §9): it
// avoids reallocating the nested line/segment slices of a map that may
// already be large, at the cost of making this the one place in the
// system allowed to mutate an already-handed-off map. Callers that
// need a persistent (non-mutating) composition should copy
// upstream.Lines before calling Remap.
func Remap(codeWithMapComment string, upstream *ParsedMap, srcPath, outPath string) (string, error) {
	stripped, downstreamDoc, err := StripInlineComment(codeWithMapComment)
	if err != nil {
		return "", err
	}
	if downstreamDoc == nil {
		return codeWithMapComment, nil
	}

	downstream, err := ParseWithLines(*downstreamDoc)
	if err != nil {
		return "", err
	}

	upstream.Lines = ComposeLines(upstream.Lines, downstream.Lines)

	newDoc := upstream.Document
	newDoc.File = outPath
	if srcPath != "" {
		newDoc.Sources = []string{srcPath}
	}
	newDoc.Mappings = wire.Render(upstream.Lines)
	upstream.Document = newDoc

	comment, err := BuildInlineComment(newDoc)
	if err != nil {
		return "", err
	}
	return stripped + comment, nil
}
