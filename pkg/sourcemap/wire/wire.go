// Package wire renders resolved-form map lines to the ';'/','-separated
// base64-VLQ mappings string shared by the builder and remap packages.
package wire

import (
	"strings"

	sm "github.com/MadAppGang/civetls/pkg/sourcemap/maptypes"
	"github.com/MadAppGang/civetls/pkg/sourcemap/vlq"
)

// Render serializes resolved-form lines, maintaining running absolute
// source positions across the entire mapping rather than resetting per
// generated line.
func Render(lines sm.Lines) string {
	var out strings.Builder
	lastSrcFileIx, lastSrcLine, lastSrcCol, lastNameIx := 0, 0, 0, 0

	for li, line := range lines {
		if li > 0 {
			out.WriteByte(';')
		}
		for si, seg := range line {
			if si > 0 {
				out.WriteByte(',')
			}
			if seg.Mapped() {
				fileDelta := seg.SrcFileIx - lastSrcFileIx
				lineDelta := seg.SrcLine - lastSrcLine
				colDelta := seg.SrcCol - lastSrcCol
				lastSrcFileIx = seg.SrcFileIx
				lastSrcLine = seg.SrcLine
				lastSrcCol = seg.SrcCol

				values := []int{seg.GenColDelta, fileDelta, lineDelta, colDelta}
				if seg.Named() {
					nameDelta := seg.NameIx - lastNameIx
					lastNameIx = seg.NameIx
					values = append(values, nameDelta)
				}
				out.WriteString(vlq.EncodeSegment(values))
			} else {
				out.WriteString(vlq.Encode(seg.GenColDelta))
			}
		}
	}
	return out.String()
}
