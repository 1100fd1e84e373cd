package transport

import (
	"github.com/MadAppGang/civetls/pkg/sourcemap/remap"
	"go.lsp.dev/protocol"
)

// TranslatePosition maps a TGT (mirror document) position back to its
// SRC position through the host's most recent map for srcPath. It
// returns ok=false for an unmapped or out-of-range position — exact
// anchor match only, never a nearest-match guess.
func (s *Server) TranslatePosition(srcPath string, genLine, genCol int) (line, col int, ok bool) {
	meta, hasMeta := s.config.Host.GetMeta(srcPath)
	if !hasMeta || len(meta.SourcemapLines) == 0 {
		return 0, 0, false
	}

	pos, found := remap.RemapPosition(genLine, genCol, meta.SourcemapLines)
	if !found {
		return 0, 0, false
	}
	return pos.Line, pos.Column, true
}

// TranslateDiagnostics maps a batch of TGT-file diagnostics back onto
// srcPath, dropping any whose range doesn't resolve to an exact
// mapping anchor rather than guessing a nearby position.
func (s *Server) TranslateDiagnostics(srcPath string, diagnostics []protocol.Diagnostic) []protocol.Diagnostic {
	translated := make([]protocol.Diagnostic, 0, len(diagnostics))

	for _, diag := range diagnostics {
		startLine, startCol, ok := s.TranslatePosition(srcPath, int(diag.Range.Start.Line), int(diag.Range.Start.Character))
		if !ok {
			continue
		}
		endLine, endCol, ok := s.TranslatePosition(srcPath, int(diag.Range.End.Line), int(diag.Range.End.Character))
		if !ok {
			endLine, endCol = startLine, startCol
		}

		diag.Range = protocol.Range{
			Start: protocol.Position{Line: uint32(startLine), Character: uint32(startCol)},
			End:   protocol.Position{Line: uint32(endLine), Character: uint32(endCol)},
		}
		translated = append(translated, diag)
	}

	return translated
}
