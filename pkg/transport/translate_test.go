package transport

import (
	"testing"

	"github.com/MadAppGang/civetls/pkg/host"
	"github.com/MadAppGang/civetls/pkg/logging"
	sm "github.com/MadAppGang/civetls/pkg/sourcemap/maptypes"
	"go.lsp.dev/protocol"
)

// echoCompile produces a mirror with a single mapped segment per call,
// anchoring generated (0,0) to source (line, col).
func echoCompile(srcLine, srcCol int) host.CompileFunc {
	return func(path, source string) (host.CompileResult, error) {
		return host.CompileResult{
			Code: source,
			SourcemapLines: sm.Lines{
				sm.Line{{GenColDelta: 0, SrcLine: srcLine, SrcCol: srcCol, Arity: 4}},
			},
		}, nil
	}
}

func newTestServer(compile host.CompileFunc) *Server {
	h := host.New([]host.Transpiler{{SourceExt: ".civet", TargetExt: ".ts", Compile: compile}}, host.ResolutionConfig{})
	h.AddOrUpdateDocument(host.Document{URI: "main.civet", Text: "x = 1", Version: 1})
	// force a transpile so GetMeta has something to return.
	h.GetScriptSnapshot("main.civet.ts")
	return NewServer(ServerConfig{Logger: logging.Nop(), Host: h})
}

func TestTranslatePositionExactMatch(t *testing.T) {
	s := newTestServer(echoCompile(3, 7))

	line, col, ok := s.TranslatePosition("main.civet", 0, 0)
	if !ok {
		t.Fatal("expected an exact mapping anchor at generated 0,0")
	}
	if line != 3 || col != 7 {
		t.Errorf("got (%d,%d), want (3,7)", line, col)
	}
}

func TestTranslatePositionNoAnchor(t *testing.T) {
	s := newTestServer(echoCompile(3, 7))

	_, _, ok := s.TranslatePosition("main.civet", 0, 5)
	if ok {
		t.Error("expected no match for a column with no mapped anchor")
	}
}

func TestTranslatePositionUnknownFile(t *testing.T) {
	s := newTestServer(echoCompile(0, 0))

	_, _, ok := s.TranslatePosition("nope.civet", 0, 0)
	if ok {
		t.Error("expected no match for a file the host has no metadata for")
	}
}

func TestTranslateDiagnosticsDropsUnmapped(t *testing.T) {
	s := newTestServer(echoCompile(2, 4))

	diags := []protocol.Diagnostic{
		{
			Range: protocol.Range{
				Start: protocol.Position{Line: 0, Character: 0},
				End:   protocol.Position{Line: 0, Character: 0},
			},
			Message: "mapped",
		},
		{
			Range: protocol.Range{
				Start: protocol.Position{Line: 9, Character: 9},
				End:   protocol.Position{Line: 9, Character: 9},
			},
			Message: "unmapped",
		},
	}

	out := s.TranslateDiagnostics("main.civet", diags)
	if len(out) != 1 {
		t.Fatalf("expected exactly one surviving diagnostic, got %d", len(out))
	}
	if out[0].Message != "mapped" {
		t.Errorf("expected the mapped diagnostic to survive, got %q", out[0].Message)
	}
	if out[0].Range.Start.Line != 2 || out[0].Range.Start.Character != 4 {
		t.Errorf("expected translated range (2,4), got (%d,%d)", out[0].Range.Start.Line, out[0].Range.Start.Character)
	}
}
