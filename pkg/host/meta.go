package host

import sm "github.com/MadAppGang/civetls/pkg/sourcemap/maptypes"

// FileMeta is the per-path metadata produced by the most recent
// transpile attempt for a SRC file: its resolved-form map lines, the
// full map document (for serialization to a client), any non-fatal
// parse errors, and whether the attempt failed outright.
type FileMeta struct {
	SourcemapLines sm.Lines
	TranspiledDoc  *sm.Document
	ParseErrors    []error
	Fatal          bool
}
