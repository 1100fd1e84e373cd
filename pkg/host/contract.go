// Package host implements the virtual-file host: a document registry and
// snapshot cache that bridges an editor's document store to a
// TGT-aware language service, transpiling SRC documents to synthesised
// TGT mirror documents on demand.
package host

import sm "github.com/MadAppGang/civetls/pkg/sourcemap/maptypes"

// LanguageServiceHost is the contract a TGT-aware language service
// consumes from this package. It is the Go rendering of the host
// contract a TypeScript-LanguageService-style backend expects.
type LanguageServiceHost interface {
	GetScriptFileNames() []string
	GetScriptSnapshot(path string) (Snapshot, bool)
	GetScriptVersion(path string) string
	GetProjectVersion() string
	ResolveModuleNames(names []string, containingFile string) []*Resolution
	GetMeta(path string) (FileMeta, bool)
	WriteFile(name, content string) error
}

// Snapshot is an immutable view of a file's text at some point in time.
// Implementations must be safe for concurrent reads; GetChangeRange may
// memoize its result per argument snapshot.
type Snapshot interface {
	GetText(start, end int) string
	GetLength() int
	GetChangeRange(old Snapshot) *ChangeRange
}

// ChangeRange describes the minimal edit between two snapshots: the
// generated-text span [Start, Start+Length) that was replaced, and the
// new length of that same span in the newer snapshot.
type ChangeRange struct {
	Start     int
	Length    int
	NewLength int
}

// Resolution is a resolved module reference handed back to the
// language service; ResolvedFileName always names a TGT-extension
// virtual path so the service subsequently requests its snapshot
// through this host, triggering transpilation.
type Resolution struct {
	ResolvedFileName string
	Extension        string
}

// Document is the editor-side contract: a URI, its textual content, and
// a monotonically increasing version number.
type Document struct {
	URI     string
	Text    string
	Version int
}

// CompileResult is what a transpiler returns on success.
type CompileResult struct {
	Code           string
	SourcemapLines sm.Lines
	Errors         []error
}

// CompileFunc transpiles SRC source text at path into TGT code plus a
// resolved-form source map. A non-nil returned error is treated as a
// thrown/fatal failure: the host retains the previous mirror snapshot.
// Non-fatal issues belong in CompileResult.Errors instead.
type CompileFunc func(path string, source string) (CompileResult, error)

// Transpiler registers one SRC/TGT extension pair and its compiler.
type Transpiler struct {
	SourceExt string
	TargetExt string
	Compile   CompileFunc
}
