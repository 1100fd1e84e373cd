package host

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	sm "github.com/MadAppGang/civetls/pkg/sourcemap/maptypes"
	"github.com/MadAppGang/civetls/pkg/sourcemap/wire"
)

// NotifyFunc is an optional post-invalidation hook a transport layer
// can install to forward a changed-files notification to a connected
// client. The host's cache coherence never depends on it being set.
type NotifyFunc func(path string)

// Host is the virtual-file host: it owns the document registry, the
// snapshot cache, per-file metadata, and the project-version counter,
// all behind a single mutex, matching spec's single-threaded
// cooperative scheduling model generalized to protect the whole host
// rather than one field at a time.
type Host struct {
	mu sync.Mutex

	scriptFileNames map[string]struct{}
	fileMetaData    map[string]FileMeta
	pathMap         map[string]Document
	snapshotMap     map[string]Snapshot
	projectVersion  int

	transpilers []Transpiler
	resolution  ResolutionConfig
	native      NativeResolveFunc
	notify      NotifyFunc
}

// New creates an empty host registered with the given transpilers and
// module-resolution configuration.
func New(transpilers []Transpiler, resolution ResolutionConfig) *Host {
	return &Host{
		scriptFileNames: make(map[string]struct{}),
		fileMetaData:    make(map[string]FileMeta),
		pathMap:         make(map[string]Document),
		snapshotMap:     make(map[string]Snapshot),
		transpilers:     transpilers,
		resolution:      resolution,
	}
}

// SetNativeResolver installs the TGT service's own resolver, tried
// before the host's custom module resolution logic.
func (h *Host) SetNativeResolver(fn NativeResolveFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.native = fn
}

// SetNotifyFunc installs an optional hook called after a document
// update invalidates its snapshot, e.g. to forward
// workspace/didChangeWatchedFiles to a connected client.
func (h *Host) SetNotifyFunc(fn NotifyFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notify = fn
}

func canonical(path string) string {
	return filepath.Clean(filepath.FromSlash(path))
}

func (h *Host) transpilerForSource(path string) (Transpiler, bool) {
	for _, t := range h.transpilers {
		if strings.HasSuffix(path, t.SourceExt) {
			return t, true
		}
	}
	return Transpiler{}, false
}

// HasTranspilerFor reports whether path carries an extension this host
// knows how to transpile.
func (h *Host) HasTranspilerFor(path string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.transpilerForSource(canonical(path))
	return ok
}

func mirrorPath(srcPath string, t Transpiler) string {
	return srcPath + t.TargetExt
}

// matchMirror reports whether path's last two extensions match some
// registered transpiler's (sourceExt, targetExt) pair, per spec's
// "inspect the path's last two extensions" mirror detection.
func (h *Host) matchMirror(path string) (Transpiler, string, bool) {
	for _, t := range h.transpilers {
		suffix := t.SourceExt + t.TargetExt
		if strings.HasSuffix(path, suffix) {
			return t, strings.TrimSuffix(path, t.TargetExt), true
		}
	}
	return Transpiler{}, "", false
}

// AddOrUpdateDocument records an editor-side document update: it
// purges any cached snapshot, bumps the project version, and — for a
// SRC document — ensures a placeholder mirror document exists without
// ever exposing the SRC path itself to the language service.
func (h *Host) AddOrUpdateDocument(doc Document) {
	path := canonical(doc.URI)

	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.snapshotMap, path)
	h.projectVersion++

	if t, ok := h.transpilerForSource(path); ok {
		mirror := mirrorPath(path, t)
		if _, exists := h.pathMap[mirror]; !exists {
			h.pathMap[mirror] = Document{URI: mirror, Text: "", Version: -1}
		}
		delete(h.snapshotMap, mirror)
		h.pathMap[path] = doc
	} else {
		_, existed := h.pathMap[path]
		h.pathMap[path] = doc
		if !existed {
			h.scriptFileNames[path] = struct{}{}
		}
	}

	if h.notify != nil {
		h.notify(path)
	}
}

// GetScriptSnapshot returns the cached or freshly built snapshot for
// path, transpiling on demand for a mirror path.
func (h *Host) GetScriptSnapshot(path string) (Snapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.getOrCreateSnapshotLocked(canonical(path))
}

func (h *Host) getOrCreateSnapshotLocked(path string) (Snapshot, bool) {
	if snap, ok := h.snapshotMap[path]; ok {
		return snap, true
	}

	if t, srcPath, ok := h.matchMirror(path); ok {
		return h.getOrCreateMirrorSnapshotLocked(path, srcPath, t)
	}

	doc, hasDoc := h.pathMap[path]
	var text string
	if hasDoc {
		text = doc.Text
	} else if data, err := os.ReadFile(path); err == nil {
		text = string(data)
	}

	snap := newSnapshot(text)
	h.snapshotMap[path] = snap
	return snap, true
}

func (h *Host) getOrCreateMirrorSnapshotLocked(mirror, srcPath string, t Transpiler) (Snapshot, bool) {
	sourceDoc, hasSrcDoc := h.pathMap[srcPath]
	sourceText, sourceVersion := "", 0
	if hasSrcDoc {
		sourceText, sourceVersion = sourceDoc.Text, sourceDoc.Version
	} else if data, err := os.ReadFile(srcPath); err == nil {
		sourceText = string(data)
	}

	mirrorDoc, hasMirrorDoc := h.pathMap[mirror]
	if !hasMirrorDoc {
		mirrorDoc = Document{URI: mirror, Text: "", Version: -1}
	}

	if sourceVersion > mirrorDoc.Version {
		result, err := t.Compile(srcPath, sourceText)
		if err != nil {
			h.fileMetaData[srcPath] = FileMeta{Fatal: true, ParseErrors: []error{err}}
		} else {
			mirrorDoc = Document{URI: mirror, Text: result.Code, Version: sourceVersion}
			h.pathMap[mirror] = mirrorDoc

			var tgtDoc *sm.Document
			if len(result.SourcemapLines) > 0 {
				d := sm.Document{Version: 3, File: mirror, Sources: []string{srcPath}, Names: []string{},
					Mappings: wire.Render(result.SourcemapLines)}
				tgtDoc = &d
			}
			h.fileMetaData[srcPath] = FileMeta{
				SourcemapLines: result.SourcemapLines,
				TranspiledDoc:  tgtDoc,
				ParseErrors:    result.Errors,
				Fatal:          false,
			}

			snap := newSnapshot(result.Code)
			h.snapshotMap[mirror] = snap
			return snap, true
		}
	}

	if snap, ok := h.snapshotMap[mirror]; ok {
		return snap, true
	}
	snap := newSnapshot(mirrorDoc.Text)
	h.snapshotMap[mirror] = snap
	if !hasMirrorDoc {
		h.pathMap[mirror] = mirrorDoc
	}
	return snap, true
}

// GetScriptVersion returns the editor document's version as a string,
// or "0" if the host holds no document at path.
func (h *Host) GetScriptVersion(path string) string {
	return strconv.Itoa(h.GetScriptVersionInt(path))
}

// GetScriptVersionInt is GetScriptVersion without the string
// conversion, used internally (e.g. by the filesystem watcher) to
// compute the next version number.
func (h *Host) GetScriptVersionInt(path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if doc, ok := h.pathMap[canonical(path)]; ok {
		return doc.Version
	}
	return 0
}

// GetMeta forces any needed transpile for path's mirror document, then
// returns the stored metadata for path.
func (h *Host) GetMeta(path string) (FileMeta, bool) {
	path = canonical(path)

	h.mu.Lock()
	defer h.mu.Unlock()

	if t, ok := h.transpilerForSource(path); ok {
		h.getOrCreateSnapshotLocked(mirrorPath(path, t))
	}

	meta, ok := h.fileMetaData[path]
	return meta, ok
}

// GetScriptFileNames returns the canonical paths this host exposes to
// the language service, in a stable (sorted) order.
func (h *Host) GetScriptFileNames() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]string, 0, len(h.scriptFileNames))
	for n := range h.scriptFileNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// GetProjectVersion returns the monotonically increasing project
// version as a string.
func (h *Host) GetProjectVersion() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return strconv.Itoa(h.projectVersion)
}

// ResolveModuleNames resolves each import specifier in names against
// containingFile, returning a nil entry for any specifier the host
// cannot resolve (the language service treats that import as
// unresolved).
func (h *Host) ResolveModuleNames(names []string, containingFile string) []*Resolution {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]*Resolution, len(names))
	for i, n := range names {
		res, ok := resolveModuleName(n, containingFile, h.transpilers, h.resolution, h.native)
		if ok {
			out[i] = res
		}
	}
	return out
}

// WriteFile records content for name as a new document version. The
// host is virtual: this never touches the real filesystem.
func (h *Host) WriteFile(name, content string) error {
	path := canonical(name)

	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.snapshotMap, path)
	doc := h.pathMap[path]
	doc.URI = path
	doc.Text = content
	doc.Version++
	h.pathMap[path] = doc
	h.projectVersion++
	return nil
}
