package host

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Logger is the minimal logging surface watch.go depends on, satisfied
// by the ambient logger used across this module.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

// Watcher observes SRC files on disk and feeds external edits into a
// Host as if they had arrived from an editor, so files changed by
// another tool (a formatter, a VCS checkout, a generator) are picked
// up without the editor needing to notify the host itself.
type Watcher struct {
	fsw  *fsnotify.Watcher
	host *Host
	log  Logger
	done chan struct{}
}

// NewWatcher creates a filesystem watcher bound to host. Call Add for
// each directory to observe, then Run in a goroutine.
func NewWatcher(h *Host, log Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{fsw: fsw, host: h, log: log, done: make(chan struct{})}, nil
}

// Add registers a directory for change notifications.
func (w *Watcher) Add(dir string) error {
	return w.fsw.Add(dir)
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

// Run processes filesystem events until Close is called. It is meant
// to run in its own goroutine.
func (w *Watcher) Run() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.log != nil {
				w.log.Warnf("host: filesystem watch error: %v", err)
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	if !w.host.HasTranspilerFor(ev.Name) {
		return
	}

	data, err := os.ReadFile(ev.Name)
	if err != nil {
		if w.log != nil {
			w.log.Warnf("host: failed to read changed file %s: %v", ev.Name, err)
		}
		return
	}

	path, err := filepath.Abs(ev.Name)
	if err != nil {
		path = ev.Name
	}

	w.host.AddOrUpdateDocument(Document{
		URI:     path,
		Text:    string(data),
		Version: w.host.GetScriptVersionInt(path) + 1,
	})
	if w.log != nil {
		w.log.Debugf("host: external change picked up for %s", path)
	}
}
