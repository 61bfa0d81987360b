package sprint

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates cached pipeline results when a plan file changes on
// disk. It watches the plan's parent directory (editors typically replace
// files via rename, which would drop a watch on the file itself).
type Watcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}

	mu sync.Mutex
	// refs maps watched absolute paths to the sprint ref to invalidate.
	refs map[string]string

	// onChange receives the sprint ref whose plan file changed.
	onChange func(ref string)
}

// NewWatcher creates a Watcher calling onChange for each changed plan.
func NewWatcher(onChange func(ref string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:  fw,
		done:     make(chan struct{}),
		refs:     make(map[string]string),
		onChange: onChange,
	}
	go w.loop()
	return w, nil
}

// Watch registers a plan file under the given sprint ref.
func (w *Watcher) Watch(path, ref string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.refs[abs] = ref
	w.mu.Unlock()

	return w.watcher.Add(filepath.Dir(abs))
}

// loop dispatches filesystem events until Close is called.
func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.mu.Lock()
			ref, watched := w.refs[event.Name]
			w.mu.Unlock()
			if watched {
				w.onChange(ref)
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are advisory; stale cache entries expire via TTL.
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
