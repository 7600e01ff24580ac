package am

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/tygra/errors"
	"github.com/teranos/tygra/logger"
)

// ChangeCallback is called with the path of a file that changed.
type ChangeCallback func(path string) error

// FileWatcher watches one file and calls back after changes settle.
//
// The containing directory is watched rather than the file, so that
// editors which replace the file on save keep being noticed.
type FileWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	log      *zap.SugaredLogger

	mu        sync.Mutex
	callbacks []ChangeCallback
	timer     *time.Timer
	ownWrite  bool
	done      chan struct{}
}

// NewFileWatcher creates a watcher for path. Changes closer together than
// debounce are reported once.
func NewFileWatcher(path string, debounce time.Duration, log *zap.SugaredLogger) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", path)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", path)
	}
	if log == nil {
		log = logger.ComponentLogger("watch")
	}
	return &FileWatcher{
		path:     abs,
		watcher:  w,
		debounce: debounce,
		log:      log.With(logger.FieldPath, abs),
		done:     make(chan struct{}),
	}, nil
}

// OnChange registers a callback.
func (fw *FileWatcher) OnChange(cb ChangeCallback) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.callbacks = append(fw.callbacks, cb)
}

// MarkOwnWrite makes the watcher ignore the next change, which the caller
// is about to make itself.
func (fw *FileWatcher) MarkOwnWrite() {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.ownWrite = true
}

// Start begins watching in a new goroutine.
func (fw *FileWatcher) Start() {
	go fw.loop()
}

// Done is closed when the watcher has stopped.
func (fw *FileWatcher) Done() <-chan struct{} {
	return fw.done
}

func (fw *FileWatcher) loop() {
	defer close(fw.done)
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fw.relevant(event) {
				continue
			}
			if fw.consumeOwnWrite() {
				fw.log.Debugw("Ignoring own write", "op", event.Op.String())
				continue
			}
			fw.log.Debugw("Detected change", "op", event.Op.String())
			fw.schedule()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Warnw("Watcher error", logger.FieldError, err)
		}
	}
}

func (fw *FileWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	if isBackupFile(event.Name) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	return err == nil && abs == fw.path
}

func (fw *FileWatcher) consumeOwnWrite() bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	own := fw.ownWrite
	fw.ownWrite = false
	return own
}

// schedule debounces rapid changes into one callback round.
func (fw *FileWatcher) schedule() {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.debounce, fw.fire)
}

func (fw *FileWatcher) fire() {
	fw.mu.Lock()
	callbacks := append([]ChangeCallback(nil), fw.callbacks...)
	fw.mu.Unlock()

	for _, cb := range callbacks {
		// Continue calling other callbacks even if one fails
		if err := cb(fw.path); err != nil {
			fw.log.Warnw("Change callback failed", logger.FieldError, err)
		}
	}
}

// Stop stops watching. Pending callbacks are dropped.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.mu.Unlock()
	return fw.watcher.Close()
}

// WatchConfigFile reloads the configuration whenever path changes and passes
// the result to onReload.
func WatchConfigFile(path string, debounce time.Duration, onReload func(*Config) error) (*FileWatcher, error) {
	fw, err := NewFileWatcher(path, debounce, nil)
	if err != nil {
		return nil, err
	}
	fw.OnChange(func(p string) error {
		Reset()
		cfg, err := Load()
		if err != nil {
			return errors.Wrapf(err, "reload after change to %s", p)
		}
		return onReload(cfg)
	})
	return fw, nil
}
