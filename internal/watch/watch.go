// Package watch re-runs a function when files in some directories change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period after the last change before the
// function runs.
const DefaultDebounce = 300 * time.Millisecond

// Options configures a [Watcher].
type Options struct {
	// Debounce is the quiet period after the last change. Zero means
	// [DefaultDebounce].
	Debounce time.Duration

	// Match reports whether a change of the file should trigger the
	// function. Nil matches every file.
	Match func(path string) bool

	// Logger receives debug logs. It may be nil.
	Logger *zap.Logger
}

// Watcher watches directories, not recursively.
type Watcher struct {
	fsw  *fsnotify.Watcher
	opts Options
	log  *zap.Logger
}

// New creates a [Watcher] on the directories.
func New(dirs []string, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{fsw: fsw, opts: opts, log: log}, nil
}

// Run calls fn after each burst of matching changes until ctx is done. An
// error from fn is logged and does not stop the watcher. Run closes the
// watcher before it returns.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context) error) error {
	defer w.fsw.Close()

	timer := time.NewTimer(w.opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.log.Debug("changed", zap.String("file", event.Name), zap.Stringer("op", event.Op))
			timer.Reset(w.opts.Debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			w.log.Warn("watch error", zap.Error(err))

		case <-timer.C:
			if err := fn(ctx); err != nil {
				w.log.Error(err.Error())
			}
		}
	}
}

// relevant reports whether the event should trigger the function. Chmod
// alone never does.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	return w.opts.Match == nil || w.opts.Match(event.Name)
}
