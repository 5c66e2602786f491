package watchdog

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type Factory struct {
	logger *zap.Logger
}

func NewFactory(logger *zap.Logger) *Factory {
	return &Factory{logger: logger}
}

// filterFun decides whether a created file is of interest.
type filterFun func(string) bool

// Watch reports files created under dir until ctx is done. The returned
// channel is owned by the watcher and closed once watching stops. Files for
// which filter returns false are dropped; a nil filter accepts everything.
func (f *Factory) Watch(ctx context.Context, dir string, filter filterFun) (<-chan string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(absDir); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(absDir); err != nil {
		watcher.Close()
		return nil, err
	}

	notifyChan := make(chan string, 64)
	w := &watchDog{
		ctx:        ctx,
		notifyChan: notifyChan,
		filter:     filter,
		logger:     f.logger,
		watcher:    watcher,
	}
	go w.watch()

	return notifyChan, nil
}

type watchDog struct {
	ctx        context.Context
	notifyChan chan<- string
	filter     filterFun
	logger     *zap.Logger
	watcher    *fsnotify.Watcher
}

func (w *watchDog) watch() {
	defer w.watcher.Close()
	defer close(w.notifyChan)
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("fsnotify error", zap.Error(err))
		}
	}
}

func (w *watchDog) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create != fsnotify.Create {
		return
	}
	if w.filter != nil && !w.filter(event.Name) {
		return
	}
	select {
	case w.notifyChan <- event.Name:
	case <-w.ctx.Done():
	}
}
