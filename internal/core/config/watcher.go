package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const watchDebounce = 100 * time.Millisecond

// Reload is delivered after the watched file changed. Err is set when the
// new contents failed to load; the previous configuration stays in effect.
type Reload struct {
	Config *Config
	Err    error
}

// Watcher reloads a config file when it changes on disk. The parent
// directory is watched so editors that replace the file are noticed.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	log     zerolog.Logger
	delay   time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher starts watching configPath.
func NewWatcher(configPath string, log zerolog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	return &Watcher{
		path:    abs,
		watcher: watcher,
		log:     log,
		delay:   watchDebounce,
	}, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string { return w.path }

// Watch delivers reloads until ctx is cancelled or the watcher is closed.
// Bursts of writes are debounced into one reload.
func (w *Watcher) Watch(ctx context.Context) <-chan Reload {
	out := make(chan Reload, 1)
	fire := make(chan struct{}, 1)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				w.stopTimer()
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.relevant(event) {
					continue
				}
				w.debounce(fire)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.log.Warn().Err(err).Msg("config watcher error")
			case <-fire:
				cfg, err := Load(w.path)
				if err != nil {
					w.log.Warn().Err(err).Str("path", w.path).Msg("config reload failed")
				} else {
					w.log.Info().Str("path", w.path).Msg("config reloaded")
				}
				select {
				case out <- Reload{Config: cfg, Err: err}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.stopTimer()
	return w.watcher.Close()
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) debounce(fire chan<- struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, func() {
		select {
		case fire <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
