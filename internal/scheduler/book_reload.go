package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MrSnakeDoc/navbar/internal/domain"
	"github.com/MrSnakeDoc/navbar/internal/logger"
	"github.com/MrSnakeDoc/navbar/internal/sources/book"
	redisstore "github.com/MrSnakeDoc/navbar/internal/store/redis"
)

// DefaultWatchDebounce coalesces the burst of events editors produce on save.
const DefaultWatchDebounce = 250 * time.Millisecond

// StartEmitter publishes host start events.
type StartEmitter interface {
	EmitStart(cfg domain.HostConfig)
}

// BookReloader re-reads the book file and publishes its configuration as a
// start event: once at startup, then on a ticker, on manual trigger, and
// when the file changes on disk.
type BookReloader struct {
	loader        *book.Loader
	emitter       StartEmitter
	store         *redisstore.Store
	logger        logger.Logger
	interval      time.Duration
	watch         bool
	debounce      time.Duration
	allowStale    bool
	stopCh        chan struct{}
	manualTrigger chan struct{}
}

// NewBookReloader creates a reloader. interval <= 0 disables periodic reloads;
// store may be nil.
func NewBookReloader(
	bookFile string,
	emitter StartEmitter,
	store *redisstore.Store,
	log logger.Logger,
	interval time.Duration,
	watch bool,
	manualTrigger chan struct{},
) *BookReloader {
	return &BookReloader{
		loader:        book.NewLoader(bookFile),
		emitter:       emitter,
		store:         store,
		logger:        log.With(logger.Component("book-reloader")),
		interval:      interval,
		watch:         watch,
		debounce:      DefaultWatchDebounce,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// AllowStale lets Start succeed when the first load fails, keeping whatever
// configuration was already published (e.g. a restored snapshot).
func (br *BookReloader) AllowStale(v bool) {
	br.allowStale = v
}

// Start loads the book once, then keeps reloading in the background.
func (br *BookReloader) Start(ctx context.Context) error {
	if err := br.Reload(ctx); err != nil {
		if !br.allowStale {
			return fmt.Errorf("initial reload failed: %w", err)
		}
		br.logger.Warn("initial book load failed, serving restored navigation",
			logger.Error(err))
	}

	var watcher *fsnotify.Watcher
	if br.watch {
		w, err := br.newWatcher()
		if err != nil {
			return fmt.Errorf("failed to watch book file: %w", err)
		}
		watcher = w
	}

	var ticker *time.Ticker
	if br.interval > 0 {
		ticker = time.NewTicker(br.interval)
	}

	go br.loop(ctx, ticker, watcher)
	return nil
}

// Stop stops the background loop.
func (br *BookReloader) Stop() {
	close(br.stopCh)
}

func (br *BookReloader) loop(ctx context.Context, ticker *time.Ticker, watcher *fsnotify.Watcher) {
	var (
		tick     <-chan time.Time
		events   <-chan fsnotify.Event
		errs     <-chan error
		settle   *time.Timer
		settleCh <-chan time.Time
	)
	if ticker != nil {
		tick = ticker.C
	}
	if watcher != nil {
		events = watcher.Events
		errs = watcher.Errors
	}

	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
		if settle != nil {
			settle.Stop()
		}
		if watcher != nil {
			if err := watcher.Close(); err != nil {
				br.logger.Warn("failed to close book watcher", logger.Error(err))
			}
		}
	}()

	target := filepath.Clean(br.loader.Path())

	for {
		select {
		case <-tick:
			br.reloadLogged(ctx, "interval")
		case <-br.manualTrigger:
			br.logger.Info("manual reload triggered")
			br.reloadLogged(ctx, "manual")
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if settle == nil {
				settle = time.NewTimer(br.debounce)
			} else {
				settle.Reset(br.debounce)
			}
			settleCh = settle.C
		case <-settleCh:
			settleCh = nil
			br.reloadLogged(ctx, "file-change")
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			br.logger.Warn("book watcher error", logger.Error(err))
		case <-br.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// newWatcher watches the book file's directory; editors often replace the
// file instead of writing it in place, which a file-level watch would miss.
func (br *BookReloader) newWatcher() (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(br.loader.Path())
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}
	br.logger.Info("watching book file",
		logger.String("file", br.loader.Path()))
	return w, nil
}

func (br *BookReloader) reloadLogged(ctx context.Context, reason string) {
	if err := br.Reload(ctx); err != nil {
		br.logger.Error("failed to reload book",
			logger.String("reason", reason),
			logger.Error(err))
	}
}

// Reload reads the book file, publishes a start event and saves the
// navigation snapshot (best effort).
func (br *BookReloader) Reload(ctx context.Context) error {
	f, err := br.loader.Load()
	if err != nil {
		return fmt.Errorf("failed to load book: %w", err)
	}

	cfg := f.StartConfig()
	br.emitter.EmitStart(cfg)

	nav := cfg.NavigationOrEmpty()
	br.logger.Info("book loaded",
		logger.String("file", br.loader.Path()),
		logger.String("title", f.Title),
		logger.Int("entries", nav.Len()))

	if br.store != nil {
		if err := br.store.SaveNavigation(ctx, nav); err != nil {
			br.logger.Warn("failed to save navigation snapshot to redis",
				logger.Error(err))
		}
	}

	return nil
}
