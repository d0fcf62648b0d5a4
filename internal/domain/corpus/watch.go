package corpus

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is how long a file must stay quiet before it is re-ingested.
const DefaultDebounce = 300 * time.Millisecond

// Watcher re-ingests corpus files as they are created or rewritten.
type Watcher struct {
	ingester *Ingester
	logger   *logrus.Logger
	debounce time.Duration
	onIngest func(file string, updated bool, err error)
}

// WatcherOptions configures a Watcher. OnIngest, when set, is called after every attempt.
type WatcherOptions struct {
	Ingester *Ingester
	Logger   *logrus.Logger
	Debounce time.Duration
	OnIngest func(file string, updated bool, err error)
}

// NewWatcher validates the options and builds a Watcher.
func NewWatcher(opts WatcherOptions) (*Watcher, error) {
	if opts.Ingester == nil {
		return nil, eris.New("ingester is required")
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		ingester: opts.Ingester,
		logger:   opts.Logger,
		debounce: debounce,
		onIngest: opts.OnIngest,
	}, nil
}

// Watch blocks until ctx is done, ingesting .txt files in dir after each burst of writes.
func (w *Watcher) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return eris.Wrap(err, "creating file watcher")
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return eris.Wrapf(err, "watching %s", dir)
	}

	if w.logger != nil {
		w.logger.WithField("dir", dir).Info("watching corpus directory")
	}

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	pending := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, TextSuffix) {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			pending[filepath.Clean(event.Name)] = time.Now()

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if w.logger != nil {
				w.logger.WithField("error", watchErr.Error()).Warn("file watcher error")
			}

		case now := <-ticker.C:
			for file, last := range pending {
				if now.Sub(last) < w.debounce {
					continue
				}
				delete(pending, file)
				w.ingest(ctx, file)
			}
		}
	}
}

func (w *Watcher) ingest(ctx context.Context, file string) {
	updated, err := w.ingester.IngestFile(ctx, file)

	if w.logger != nil {
		entry := w.logger.WithFields(logrus.Fields{"file": filepath.Base(file), "updated": updated})
		if err != nil {
			entry = entry.WithField("error", err.Error())
		}
		entry.Info("corpus file re-ingested")
	}

	if w.onIngest != nil {
		w.onIngest(file, updated, err)
	}
}
