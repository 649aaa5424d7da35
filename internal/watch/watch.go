// Package watch triggers a handler for recordings dropped into a directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Handler processes one new recording
type Handler func(ctx context.Context, path string) error

// DefaultExtensions are the media files picked up by default
var DefaultExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".webm", ".m4v", ".flv"}

// Options configures a Watcher
type Options struct {
	Dir         string
	Concurrency int
	// Settle is how long a file's size must stay unchanged before it is
	// considered fully written
	Settle     time.Duration
	Extensions []string
	// Existing also queues matching files already in Dir at start
	Existing bool
}

// Watcher monitors a directory with bounded concurrent processing
type Watcher struct {
	logger    zerolog.Logger
	opts      Options
	handler   Handler
	fs        *fsnotify.Watcher
	semaphore chan struct{}
	wg        sync.WaitGroup

	mu   sync.Mutex
	seen map[string]bool
}

// New creates a Watcher on opts.Dir
func New(logger zerolog.Logger, opts Options, handler Handler) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fs.Add(opts.Dir); err != nil {
		fs.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Settle <= 0 {
		opts.Settle = 2 * time.Second
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}

	return &Watcher{
		logger:    logger.With().Str("component", "watch").Logger(),
		opts:      opts,
		handler:   handler,
		fs:        fs,
		semaphore: make(chan struct{}, opts.Concurrency),
		seen:      make(map[string]bool),
	}, nil
}

// Start blocks until ctx is cancelled, then waits for in-flight handlers
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info().
		Str("dir", w.opts.Dir).
		Int("concurrency", w.opts.Concurrency).
		Strs("extensions", w.opts.Extensions).
		Msg("watching for recordings")

	if w.opts.Existing {
		if err := w.queueExisting(ctx); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("waiting for ongoing processing to complete")
			w.wg.Wait()
			w.logger.Info().Msg("watcher stopped")
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if event.Op&(fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !w.isMedia(event.Name) {
				w.logger.Debug().Str("file", event.Name).Msg("ignoring non-media file")
				continue
			}
			w.queue(ctx, event.Name)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error().Err(err).Msg("watcher error")
		}
	}
}

// Stop closes the underlying watcher
func (w *Watcher) Stop() error {
	return w.fs.Close()
}

func (w *Watcher) queueExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.opts.Dir)
	if err != nil {
		return fmt.Errorf("scan %s: %w", w.opts.Dir, err)
	}
	for _, e := range entries {
		path := filepath.Join(w.opts.Dir, e.Name())
		if !e.IsDir() && w.isMedia(path) {
			w.queue(ctx, path)
		}
	}
	return nil
}

// queue hands path to a worker once, waiting for it to finish being written
func (w *Watcher) queue(ctx context.Context, path string) {
	w.mu.Lock()
	if w.seen[path] {
		w.mu.Unlock()
		return
	}
	w.seen[path] = true
	w.mu.Unlock()

	w.logger.Info().Str("file", path).Msg("new recording detected")

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		if err := waitStable(ctx, path, w.opts.Settle); err != nil {
			w.logger.Warn().Err(err).Str("file", path).Msg("recording never settled")
			return
		}

		select {
		case w.semaphore <- struct{}{}:
		case <-ctx.Done():
			return
		}
		defer func() { <-w.semaphore }()

		if err := w.handler(ctx, path); err != nil {
			w.logger.Error().Err(err).Str("file", path).Msg("failed to process recording")
		}
	}()
}

func (w *Watcher) isMedia(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.opts.Extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// waitStable returns once path has kept the same non-zero size for settle
func waitStable(ctx context.Context, path string, settle time.Duration) error {
	interval := settle / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		lastSize int64 = -1
		since    time.Time
	)
	for {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.Size() != lastSize || info.Size() == 0 {
			lastSize = info.Size()
			since = time.Now()
		} else if time.Since(since) >= settle {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
