package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
	done  chan string
}

func newRecorder() *recorder {
	return &recorder{done: make(chan string, 16)}
}

func (r *recorder) handle(ctx context.Context, path string) error {
	r.mu.Lock()
	r.paths = append(r.paths, filepath.Base(path))
	r.mu.Unlock()
	r.done <- filepath.Base(path)
	return nil
}

func (r *recorder) wait(t *testing.T, n int) []string {
	t.Helper()
	var got []string
	timeout := time.After(5 * time.Second)
	for len(got) < n {
		select {
		case p := <-r.done:
			got = append(got, p)
		case <-timeout:
			t.Fatalf("timed out waiting for %d files, got %v", n, got)
		}
	}
	sort.Strings(got)
	return got
}

func startWatcher(t *testing.T, opts Options, h Handler) {
	t.Helper()
	w, err := New(zerolog.Nop(), opts, h)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-errCh
		w.Stop()
	})
}

func TestWatcherProcessesNewMedia(t *testing.T) {
	dir := t.TempDir()
	rec := newRecorder()
	startWatcher(t, Options{Dir: dir, Concurrency: 2, Settle: 20 * time.Millisecond}, rec.handle)

	// give the watcher a moment to start its loop
	time.Sleep(50 * time.Millisecond)

	for _, name := range []string{"talk.mp4", "notes.txt", "clip.MOV", ".hidden.mp4"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("data"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	got := rec.wait(t, 2)
	if got[0] != "clip.MOV" || got[1] != "talk.mp4" {
		t.Errorf("processed %v", got)
	}

	select {
	case extra := <-rec.done:
		t.Errorf("unexpected extra file processed: %s", extra)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherExistingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "old.mkv"), []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}

	rec := newRecorder()
	startWatcher(t, Options{Dir: dir, Settle: 10 * time.Millisecond, Existing: true}, rec.handle)

	if got := rec.wait(t, 1); got[0] != "old.mkv" {
		t.Errorf("processed %v", got)
	}
}

func TestWatcherStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	w, err := New(zerolog.Nop(), Options{Dir: dir}, func(context.Context, string) error { return nil })
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Start(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Start = %v, want context.Canceled", err)
	}
}

func TestNewMissingDir(t *testing.T) {
	_, err := New(zerolog.Nop(), Options{Dir: filepath.Join(t.TempDir(), "missing")}, nil)
	if err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestWaitStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.mp4")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := waitStable(context.Background(), path, 20*time.Millisecond); err != nil {
		t.Errorf("waitStable: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	empty := filepath.Join(t.TempDir(), "empty.mp4")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := waitStable(ctx, empty, 10*time.Millisecond); err == nil {
		t.Error("empty file should never settle")
	}
}
