package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchFileReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.md", "a")
	other := filepath.Join(dir, "other.md")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, slog.New(slog.DiscardHandler), func() error {
			select {
			case changes <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	// The watcher registers asynchronously, so keep writing until it reports.
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	deadline := time.After(5 * time.Second)
	for seen := false; !seen; {
		select {
		case <-changes:
			seen = true
		case <-tick.C:
			if err := os.WriteFile(other, []byte("x"), 0o644); err != nil {
				t.Fatalf("write other: %v", err)
			}
			if err := os.WriteFile(path, []byte("b"), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
		case <-deadline:
			t.Fatalf("no change reported")
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("watch did not stop")
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	err := watchFile(context.Background(), filepath.Join(t.TempDir(), "nope", "doc.md"), slog.New(slog.DiscardHandler), func() error { return nil })
	if err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
