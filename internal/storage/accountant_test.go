package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/tinoosan/modelkeep/internal/repo"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func write(t *testing.T, path string, n int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, make([]byte, n), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestSnapshot(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "shared.bin"), 100)
	write(t, filepath.Join(root, "m1", "weights.bin"), 250)
	write(t, filepath.Join(root, "m1", "sub", "tok.json"), 7)

	flags := repo.NewInMemoryFlagStore()
	ctx := context.Background()
	_ = flags.SetDownloaded(ctx, "m2")
	_ = flags.SetDownloaded(ctx, "m1")

	a := New(root, flags, quiet()).WithDiskUsage(func(p string) (uint64, uint64, error) {
		if p != root {
			t.Fatalf("disk usage asked for %q", p)
		}
		return 1000, 400, nil
	})
	snap, err := a.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.TotalSpace != 1000 || snap.FreeSpace != 400 || snap.UsedByModels != 357 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if len(snap.DownloadedModels) != 2 || snap.DownloadedModels[0] != "m1" || snap.DownloadedModels[1] != "m2" {
		t.Fatalf("downloaded = %v", snap.DownloadedModels)
	}
}

func TestSnapshotEmptyAndMissingRoot(t *testing.T) {
	a := New(filepath.Join(t.TempDir(), "absent"), repo.NewInMemoryFlagStore(), quiet()).
		WithDiskUsage(func(string) (uint64, uint64, error) { return 1, 1, nil })
	snap, err := a.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.UsedByModels != 0 || snap.DownloadedModels == nil || len(snap.DownloadedModels) != 0 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestSnapshotDiskUsageError(t *testing.T) {
	boom := errors.New("boom")
	a := New(t.TempDir(), repo.NewInMemoryFlagStore(), quiet()).
		WithDiskUsage(func(string) (uint64, uint64, error) { return 0, 0, boom })
	if _, err := a.Snapshot(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestDiskUsageReal(t *testing.T) {
	total, free, err := DiskUsage(t.TempDir())
	if err != nil {
		t.Skipf("disk usage unavailable: %v", err)
	}
	if total == 0 || free > total {
		t.Fatalf("total=%d free=%d", total, free)
	}
}
