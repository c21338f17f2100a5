package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/tinoosan/modelkeep/internal/data"
	"github.com/tinoosan/modelkeep/internal/repo"
)

// DiskUsageFunc reports the total and caller-available bytes of the
// filesystem holding path.
type DiskUsageFunc func(path string) (total, free uint64, err error)

// Accountant reports disk usage of the models directory. Nothing is cached:
// every snapshot walks the directory again.
type Accountant struct {
	root      string
	flags     repo.FlagReader
	diskUsage DiskUsageFunc
	log       *slog.Logger
}

func New(root string, flags repo.FlagReader, log *slog.Logger) *Accountant {
	if log == nil {
		log = slog.Default()
	}
	return &Accountant{root: root, flags: flags, diskUsage: DiskUsage, log: log}
}

// WithDiskUsage replaces the filesystem query, mainly for tests.
func (a *Accountant) WithDiskUsage(fn DiskUsageFunc) *Accountant {
	a.diskUsage = fn
	return a
}

// Snapshot computes device space, bytes used under the models directory and
// the ids flagged as downloaded.
func (a *Accountant) Snapshot(ctx context.Context) (data.StorageSnapshot, error) {
	total, free, err := a.diskUsage(a.root)
	if err != nil {
		return data.StorageSnapshot{}, fmt.Errorf("disk usage of %s: %w", a.root, err)
	}
	used, err := a.UsedBytes(ctx)
	if err != nil {
		return data.StorageSnapshot{}, err
	}
	ids, err := a.flags.Downloaded(ctx)
	if err != nil {
		return data.StorageSnapshot{}, fmt.Errorf("list downloaded models: %w", err)
	}
	ids = append([]string{}, ids...)
	sort.Strings(ids)
	a.log.Debug("storage snapshot", "total", total, "free", free, "used_by_models", used, "downloaded", len(ids))
	return data.StorageSnapshot{
		TotalSpace:       total,
		FreeSpace:        free,
		UsedByModels:     used,
		DownloadedModels: ids,
	}, nil
}

// UsedBytes sums the sizes of regular files under the models directory.
// Entries removed during the walk are skipped.
func (a *Accountant) UsedBytes(ctx context.Context) (uint64, error) {
	var used uint64
	err := filepath.WalkDir(a.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		used += uint64(info.Size())
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk %s: %w", a.root, err)
	}
	return used, nil
}
