package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/tinoosan/modelkeep/internal/data"
	"github.com/tinoosan/modelkeep/internal/fp"
)

// File is a catalog backed by a model_list file in JSON or YAML. The format
// is chosen by extension (.yaml/.yml, everything else is JSON).
type File struct {
	*Static
	path string
	log  *slog.Logger

	mu     sync.Mutex
	prints map[string]string
}

// OpenFile loads the catalog at path.
func OpenFile(path string, log *slog.Logger) (*File, error) {
	if log == nil {
		log = slog.Default()
	}
	f := &File{Static: NewStatic(), path: path, log: log}
	if err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Path is the backing file.
func (f *File) Path() string { return f.path }

// Reload re-reads the backing file. On error the previous listing is kept.
func (f *File) Reload() error {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("read catalog: %w", err)
	}
	models, err := Parse(raw, filepath.Ext(f.path))
	if err != nil {
		return fmt.Errorf("parse catalog %s: %w", f.path, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	prints := make(map[string]string, len(models))
	changed := 0
	for _, m := range models {
		prints[m.ID] = fp.Manifest(m)
		if old, ok := f.prints[m.ID]; ok && old != prints[m.ID] {
			changed++
			f.log.Info("model manifest changed", "model_id", m.ID)
		}
	}
	f.prints = prints
	f.Replace(models)
	f.log.Info("catalog loaded", "path", f.path, "models", len(models), "changed", changed)
	return nil
}

// Parse decodes a listing. ext selects YAML for ".yaml"/".yml".
func Parse(raw []byte, ext string) (data.Models, error) {
	var models data.Models
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &models); err != nil {
			return nil, err
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(raw))
		if err := dec.Decode(&models); err != nil {
			return nil, err
		}
	}
	seen := make(map[string]struct{}, len(models))
	out := models[:0]
	for _, m := range models {
		if m == nil {
			continue
		}
		if strings.TrimSpace(m.ID) == "" {
			return nil, errors.New("model without id")
		}
		if _, dup := seen[m.ID]; dup {
			return nil, fmt.Errorf("duplicate model id %q", m.ID)
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out, nil
}

// Watch reloads the catalog whenever the backing file changes until ctx is
// done. Editors often replace files instead of writing them, so the parent
// directory is watched and events are filtered by name.
func (f *File) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		_ = w.Close()
		return err
	}
	go func() {
		defer w.Close()
		target := filepath.Clean(f.path)
		var debounce <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					debounce = time.After(200 * time.Millisecond)
				}
			case <-debounce:
				debounce = nil
				if err := f.Reload(); err != nil {
					f.log.Warn("catalog reload failed", "path", f.path, "err", err)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				f.log.Warn("catalog watcher", "err", err)
			}
		}
	}()
	return nil
}
