package catalog

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tinoosan/modelkeep/internal/data"
)

const listJSON = `[
  {
    "id": "SmolVLM-256M-Instruct-f16",
    "displayName": "SmolVLM 256M",
    "modelName": "SmolVLM-256M-Instruct-f16.gguf",
    "mmprojOrTokenName": "mmproj-SmolVLM-256M-Instruct-f16.gguf",
    "sizeGb": 0.5,
    "params": "256M",
    "features": ["vision"],
    "type": "vlm",
    "versionCode": 0,
    "modelUrl": "https://example.com/model.gguf",
    "mmprojOrTokenUrl": "https://example.com/mmproj.gguf"
  },
  {
    "id": "OmniNeural-4B",
    "displayName": "OmniNeural 4B",
    "modelName": "files-1-1.nexa",
    "mmprojOrTokenName": "",
    "versionCode": 1,
    "files": [
      {"name": "weights-1.nexa", "path": "", "url": "https://example.com/w1"},
      {"name": "attachments.bin", "path": "attachments", "url": "https://example.com/a"}
    ]
  }
]`

const listYAML = `
- id: demo-1
  modelName: model.bin
  versionCode: 2
  files:
    - name: model.bin
      url: http://h/a
    - name: tokenizer.json
      url: http://h/b
`

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestParseJSON(t *testing.T) {
	models, err := Parse([]byte(listJSON), ".json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(models))
	}
	vlm := models[0]
	if vlm.ModelFileName != "SmolVLM-256M-Instruct-f16.gguf" || vlm.AuxURL == "" || vlm.LayoutVersion != 0 {
		t.Fatalf("unexpected vlm manifest: %+v", vlm)
	}
	omni := models[1]
	if omni.LayoutVersion != 1 || len(omni.Files) != 2 || omni.Files[1].Path != "attachments" {
		t.Fatalf("unexpected omni manifest: %+v", omni)
	}
}

func TestParseYAML(t *testing.T) {
	models, err := Parse([]byte(listYAML), ".yaml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(models) != 1 || models[0].ID != "demo-1" || len(models[0].Files) != 2 || models[0].LayoutVersion != 2 {
		t.Fatalf("unexpected models: %+v", models)
	}
}

func TestParseRejectsDuplicatesAndMissingID(t *testing.T) {
	if _, err := Parse([]byte(`[{"id":"a"},{"id":"a"}]`), ".json"); err == nil {
		t.Fatalf("expected duplicate id error")
	}
	if _, err := Parse([]byte(`[{"displayName":"x"}]`), ".json"); err == nil {
		t.Fatalf("expected missing id error")
	}
}

func TestStaticGet(t *testing.T) {
	s := NewStatic(&data.ModelManifest{ID: "a", ModelFileName: "a.bin"})
	m, err := s.Get(context.Background(), "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	m.ModelFileName = "mutated"
	again, _ := s.Get(context.Background(), "a")
	if again.ModelFileName != "a.bin" {
		t.Fatalf("catalog entry mutated through returned manifest")
	}
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, data.ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
}

func TestFileWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model_list.json")
	if err := os.WriteFile(path, []byte(`[{"id":"a"}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := OpenFile(path, discard())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := f.Watch(ctx); err != nil {
		t.Fatalf("watch: %v", err)
	}

	if err := os.WriteFile(path, []byte(`[{"id":"a"},{"id":"b"}]`), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := f.Get(ctx, "b"); err == nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("catalog was not reloaded after write")
}

func TestFileReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.json")
	if err := os.WriteFile(path, []byte(`[{"id":"a"}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := OpenFile(path, discard())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := os.WriteFile(path, []byte(`not json`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := f.Reload(); err == nil {
		t.Fatalf("expected reload error")
	}
	if _, err := f.Get(context.Background(), "a"); err != nil {
		t.Fatalf("previous listing lost: %v", err)
	}
}

func TestReloadLogsChangedDownloadFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.json")
	if err := os.WriteFile(path, []byte(`[{"id":"a","displayName":"A","modelUrl":"http://h/1"}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var logs bytes.Buffer
	f, err := OpenFile(path, slog.New(slog.NewTextHandler(&logs, nil)))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	const changed = "model manifest changed"

	_ = os.WriteFile(path, []byte(`[{"id":"a","displayName":"Renamed","modelUrl":"http://h/1"}]`), 0o644)
	if err := f.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if strings.Contains(logs.String(), changed) {
		t.Fatalf("display change reported as manifest change:\n%s", logs.String())
	}

	_ = os.WriteFile(path, []byte(`[{"id":"a","displayName":"Renamed","modelUrl":"http://h/2"}]`), 0o644)
	if err := f.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !strings.Contains(logs.String(), changed) || !strings.Contains(logs.String(), "model_id=a") {
		t.Fatalf("url change not reported:\n%s", logs.String())
	}
	if !strings.Contains(logs.String(), "changed=1") {
		t.Fatalf("changed count missing:\n%s", logs.String())
	}
}
