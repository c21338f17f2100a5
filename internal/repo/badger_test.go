package repo

import (
	"context"
	"path/filepath"
	"testing"
)

func TestBadgerFlagStore(t *testing.T) {
	s, err := NewBadgerFlagStore(BadgerConfig{InMemory: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	exerciseFlagStore(t, s)
}

func TestBadgerFlagStore_Persists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "flags")
	ctx := context.Background()

	s, err := NewBadgerFlagStore(BadgerConfig{Path: dir, SyncWrites: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SetDownloaded(ctx, "demo-1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err = NewBadgerFlagStore(BadgerConfig{Path: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if got, err := s.IsDownloaded(ctx, "demo-1"); err != nil || !got {
		t.Fatalf("flag lost across reopen: got=%v err=%v", got, err)
	}
}

func TestBadgerFlagStore_RequiresPath(t *testing.T) {
	if _, err := NewBadgerFlagStore(BadgerConfig{}); err == nil {
		t.Fatalf("expected error without path")
	}
}
