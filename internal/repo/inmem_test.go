package repo

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"testing"
)

// exerciseFlagStore runs the behaviour every FlagStore must share.
func exerciseFlagStore(t *testing.T, s FlagStore) {
	t.Helper()
	ctx := context.Background()

	got, err := s.IsDownloaded(ctx, "a")
	if err != nil || got {
		t.Fatalf("absent flag: got=%v err=%v", got, err)
	}

	for _, id := range []string{"b", "a", "c"} {
		if err := s.SetDownloaded(ctx, id); err != nil {
			t.Fatalf("set %s: %v", id, err)
		}
	}
	if err := s.SetDownloaded(ctx, "a"); err != nil {
		t.Fatalf("set twice: %v", err)
	}
	if got, _ := s.IsDownloaded(ctx, "a"); !got {
		t.Fatalf("flag a not set")
	}

	ids, err := s.Downloaded(ctx)
	if err != nil {
		t.Fatalf("downloaded: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"a", "b", "c"}) {
		t.Fatalf("downloaded = %v", ids)
	}

	if err := s.Clear(ctx, "b"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := s.Clear(ctx, "never-set"); err != nil {
		t.Fatalf("clear absent: %v", err)
	}
	if got, _ := s.IsDownloaded(ctx, "b"); got {
		t.Fatalf("flag b still set after clear")
	}
	ids, _ = s.Downloaded(ctx)
	if !reflect.DeepEqual(ids, []string{"a", "c"}) {
		t.Fatalf("downloaded after clear = %v", ids)
	}
}

func TestInMemoryFlagStore(t *testing.T) {
	exerciseFlagStore(t, NewInMemoryFlagStore())
}

func TestInMemoryFlagStore_EmptyListIsNotNil(t *testing.T) {
	ids, err := NewInMemoryFlagStore().Downloaded(context.Background())
	if err != nil {
		t.Fatalf("downloaded: %v", err)
	}
	if ids == nil || len(ids) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", ids)
	}
}

func TestInMemoryFlagStore_Concurrent(t *testing.T) {
	s := NewInMemoryFlagStore()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("m%d", i%10)
			_ = s.SetDownloaded(ctx, id)
			_, _ = s.IsDownloaded(ctx, id)
			_, _ = s.Downloaded(ctx)
			if i%3 == 0 {
				_ = s.Clear(ctx, id)
			}
		}(i)
	}
	wg.Wait()
}

func TestKeyPrefix(t *testing.T) {
	if flagKey("demo-1") != "model_downloaded_demo-1" {
		t.Fatalf("unexpected key %q", flagKey("demo-1"))
	}
	if _, ok := idFromKey("unrelated"); ok {
		t.Fatalf("unrelated key parsed as flag")
	}
}
