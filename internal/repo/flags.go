package repo

import (
	"context"
	"strings"
)

// KeyPrefix namespaces downloaded flags so they do not collide with other
// keys kept in the same store.
const KeyPrefix = "model_downloaded_"

// FlagStore persists which model ids finished downloading.
type FlagStore interface {
	FlagReader
	FlagWriter
}

type FlagReader interface {
	// IsDownloaded reports the flag for id; absent means false.
	IsDownloaded(ctx context.Context, id string) (bool, error)
	// Downloaded lists every id whose flag is true, sorted.
	Downloaded(ctx context.Context) ([]string, error)
}

type FlagWriter interface {
	SetDownloaded(ctx context.Context, id string) error
	// Clear removes the flag. Clearing an absent flag is not an error.
	Clear(ctx context.Context, id string) error
}

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

func flagKey(id string) string { return KeyPrefix + id }

func idFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, KeyPrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, KeyPrefix), true
}
