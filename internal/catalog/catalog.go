package catalog

import (
	"context"
	"sync"

	"github.com/tinoosan/modelkeep/internal/data"
)

// Catalog resolves model ids to manifests.
type Catalog interface {
	Get(ctx context.Context, id string) (*data.ModelManifest, error)
	List(ctx context.Context) (data.Models, error)
}

// Static is an in-memory catalog. It is safe for concurrent use.
type Static struct {
	mu     sync.RWMutex
	models data.Models
}

func NewStatic(models ...*data.ModelManifest) *Static {
	s := &Static{}
	s.Replace(models)
	return s
}

// Replace swaps the whole listing.
func (s *Static) Replace(models data.Models) {
	cp := models.Clone()
	s.mu.Lock()
	s.models = cp
	s.mu.Unlock()
}

func (s *Static) Get(ctx context.Context, id string) (*data.ModelManifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.models {
		if m.ID == id {
			return m.Clone(), nil
		}
	}
	return nil, data.ErrModelNotFound
}

func (s *Static) List(ctx context.Context) (data.Models, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.models.Clone(), nil
}
