package registry

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"

	"github.com/tinoosan/modelkeep/internal/data"
	"github.com/tinoosan/modelkeep/internal/metrics"
)

// Job is the runtime record of one in-progress model download.
type Job struct {
	ID        string    `json:"jobId"`
	ModelID   string    `json:"modelId"`
	StartedAt time.Time `json:"startedAt"`

	ctx       context.Context
	cancel    context.CancelFunc
	cancelled atomic.Bool
}

// Context is done once the job is cancelled.
func (j *Job) Context() context.Context { return j.ctx }

// Cancelled reports whether a cancel was requested for this job.
func (j *Job) Cancelled() bool { return j.cancelled.Load() }

func (j *Job) signal() {
	j.cancelled.Store(true)
	j.cancel()
}

// Registry tracks the single active job per model id. It is safe for
// concurrent use.
type Registry struct {
	clock clock.Clock

	mu   sync.RWMutex
	jobs map[string]*Job
}

func New(clk clock.Clock) *Registry {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Registry{clock: clk, jobs: make(map[string]*Job)}
}

// Register creates a job for modelID. A second registration while a job is
// present is rejected with data.ErrDownloadInProgress.
func (r *Registry) Register(modelID string) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[modelID]; ok {
		metrics.JobsRejected.Inc()
		return nil, data.ErrDownloadInProgress
	}
	ctx, cancel := context.WithCancel(context.Background())
	j := &Job{
		ID:        uuid.NewString(),
		ModelID:   modelID,
		StartedAt: r.clock.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}
	r.jobs[modelID] = j
	metrics.ActiveDownloads.Set(float64(len(r.jobs)))
	return j, nil
}

// Lookup returns the job registered for modelID.
func (r *Registry) Lookup(modelID string) (*Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[modelID]
	return j, ok
}

// Holds reports whether j is still the registered job for its model. A
// cancelled job is no longer held.
func (r *Registry) Holds(j *Job) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.jobs[j.ModelID] == j
}

// Cancel signals the job for modelID and removes it. It reports whether a
// job was registered; calling it with no job is a no-op.
//
// The slot is freed at once: in boundary mode the cancelled run may still be
// writing its current file while a new Register for the same model succeeds.
func (r *Registry) Cancel(modelID string) bool {
	r.mu.Lock()
	j, ok := r.jobs[modelID]
	if ok {
		delete(r.jobs, modelID)
		metrics.ActiveDownloads.Set(float64(len(r.jobs)))
	}
	r.mu.Unlock()
	if ok {
		j.signal()
	}
	return ok
}

// Remove drops j if it is still registered and releases its context. A newer
// job registered under the same model id is left alone.
func (r *Registry) Remove(j *Job) {
	r.mu.Lock()
	if r.jobs[j.ModelID] == j {
		delete(r.jobs, j.ModelID)
		metrics.ActiveDownloads.Set(float64(len(r.jobs)))
	}
	r.mu.Unlock()
	j.cancel()
}

// Active lists the model ids with a registered job, sorted.
func (r *Registry) Active() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.jobs))
	for id := range r.jobs {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}
