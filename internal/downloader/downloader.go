package downloader

import "context"

// Downloader is the model download lifecycle used by the service layer.
type Downloader interface {
	// Begin resolves the model and registers its job. The returned
	// Download must be Run or Released.
	Begin(ctx context.Context, modelID string) (*Download, error)
	// Cancel stops the job for modelID, if any. It is idempotent.
	Cancel(modelID string) bool
	// Active lists the model ids with a running job.
	Active() []string
	IsModelDownloaded(ctx context.Context, modelID string) (bool, error)
	// ModelPath returns the primary file path only when the model is
	// flagged as downloaded and the file is present on disk.
	ModelPath(ctx context.Context, modelID string) (string, bool, error)
	Delete(ctx context.Context, modelID string) error
	ModelsDirectory() string
}

var _ Downloader = (*Orchestrator)(nil)
