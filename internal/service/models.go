package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/tinoosan/modelkeep/internal/capability"
	"github.com/tinoosan/modelkeep/internal/catalog"
	"github.com/tinoosan/modelkeep/internal/data"
	"github.com/tinoosan/modelkeep/internal/downloader"
	"github.com/tinoosan/modelkeep/internal/hub"
	"github.com/tinoosan/modelkeep/internal/registry"
	"github.com/tinoosan/modelkeep/internal/repo"
	"github.com/tinoosan/modelkeep/internal/storage"
)

// ModelEntry is a catalog manifest with its local download state.
type ModelEntry struct {
	*data.ModelManifest
	Downloaded bool `json:"downloaded"`
}

// Models is the model management facade used by the API and the CLI.
type Models interface {
	List(ctx context.Context) ([]ModelEntry, error)
	Get(ctx context.Context, id string) (ModelEntry, error)
	IsDownloaded(ctx context.Context, id string) (bool, error)
	Path(ctx context.Context, id string) (string, bool, error)
	Downloaded(ctx context.Context) ([]string, error)

	// StartDownload registers the job and transfers in the background,
	// publishing progress to the hub.
	StartDownload(ctx context.Context, id string) (*registry.Job, error)
	// Pull downloads synchronously, reporting to rep.
	Pull(ctx context.Context, id string, rep downloader.Reporter) error
	CancelDownload(id string) bool
	Subscribe(ctx context.Context, id string) (*hub.Subscription, error)
	Delete(ctx context.Context, id string) error

	Storage(ctx context.Context) (data.StorageSnapshot, error)
	ModelsDirectory() string
	CleanupIncomplete(ctx context.Context) error

	Device(chipset string) capability.Device
	Compatibility(ctx context.Context, id, chipset string) (capability.Compatibility, error)

	// Shutdown cancels every running download and waits for the background
	// ones to finish, or for ctx to end.
	Shutdown(ctx context.Context) error
}

type models struct {
	cat     catalog.Catalog
	dlr     downloader.Downloader
	flags   repo.FlagReader
	hub     *hub.Hub
	storage *storage.Accountant
	log     *slog.Logger

	wg sync.WaitGroup
}

// Deps groups what NewModels wires together. Hub may be nil when nothing
// runs downloads in the background.
type Deps struct {
	Catalog    catalog.Catalog
	Downloader downloader.Downloader
	Flags      repo.FlagReader
	Hub        *hub.Hub
	Storage    *storage.Accountant
	Logger     *slog.Logger
}

func NewModels(d Deps) Models {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &models{
		cat:     d.Catalog,
		dlr:     d.Downloader,
		flags:   d.Flags,
		hub:     d.Hub,
		storage: d.Storage,
		log:     d.Logger,
	}
}

func (s *models) List(ctx context.Context) ([]ModelEntry, error) {
	all, err := s.cat.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ModelEntry, 0, len(all))
	for _, m := range all {
		ok, err := s.flags.IsDownloaded(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, ModelEntry{ModelManifest: m, Downloaded: ok})
	}
	return out, nil
}

func (s *models) Get(ctx context.Context, id string) (ModelEntry, error) {
	m, err := s.cat.Get(ctx, id)
	if err != nil {
		return ModelEntry{}, err
	}
	ok, err := s.flags.IsDownloaded(ctx, id)
	if err != nil {
		return ModelEntry{}, err
	}
	return ModelEntry{ModelManifest: m, Downloaded: ok}, nil
}

func (s *models) IsDownloaded(ctx context.Context, id string) (bool, error) {
	return s.dlr.IsModelDownloaded(ctx, id)
}

func (s *models) Path(ctx context.Context, id string) (string, bool, error) {
	return s.dlr.ModelPath(ctx, id)
}

func (s *models) Downloaded(ctx context.Context) ([]string, error) {
	ids, err := s.flags.Downloaded(ctx)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (s *models) StartDownload(ctx context.Context, id string) (*registry.Job, error) {
	d, err := s.dlr.Begin(ctx, id)
	if err != nil {
		return nil, err
	}
	var rep downloader.Reporter
	if s.hub != nil {
		rep = s.hub
	}
	// the request context ends with the response, the download must not
	runCtx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := d.Run(runCtx, rep); err != nil {
			s.log.Error("background download", "model_id", id, "err", err)
		}
	}()
	return d.Job(), nil
}

func (s *models) Pull(ctx context.Context, id string, rep downloader.Reporter) error {
	d, err := s.dlr.Begin(ctx, id)
	if err != nil {
		return err
	}
	return d.Run(ctx, rep)
}

func (s *models) CancelDownload(id string) bool { return s.dlr.Cancel(id) }

func (s *models) Subscribe(ctx context.Context, id string) (*hub.Subscription, error) {
	if _, err := s.cat.Get(ctx, id); err != nil {
		return nil, err
	}
	if s.hub == nil {
		return nil, errors.New("progress streaming is not enabled")
	}
	return s.hub.Subscribe(id, 0), nil
}

func (s *models) Delete(ctx context.Context, id string) error {
	return s.dlr.Delete(ctx, id)
}

func (s *models) Storage(ctx context.Context) (data.StorageSnapshot, error) {
	return s.storage.Snapshot(ctx)
}

func (s *models) ModelsDirectory() string { return s.dlr.ModelsDirectory() }

// CleanupIncomplete keeps partial files: a retry downloads every file from
// byte zero and overwrites them.
func (s *models) CleanupIncomplete(ctx context.Context) error {
	s.log.Info("cleanup of incomplete downloads requested; partial files are kept", "dir", s.dlr.ModelsDirectory())
	return nil
}

func (s *models) Device(chipset string) capability.Device {
	return capability.DeviceInfo(chipset)
}

func (s *models) Compatibility(ctx context.Context, id, chipset string) (capability.Compatibility, error) {
	if _, err := s.cat.Get(ctx, id); err != nil {
		return capability.Compatibility{}, err
	}
	return capability.CheckCompatibility(id, chipset), nil
}

func (s *models) Shutdown(ctx context.Context) error {
	for _, id := range s.dlr.Active() {
		s.dlr.Cancel(id)
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
