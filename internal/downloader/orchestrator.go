package downloader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/juju/clock"
	"golang.org/x/sync/errgroup"

	"github.com/tinoosan/modelkeep/internal/catalog"
	"github.com/tinoosan/modelkeep/internal/data"
	"github.com/tinoosan/modelkeep/internal/downloadcfg"
	"github.com/tinoosan/modelkeep/internal/layout"
	"github.com/tinoosan/modelkeep/internal/metrics"
	"github.com/tinoosan/modelkeep/internal/registry"
	"github.com/tinoosan/modelkeep/internal/repo"
	"github.com/tinoosan/modelkeep/internal/transport"
)

// Options tunes an Orchestrator. The zero value is usable.
type Options struct {
	Clock  clock.Clock
	Logger *slog.Logger
	// CancelMode defaults to downloadcfg.CancelAtBoundary.
	CancelMode downloadcfg.CancelMode
	// ProbeConcurrency bounds parallel length probes; defaults to 4.
	ProbeConcurrency int
}

// Orchestrator downloads the files of a model in manifest order, reports
// aggregated progress and records completion in the flag store.
type Orchestrator struct {
	catalog catalog.Catalog
	layout  *layout.Layout
	tr      transport.Transport
	jobs    *registry.Registry
	flags   repo.FlagStore

	clock  clock.Clock
	log    *slog.Logger
	mode   downloadcfg.CancelMode
	probes int
}

func New(cat catalog.Catalog, lay *layout.Layout, tr transport.Transport, jobs *registry.Registry, flags repo.FlagStore, opts Options) *Orchestrator {
	if opts.Clock == nil {
		opts.Clock = clock.WallClock
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.CancelMode == "" {
		opts.CancelMode = downloadcfg.CancelAtBoundary
	}
	if opts.ProbeConcurrency <= 0 {
		opts.ProbeConcurrency = 4
	}
	return &Orchestrator{
		catalog: cat,
		layout:  lay,
		tr:      tr,
		jobs:    jobs,
		flags:   flags,
		clock:   opts.Clock,
		log:     opts.Logger,
		mode:    opts.CancelMode,
		probes:  opts.ProbeConcurrency,
	}
}

// Download is a model download whose job is registered but whose transfer
// has not run yet.
type Download struct {
	o     *Orchestrator
	job   *registry.Job
	model *data.ModelManifest
	specs []data.FileTransferSpec
	ran   atomic.Bool
}

// Job is the registry record backing this download.
func (d *Download) Job() *registry.Job { return d.job }

// Begin resolves modelID to its transfer plan and registers a job for it.
// Catalog and plan errors are returned before any job exists.
func (o *Orchestrator) Begin(ctx context.Context, modelID string) (*Download, error) {
	m, err := o.catalog.Get(ctx, modelID)
	if err != nil {
		return nil, err
	}
	specs, err := o.layout.Plan(m)
	if err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: %s", data.ErrNothingToDownload, modelID)
	}
	job, err := o.jobs.Register(modelID)
	if err != nil {
		return nil, err
	}
	return &Download{o: o, job: job, model: m, specs: specs}, nil
}

// Start runs a whole download synchronously.
func (o *Orchestrator) Start(ctx context.Context, modelID string, rep Reporter) error {
	d, err := o.Begin(ctx, modelID)
	if err != nil {
		return err
	}
	return d.Run(ctx, rep)
}

// Release unregisters a download that will not be run.
func (d *Download) Release() {
	if d.ran.CompareAndSwap(false, true) {
		d.o.jobs.Remove(d.job)
	}
}

// Run probes the total size, transfers every file in order and reports
// progress to rep. Cancellation ends the run with a cancelled event and a nil
// error; a transfer failure ends it with a failed event and the error. The
// job is unregistered on every exit path. Run may be called once.
func (d *Download) Run(ctx context.Context, rep Reporter) error {
	if !d.ran.CompareAndSwap(false, true) {
		return errors.New("download already started")
	}
	o := d.o
	defer o.jobs.Remove(d.job)
	if rep == nil {
		rep = discard{}
	}
	log := o.log.With("model_id", d.model.ID, "job_id", d.job.ID)

	total, sized := o.probe(ctx, d.specs, log)
	p := &tracker{
		modelID: d.model.ID,
		total:   total,
		sized:   sized,
		clock:   o.clock,
		start:   o.clock.Now(),
		rep:     rep,
	}
	log.Info("download started", "files", len(d.specs), "total_bytes", total, "cancel_mode", o.mode)

	for i, spec := range d.specs {
		if !o.jobs.Holds(d.job) {
			p.emit(data.StatusCancelled)
			log.Info("download cancelled", "file_index", i, "downloaded_bytes", p.downloaded())
			return nil
		}
		n, err := d.transfer(ctx, spec, p)
		if err != nil {
			if d.job.Cancelled() && errors.Is(err, context.Canceled) {
				p.emit(data.StatusCancelled)
				log.Info("download cancelled mid-file", "file_index", i, "path", spec.DestinationPath, "downloaded_bytes", p.downloaded())
				return nil
			}
			p.emit(data.StatusFailed)
			log.Error("download failed", "file_index", i, "url", spec.RemoteURL, "downloaded_bytes", p.downloaded(), "err", err)
			return err
		}
		p.finishFile(n)
	}

	if err := o.flags.SetDownloaded(ctx, d.model.ID); err != nil {
		p.emit(data.StatusFailed)
		log.Error("persist downloaded flag", "err", err)
		return fmt.Errorf("persist downloaded flag: %w", err)
	}
	p.emit(data.StatusCompleted)
	log.Info("download completed", "downloaded_bytes", p.downloaded(), "elapsed", o.clock.Now().Sub(p.start))
	return nil
}

// transfer streams one file to its destination. Parent directories are
// created; an existing file is truncated and partial bytes are left on
// failure.
func (d *Download) transfer(ctx context.Context, spec data.FileTransferSpec, p *tracker) (int64, error) {
	if d.o.mode == downloadcfg.CancelImmediate {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(d.job.Context(), cancel)
		defer stop()
	}
	if err := os.MkdirAll(filepath.Dir(spec.DestinationPath), 0o755); err != nil {
		return 0, fmt.Errorf("create directory for %s: %w", spec.DestinationPath, err)
	}
	f, err := os.Create(spec.DestinationPath)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", spec.DestinationPath, err)
	}
	n, err := d.o.tr.Fetch(ctx, spec.RemoteURL, f, p.advance)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close %s: %w", spec.DestinationPath, cerr)
	}
	return n, err
}

// probe sums the remote lengths. A failed or unknown probe counts as 0 and
// marks the total as incomplete.
func (o *Orchestrator) probe(ctx context.Context, specs []data.FileTransferSpec, log *slog.Logger) (uint64, bool) {
	sizes := make([]int64, len(specs))
	var g errgroup.Group
	g.SetLimit(o.probes)
	for i, s := range specs {
		i, s := i, s
		g.Go(func() error {
			n, err := o.tr.ContentLength(ctx, s.RemoteURL)
			if err != nil {
				log.Warn("size probe failed", "url", s.RemoteURL, "err", err)
				return nil
			}
			sizes[i] = n
			return nil
		})
	}
	_ = g.Wait()

	var total uint64
	sized := true
	for _, n := range sizes {
		if n <= 0 {
			sized = false
			continue
		}
		total += uint64(n)
	}
	return total, sized
}

// tracker turns per-file byte counts into cumulative progress events. It is
// only touched from the goroutine running the download.
type tracker struct {
	modelID string
	total   uint64
	sized   bool
	done    uint64
	current uint64

	clock clock.Clock
	start time.Time
	rep   Reporter
}

// downloaded never exceeds a fully known total.
func (t *tracker) downloaded() uint64 {
	n := t.done + t.current
	if t.sized && n > t.total {
		return t.total
	}
	return n
}

func (t *tracker) advance(written int64) {
	t.current = uint64(written)
	n := t.downloaded()
	speed := data.SpeedMBps(n, t.clock.Now().Sub(t.start))
	t.rep.Report(data.NewProgressEvent(t.modelID, n, t.total, speed, data.StatusDownloading))
}

func (t *tracker) finishFile(written int64) {
	t.done += uint64(written)
	t.current = 0
}

// emit reports a terminal status; terminal events carry no speed.
func (t *tracker) emit(status data.DownloadStatus) {
	metrics.DownloadEvents.WithLabelValues(string(status)).Inc()
	t.rep.Report(data.NewProgressEvent(t.modelID, t.downloaded(), t.total, 0, status))
}

// Cancel signals the registered job for modelID. With the boundary mode the
// file in flight still completes before the download stops.
func (o *Orchestrator) Cancel(modelID string) bool {
	ok := o.jobs.Cancel(modelID)
	if ok {
		o.log.Info("download cancel requested", "model_id", modelID, "mode", o.mode)
	}
	return ok
}

func (o *Orchestrator) Active() []string { return o.jobs.Active() }

func (o *Orchestrator) IsModelDownloaded(ctx context.Context, modelID string) (bool, error) {
	return o.flags.IsDownloaded(ctx, modelID)
}

func (o *Orchestrator) ModelPath(ctx context.Context, modelID string) (string, bool, error) {
	ok, err := o.flags.IsDownloaded(ctx, modelID)
	if err != nil || !ok {
		return "", false, err
	}
	m, err := o.catalog.Get(ctx, modelID)
	if errors.Is(err, data.ErrModelNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	p, err := o.layout.PrimaryPath(m)
	if err != nil {
		return "", false, nil
	}
	st, err := os.Stat(p)
	if err != nil || !st.Mode().IsRegular() {
		return "", false, nil
	}
	return p, true, nil
}

// Delete removes a model's files and clears its flag. A dedicated-layout
// model loses its whole directory; a shared-layout model loses only the files
// its manifest names. The flag is cleared even when removal fails.
func (o *Orchestrator) Delete(ctx context.Context, modelID string) error {
	m, err := o.catalog.Get(ctx, modelID)
	if err != nil {
		return err
	}
	if _, busy := o.jobs.Lookup(modelID); busy {
		return data.ErrDownloadInProgress
	}
	paths, err := o.layout.OwnedPaths(m)
	if err != nil {
		return err
	}
	var firstErr error
	for _, p := range paths {
		var rerr error
		if m.LayoutVersion == layout.Dedicated {
			rerr = os.RemoveAll(p)
		} else {
			rerr = os.Remove(p)
		}
		if rerr != nil && !errors.Is(rerr, os.ErrNotExist) && firstErr == nil {
			firstErr = rerr
		}
	}
	if err := o.flags.Clear(ctx, modelID); err != nil {
		return err
	}
	o.log.Info("model deleted", "model_id", modelID, "paths", len(paths))
	return firstErr
}

// ModelsDirectory is the absolute models root.
func (o *Orchestrator) ModelsDirectory() string { return o.layout.Root() }
