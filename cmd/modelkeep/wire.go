package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tinoosan/modelkeep/internal/catalog"
	"github.com/tinoosan/modelkeep/internal/config"
	"github.com/tinoosan/modelkeep/internal/downloader"
	"github.com/tinoosan/modelkeep/internal/hub"
	"github.com/tinoosan/modelkeep/internal/layout"
	"github.com/tinoosan/modelkeep/internal/logging"
	"github.com/tinoosan/modelkeep/internal/registry"
	"github.com/tinoosan/modelkeep/internal/repo"
	"github.com/tinoosan/modelkeep/internal/service"
	"github.com/tinoosan/modelkeep/internal/storage"
	"github.com/tinoosan/modelkeep/internal/transport"
)

// app holds the wired components of one process.
type app struct {
	cfg   config.Config
	log   *slog.Logger
	store repo.FlagStore
	cat   *catalog.File
	hub   *hub.Hub
	svc   service.Models

	closers []io.Closer
}

type wireOpts struct {
	// withHub enables background downloads and progress streaming.
	withHub bool
	// logOut defaults to stdout.
	logOut io.Writer
}

func openApp(o *overrides, wo wireOpts) (*app, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	if err := o.apply(&cfg); err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	out := wo.logOut
	if out == nil {
		out = os.Stdout
	}
	if o.verbose {
		level = "debug"
		out = os.Stderr
	}
	logger, logCloser := logging.New(logging.Options{
		Level:  level,
		File:   cfg.LogFile,
		MaxMB:  cfg.LogMaxMB,
		Stdout: out,
	})
	a := &app{cfg: cfg, log: logger, closers: []io.Closer{logCloser}}

	store, err := openStore(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = store
	if c, ok := store.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}

	cat, err := catalog.OpenFile(cfg.Catalog, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.cat = cat

	lay, err := layout.New(cfg.ModelsDir())
	if err != nil {
		a.Close()
		return nil, err
	}
	tr := transport.NewHTTP(transport.Options{
		ConnectTimeout: cfg.HTTPTimeout,
		ReadTimeout:    cfg.HTTPTimeout,
		RateLimit:      cfg.RateLimitBPS,
	})
	dlr := downloader.New(cat, lay, tr, registry.New(nil), store, downloader.Options{
		Logger:           logger,
		CancelMode:       cfg.CancelMode,
		ProbeConcurrency: cfg.ProbeConcurrency,
	})
	if wo.withHub {
		a.hub = hub.New(logger, hub.DefaultBuffer)
	}
	a.svc = service.NewModels(service.Deps{
		Catalog:    cat,
		Downloader: dlr,
		Flags:      store,
		Hub:        a.hub,
		Storage:    storage.New(lay.Root(), store, logger),
		Logger:     logger,
	})
	return a, nil
}

func openStore(cfg config.Config, logger *slog.Logger) (repo.FlagStore, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return repo.NewInMemoryFlagStore(), nil
	case config.StorePostgres:
		s, err := repo.NewPostgresFlagStoreFromEnv()
		if err != nil {
			return nil, fmt.Errorf("open postgres flag store: %w", err)
		}
		return s, nil
	default:
		s, err := repo.NewBadgerFlagStore(repo.BadgerConfig{Path: cfg.BadgerDir, Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("open flag store %s (is a server already running?): %w", cfg.BadgerDir, err)
		}
		return s, nil
	}
}

// Close releases the store and the log file, in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
