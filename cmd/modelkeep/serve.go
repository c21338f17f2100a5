package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tinoosan/modelkeep/internal/metrics"
	"github.com/tinoosan/modelkeep/internal/repo"
	"github.com/tinoosan/modelkeep/internal/router"
)

const shutdownTimeout = 30 * time.Second

func serveCmd(o *overrides) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(o, wireOpts{withHub: true})
			if err != nil {
				return err
			}
			defer a.Close()
			if addr != "" {
				a.cfg.Addr = addr
			}
			if err := a.cfg.ValidateServe(); err != nil {
				return err
			}
			l := a.log

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			metrics.Register()
			a.hub.Run()
			if err := a.cat.Watch(ctx); err != nil {
				l.Warn("catalog watch disabled", "path", a.cat.Path(), "err", err)
			}

			var ready repo.Pinger
			if p, ok := a.store.(repo.Pinger); ok {
				ready = p
			}
			server := &http.Server{
				Addr:              a.cfg.Addr,
				Handler:           router.New(l, a.svc, a.cfg.APIToken, ready),
				IdleTimeout:       120 * time.Second,
				ReadHeaderTimeout: 5 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				l.Info("starting modelkeep API", "addr", server.Addr, "models_dir", a.svc.ModelsDirectory(), "store", a.cfg.Store)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			select {
			case err := <-errc:
				if err != nil {
					a.hub.Stop()
					return err
				}
			case <-ctx.Done():
				l.Info("received terminate, graceful shutdown")
			}

			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(sctx); err != nil {
				l.Error("http shutdown", "err", err)
			}
			if err := a.svc.Shutdown(sctx); err != nil {
				l.Error("downloads did not stop in time", "err", err)
			}
			a.hub.Stop()
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (env MODELKEEP_ADDR)")
	return cmd
}
