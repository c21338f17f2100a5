package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	v1 "github.com/tinoosan/modelkeep/api/v1"
	"github.com/tinoosan/modelkeep/internal/auth"
	"github.com/tinoosan/modelkeep/internal/repo"
	"github.com/tinoosan/modelkeep/internal/service"
)

// New sets up the application routes and required middleware. A nil ready
// always reports ready.
func New(logger *slog.Logger, svc service.Models, token string, ready repo.Pinger) *mux.Router {
	if logger == nil {
		logger = slog.Default()
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			logger.Error("write healthz response", "err", err)
		}
	}).Methods("GET")

	r.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ready.Ping(ctx); err != nil {
				logger.Warn("readiness check failed", "err", err)
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	}).Methods("GET")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	h := v1.NewModelHandler(logger, svc)

	r.Use(v1.RequestID)
	r.Use(h.Log)
	r.Use(auth.Middleware(token))

	api := r.PathPrefix("/v1").Subrouter()
	api.Use(v1.MiddlewareModelID)

	// GETs
	get := api.Methods("GET").Subrouter()
	get.HandleFunc("/models", h.ListModels)
	get.HandleFunc("/models/downloaded", h.ListDownloaded)
	get.HandleFunc("/models/{id}", h.GetModel)
	get.HandleFunc("/models/{id}/downloaded", h.IsDownloaded)
	get.HandleFunc("/models/{id}/path", h.GetPath)
	get.HandleFunc("/models/{id}/events", h.Events)
	get.HandleFunc("/models/{id}/compatibility", h.GetCompatibility)
	get.HandleFunc("/storage", h.GetStorage)
	get.HandleFunc("/storage/directory", h.GetDirectory)
	get.HandleFunc("/device", h.GetDevice)

	// POSTs
	post := api.Methods("POST").Subrouter()
	post.HandleFunc("/models/{id}/download", h.StartDownload)
	post.HandleFunc("/storage/cleanup", h.Cleanup)

	// DELETEs
	del := api.Methods("DELETE").Subrouter()
	del.HandleFunc("/models/{id}/download", h.CancelDownload)
	del.HandleFunc("/models/{id}", h.DeleteModel)

	return r
}
