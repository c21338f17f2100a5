package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tinoosan/modelkeep/internal/reqid"
	"github.com/tinoosan/modelkeep/internal/service"
)

// ModelHandler serves the model management API.
type ModelHandler struct {
	l   *slog.Logger
	svc service.Models
}

func NewModelHandler(l *slog.Logger, svc service.Models) *ModelHandler {
	if l == nil {
		l = slog.Default()
	}
	return &ModelHandler{l: l, svc: svc}
}

type startResponse struct {
	ModelID   string    `json:"modelId"`
	JobID     string    `json:"jobId"`
	StartedAt time.Time `json:"startedAt"`
}

type downloadedResponse struct {
	ModelID    string `json:"modelId"`
	Downloaded bool   `json:"downloaded"`
}

type pathResponse struct {
	ModelID string  `json:"modelId"`
	Path    *string `json:"path"`
}

type directoryResponse struct {
	Path string `json:"path"`
}

func (h *ModelHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.svc.List(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models)
}

func (h *ModelHandler) GetModel(w http.ResponseWriter, r *http.Request) {
	id, err := modelID(r)
	if err != nil {
		fail(w, err)
		return
	}
	m, err := h.svc.Get(r.Context(), id)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *ModelHandler) ListDownloaded(w http.ResponseWriter, r *http.Request) {
	ids, err := h.svc.Downloaded(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

func (h *ModelHandler) IsDownloaded(w http.ResponseWriter, r *http.Request) {
	id, err := modelID(r)
	if err != nil {
		fail(w, err)
		return
	}
	ok, err := h.svc.IsDownloaded(r.Context(), id)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, downloadedResponse{ModelID: id, Downloaded: ok})
}

func (h *ModelHandler) GetPath(w http.ResponseWriter, r *http.Request) {
	id, err := modelID(r)
	if err != nil {
		fail(w, err)
		return
	}
	p, ok, err := h.svc.Path(r.Context(), id)
	if err != nil {
		fail(w, err)
		return
	}
	resp := pathResponse{ModelID: id}
	if ok {
		resp.Path = &p
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ModelHandler) StartDownload(w http.ResponseWriter, r *http.Request) {
	id, err := modelID(r)
	if err != nil {
		fail(w, err)
		return
	}
	job, err := h.svc.StartDownload(r.Context(), id)
	if err != nil {
		fail(w, err)
		return
	}
	reqid.Logger(r.Context(), h.l).Info("download accepted", "model_id", id, "job_id", job.ID)
	writeJSON(w, http.StatusAccepted, startResponse{ModelID: job.ModelID, JobID: job.ID, StartedAt: job.StartedAt})
}

// CancelDownload always answers 204; cancelling an idle model is a no-op.
func (h *ModelHandler) CancelDownload(w http.ResponseWriter, r *http.Request) {
	id, err := modelID(r)
	if err != nil {
		fail(w, err)
		return
	}
	if h.svc.CancelDownload(id) {
		reqid.Logger(r.Context(), h.l).Info("download cancel requested", "model_id", id)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ModelHandler) DeleteModel(w http.ResponseWriter, r *http.Request) {
	id, err := modelID(r)
	if err != nil {
		fail(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ModelHandler) GetStorage(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Storage(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *ModelHandler) GetDirectory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, directoryResponse{Path: h.svc.ModelsDirectory()})
}

func (h *ModelHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.CleanupIncomplete(r.Context()); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ModelHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Device(r.URL.Query().Get("chipset")))
}

func (h *ModelHandler) GetCompatibility(w http.ResponseWriter, r *http.Request) {
	id, err := modelID(r)
	if err != nil {
		fail(w, err)
		return
	}
	c, err := h.svc.Compatibility(r.Context(), id, r.URL.Query().Get("chipset"))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
