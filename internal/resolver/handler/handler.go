// Package handler exposes the resolution engine over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lexiconlabs/resolution-platform/internal/resolver"
	"github.com/lexiconlabs/resolution-platform/internal/segmenter"
	"github.com/lexiconlabs/resolution-platform/pkg/logger"
	"github.com/lexiconlabs/resolution-platform/pkg/metrics"
)

// maxBodyBytes caps the request body to keep one document per request.
const maxBodyBytes = 1 << 20

// ResolveRequest is the POST /v1/resolve body.
type ResolveRequest struct {
	Text string `json:"text"`
}

// Handler serves the resolve endpoint.
type Handler struct {
	orch    *resolver.Orchestrator
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a Handler. The metrics handle may be nil.
func New(orch *resolver.Orchestrator, m *metrics.Metrics) *Handler {
	return &Handler{
		orch:    orch,
		metrics: m,
		logger:  slog.Default().With("component", "resolve-handler"),
	}
}

// Resolve segments the posted text and returns the resolution manifest.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	var req ResolveRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Text == "" {
		h.writeError(w, http.StatusBadRequest, "field 'text' is required")
		return
	}

	runs := segmenter.Segment(req.Text)
	manifest := h.orch.Resolve(runs)
	resolver.RecordMetrics(h.metrics, manifest, "http")

	log.Info("resolve request completed",
		"runs", manifest.TotalRuns,
		"resolved", manifest.ResolvedRuns,
		"unresolved", manifest.UnresolvedRuns,
		"time_ms", manifest.TotalTimeMs,
	)
	h.writeJSON(w, http.StatusOK, manifest)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("writing response failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
