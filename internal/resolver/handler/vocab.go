package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lexiconlabs/resolution-platform/internal/vocab"
	apperrors "github.com/lexiconlabs/resolution-platform/pkg/errors"
	"github.com/lexiconlabs/resolution-platform/pkg/logger"
)

// VocabHandler serves vocabulary token lookups through the layered cache.
type VocabHandler struct {
	cache  *vocab.TokenCache
	logger *slog.Logger
}

// NewVocabHandler creates a VocabHandler.
func NewVocabHandler(cache *vocab.TokenCache) *VocabHandler {
	return &VocabHandler{
		cache:  cache,
		logger: slog.Default().With("component", "vocab-handler"),
	}
}

// Token resolves a single word to its token id. Unknown words return 404;
// they are minted only through the resolution pipeline, never by lookup.
func (h *VocabHandler) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	word := r.URL.Query().Get("word")
	if word == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'word' is required")
		return
	}

	tokenID, err := h.cache.GetToken(ctx, word)
	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		if statusCode == http.StatusNotFound {
			h.writeError(w, statusCode, "word not found")
			return
		}
		log.Error("token lookup failed", "word", word, "error", err)
		h.writeError(w, statusCode, "token lookup failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{
		"word":     word,
		"token_id": tokenID,
	})
}

func (h *VocabHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("writing response failed", "error", err)
	}
}

func (h *VocabHandler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
