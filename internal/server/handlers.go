package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/knoguchi/kbsearch/internal/query"
	"github.com/knoguchi/kbsearch/internal/service"
	"github.com/knoguchi/kbsearch/internal/vectorstore"
)

type handlers struct {
	search *service.SearchService
	answer *service.AnswerService
	store  vectorstore.VectorStore
	logger *slog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

type statusResponse struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	DocumentCount uint64 `json:"document_count"`
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readiness reports ready once the vector store is reachable.
func (h *handlers) readiness(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.Count(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.Count(r.Context())
	if err != nil {
		h.logger.Warn("document count unavailable", "error", err)
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Status:        "running",
		Service:       "kbsearch",
		DocumentCount: count,
	})
}

func (h *handlers) searchHandler(w http.ResponseWriter, r *http.Request) {
	var req service.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := h.search.Search(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) answerHandler(w http.ResponseWriter, r *http.Request) {
	var req service.AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := h.answer.Answer(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) analyticsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.search.Analytics().Summary())
}

// writeServiceError maps request-validation errors to 400 and everything else
// to 500.
func (h *handlers) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, query.ErrEmptyQuery), errors.Is(err, service.ErrUnknownStrategy):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
