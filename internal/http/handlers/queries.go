package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/wolfman30/hospital-ai-platform/internal/assistant"
	"github.com/wolfman30/hospital-ai-platform/pkg/logging"
)

// QueryHandler exposes the assistant over HTTP.
type QueryHandler struct {
	dispatcher assistant.Dispatcher
	logger     *logging.Logger
}

// NewQueryHandler wires the handler to a dispatcher.
func NewQueryHandler(dispatcher assistant.Dispatcher, logger *logging.Logger) *QueryHandler {
	if dispatcher == nil {
		panic("handlers: dispatcher required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &QueryHandler{dispatcher: dispatcher, logger: logger}
}

type queryRequest struct {
	Query string `json:"query"`
}

// Handle accepts a free-text query and returns the assistant's Result.
// Domain failures come back as 200 with ok=false; only malformed requests
// and infrastructure faults map to HTTP error codes.
func (h *QueryHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "request body must be JSON with a \"query\" field")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSONError(w, http.StatusBadRequest, "query must not be empty")
		return
	}

	result, err := h.dispatcher.Handle(r.Context(), req.Query)
	if err != nil {
		if errors.Is(err, assistant.ErrOrchestratorClosed) {
			writeJSONError(w, http.StatusServiceUnavailable, "service is shutting down")
			return
		}
		h.logger.Error("query dispatch failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "could not process the query")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
