// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/livepoll/livepoll/middleware"
	"github.com/livepoll/livepoll/store"
)

// ResultsHandler serves point-in-time aggregates.
type ResultsHandler struct {
	store *store.SQLStore
}

func NewResultsHandler(st *store.SQLStore) *ResultsHandler {
	return &ResultsHandler{store: st}
}

// Results handles GET /polls/{id}/results
func (h *ResultsHandler) Results(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	snap, err := h.store.Aggregate(r.Context(), pollID)
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to aggregate results", "poll_id", pollID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, snap)
}
