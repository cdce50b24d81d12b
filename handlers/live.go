// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/livepoll/livepoll/broadcast"
	"github.com/livepoll/livepoll/middleware"
	"github.com/livepoll/livepoll/models"
	"github.com/livepoll/livepoll/store"
)

// keepaliveInterval is how often an idle live stream emits an SSE comment
// so proxies don't time out the connection.
const keepaliveInterval = 25 * time.Second

// LiveHandler streams aggregate updates to viewers over server-sent events.
type LiveHandler struct {
	store *store.SQLStore
	hub   *broadcast.Hub
}

func NewLiveHandler(st *store.SQLStore, hub *broadcast.Hub) *LiveHandler {
	return &LiveHandler{store: st, hub: hub}
}

// Live handles GET /polls/{id}/live
//
// The client gets the current aggregate immediately, then one event per
// accepted vote until it disconnects. A viewer that joins after votes were
// cast still starts from the real totals because the first snapshot comes
// from the store, not the hub.
func (h *LiveHandler) Live(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	snap, err := h.store.Aggregate(r.Context(), pollID)
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to load initial aggregate", "poll_id", pollID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Subscribe before writing the initial snapshot so a vote landing in
	// between is not lost; it may arrive twice, which the client tolerates
	// because snapshots are absolute, not deltas.
	sub := h.hub.Subscribe(pollID)
	defer h.hub.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, snap); err != nil {
		return
	}
	flusher.Flush()

	slog.Info("live viewer connected", "poll_id", pollID, "viewers", h.hub.SubscriberCount(pollID))

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-sub.Updates():
			if !ok {
				return
			}
			if err := writeEvent(w, snap); err != nil {
				return
			}
			flusher.Flush()
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, snap models.AggregateSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: results\ndata: %s\n\n", data)
	return err
}
