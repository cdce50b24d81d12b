// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/livepoll/livepoll/admission"
	"github.com/livepoll/livepoll/identity"
	"github.com/livepoll/livepoll/middleware"
	"github.com/livepoll/livepoll/models"
)

// VoteHandler exposes the admission pipeline over HTTP.
type VoteHandler struct {
	svc *admission.Service
}

func NewVoteHandler(svc *admission.Service) *VoteHandler {
	return &VoteHandler{svc: svc}
}

// Vote handles POST /polls/{id}/vote
//
// The session token is taken from the request body first and falls back to
// the X-Session-ID header, so both browser fetch clients and simple curl
// callers work.
func (h *VoteHandler) Vote(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if strings.TrimSpace(req.OptionID) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "option_id is required")
		return
	}

	token := req.SessionToken
	if token == "" {
		token = r.Header.Get("X-Session-ID")
	}

	result := h.svc.Admit(r.Context(), pollID, req.OptionID, identity.Request{
		RemoteIP:       middleware.GetClientIP(r),
		SessionToken:   token,
		AcceptLanguage: r.Header.Get("Accept-Language"),
	})

	switch result.Outcome {
	case admission.OutcomeAccepted:
		middleware.JSONResponse(w, http.StatusOK, models.SubmitVoteResponse{
			Success: true,
			Message: "Vote recorded",
			Results: result.Snapshot,
		})
	case admission.OutcomePollNotFound:
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
	case admission.OutcomeInvalidOption:
		middleware.ErrorResponse(w, http.StatusNotFound, "Option not found")
	case admission.OutcomeMissingIdentity:
		middleware.ErrorResponse(w, http.StatusBadRequest, "Session ID required for this poll")
	case admission.OutcomeAlreadyVoted:
		middleware.ErrorResponse(w, http.StatusConflict, "You have already voted in this poll")
	case admission.OutcomePollExpired:
		middleware.ErrorResponse(w, http.StatusGone, "This poll has expired")
	case admission.OutcomeRateLimited:
		middleware.ErrorResponse(w, http.StatusTooManyRequests, "Too many requests")
	default:
		slog.Error("vote admission error", "poll_id", pollID, "error", result.Err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to record vote")
	}
}
