// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/livepoll/livepoll/cliparse"
	"github.com/livepoll/livepoll/middleware"
	"github.com/livepoll/livepoll/models"
)

type PollHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewPollHandler(db *sql.DB, cfg cliparse.Config) *PollHandler {
	return &PollHandler{db: db, cfg: cfg}
}

// CreatePoll handles POST /polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate input
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "question is required")
		return
	}
	if len(req.Question) > 500 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "question must be at most 500 characters")
		return
	}
	if len(req.Options) < 2 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "at least 2 options are required")
		return
	}
	for _, label := range req.Options {
		if strings.TrimSpace(label) == "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, "option labels cannot be empty")
			return
		}
	}

	security := strings.ToLower(strings.TrimSpace(req.Security))
	if security == "" {
		security = models.PolicyIP
	}
	if !models.ValidPolicy(security) {
		middleware.ErrorResponse(w, http.StatusBadRequest,
			"security must be one of: none, session, ip_address, device_fingerprint")
		return
	}

	if req.DurationMinutes < 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "duration_minutes cannot be negative")
		return
	}

	now := time.Now().UTC()
	var expiresAt *time.Time
	if req.DurationMinutes > 0 {
		t := now.Add(time.Duration(req.DurationMinutes) * time.Minute)
		expiresAt = &t
	}

	pollID := uuid.NewString()

	// Insert poll and options in one transaction
	tx, err := h.db.Begin()
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO poll (id, question, security, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`, pollID, req.Question, security, now, expiresAt)
	if err != nil {
		slog.Error("failed to insert poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	options := make([]models.Option, 0, len(req.Options))
	for i, label := range req.Options {
		opt := models.Option{
			ID:     uuid.NewString(),
			PollID: pollID,
			Label:  strings.TrimSpace(label),
		}
		_, err = tx.Exec(`
			INSERT INTO option (id, poll_id, label, position, vote_count)
			VALUES ($1, $2, $3, $4, 0)
		`, opt.ID, pollID, opt.Label, i)
		if err != nil {
			slog.Error("failed to insert option", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
			return
		}
		options = append(options, opt)
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create poll")
		return
	}

	expiry := "never"
	if expiresAt != nil {
		expiry = humanize.Time(*expiresAt)
	}
	slog.Info("poll created", "poll_id", pollID, "security", security, "expires", expiry)

	middleware.JSONResponse(w, http.StatusCreated, models.CreatePollResponse{
		Poll: models.Poll{
			ID:        pollID,
			Question:  req.Question,
			Security:  security,
			CreatedAt: now,
			ExpiresAt: expiresAt,
		},
		Options: options,
	})
}

// GetPoll handles GET /polls/{id}
// Returns poll details with options and their current counts
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	var poll models.Poll
	err := h.db.QueryRow(`
		SELECT id, question, security, created_at, expires_at
		FROM poll
		WHERE id = $1
	`, pollID).Scan(&poll.ID, &poll.Question, &poll.Security, &poll.CreatedAt, &poll.ExpiresAt)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}
	if err != nil {
		slog.Error("failed to query poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	rows, err := h.db.Query(`
		SELECT id, poll_id, label, vote_count
		FROM option
		WHERE poll_id = $1
		ORDER BY position, id
	`, poll.ID)
	if err != nil {
		slog.Error("failed to query options", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	options := []models.Option{}
	for rows.Next() {
		var opt models.Option
		if err := rows.Scan(&opt.ID, &opt.PollID, &opt.Label, &opt.VoteCount); err != nil {
			slog.Error("failed to scan option", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		options = append(options, opt)
	}

	middleware.JSONResponse(w, http.StatusOK, models.PollWithOptions{
		Poll:    poll,
		Options: options,
	})
}

// ListPolls handles GET /polls
// Returns poll summaries with option and vote totals, newest first
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.Query(`
		SELECT p.id, p.question, p.security, p.created_at, p.expires_at,
		       COUNT(o.id), COALESCE(SUM(o.vote_count), 0)
		FROM poll p
		LEFT JOIN option o ON o.poll_id = p.id
		GROUP BY p.id, p.question, p.security, p.created_at, p.expires_at
		ORDER BY p.created_at DESC
	`)
	if err != nil {
		slog.Error("failed to query polls", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	polls := []models.PollSummary{}
	for rows.Next() {
		var s models.PollSummary
		if err := rows.Scan(&s.ID, &s.Question, &s.Security, &s.CreatedAt, &s.ExpiresAt,
			&s.OptionCount, &s.TotalVotes); err != nil {
			slog.Error("failed to scan poll summary", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		polls = append(polls, s)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to query polls", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ListPollsResponse{Polls: polls})
}

// DeletePoll handles DELETE /polls/{id}
func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if pollID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id is required")
		return
	}

	res, err := h.db.Exec(`DELETE FROM poll WHERE id = $1`, pollID)
	if err != nil {
		slog.Error("failed to delete poll", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	affected, err := res.RowsAffected()
	if err != nil {
		slog.Error("failed to read delete result", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if affected == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}

	slog.Info("poll deleted", "poll_id", pollID)

	w.WriteHeader(http.StatusNoContent)
}
