// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/livepoll/livepoll/models"
)

// ErrNotFound is returned when a poll does not exist (or was deleted).
var ErrNotFound = errors.New("poll not found")

// SQLStore is the read side of poll persistence used by the admission and
// results paths: poll snapshots and current aggregates. Poll CRUD stays in
// the handlers that own it.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// GetPollSnapshot loads the read-mostly poll view the admission path needs.
func (s *SQLStore) GetPollSnapshot(ctx context.Context, pollID string) (models.PollSnapshot, error) {
	var snap models.PollSnapshot
	err := s.db.QueryRowContext(ctx, `
		SELECT id, security, created_at, expires_at
		FROM poll
		WHERE id = $1
	`, pollID).Scan(&snap.ID, &snap.Security, &snap.CreatedAt, &snap.ExpiresAt)

	if err == sql.ErrNoRows {
		return models.PollSnapshot{}, ErrNotFound
	}
	if err != nil {
		return models.PollSnapshot{}, fmt.Errorf("failed to query poll: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM option WHERE poll_id = $1 ORDER BY position, id
	`, pollID)
	if err != nil {
		return models.PollSnapshot{}, fmt.Errorf("failed to query options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return models.PollSnapshot{}, fmt.Errorf("failed to scan option: %w", err)
		}
		snap.OptionIDs = append(snap.OptionIDs, id)
	}
	if err := rows.Err(); err != nil {
		return models.PollSnapshot{}, fmt.Errorf("failed to query options: %w", err)
	}

	return snap, nil
}

// Aggregate returns the current counts for all options of a poll.
func (s *SQLStore) Aggregate(ctx context.Context, pollID string) (models.AggregateSnapshot, error) {
	snap := models.AggregateSnapshot{PollID: pollID, Options: []models.OptionCount{}}

	err := s.db.QueryRowContext(ctx, `
		SELECT question FROM poll WHERE id = $1
	`, pollID).Scan(&snap.Question)
	if err == sql.ErrNoRows {
		return models.AggregateSnapshot{}, ErrNotFound
	}
	if err != nil {
		return models.AggregateSnapshot{}, fmt.Errorf("failed to query poll: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, vote_count
		FROM option
		WHERE poll_id = $1
		ORDER BY position, id
	`, pollID)
	if err != nil {
		return models.AggregateSnapshot{}, fmt.Errorf("failed to query counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var oc models.OptionCount
		if err := rows.Scan(&oc.ID, &oc.Label, &oc.VoteCount); err != nil {
			return models.AggregateSnapshot{}, fmt.Errorf("failed to scan count: %w", err)
		}
		snap.TotalVotes += oc.VoteCount
		snap.Options = append(snap.Options, oc)
	}
	if err := rows.Err(); err != nil {
		return models.AggregateSnapshot{}, fmt.Errorf("failed to query counts: %w", err)
	}

	return snap, nil
}
