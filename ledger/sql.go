// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/livepoll/livepoll/models"
)

// SQL is the database-backed ledger. The uniqueness gate is the UNIQUE
// (poll_id, voter_hash) constraint on the vote table: the INSERT with
// ON CONFLICT DO NOTHING is a single atomic claim, never a read-then-write.
// Everything happens inside one transaction, so a cancelled or failed
// admission leaves no partial counter increment behind.
//
// Works identically against PostgreSQL (lib/pq) and SQLite (modernc);
// both accept $N placeholders and the ON CONFLICT clause used here.
type SQL struct {
	db *sql.DB
}

func NewSQL(db *sql.DB) *SQL {
	return &SQL{db: db}
}

func (l *SQL) Admit(ctx context.Context, pollID, fingerprint, optionID string) (models.AggregateSnapshot, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return models.AggregateSnapshot{}, fmt.Errorf("failed to begin admission: %w", err)
	}
	defer tx.Rollback()

	// Option must belong to the poll before anything is claimed.
	var belongs bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM option WHERE id = $1 AND poll_id = $2)
	`, optionID, pollID).Scan(&belongs)
	if err != nil {
		return models.AggregateSnapshot{}, fmt.Errorf("failed to validate option: %w", err)
	}
	if !belongs {
		return models.AggregateSnapshot{}, ErrInvalidOption
	}

	// The atomic claim. Zero rows affected means another admission with
	// the same fingerprint got here first.
	voteID := uuid.NewString()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO vote (id, poll_id, option_id, voter_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (poll_id, voter_hash) DO NOTHING
	`, voteID, pollID, optionID, fingerprint, time.Now().UTC())
	if err != nil {
		return models.AggregateSnapshot{}, fmt.Errorf("failed to claim vote: %w", err)
	}
	claimed, err := res.RowsAffected()
	if err != nil {
		return models.AggregateSnapshot{}, fmt.Errorf("failed to read claim result: %w", err)
	}
	if claimed == 0 {
		return models.AggregateSnapshot{}, ErrAlreadyVoted
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE option SET vote_count = vote_count + 1 WHERE id = $1
	`, optionID)
	if err != nil {
		return models.AggregateSnapshot{}, fmt.Errorf("failed to increment count: %w", err)
	}

	snap, err := aggregateTx(ctx, tx, pollID)
	if err != nil {
		return models.AggregateSnapshot{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.AggregateSnapshot{}, fmt.Errorf("failed to commit admission: %w", err)
	}

	return snap, nil
}

// aggregateTx reads the poll's counts inside the admission transaction so
// the returned snapshot matches exactly what was committed.
func aggregateTx(ctx context.Context, tx *sql.Tx, pollID string) (models.AggregateSnapshot, error) {
	snap := models.AggregateSnapshot{PollID: pollID, Options: []models.OptionCount{}}

	err := tx.QueryRowContext(ctx, `
		SELECT question FROM poll WHERE id = $1
	`, pollID).Scan(&snap.Question)
	if err != nil {
		return models.AggregateSnapshot{}, fmt.Errorf("failed to read poll: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, label, vote_count
		FROM option
		WHERE poll_id = $1
		ORDER BY position, id
	`, pollID)
	if err != nil {
		return models.AggregateSnapshot{}, fmt.Errorf("failed to read counts: %w", err)
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
		return models.AggregateSnapshot{}, fmt.Errorf("failed to read counts: %w", err)
	}

	return snap, nil
}
