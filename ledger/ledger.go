// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

package ledger

import (
	"context"
	"errors"

	"github.com/livepoll/livepoll/models"
)

var (
	// ErrAlreadyVoted means the (poll, fingerprint) pair has already been
	// claimed. An expected outcome, not a fault; no counter was touched.
	ErrAlreadyVoted = errors.New("fingerprint has already voted on this poll")

	// ErrInvalidOption means the option does not belong to the poll.
	ErrInvalidOption = errors.New("option does not belong to poll")
)

// Ledger is the authority for vote uniqueness and atomic count mutation.
//
// Admit records the fingerprint's vote for one option of one poll. The
// claim is atomic with respect to concurrent callers: for a given
// (pollID, fingerprint) pair exactly one call ever succeeds, no matter how
// the calls interleave. On success the returned snapshot reflects the
// committed counts, including this vote. Admissions on different polls
// never block each other.
type Ledger interface {
	Admit(ctx context.Context, pollID, fingerprint, optionID string) (models.AggregateSnapshot, error)
}
