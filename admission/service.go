// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

package admission

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/livepoll/livepoll/identity"
	"github.com/livepoll/livepoll/ledger"
	"github.com/livepoll/livepoll/models"
	"github.com/livepoll/livepoll/store"
)

// Outcome classifies the result of one vote admission attempt. Everything
// except OutcomeError is an expected policy outcome, not a fault.
type Outcome string

const (
	OutcomeAccepted        Outcome = "accepted"
	OutcomeRateLimited     Outcome = "rate_limited"
	OutcomePollNotFound    Outcome = "poll_not_found"
	OutcomePollExpired     Outcome = "poll_expired"
	OutcomeMissingIdentity Outcome = "missing_identity"
	OutcomeAlreadyVoted    Outcome = "already_voted"
	OutcomeInvalidOption   Outcome = "invalid_option"
	OutcomeError           Outcome = "error"
)

// Result is what a vote admission attempt produced. Snapshot is populated
// only when Outcome is OutcomeAccepted; Err only for OutcomeError.
type Result struct {
	Outcome  Outcome
	Snapshot models.AggregateSnapshot
	Err      error
}

// PollSource supplies poll snapshots; store.ErrNotFound marks absent polls.
type PollSource interface {
	GetPollSnapshot(ctx context.Context, pollID string) (models.PollSnapshot, error)
}

// Limiter guards the admission path per origin key.
type Limiter interface {
	Allow(key string) bool
}

// Publisher receives the post-vote aggregate for fan-out to live viewers.
type Publisher interface {
	Publish(pollID string, snap models.AggregateSnapshot)
}

// Service orchestrates one vote admission: rate limit, expiration gate,
// identity resolution, ledger claim, then broadcast. It holds no state of
// its own; every field is a collaborator.
type Service struct {
	Polls    PollSource
	Ledger   ledger.Ledger
	Limiter  Limiter
	Resolver *identity.Resolver
	Hub      Publisher

	// Now is replaceable in tests; nil means time.Now.
	Now func() time.Time
}

// Admit runs one vote admission attempt end to end.
//
// Checks run in request order: the rate limiter first (a limited origin
// causes no per-poll work at all), then the expiration gate against a
// single captured now, then fingerprint resolution, then the ledger's
// atomic claim. Broadcast failures never surface to the voter: once the
// ledger has committed, the vote is accepted.
func (s *Service) Admit(ctx context.Context, pollID, optionID string, req identity.Request) Result {
	now := s.now()

	if !s.Limiter.Allow(req.RemoteIP) {
		return Result{Outcome: OutcomeRateLimited}
	}

	poll, err := s.Polls.GetPollSnapshot(ctx, pollID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Result{Outcome: OutcomePollNotFound}
		}
		slog.Error("failed to load poll snapshot", "poll_id", pollID, "error", err)
		return Result{Outcome: OutcomeError, Err: err}
	}

	if !Open(poll, now) {
		return Result{Outcome: OutcomePollExpired}
	}

	// The snapshot already names the poll's options, so an unknown option
	// is turned away before identity resolution or any ledger work.
	if !poll.HasOption(optionID) {
		return Result{Outcome: OutcomeInvalidOption}
	}

	fingerprint, err := s.Resolver.Resolve(poll.Security, poll.ID, req)
	if err != nil {
		if errors.Is(err, identity.ErrMissingIdentity) {
			return Result{Outcome: OutcomeMissingIdentity}
		}
		slog.Error("failed to resolve voter fingerprint", "poll_id", pollID, "policy", poll.Security, "error", err)
		return Result{Outcome: OutcomeError, Err: err}
	}

	snap, err := s.Ledger.Admit(ctx, poll.ID, fingerprint, optionID)
	switch {
	case errors.Is(err, ledger.ErrAlreadyVoted):
		return Result{Outcome: OutcomeAlreadyVoted}
	case errors.Is(err, ledger.ErrInvalidOption):
		return Result{Outcome: OutcomeInvalidOption}
	case err != nil:
		// Fail closed: the claim didn't commit, so nothing was counted and
		// the same voter can safely retry.
		slog.Error("vote admission failed", "poll_id", pollID, "error", err)
		return Result{Outcome: OutcomeError, Err: err}
	}

	// Fire-and-forget fan-out. Publish never blocks on a subscriber, so
	// calling it inline keeps per-poll publish ordering.
	s.Hub.Publish(poll.ID, snap)

	slog.Info("vote accepted", "poll_id", pollID, "option_id", optionID, "total_votes", snap.TotalVotes)

	return Result{Outcome: OutcomeAccepted, Snapshot: snap}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
