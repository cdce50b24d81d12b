// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/livepoll/livepoll/models"
)

// Memory is an in-process ledger. Each poll is a shard with its own mutex,
// which is the per-poll serialization point: the claim check and the
// counter increment happen under one lock, so the uniqueness invariant
// holds under any interleaving while unrelated polls proceed in parallel.
//
// Used by unit tests and single-process deployments that don't want a
// database for the ledger.
type Memory struct {
	mu    sync.RWMutex
	polls map[string]*pollShard
}

type pollShard struct {
	mu       sync.Mutex
	question string
	order    []string
	counts   map[string]*models.OptionCount
	voters   map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{polls: make(map[string]*pollShard)}
}

// Register installs a poll and its options. Counts start at the values in
// opts, so a ledger can be rebuilt from persisted state.
func (m *Memory) Register(poll models.Poll, opts []models.Option) {
	shard := &pollShard{
		question: poll.Question,
		counts:   make(map[string]*models.OptionCount, len(opts)),
		voters:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		shard.order = append(shard.order, opt.ID)
		shard.counts[opt.ID] = &models.OptionCount{ID: opt.ID, Label: opt.Label, VoteCount: opt.VoteCount}
	}

	m.mu.Lock()
	m.polls[poll.ID] = shard
	m.mu.Unlock()
}

// Remove drops a poll and its vote records.
func (m *Memory) Remove(pollID string) {
	m.mu.Lock()
	delete(m.polls, pollID)
	m.mu.Unlock()
}

func (m *Memory) Admit(ctx context.Context, pollID, fingerprint, optionID string) (models.AggregateSnapshot, error) {
	m.mu.RLock()
	shard, ok := m.polls[pollID]
	m.mu.RUnlock()
	if !ok {
		return models.AggregateSnapshot{}, fmt.Errorf("poll %s not registered", pollID)
	}

	shard.mu.Lock()
	defer shard.mu.Unlock()

	opt, ok := shard.counts[optionID]
	if !ok {
		return models.AggregateSnapshot{}, ErrInvalidOption
	}

	if _, taken := shard.voters[fingerprint]; taken {
		return models.AggregateSnapshot{}, ErrAlreadyVoted
	}

	// Honor cancellation before the claim takes effect; afterwards the
	// commit wins and the caller is told it was accepted.
	if err := ctx.Err(); err != nil {
		return models.AggregateSnapshot{}, err
	}

	shard.voters[fingerprint] = struct{}{}
	opt.VoteCount++

	return shard.snapshotLocked(pollID), nil
}

// Aggregate returns the poll's current counts without admitting anything.
func (m *Memory) Aggregate(pollID string) (models.AggregateSnapshot, bool) {
	m.mu.RLock()
	shard, ok := m.polls[pollID]
	m.mu.RUnlock()
	if !ok {
		return models.AggregateSnapshot{}, false
	}

	shard.mu.Lock()
	defer shard.mu.Unlock()
	return shard.snapshotLocked(pollID), true
}

func (s *pollShard) snapshotLocked(pollID string) models.AggregateSnapshot {
	snap := models.AggregateSnapshot{
		PollID:   pollID,
		Question: s.question,
		Options:  make([]models.OptionCount, 0, len(s.order)),
	}
	for _, id := range s.order {
		oc := *s.counts[id]
		snap.TotalVotes += oc.VoteCount
		snap.Options = append(snap.Options, oc)
	}
	return snap
}
