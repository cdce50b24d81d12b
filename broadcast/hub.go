// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

package broadcast

import (
	"sync"

	"github.com/livepoll/livepoll/models"
)

// subscriberBuffer is the per-subscriber channel depth. A subscriber whose
// buffer is full misses updates rather than stalling the publisher; the
// client recovers by pulling the current results on reconnect.
const subscriberBuffer = 16

// Hub fans aggregate snapshots out to the live viewers of each poll.
//
// Each poll owns an independent room with its own lock, so publishing to a
// busy poll never touches subscribers of another. Sends are non-blocking:
// Publish never waits on a subscriber, and a slow or dead connection only
// loses its own updates.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

type room struct {
	mu        sync.Mutex
	subs      map[*Subscriber]struct{}
	lastTotal int
}

// Subscriber is one live connection's registration on a poll.
type Subscriber struct {
	pollID string
	ch     chan models.AggregateSnapshot
	closed bool
}

// Updates returns the channel delivering published snapshots. The channel
// is closed on Unsubscribe.
func (s *Subscriber) Updates() <-chan models.AggregateSnapshot {
	return s.ch
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*room)}
}

// Subscribe registers a new live viewer on a poll.
func (h *Hub) Subscribe(pollID string) *Subscriber {
	sub := &Subscriber{
		pollID: pollID,
		ch:     make(chan models.AggregateSnapshot, subscriberBuffer),
	}

	// The room membership update happens under the hub lock so a concurrent
	// Unsubscribe cannot delete the room out from under a fresh subscriber.
	h.mu.Lock()
	defer h.mu.Unlock()

	rm, ok := h.rooms[pollID]
	if !ok {
		rm = &room{subs: make(map[*Subscriber]struct{})}
		h.rooms[pollID] = rm
	}

	rm.mu.Lock()
	rm.subs[sub] = struct{}{}
	rm.mu.Unlock()

	return sub
}

// Unsubscribe removes a viewer and closes its update channel. Empty rooms
// are deleted so short-lived connections don't leak registry entries.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rm, ok := h.rooms[sub.pollID]
	if !ok {
		return
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if _, ok := rm.subs[sub]; !ok {
		return
	}
	delete(rm.subs, sub)
	sub.closed = true
	close(sub.ch)

	if len(rm.subs) == 0 {
		delete(h.rooms, sub.pollID)
	}
}

// Publish delivers a snapshot to every current subscriber of the poll.
// Per-poll delivery order follows publish order; a snapshot whose total is
// below the room's last published total is stale (a lost race against a
// newer publish) and is skipped.
func (h *Hub) Publish(pollID string, snap models.AggregateSnapshot) {
	h.mu.RLock()
	rm, ok := h.rooms[pollID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if snap.TotalVotes < rm.lastTotal {
		return
	}
	rm.lastTotal = snap.TotalVotes

	for sub := range rm.subs {
		select {
		case sub.ch <- snap:
		default:
			// Buffer full: this subscriber misses the update.
		}
	}
}

// SubscriberCount returns the number of live viewers on a poll.
func (h *Hub) SubscriberCount(pollID string) int {
	h.mu.RLock()
	rm, ok := h.rooms[pollID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.subs)
}
