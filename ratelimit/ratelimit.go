// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

package ratelimit

import (
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 16

// Limiter bounds vote admissions per origin key over a sliding window.
// It is safe for concurrent use; keys are sharded so unrelated origins
// never contend on one lock.
//
// Denied attempts leave no trace: only allowed admissions consume window
// slots, so a client hammering the endpoint is not punished beyond the
// denial itself.
type Limiter struct {
	limit  int
	window time.Duration

	shards [shardCount]*shard

	// now is replaceable in tests.
	now func() time.Time

	stop chan struct{}
	done chan struct{}
}

type shard struct {
	mu      sync.Mutex
	entries map[string][]time.Time
}

// New creates a limiter allowing limit admissions per window per key and
// starts a janitor goroutine that prunes idle keys. Call Close when done.
func New(limit int, window time.Duration) *Limiter {
	l := &Limiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for i := range l.shards {
		l.shards[i] = &shard{entries: make(map[string][]time.Time)}
	}
	go l.janitor()
	return l
}

// Allow reports whether an admission attempt for key may proceed, and if
// so records it against the window.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	cutoff := now.Add(-l.window)

	s := l.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	times := s.entries[key]

	// Drop timestamps that fell out of the window.
	keep := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			keep = append(keep, t)
		}
	}

	if len(keep) >= l.limit {
		s.entries[key] = keep
		return false
	}

	s.entries[key] = append(keep, now)
	return true
}

// Close stops the janitor goroutine.
func (l *Limiter) Close() {
	close(l.stop)
	<-l.done
}

func (l *Limiter) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return l.shards[h.Sum32()%shardCount]
}

// janitor periodically removes keys whose entire window has expired, so a
// churn of one-shot origins does not grow the maps without bound.
func (l *Limiter) janitor() {
	defer close(l.done)

	ticker := time.NewTicker(l.window)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			cutoff := l.now().Add(-l.window)
			for _, s := range l.shards {
				s.mu.Lock()
				for key, times := range s.entries {
					if len(times) == 0 || !times[len(times)-1].After(cutoff) {
						delete(s.entries, key)
					}
				}
				s.mu.Unlock()
			}
		}
	}
}
