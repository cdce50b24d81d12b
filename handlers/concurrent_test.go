// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

package handlers

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/livepoll/livepoll/testutil"
)

// TestConcurrentVotesDistinctOrigins verifies that simultaneous votes from
// different voters don't corrupt counts or drop admissions.
func TestConcurrentVotesDistinctOrigins(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	h, _ := newVoteHandler(t, conn, 1000)

	pollID := testutil.CreateTestPoll(t, conn, "ip_address", nil)
	optA := testutil.AddTestOption(t, conn, pollID, "Pizza", 0)
	optB := testutil.AddTestOption(t, conn, pollID, "Sushi", 1)

	const numVoters = 20

	var wg sync.WaitGroup
	for i := 0; i < numVoters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			opt := optA
			if n%2 == 1 {
				opt = optB
			}
			w := castVote(h, pollID, opt, map[string]string{
				"X-Forwarded-For": fmt.Sprintf("203.0.113.%d", n+1),
			})
			if w.Code != http.StatusOK {
				t.Errorf("voter %d: expected 200, got %d: %s", n, w.Code, w.Body.String())
			}
		}(i)
	}
	wg.Wait()

	var total int
	if err := conn.QueryRow(`SELECT SUM(vote_count) FROM option WHERE poll_id = $1`, pollID).Scan(&total); err != nil {
		t.Fatalf("Failed to sum counts: %v", err)
	}
	if total != numVoters {
		t.Errorf("Expected %d votes recorded, got %d", numVoters, total)
	}

	var claims int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM vote WHERE poll_id = $1`, pollID).Scan(&claims); err != nil {
		t.Fatalf("Failed to count claims: %v", err)
	}
	if claims != numVoters {
		t.Errorf("Expected %d vote rows, got %d", numVoters, claims)
	}
}

// TestConcurrentVotesSameOrigin verifies the exactly-once claim under a
// burst of identical fingerprints.
func TestConcurrentVotesSameOrigin(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	h, _ := newVoteHandler(t, conn, 1000)

	pollID := testutil.CreateTestPoll(t, conn, "ip_address", nil)
	optA := testutil.AddTestOption(t, conn, pollID, "Pizza", 0)

	const attempts = 16

	var accepted, conflict atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			w := castVote(h, pollID, optA, map[string]string{
				"X-Forwarded-For": "203.0.113.50",
			})
			switch w.Code {
			case http.StatusOK:
				accepted.Add(1)
			case http.StatusConflict:
				conflict.Add(1)
			default:
				t.Errorf("unexpected status %d: %s", w.Code, w.Body.String())
			}
		}()
	}
	wg.Wait()

	if accepted.Load() != 1 {
		t.Errorf("Expected exactly 1 accepted vote, got %d", accepted.Load())
	}
	if conflict.Load() != attempts-1 {
		t.Errorf("Expected %d conflicts, got %d", attempts-1, conflict.Load())
	}

	var count int
	if err := conn.QueryRow(`SELECT vote_count FROM option WHERE id = $1`, optA).Scan(&count); err != nil {
		t.Fatalf("Failed to read count: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected count 1, got %d", count)
	}
}
