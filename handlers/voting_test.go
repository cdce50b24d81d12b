// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/livepoll/livepoll/admission"
	"github.com/livepoll/livepoll/broadcast"
	"github.com/livepoll/livepoll/identity"
	"github.com/livepoll/livepoll/ledger"
	"github.com/livepoll/livepoll/models"
	"github.com/livepoll/livepoll/ratelimit"
	"github.com/livepoll/livepoll/store"
	"github.com/livepoll/livepoll/testutil"
)

// newVoteHandler wires the real admission pipeline over the test database.
func newVoteHandler(t *testing.T, conn *sql.DB, rateLimit int) (*VoteHandler, *broadcast.Hub) {
	t.Helper()

	cfg := testutil.GetTestConfig()
	limiter := ratelimit.New(rateLimit, cfg.RateWindow)
	t.Cleanup(limiter.Close)

	hub := broadcast.NewHub()
	svc := &admission.Service{
		Polls:   store.NewSQLStore(conn),
		Ledger:  ledger.NewSQL(conn),
		Limiter: limiter,
		Resolver: &identity.Resolver{
			Salt:           cfg.FingerprintSalt,
			IPv6PrefixBits: cfg.IPv6PrefixBits,
		},
		Hub: hub,
	}
	return NewVoteHandler(svc), hub
}

func castVote(h *VoteHandler, pollID, optionID string, headers map[string]string) *httptest.ResponseRecorder {
	req := testutil.MakeRequest("POST", "/polls/"+pollID+"/vote",
		models.SubmitVoteRequest{OptionID: optionID}, headers)
	req.SetPathValue("id", pollID)
	w := httptest.NewRecorder()
	h.Vote(w, req)
	return w
}

func TestVoteAccepted(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	h, _ := newVoteHandler(t, conn, 100)

	pollID := testutil.CreateTestPoll(t, conn, "ip_address", nil)
	optA := testutil.AddTestOption(t, conn, pollID, "Pizza", 0)
	testutil.AddTestOption(t, conn, pollID, "Sushi", 1)

	w := castVote(h, pollID, optA, nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	// The aggregate rides on the wire under the "results" key
	if !strings.Contains(w.Body.String(), `"results"`) {
		t.Errorf("Expected a results field in the body: %s", w.Body.String())
	}

	var resp models.SubmitVoteResponse
	testutil.AssertJSON(t, w, &resp)
	if !resp.Success {
		t.Error("Expected success")
	}
	if resp.Results.TotalVotes != 1 {
		t.Errorf("Expected 1 total vote, got %d", resp.Results.TotalVotes)
	}
	if len(resp.Results.Options) != 2 {
		t.Errorf("Expected both options in results, got %d", len(resp.Results.Options))
	}
}

func TestVotePollNotFound(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	h, _ := newVoteHandler(t, conn, 100)

	w := castVote(h, "no-such-poll", "opt", nil)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestVoteOptionNotFound(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	h, _ := newVoteHandler(t, conn, 100)

	pollID := testutil.CreateTestPoll(t, conn, "none", nil)
	testutil.AddTestOption(t, conn, pollID, "Pizza", 0)

	w := castVote(h, pollID, "no-such-option", nil)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestVoteMissingOptionID(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	h, _ := newVoteHandler(t, conn, 100)

	pollID := testutil.CreateTestPoll(t, conn, "none", nil)
	testutil.AddTestOption(t, conn, pollID, "Pizza", 0)

	w := castVote(h, pollID, "", nil)
	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestVoteIPPolicyDedup(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	h, _ := newVoteHandler(t, conn, 100)

	pollID := testutil.CreateTestPoll(t, conn, "ip_address", nil)
	optA := testutil.AddTestOption(t, conn, pollID, "Pizza", 0)
	optB := testutil.AddTestOption(t, conn, pollID, "Sushi", 1)

	// First vote from this address lands
	w := castVote(h, pollID, optA, map[string]string{"X-Forwarded-For": "203.0.113.7"})
	testutil.AssertStatus(t, w, http.StatusOK)

	// Same address again is a duplicate, even for another option
	w = castVote(h, pollID, optB, map[string]string{"X-Forwarded-For": "203.0.113.7"})
	testutil.AssertStatus(t, w, http.StatusConflict)

	// A different address is a different voter
	w = castVote(h, pollID, optB, map[string]string{"X-Forwarded-For": "203.0.113.8"})
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.SubmitVoteResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Results.TotalVotes != 2 {
		t.Errorf("Expected 2 total votes, got %d", resp.Results.TotalVotes)
	}
}

func TestVoteSessionPolicy(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	h, _ := newVoteHandler(t, conn, 100)

	pollID := testutil.CreateTestPoll(t, conn, "session", nil)
	optA := testutil.AddTestOption(t, conn, pollID, "Pizza", 0)

	// No session token at all
	w := castVote(h, pollID, optA, nil)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	// Token via header works
	w = castVote(h, pollID, optA, map[string]string{"X-Session-ID": "sess-123"})
	testutil.AssertStatus(t, w, http.StatusOK)

	// Same token again is a duplicate
	w = castVote(h, pollID, optA, map[string]string{"X-Session-ID": "sess-123"})
	testutil.AssertStatus(t, w, http.StatusConflict)

	// Different token, new voter
	w = castVote(h, pollID, optA, map[string]string{"X-Session-ID": "sess-456"})
	testutil.AssertStatus(t, w, http.StatusOK)
}

func TestVoteSessionTokenInBody(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	h, _ := newVoteHandler(t, conn, 100)

	pollID := testutil.CreateTestPoll(t, conn, "session", nil)
	optA := testutil.AddTestOption(t, conn, pollID, "Pizza", 0)

	req := testutil.MakeRequest("POST", "/polls/"+pollID+"/vote",
		models.SubmitVoteRequest{OptionID: optA, SessionToken: "sess-body"}, nil)
	req.SetPathValue("id", pollID)
	w := httptest.NewRecorder()
	h.Vote(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
}

func TestVoteNonePolicyAllowsRepeats(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	h, _ := newVoteHandler(t, conn, 100)

	pollID := testutil.CreateTestPoll(t, conn, "none", nil)
	optA := testutil.AddTestOption(t, conn, pollID, "Pizza", 0)

	for i := 0; i < 3; i++ {
		w := castVote(h, pollID, optA, nil)
		testutil.AssertStatus(t, w, http.StatusOK)
	}

	var count int
	if err := conn.QueryRow(`SELECT vote_count FROM option WHERE id = $1`, optA).Scan(&count); err != nil {
		t.Fatalf("Failed to read count: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 votes, got %d", count)
	}
}

func TestVoteExpiredPoll(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	h, _ := newVoteHandler(t, conn, 100)

	expired := time.Now().UTC().Add(-time.Minute)
	pollID := testutil.CreateTestPoll(t, conn, "none", &expired)
	optA := testutil.AddTestOption(t, conn, pollID, "Pizza", 0)

	w := castVote(h, pollID, optA, nil)
	testutil.AssertStatus(t, w, http.StatusGone)

	var count int
	if err := conn.QueryRow(`SELECT vote_count FROM option WHERE id = $1`, optA).Scan(&count); err != nil {
		t.Fatalf("Failed to read count: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected no votes on an expired poll, got %d", count)
	}
}

func TestVoteRateLimited(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	h, _ := newVoteHandler(t, conn, 2)

	pollID := testutil.CreateTestPoll(t, conn, "none", nil)
	optA := testutil.AddTestOption(t, conn, pollID, "Pizza", 0)

	testutil.AssertStatus(t, castVote(h, pollID, optA, nil), http.StatusOK)
	testutil.AssertStatus(t, castVote(h, pollID, optA, nil), http.StatusOK)
	testutil.AssertStatus(t, castVote(h, pollID, optA, nil), http.StatusTooManyRequests)
}

func TestVotePublishesToHub(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	h, hub := newVoteHandler(t, conn, 100)

	pollID := testutil.CreateTestPoll(t, conn, "none", nil)
	optA := testutil.AddTestOption(t, conn, pollID, "Pizza", 0)

	sub := hub.Subscribe(pollID)
	defer hub.Unsubscribe(sub)

	testutil.AssertStatus(t, castVote(h, pollID, optA, nil), http.StatusOK)

	select {
	case snap := <-sub.Updates():
		if snap.TotalVotes != 1 {
			t.Errorf("Expected broadcast total 1, got %d", snap.TotalVotes)
		}
	case <-time.After(time.Second):
		t.Fatal("No broadcast after an accepted vote")
	}
}
