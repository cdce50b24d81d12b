package models

import "time"

// Voting security policies. Each poll is created under exactly one policy,
// which decides how a voter fingerprint is derived for that poll.
const (
	PolicyNone    = "none"
	PolicySession = "session"
	PolicyIP      = "ip_address"
	PolicyDevice  = "device_fingerprint"
)

// ValidPolicy reports whether s names a known security policy.
func ValidPolicy(s string) bool {
	switch s {
	case PolicyNone, PolicySession, PolicyIP, PolicyDevice:
		return true
	}
	return false
}

// Request types

type CreatePollRequest struct {
	Question        string   `json:"question"`
	Options         []string `json:"options"`
	Security        string   `json:"security"`
	DurationMinutes int      `json:"duration_minutes"`
}

type SubmitVoteRequest struct {
	OptionID     string `json:"option_id"`
	SessionToken string `json:"session_id,omitempty"`
}

// Response types

type CreatePollResponse struct {
	Poll    Poll     `json:"poll"`
	Options []Option `json:"options"`
}

type SubmitVoteResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Results AggregateSnapshot `json:"results"`
}

type ListPollsResponse struct {
	Polls []PollSummary `json:"polls"`
}

// Domain types

type Poll struct {
	ID        string     `json:"id"`
	Question  string     `json:"question"`
	Security  string     `json:"security"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type Option struct {
	ID        string `json:"id"`
	PollID    string `json:"poll_id"`
	Label     string `json:"label"`
	VoteCount int    `json:"vote_count"`
}

type PollWithOptions struct {
	Poll    Poll     `json:"poll"`
	Options []Option `json:"options"`
}

type PollSummary struct {
	ID          string     `json:"id"`
	Question    string     `json:"question"`
	Security    string     `json:"security"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	OptionCount int        `json:"option_count"`
	TotalVotes  int        `json:"total_votes"`
}

// PollSnapshot is the read-mostly view of a poll the admission path needs:
// identity, policy, lifecycle instants, and the set of valid option IDs.
// It never carries vote counts or voter data.
type PollSnapshot struct {
	ID        string
	Security  string
	CreatedAt time.Time
	ExpiresAt *time.Time
	OptionIDs []string
}

// HasOption reports whether id names one of the poll's options.
func (p PollSnapshot) HasOption(id string) bool {
	for _, optID := range p.OptionIDs {
		if optID == id {
			return true
		}
	}
	return false
}

// OptionCount is one option's current tally inside an aggregate snapshot.
type OptionCount struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	VoteCount int    `json:"vote_count"`
}

// AggregateSnapshot is the current vote state of a poll at a point in time.
// This is both the pull-results payload and the live-update message pushed
// to subscribers; it must never contain voter-identifying information.
type AggregateSnapshot struct {
	PollID     string        `json:"poll_id"`
	Question   string        `json:"question,omitempty"`
	TotalVotes int           `json:"total_votes"`
	Options    []OptionCount `json:"options"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
