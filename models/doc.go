// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreatePollRequest: question, options, security, duration_minutes
  - SubmitVoteRequest: option_id, session_id

# Response Types

Types for JSON responses:

  - CreatePollResponse: poll plus its options
  - SubmitVoteResponse: success, message, results
  - ListPollsResponse: poll summaries
  - ErrorResponse: error message

# Domain Types

Internal data structures:

  - Poll: poll metadata with optional expiration
  - Option: voting option with its running count
  - PollSnapshot: the read-mostly poll view the admission path uses
  - AggregateSnapshot: point-in-time counts for all options of a poll
  - OptionCount: one option's identity, label, and count

# Anti-Abuse Policies

Each poll carries one policy deciding how voter fingerprints are derived:

	PolicyNone    = "none"
	PolicySession = "session"
	PolicyIP      = "ip_address"
	PolicyDevice  = "device_fingerprint"

ValidPolicy reports whether a string names one of the four.
*/
package models
