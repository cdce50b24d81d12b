// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

/*
Package handlers implements the HTTP request handlers for the Livepoll API.

# Handler Groups

  - PollHandler: poll CRUD (create, get, list, delete)
  - VoteHandler: vote submission through the admission pipeline
  - ResultsHandler: point-in-time aggregates
  - LiveHandler: server-sent events stream of live aggregates

# Status Codes

Vote submission maps admission outcomes onto HTTP statuses:

	200 - vote accepted, body carries the post-vote aggregate
	400 - session poll without a session token
	404 - unknown poll or option
	409 - this fingerprint already voted
	410 - poll expired
	429 - origin exceeded the rate limit

All handlers write JSON via the middleware helpers.
*/
package handlers
