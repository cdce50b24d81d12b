// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

/*
Package router defines HTTP routes for the Livepoll API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg, hub, limiter)

# Endpoints

Health:

	GET /health

Poll management:

	POST   /polls      - Create poll
	GET    /polls      - List polls
	GET    /polls/{id} - Poll details with current counts
	DELETE /polls/{id} - Delete poll

Voting and results (public):

	POST /polls/{id}/vote    - Submit a vote
	GET  /polls/{id}/results - Point-in-time aggregate
	GET  /polls/{id}/live    - Server-sent events stream of aggregates

# Handler Initialization

The router wires the admission pipeline once and hands it to the vote
handler; poll CRUD and results handlers get the database and read store
directly.
*/
package router
