// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

/*
Package main provides the entry point for the Livepoll API server.

Livepoll is an anonymous polling service with live-updating results. Votes
are deduplicated without accounts: each poll picks an anti-abuse policy
(none, session, ip_address, device_fingerprint) that decides how a voter
fingerprint is derived, and the fingerprint is claimed exactly once per
poll.

# Starting the Server

The server reads configuration from the environment (a .env file is
honored) or CLI flags:

	DATABASE_URL=livepoll.db FINGERPRINT_SALT=... go run main.go

Or with flags:

	go run main.go -p 8000 -t sqlite -d livepoll.db -fingerprint-salt ...

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - FINGERPRINT_SALT (-fingerprint-salt): secret keying voter fingerprints

Optional settings:

  - PORT (-p): server port (default: 8000)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - RATE_LIMIT (-rate-limit): vote admissions per origin per window (default: 5)
  - RATE_WINDOW (-rate-window): rate limit window (default: 1m)
  - IPV6 prefix (-ipv6-prefix): bits of an IPv6 origin that count toward
    the ip_address fingerprint (default: 64)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (polls, voting, results, live stream)
  - admission: the vote admission pipeline and its expiration gate
  - identity: voter fingerprint derivation per policy
  - ledger: atomic exactly-once vote claims (SQL and in-memory)
  - ratelimit: sliding-window admission limiter
  - broadcast: per-poll fan-out of aggregate snapshots
  - store: read side of poll persistence (snapshots, aggregates)
  - router: route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: request/response types
  - db: schema creation
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
