// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and
indexes. The DDL sticks to the dialect both SQLite and PostgreSQL
accept, so the same schema serves production and tests.

# Tables

The schema includes:

  - poll: Poll metadata, anti-abuse policy, and optional expiration
  - option: Voting options with their running counts
  - vote: One claim per voter fingerprint per poll

# Relationships

	poll 1──* option
	poll 1──* vote

All foreign keys use ON DELETE CASCADE.

# Uniqueness

vote carries UNIQUE (poll_id, voter_hash). That constraint is the
exactly-once guarantee for a fingerprint: concurrent claims race on the
index, and every loser gets a conflict instead of a second row.
*/
package db
