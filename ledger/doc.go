// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

/*
Package ledger records vote claims exactly once per voter per poll.

Admit is the single entry point: it validates the option, claims the
fingerprint, increments the count, and returns the post-vote aggregate
as one atomic step. Two implementations share the contract:

  - SQL: claims through a unique index inside one transaction; the
    aggregate in the returned snapshot is read in that same transaction
  - Memory: per-poll shards guarded by their own mutex, for tests and
    single-process deployments

Duplicate claims return ErrAlreadyVoted; unknown options return
ErrInvalidOption.
*/
package ledger
