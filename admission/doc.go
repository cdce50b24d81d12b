// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

/*
Package admission orchestrates one vote from request to broadcast.

The pipeline runs fixed checks in order: rate limit, poll lookup,
expiration gate, fingerprint resolution, ledger claim, then fan-out of
the post-vote aggregate. Each check maps to one Outcome value, which the
HTTP layer translates to a status code.

The service owns no state; every collaborator is injected, so tests can
swap any stage.
*/
package admission
