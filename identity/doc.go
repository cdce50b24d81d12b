// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

/*
Package identity derives voter fingerprints from request attributes.

A fingerprint is an opaque string identifying one voter within one poll.
Which attributes feed it depends on the poll's anti-abuse policy:

  - none: random per attempt, so every attempt looks like a new voter
  - session: the caller-provided session token (required)
  - ip_address: the normalized origin IP
  - device_fingerprint: origin IP plus the primary Accept-Language tag

All non-random fingerprints are salted HMAC-SHA256 digests scoped to the
poll ID, so the same voter yields different fingerprints on different
polls and raw IPs are never stored.

IPv6 origins are masked to a configurable prefix (default /64) before
hashing, so one subscriber rotating interface IDs inside their delegated
prefix still counts as one voter.
*/
package identity
