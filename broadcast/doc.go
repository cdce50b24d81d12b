// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

// Package broadcast fans aggregate snapshots out to live poll viewers.
// Each poll has an independent room; publishing never blocks on a slow
// subscriber, which instead misses updates until it catches up or
// reconnects.
package broadcast
