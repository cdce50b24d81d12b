// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

// Package ratelimit implements a sliding-window request limiter keyed by
// origin. Keys are spread over independent shards so hot origins don't
// serialize unrelated ones; a background janitor evicts idle keys.
package ratelimit
