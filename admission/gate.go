// Copyright (c) 2025 The Livepoll Authors.
// Source-available; see LICENSE.

package admission

import (
	"time"

	"github.com/livepoll/livepoll/models"
)

// Open reports whether a poll is still accepting votes at now. A poll
// without an expiration instant never expires.
//
// Callers must evaluate this with the single `now` captured for the whole
// admission attempt, so expiration cannot flip between the check and the
// ledger write.
func Open(poll models.PollSnapshot, now time.Time) bool {
	return poll.ExpiresAt == nil || now.Before(*poll.ExpiresAt)
}
