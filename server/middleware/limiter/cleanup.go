// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"time"

	"github.com/rs/zerolog/log"
)

// doCleanup starts a cleanup run in the background if CleanupInterval has passed
// since the last one. Only one caller wins the race for a given interval.
func (l *Limiter) doCleanup() {
	now := l.timeNow()
	last := l.lastCleanupAt.Load()

	if now.Sub(time.Unix(0, last)) < CleanupInterval {
		return
	}

	if !l.lastCleanupAt.CompareAndSwap(last, now.UnixNano()) {
		return
	}

	go func() {
		l.cleanupExpiredLimiters(now)

		log.Debug().Time("start", now).Dur("dur", time.Since(now)).Msg("limiter cleanup")
	}()
}

// cleanupExpiredLimiters removes limiters that haven't been accessed for the expiry duration.
func (l *Limiter) cleanupExpiredLimiters(now time.Time) int {
	var expiredCount int

	l.limiters.Range(func(key, value any) bool {
		limWrapper, ok := value.(*limiterWrapper)
		if !ok || now.Sub(time.Unix(0, limWrapper.lastAccess.Load())) > LimiterExpiryDuration {
			l.limiters.Delete(key)

			expiredCount++
		}

		return true
	})

	if expiredCount > 0 {
		log.Info().Int("count", expiredCount).
			Msg("Cleaned up expired limiters")
	}

	return expiredCount
}
