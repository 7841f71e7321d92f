// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"codeberg.org/kiseki/kiseki/server/utils"
)

const (
	LimiterExpiryDuration = time.Hour       // How long to keep limiters in memory before cleanup.
	CleanupInterval       = 5 * time.Minute // Interval between limiter cleanup runs.
)

// Rate limiting header names.
//
// ref: https://www.ietf.org/archive/id/draft-polli-ratelimit-headers-02.html
const (
	HeaderRateLimitLimit     string = "RateLimit-Limit"
	HeaderRateLimitRemaining string = "RateLimit-Remaining"
	HeaderRateLimitReset     string = "RateLimit-Reset"
)

// DescriptionTooManyRequests is sent when a network runs out of tokens.
const DescriptionTooManyRequests = "Too many requests"

// Options configures a Limiter.
type Options struct {
	Rate       float64 // tokens refilled per second
	Burst      int     // bucket size
	IPv4Prefix int
	IPv6Prefix int
}

// Limiter holds one token bucket per client network.
//
// A Limiter outlives configuration reloads: Configure changes its options and
// existing buckets keep the tokens they have.
type Limiter struct {
	opts atomic.Pointer[Options]

	limiters      sync.Map     // network string -> *limiterWrapper
	lastCleanupAt atomic.Int64 // unix nanoseconds

	timeNow func() time.Time // Wrapper for time.Now, which allows us to mock it in tests.
}

// limiterWrapper holds a rate limiter and additional metadata.
type limiterWrapper struct {
	limiter    *rate.Limiter
	lastAccess atomic.Int64 // unix nanoseconds

	configured atomic.Pointer[Options] // options limiter was last set from
}

// New creates a Limiter. State lives in memory only.
func New(opts Options) *Limiter {
	l := &Limiter{timeNow: time.Now}

	l.lastCleanupAt.Store(l.timeNow().UnixNano())
	l.Configure(opts)

	return l
}

// Configure replaces the options of l. Buckets pick up the new rate and burst
// on their next request.
func (l *Limiter) Configure(opts Options) {
	if current := l.opts.Load(); current != nil && *current == opts {
		return
	}

	l.opts.Store(&opts)

	log.Info().
		Float64("rate", opts.Rate).
		Int("burst", opts.Burst).
		Msg("Limiter configured")
}

// Evaluate is the limiter middleware.
//
// Requests whose network has no tokens left get a 429 JSON failure.
func (l *Limiter) Evaluate(w http.ResponseWriter, r *http.Request, next http.Handler) {
	defer l.doCleanup()

	opts := l.opts.Load()

	network, ok := networkOf(r, opts)
	if !ok {
		if err := utils.WriteFailure(w, http.StatusBadRequest, "Could not determine client address"); err != nil {
			log.Err(err).Msg("Failed to write response")
		}

		return
	}

	now := l.timeNow()

	limWrapper := l.getOrCreateLimiter(network, opts, now)

	allowed := limWrapper.limiter.AllowN(now, 1)

	setRateLimitHeaders(w, limWrapper.limiter, now)

	if !allowed {
		log.Warn().
			Str("network", network).
			Msg("Rate limit exceeded")

		if err := utils.WriteFailure(w, http.StatusTooManyRequests, DescriptionTooManyRequests); err != nil {
			log.Err(err).Msg("Failed to write response")
		}

		return
	}

	next.ServeHTTP(w, r)
}

// getOrCreateLimiter returns the limiterWrapper for network, creating it on first use
// and bringing it up to date with opts.
func (l *Limiter) getOrCreateLimiter(network string, opts *Options, now time.Time) *limiterWrapper {
	value, ok := l.limiters.Load(network)
	if !ok {
		fresh := &limiterWrapper{limiter: rate.NewLimiter(rate.Limit(opts.Rate), opts.Burst)}
		fresh.configured.Store(opts)
		value, _ = l.limiters.LoadOrStore(network, fresh)
	}

	limWrapper, _ := value.(*limiterWrapper)
	limWrapper.lastAccess.Store(now.UnixNano())

	if limWrapper.configured.Swap(opts) != opts {
		limWrapper.limiter.SetLimitAt(now, rate.Limit(opts.Rate))
		limWrapper.limiter.SetBurstAt(now, opts.Burst)
	}

	return limWrapper
}

func setRateLimitHeaders(w http.ResponseWriter, limiter *rate.Limiter, now time.Time) {
	tokens := limiter.TokensAt(now)
	remaining := max(int(math.Floor(tokens)), 0)

	// seconds until the bucket is full again
	var reset int
	if limit := float64(limiter.Limit()); limit > 0 {
		reset = int(math.Ceil((float64(limiter.Burst()) - tokens) / limit))
	}

	headers := w.Header()
	headers.Set(HeaderRateLimitLimit, strconv.Itoa(limiter.Burst()))
	headers.Set(HeaderRateLimitRemaining, strconv.Itoa(remaining))
	headers.Set(HeaderRateLimitReset, strconv.Itoa(max(reset, 0)))
}
