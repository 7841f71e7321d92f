// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package audit records API requests as spans and logs them once they complete.
*/
package audit

import (
	"context"
	"encoding/base64"
	"runtime/trace"
	"strconv"
	"time"

	servertiming "github.com/mitchellh/go-server-timing"
	"github.com/rs/zerolog/log"
)

// Span represents an HTTP request in flight.
type Span struct {
	// only these fields are set automatically
	task     *trace.Task
	start    time.Time
	duration time.Duration
	metric   *servertiming.Metric

	RequestID  string
	Method     string
	URL        string
	StatusCode int
	Size       int
	Error      error
}

// ServerTimingName is the metric name announced in the Server-Timing header.
func (span Span) ServerTimingName() string {
	// base64 without trailing '=' to match the header token syntax
	return "api$" + span.Method + "$" + base64.RawURLEncoding.EncodeToString([]byte(span.URL))
}

// Begin starts timing the span and registers a Server-Timing metric if the
// request carries a servertiming header.
func (span *Span) Begin(ctx context.Context) context.Context {
	span.start = time.Now()

	ctx, span.task = trace.NewTask(ctx, "http.api")
	if servertimingContext := servertiming.FromContext(ctx); servertimingContext != nil {
		span.metric = servertimingContext.NewMetric(span.ServerTimingName())
		span.metric.Extra = make(map[string]string)
		span.metric.Extra["start"] = strconv.FormatFloat(float64(span.start.UnixNano())/float64(time.Millisecond), 'f', -1, 64)
	}

	return ctx
}

// End stops the timer. Calling it more than once is a no-op.
func (span *Span) End() {
	if span.task == nil {
		return
	}

	span.duration = time.Since(span.start)
	span.task.End()

	if span.metric != nil {
		span.metric.Duration = span.duration
	}

	span.task = nil
}

// Duration reports how long the span ran for. Zero until End is called.
func (span Span) Duration() time.Duration {
	return span.duration
}

func (span Span) Log() {
	event := log.Debug()
	if span.Error != nil {
		event = log.Warn()
	}

	event.Str("sys", "http")
	event.Str("method", span.Method)
	event.Str("url", span.URL)
	event.Int("status_code", span.StatusCode)
	event.Str("len", humanizeSize(span.Size))
	event.Dur("dur", span.duration)
	event.Str("request_id", span.RequestID)

	if span.Error != nil {
		event.Err(span.Error)
	}

	event.Send()
}
