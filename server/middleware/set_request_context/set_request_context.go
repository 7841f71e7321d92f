// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package set_request_context

import (
	"net/http"

	"codeberg.org/kiseki/kiseki/server/request_context"
)

// RequestIDHeader echoes the request ID so clients can quote it in bug reports.
const RequestIDHeader = "X-Request-Id"

// WithRequestContext is a middleware that attaches a RequestContext to each HTTP request.
func WithRequestContext(w http.ResponseWriter, r *http.Request, next http.Handler) {
	ctx := request_context.WithRequestContext(r.Context())

	w.Header().Set(RequestIDHeader, request_context.FromContext(ctx).RequestID)

	next.ServeHTTP(w, r.WithContext(ctx))
}
