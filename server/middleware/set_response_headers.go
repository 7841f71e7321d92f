// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"maps"
	"net/http"
)

// baseHeaders defines the default headers to be set in responses.
//
// Kiseki-Version and Kiseki-Revision are added dynamically in ResponseHeaders.
//
// NOTE: we intentionally don't set CORP or HSTS headers.
var baseHeaders = http.Header{
	"Referrer-Policy":         {"no-referrer"},
	"X-Frame-Options":         {"DENY"},
	"X-Content-Type-Options":  {"nosniff"},
	"Content-Security-Policy": {"default-src 'none'; frame-ancestors 'none'"},
	// API answers depend on the caller's token
	"Cache-Control": {"no-store"},
}

// ResponseHeaders returns a middleware adding default headers to every API response.
func ResponseHeaders(version, revision string) Middleware {
	return func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		headers := w.Header()

		maps.Insert(headers, maps.All(baseHeaders))

		headers.Set("Kiseki-Version", version)
		headers.Set("Kiseki-Revision", revision)

		next.ServeHTTP(w, r)
	}
}
