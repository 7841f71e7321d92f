// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	servertiming "github.com/mitchellh/go-server-timing"
)

// WithServerTiming collects metrics started by audit spans into a Server-Timing header.
func WithServerTiming(w http.ResponseWriter, r *http.Request, next http.Handler) {
	servertiming.Middleware(next, nil).ServeHTTP(w, r)
}

// Compress gzips responses for clients that accept it.
//
// Small bodies, such as most JSON failures, are left uncompressed by gzhttp.
func Compress(w http.ResponseWriter, r *http.Request, next http.Handler) {
	gzhttp.GzipHandler(next).ServeHTTP(w, r)
}
