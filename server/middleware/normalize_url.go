// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"codeberg.org/kiseki/kiseki/server/utils"
)

// DescriptionNotFound is sent for paths outside of the route table.
const DescriptionNotFound = "Not found"

// NormalizeURL returns a middleware that rewrites the request URL before routing by:
// 1. Removing the basePath prefix the API is mounted at.
// 2. Removing trailing slashes (except root).
//
// Unlike a browser-facing site, API clients are not redirected; the request
// is rewritten in place. Requests outside basePath get a JSON 404.
func NormalizeURL(basePath string) Middleware {
	basePath = strings.TrimRight(basePath, "/")

	return func(w http.ResponseWriter, r *http.Request, next http.Handler) {
		path, rawPath, ok := stripBasePath(r.URL, basePath)
		if !ok {
			if err := utils.WriteFailure(w, http.StatusNotFound, DescriptionNotFound); err != nil {
				log.Err(err).Msg("Failed to write response")
			}

			return
		}

		path, rawPath = trimTrailingSlash(path), trimTrailingSlash(rawPath)

		if path == r.URL.Path && rawPath == r.URL.RawPath {
			next.ServeHTTP(w, r)

			return
		}

		r2 := new(http.Request)
		*r2 = *r
		r2.URL = new(url.URL)
		*r2.URL = *r.URL
		r2.URL.Path = path
		r2.URL.RawPath = rawPath

		next.ServeHTTP(w, r2)
	}
}

// stripBasePath removes basePath from u. ok is false when u is not below basePath.
func stripBasePath(u *url.URL, basePath string) (path, rawPath string, ok bool) {
	if basePath == "" {
		return u.Path, u.RawPath, true
	}

	path, found := cutPathPrefix(u.Path, basePath)
	if !found {
		return "", "", false
	}

	rawPath = u.RawPath
	if rawPath != "" {
		rawPath, found = cutPathPrefix(rawPath, basePath)
		if !found {
			return "", "", false
		}
	}

	return path, rawPath, true
}

// cutPathPrefix is strings.CutPrefix on whole path segments, so /api does not match /apix.
func cutPathPrefix(path, prefix string) (string, bool) {
	rest, found := strings.CutPrefix(path, prefix)
	if !found {
		return "", false
	}

	switch {
	case rest == "":
		return "/", true
	case rest[0] == '/':
		return rest, true
	default:
		return "", false
	}
}

// trimTrailingSlash removes trailing slashes from p (except root).
func trimTrailingSlash(p string) string {
	if len(p) <= 1 {
		return p
	}

	trimmed := strings.TrimRight(p, "/")
	if trimmed == "" {
		return "/"
	}

	return trimmed
}
