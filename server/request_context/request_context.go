// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package request_context provides per-request state management for HTTP handlers.

This package is separate because Go disallows a cyclic import graph.
*/
package request_context

import (
	"context"
	"net/http"

	"codeberg.org/kiseki/kiseki/core/authenticated"
	"codeberg.org/kiseki/kiseki/core/idgen"
)

// RequestContext carries request-scoped data through the middleware chain.
type RequestContext struct {
	// RequestID is an identifier for tracing requests.
	RequestID string

	// Holds any critical error encountered during request processing.
	//
	// Populated by middleware.CatchError when handlers return errors.
	RequestError error

	// HTTP status code sent in the response. Defaults to 200 OK.
	StatusCode int

	// User is the identity resolved by the authorization gate, if the route required one.
	User *authenticated.User
}

// requestContextKeyType defines a unique type for a RequestContext key.
type requestContextKeyType struct{}

// requestContextKey is a unique key used to access RequestContext
// values from a context.Context.
var requestContextKey = requestContextKeyType{}

// WithRequestContext initializes a new request context and attaches it to
// the parent context.
func WithRequestContext(ctx context.Context) context.Context {
	rc := RequestContext{
		RequestID:  idgen.Make(),
		StatusCode: http.StatusOK,
	}

	return context.WithValue(ctx, requestContextKey, &rc)
}

// WithUser records user as the authenticated caller.
//
// If ctx already carries a RequestContext the user is stored on it, so code
// holding the outer request (e.g. middleware.CatchError) sees it too.
func WithUser(ctx context.Context, user authenticated.User) context.Context {
	if rc, ok := ctx.Value(requestContextKey).(*RequestContext); ok {
		rc.User = &user

		return ctx
	}

	return context.WithValue(ctx, requestContextKey, &RequestContext{
		StatusCode: http.StatusOK,
		User:       &user,
	})
}

// FromContext extracts the RequestContext from a context, always returning
// a valid pointer.
//
// If no context is found, returns a zero-value instance.
func FromContext(ctx context.Context) *RequestContext {
	if rc, ok := ctx.Value(requestContextKey).(*RequestContext); ok {
		return rc
	}

	return &RequestContext{}
}

// FromRequest is a convenience wrapper for extracting RequestContext
// directly from HTTP requests.
func FromRequest(r *http.Request) *RequestContext {
	return FromContext(r.Context())
}

// UserFromRequest returns the authenticated caller of r, if any.
func UserFromRequest(r *http.Request) (authenticated.User, bool) {
	user := FromRequest(r).User
	if user == nil {
		return authenticated.User{}, false
	}

	return *user, true
}
