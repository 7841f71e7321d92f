// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package api

import (
	"fmt"
	"net/http"

	"codeberg.org/kiseki/kiseki/core/authenticated"
	"codeberg.org/kiseki/kiseki/server/request_context"
	"codeberg.org/kiseki/kiseki/server/utils"
)

// Failure descriptions written by the gate.
const (
	DescriptionDisabled  = "This API call is disabled"
	DescriptionAdminOnly = "This API call is reserved for administration"
)

// route is a registered API call: what the gate needs to serve it.
type route struct {
	method  string
	path    string
	options Options
	handler Handler
	next    http.Handler
}

// Gate enforces the access requirements of every route before its handler runs.
type Gate struct {
	authorizer Authorizer
}

func NewGate(authorizer Authorizer) *Gate {
	return &Gate{authorizer: authorizer}
}

// Serve runs rt for one request.
//
// The steps always happen in this order, each one able to end the request:
//  1. a disabled route is answered with a failure
//  2. if the route requires auth or admin, the caller is authorized
//  3. if the route requires admin, the caller must be an administrator
//  4. the handler runs with the caller attached to the request context
//
// The handler's error is returned as is.
func (g *Gate) Serve(rt *route, w http.ResponseWriter, r *http.Request) error {
	if rt.options.Disabled {
		return utils.WriteFailure(w, http.StatusOK, DescriptionDisabled)
	}

	var (
		user     authenticated.User
		signedIn bool
	)

	if rt.options.Auth || rt.options.Admin {
		var err error

		user, err = g.authorizer.Authorize(w, r)
		if err != nil {
			return fmt.Errorf("authorize %s /%s: %w", rt.method, rt.path, err)
		}

		// Authorize has already written the response
		if user.ID == "" {
			return nil
		}

		signedIn = true
	}

	if rt.options.Admin && !g.authorizer.IsAdmin(r.Context(), user.Username) {
		return utils.WriteFailure(w, http.StatusOK, DescriptionAdminOnly)
	}

	if signedIn {
		r = r.WithContext(request_context.WithUser(r.Context(), user))
	}

	return rt.handler(w, r, rt.next)
}
