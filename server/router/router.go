// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"codeberg.org/kiseki/kiseki/server/middleware"
	"codeberg.org/kiseki/kiseki/server/utils"
)

// Router wraps http.ServeMux and provides middleware chaining functionality.
type Router struct {
	*http.ServeMux

	middlewares []middleware.Middleware
	notFound    http.Handler
}

// NewRouter creates a new Router instance.
//
// Requests matching no registered pattern are answered by NotFound.
func NewRouter() *Router {
	router := &Router{
		ServeMux: http.NewServeMux(),
		notFound: http.HandlerFunc(notFound),
	}

	// the least specific pattern, so every other registration wins over it
	router.Handle("/", router.notFound)

	return router
}

// NotFound returns the handler used for unmatched requests.
func (router *Router) NotFound() http.Handler {
	return router.notFound
}

// Use adds a middleware to the router's chain.
func (router *Router) Use(middleware middleware.Middleware) {
	router.middlewares = append(router.middlewares, middleware)
}

// runs router.middlewares[i] and every thereafter
func (router *Router) serve(i int, w http.ResponseWriter, r *http.Request) {
	if i < len(router.middlewares) {
		router.middlewares[i](w, r, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			router.serve(i+1, w, r)
		}))
	} else {
		router.ServeMux.ServeHTTP(w, r)
	}
}

// runs all middleware
func (router *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	router.serve(0, w, r)
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	if err := utils.WriteFailure(w, http.StatusNotFound, middleware.DescriptionNotFound); err != nil {
		log.Err(err).Msg("Failed to write response")
	}
}
