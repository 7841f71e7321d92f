// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package api

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"codeberg.org/kiseki/kiseki/server/middleware"
	"codeberg.org/kiseki/kiseki/server/router"
)

// knownMethods are the methods a Descriptor may declare.
var knownMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// Build registers every valid descriptor of table on mux and returns how many were registered.
//
// A descriptor without a handler, with an unknown method or with a pattern
// the router refuses (such as a duplicate) is logged and skipped; the
// remaining descriptors are still registered.
func Build(table []Descriptor, gate *Gate, mux *router.Router) int {
	var registered int

	for _, descriptor := range table {
		logger := log.With().
			Str("method", descriptor.Method).
			Str("path", "/"+descriptor.Path).
			Logger()

		if descriptor.Handler == nil {
			logger.Error().Msg("[API] No handler defined for API call, skipping")

			continue
		}

		if !knownMethods[descriptor.Method] {
			logger.Error().Msg("[API] Unknown method for API call, skipping")

			continue
		}

		entry := &route{
			method:  descriptor.Method,
			path:    descriptor.Path,
			options: Resolve(descriptor.Flags, Defaults),
			handler: descriptor.Handler,
			next:    mux.NotFound(),
		}

		handler := middleware.CatchError(func(w http.ResponseWriter, r *http.Request) error {
			return gate.Serve(entry, w, r)
		})

		if err := register(mux, descriptor.pattern(), handler); err != nil {
			logger.Error().Err(err).Msg("[API] Could not register API call, skipping")

			continue
		}

		registered++
	}

	log.Info().Int("count", registered).Msgf("[API] Loaded %d API routes", registered)

	return registered
}

// register is mux.Handle, returning the panic of a rejected pattern as an error.
func register(mux *router.Router, pattern string, handler http.Handler) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%v", recovered)
		}
	}()

	mux.Handle(pattern, handler)

	return nil
}
