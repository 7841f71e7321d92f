// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package router

import (
	"codeberg.org/kiseki/kiseki/config"
	"codeberg.org/kiseki/kiseki/server/middleware"
	"codeberg.org/kiseki/kiseki/server/middleware/limiter"
	"codeberg.org/kiseki/kiseki/server/middleware/set_request_context"
)

// RegisterMiddleware installs the middleware chain every API request passes through.
//
// lim keeps rate-limit state across reloads and is reconfigured from cfg. When
// the limiter is enabled and lim is nil, the router gets a limiter of its own.
func (router *Router) RegisterMiddleware(cfg *config.ServerConfig, lim *limiter.Limiter) {
	// the first middleware is the most outer / first executed one
	router.Use(middleware.WithServerTiming)
	router.Use(middleware.NormalizeURL(cfg.Basic.BasePath)) // strip base path and trailing slashes
	router.Use(set_request_context.WithRequestContext)      // needed for everything else
	router.Use(middleware.ResponseHeaders(config.BuildVersion, cfg.Build.Revision()))

	if cfg.Compression.Enabled {
		router.Use(middleware.Compress)
	}

	if cfg.Limiter.Enabled {
		if lim == nil {
			lim = limiter.New(LimiterOptions(cfg))
		} else {
			lim.Configure(LimiterOptions(cfg))
		}

		router.Use(lim.Evaluate)
	}
}

// LimiterOptions returns the limiter settings of cfg.
func LimiterOptions(cfg *config.ServerConfig) limiter.Options {
	return limiter.Options{
		Rate:       cfg.Limiter.Rate,
		Burst:      cfg.Limiter.Burst,
		IPv4Prefix: cfg.Limiter.IPv4Prefix,
		IPv6Prefix: cfg.Limiter.IPv6Prefix,
	}
}
