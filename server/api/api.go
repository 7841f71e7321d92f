// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"codeberg.org/kiseki/kiseki/config"
	"codeberg.org/kiseki/kiseki/server/middleware/limiter"
	"codeberg.org/kiseki/kiseki/server/router"
)

var errNotLoaded = errors.New("api has not been loaded")

// API serves requests with the active router and replaces it on Reload.
type API struct {
	loader Loader

	// called with each published configuration
	onPublish []func(*config.ServerConfig)

	// serializes Reload
	mu sync.Mutex

	// shared by every generation once the limiter has been enabled
	limiter *limiter.Limiter

	active atomic.Pointer[generation]
}

// generation is a router together with the collaborators it was built from.
type generation struct {
	router  *router.Router
	modules *Modules
}

// Option configures an API.
type Option func(*API)

// OnPublish registers fn to run after a reload has published its router.
// A reload that fails never reaches fn.
func OnPublish(fn func(*config.ServerConfig)) Option {
	return func(api *API) {
		api.onPublish = append(api.onPublish, fn)
	}
}

// New builds the first router from loader.
func New(ctx context.Context, loader Loader, opts ...Option) (*API, error) {
	api := &API{loader: loader}

	for _, opt := range opts {
		opt(api)
	}

	if err := api.Reload(ctx); err != nil {
		return nil, err
	}

	return api, nil
}

// Reload loads fresh collaborators, runs their reload hooks and builds a new
// router from them. The new router is published only once it is complete;
// requests already being served keep the router they started with.
//
// If anything fails the active router stays in place and the error is returned.
func (api *API) Reload(ctx context.Context) error {
	api.mu.Lock()
	defer api.mu.Unlock()

	start := time.Now()

	modules, err := api.loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load modules: %w", err)
	}

	if err := modules.validate(); err != nil {
		return fmt.Errorf("failed to load modules: %w", err)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	for _, reloader := range modules.reloaders() {
		group.Go(func() error {
			return reloader.Reload(groupCtx)
		})
	}

	if err := group.Wait(); err != nil {
		return fmt.Errorf("failed to reload modules: %w", err)
	}

	if modules.Config.Limiter.Enabled && api.limiter == nil {
		api.limiter = limiter.New(router.LimiterOptions(modules.Config))
	}

	next := router.NewRouter()
	next.RegisterMiddleware(modules.Config, api.limiter)

	registered := Build(Routes(modules), NewGate(modules.Utils), next)

	previous := api.active.Swap(&generation{router: next, modules: modules})

	for _, fn := range api.onPublish {
		fn(modules.Config)
	}

	event := log.Info().
		Int("routes", registered).
		Dur("dur", time.Since(start))
	if previous == nil {
		event.Msg("[API] Loaded")
	} else {
		event.Msg("[API] Reloaded")
	}

	return nil
}

// ServeHTTP dispatches r to the active router.
func (api *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	active := api.active.Load()
	if active == nil {
		http.Error(w, errNotLoaded.Error(), http.StatusServiceUnavailable)

		return
	}

	active.router.ServeHTTP(w, r)
}

// Config returns the configuration the active router was built from.
func (api *API) Config() *config.ServerConfig {
	active := api.active.Load()
	if active == nil {
		return nil
	}

	return active.modules.Config
}
