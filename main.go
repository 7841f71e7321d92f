// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Kiseki is a self-hosted file upload service. This binary serves its API.

Send SIGHUP to reload the configuration and rebuild the API routes without
restarting; the listener is kept as is.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"codeberg.org/kiseki/kiseki/config"
	"codeberg.org/kiseki/kiseki/core/audit"
	"codeberg.org/kiseki/kiseki/server/api"
	"codeberg.org/kiseki/kiseki/server/controllers"
)

const (
	// Values for http.Server timeouts.
	// ref: gosec: G112
	readHeaderTimeout time.Duration = 15 * time.Second
	readTimeout       time.Duration = 5 * time.Minute // uploads can be large
	writeTimeout      time.Duration = 5 * time.Minute
	idleTimeout       time.Duration = 30 * time.Second

	serverShutdownDeadline time.Duration = 5 * time.Second
	reloadDeadline         time.Duration = 30 * time.Second
)

var (
	errChmodSocket = errors.New("failed to change unix socket permissions")
	errChownSocket = errors.New("failed to change unix socket ownership")
)

// main is the entry point of the application.
func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Application failed")
	}
}

// run orchestrates the application startup and graceful shutdown.
//
//nolint:funlen
func run() error {
	audit.SetDefaultLogger()

	ctx := context.Background()

	handler, err := api.New(ctx,
		controllers.Loader{LoadConfig: config.Load},
		// logging follows the configuration that is actually serving
		api.OnPublish(config.Setup),
	)
	if err != nil {
		return fmt.Errorf("failed to build API: %w", err)
	}

	// the listener is bound once; reloads do not move it
	cfg := handler.Config()

	// Create http.Server instance
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	// Channel to listen for server errors
	serverErrors := make(chan error, 1)

	// Start main server in a goroutine
	go func() {
		listener, err := chooseListener(cfg)
		if err != nil {
			serverErrors <- fmt.Errorf("failed to create listener: %w", err)

			return
		}

		serverErrors <- server.Serve(listener)
	}()

	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)

	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Block until a shutdown signal or a server error is received
	for {
		select {
		case <-reload:
			log.Info().Msg("Reload signal received")

			reloadCtx, cancel := context.WithTimeout(ctx, reloadDeadline)
			if err := handler.Reload(reloadCtx); err != nil {
				log.Error().Err(err).Msg("Reload failed, keeping the previous API")
			}

			cancel()
		case err := <-serverErrors:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}

			return nil
		case s := <-quit:
			log.Info().Str("signal", s.String()).Msg("Shutdown signal received")
			log.Info().Msg("Shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(ctx, serverShutdownDeadline)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}

			log.Info().Msg("Server exited gracefully")

			return nil
		}
	}
}

func chooseListener(cfg *config.ServerConfig) (net.Listener, error) {
	// Check if we should use a Unix domain socket
	if cfg.Basic.UnixSocket != "" {
		unixAddr := cfg.Basic.UnixSocket

		unixListener, err := (&net.ListenConfig{}).Listen(context.Background(), "unix", unixAddr)
		if err != nil {
			return nil, fmt.Errorf("failed to start Unix socket listener on %v: %w", unixAddr, err)
		}

		if err = setupSocket(cfg); err != nil {
			_ = unixListener.Close()

			return nil, err
		}

		// Assign the listener and log where we are listening
		log.Info().
			Str("address", unixAddr).
			Msg("Listening on Unix domain socket")

		return unixListener, nil
	}

	// Otherwise, fall back to TCP listener
	addr := net.JoinHostPort(cfg.Basic.Host, cfg.Basic.Port)

	tcpListener, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start TCP listener on %v: %w", addr, err)
	}

	addr = tcpListener.Addr().String()

	log.Info().
		Str("address", addr).
		Str("url", fmt.Sprintf("http://%s%s/", addr, cfg.Basic.BasePath)).
		Msg("Listening on address")

	return tcpListener, nil
}

func setupSocket(cfg *config.ServerConfig) error {
	basic := cfg.Basic

	uid, gid := -1, -1

	var err error

	if basic.UnixSocketUser != "" {
		uid, err = parseUserOrGroupID(basic.UnixSocketUser, "user")
		if err != nil {
			return err
		}
	}

	if basic.UnixSocketGroup != "" {
		gid, err = parseUserOrGroupID(basic.UnixSocketGroup, "group")
		if err != nil {
			return err
		}
	}

	if uid != -1 || gid != -1 {
		if err := os.Chown(basic.UnixSocket, uid, gid); err != nil {
			return fmt.Errorf("%w: %w", errChownSocket, err)
		}
	}

	if err := os.Chmod(basic.UnixSocket, basic.UnixSocketPermissions); err != nil {
		return fmt.Errorf("%w: %w", errChmodSocket, err)
	}

	return nil
}

// parseUserOrGroupID resolves a numeric ID or a name of the given kind ("user" or "group").
func parseUserOrGroupID(value, kind string) (int, error) {
	if id, err := strconv.Atoi(value); err == nil {
		return id, nil
	}

	var idStr string

	if kind == "user" {
		u, err := user.Lookup(value)
		if err != nil {
			return -1, fmt.Errorf("failed to lookup user '%s': %w", value, err)
		}

		idStr = u.Uid
	} else {
		g, err := user.LookupGroup(value)
		if err != nil {
			return -1, fmt.Errorf("failed to lookup group '%s': %w", value, err)
		}

		idStr = g.Gid
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		return -1, fmt.Errorf("failed to parse %s ID from looked-up value '%s': %w", kind, value, err)
	}

	return id, nil
}
