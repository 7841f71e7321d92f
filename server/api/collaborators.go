// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"codeberg.org/kiseki/kiseki/config"
	"codeberg.org/kiseki/kiseki/core/authenticated"
)

// Handler serves one API call.
//
// next continues to the router's fallback. A returned error is answered by
// middleware.CatchError unless the handler already wrote an error status.
type Handler func(w http.ResponseWriter, r *http.Request, next http.Handler) error

// Reloader is implemented by collaborators that cache state derived from the configuration.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Authorizer identifies callers.
type Authorizer interface {
	// Authorize resolves the caller of r.
	//
	// When the caller cannot be authenticated, Authorize writes the failure
	// response itself and returns a User with an empty ID. A non-nil error
	// is reserved for faults, such as an unreachable user store.
	Authorize(w http.ResponseWriter, r *http.Request) (authenticated.User, error)

	// IsAdmin reports whether username may use administration calls.
	IsAdmin(ctx context.Context, username string) bool
}

type UploadController interface {
	Reloader

	List(w http.ResponseWriter, r *http.Request, next http.Handler) error
	FileInfo(w http.ResponseWriter, r *http.Request, next http.Handler) error
	Upload(w http.ResponseWriter, r *http.Request, next http.Handler) error
	Delete(w http.ResponseWriter, r *http.Request, next http.Handler) error
}

type AlbumsController interface {
	Reloader

	Get(w http.ResponseWriter, r *http.Request, next http.Handler) error
	GenerateZip(w http.ResponseWriter, r *http.Request, next http.Handler) error
	List(w http.ResponseWriter, r *http.Request, next http.Handler) error
	Create(w http.ResponseWriter, r *http.Request, next http.Handler) error
	Delete(w http.ResponseWriter, r *http.Request, next http.Handler) error
	Rename(w http.ResponseWriter, r *http.Request, next http.Handler) error
}

type TokenController interface {
	Reloader

	List(w http.ResponseWriter, r *http.Request, next http.Handler) error
	Verify(w http.ResponseWriter, r *http.Request, next http.Handler) error
	Change(w http.ResponseWriter, r *http.Request, next http.Handler) error
}

type AuthController interface {
	Reloader

	ListAdmins(w http.ResponseWriter, r *http.Request, next http.Handler) error
	AdminCheck(w http.ResponseWriter, r *http.Request, next http.Handler) error
	ListAccounts(w http.ResponseWriter, r *http.Request, next http.Handler) error
	Verify(w http.ResponseWriter, r *http.Request, next http.Handler) error
	Register(w http.ResponseWriter, r *http.Request, next http.Handler) error
	DeleteAccount(w http.ResponseWriter, r *http.Request, next http.Handler) error
	DisableAccount(w http.ResponseWriter, r *http.Request, next http.Handler) error
	ChangePassword(w http.ResponseWriter, r *http.Request, next http.Handler) error
}

// Modules is one generation of collaborators, all built from the same Config.
type Modules struct {
	Config  *config.ServerConfig
	Utils   Authorizer
	Uploads UploadController
	Albums  AlbumsController
	Tokens  TokenController
	Auth    AuthController
}

var errMissingModule = errors.New("missing module")

func (m *Modules) validate() error {
	switch {
	case m == nil:
		return errMissingModule
	case m.Config == nil:
		return fmt.Errorf("%w: config", errMissingModule)
	case m.Utils == nil:
		return fmt.Errorf("%w: utils", errMissingModule)
	case m.Uploads == nil:
		return fmt.Errorf("%w: uploads", errMissingModule)
	case m.Albums == nil:
		return fmt.Errorf("%w: albums", errMissingModule)
	case m.Tokens == nil:
		return fmt.Errorf("%w: tokens", errMissingModule)
	case m.Auth == nil:
		return fmt.Errorf("%w: auth", errMissingModule)
	}

	return nil
}

// reloaders returns every collaborator with a reload hook.
func (m *Modules) reloaders() []Reloader {
	return []Reloader{m.Uploads, m.Albums, m.Tokens, m.Auth}
}

// Loader produces a fresh generation of collaborators, re-reading the configuration.
type Loader interface {
	Load(ctx context.Context) (*Modules, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context) (*Modules, error)

func (f LoaderFunc) Load(ctx context.Context) (*Modules, error) {
	return f(ctx)
}
