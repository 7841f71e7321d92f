// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"codeberg.org/kiseki/kiseki/config"
	"codeberg.org/kiseki/kiseki/core/authenticated"
	"codeberg.org/kiseki/kiseki/server/request_context"
	"codeberg.org/kiseki/kiseki/server/utils"
)

const (
	adminToken = "admin-token"
	userToken  = "user-token"
)

// recorder collects the steps taken while serving a request.
type recorder struct {
	mu    sync.Mutex
	steps []string
}

func (rec *recorder) add(step string) {
	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.steps = append(rec.steps, step)
}

func (rec *recorder) get() []string {
	rec.mu.Lock()
	defer rec.mu.Unlock()

	return slices.Clone(rec.steps)
}

// fakeAuthorizer knows two tokens: one for an administrator and one for a regular user.
type fakeAuthorizer struct {
	rec *recorder
	err error
}

func (a *fakeAuthorizer) Authorize(w http.ResponseWriter, r *http.Request) (authenticated.User, error) {
	a.rec.add("authorize")

	if a.err != nil {
		return authenticated.User{}, a.err
	}

	switch r.Header.Get("token") {
	case adminToken:
		return authenticated.User{ID: "1", Username: "admin"}, nil
	case userToken:
		return authenticated.User{ID: "2", Username: "alice"}, nil
	default:
		return authenticated.User{}, utils.WriteFailure(w, http.StatusUnauthorized, "Invalid token")
	}
}

func (a *fakeAuthorizer) IsAdmin(_ context.Context, username string) bool {
	a.rec.add("isAdmin")

	return username == "admin"
}

// stub implements every controller interface. Each call answers with the
// method name, the caller and the generation of the stub.
type stub struct {
	generation string
	rec        *recorder

	reloads   atomic.Int32
	reloadErr error

	// block, if set, is waited on by List after entered is closed
	entered chan struct{}
	block   chan struct{}
}

func (s *stub) answer(w http.ResponseWriter, r *http.Request, name string) error {
	s.rec.add(name)

	var username string
	if user, ok := request_context.UserFromRequest(r); ok {
		username = user.Username
	}

	return utils.WriteJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"handler":    name,
		"user":       username,
		"generation": s.generation,
	})
}

func (s *stub) Reload(context.Context) error {
	s.reloads.Add(1)

	return s.reloadErr
}

func (s *stub) List(w http.ResponseWriter, r *http.Request, _ http.Handler) error {
	if s.block != nil {
		close(s.entered)
		<-s.block
	}

	return s.answer(w, r, "List")
}

func (s *stub) FileInfo(w http.ResponseWriter, r *http.Request, _ http.Handler) error {
	return s.answer(w, r, "FileInfo")
}

func (s *stub) Upload(w http.ResponseWriter, r *http.Request, _ http.Handler) error {
	return s.answer(w, r, "Upload")
}

func (s *stub) Delete(w http.ResponseWriter, r *http.Request, _ http.Handler) error {
	return s.answer(w, r, "Delete")
}

func (s *stub) Get(w http.ResponseWriter, r *http.Request, _ http.Handler) error {
	return s.answer(w, r, "Get")
}

func (s *stub) GenerateZip(w http.ResponseWriter, r *http.Request, _ http.Handler) error {
	return s.answer(w, r, "GenerateZip")
}

func (s *stub) Create(w http.ResponseWriter, r *http.Request, _ http.Handler) error {
	return s.answer(w, r, "Create")
}

func (s *stub) Rename(w http.ResponseWriter, r *http.Request, _ http.Handler) error {
	return s.answer(w, r, "Rename")
}

func (s *stub) Verify(w http.ResponseWriter, r *http.Request, _ http.Handler) error {
	return s.answer(w, r, "Verify")
}

func (s *stub) Change(w http.ResponseWriter, r *http.Request, _ http.Handler) error {
	return s.answer(w, r, "Change")
}

func (s *stub) ListAdmins(w http.ResponseWriter, r *http.Request, _ http.Handler) error {
	return s.answer(w, r, "ListAdmins")
}

func (s *stub) AdminCheck(w http.ResponseWriter, r *http.Request, _ http.Handler) error {
	return s.answer(w, r, "AdminCheck")
}

func (s *stub) ListAccounts(w http.ResponseWriter, r *http.Request, _ http.Handler) error {
	return s.answer(w, r, "ListAccounts")
}

func (s *stub) Register(w http.ResponseWriter, r *http.Request, _ http.Handler) error {
	return s.answer(w, r, "Register")
}

func (s *stub) DeleteAccount(w http.ResponseWriter, r *http.Request, _ http.Handler) error {
	return s.answer(w, r, "DeleteAccount")
}

func (s *stub) DisableAccount(w http.ResponseWriter, r *http.Request, _ http.Handler) error {
	return s.answer(w, r, "DisableAccount")
}

func (s *stub) ChangePassword(w http.ResponseWriter, r *http.Request, _ http.Handler) error {
	return s.answer(w, r, "ChangePassword")
}

// testConfig returns the default configuration without touching the environment.
func testConfig(t *testing.T) *config.ServerConfig {
	t.Helper()

	cfg := &config.ServerConfig{}
	cfg.SetDefaults()

	return cfg
}

// testModules returns a generation whose controllers are all the same stub.
func testModules(t *testing.T, cfg *config.ServerConfig, s *stub) *Modules {
	t.Helper()

	return &Modules{
		Config:  cfg,
		Utils:   &fakeAuthorizer{rec: s.rec},
		Uploads: s,
		Albums:  s,
		Tokens:  s,
		Auth:    s,
	}
}

// staticLoader always returns m.
func staticLoader(m *Modules) Loader {
	return LoaderFunc(func(context.Context) (*Modules, error) {
		return m, nil
	})
}

func newRequest(method, target, token string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("token", token)
	}

	return req
}
