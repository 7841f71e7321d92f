// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package controllers

import (
	"context"
	"net/http"

	"codeberg.org/kiseki/kiseki/config"
	"codeberg.org/kiseki/kiseki/server/request_context"
	"codeberg.org/kiseki/kiseki/server/utils"
)

const DescriptionRegistrationDisabled = "Registration is currently disabled"

// Auth handles accounts and administrators.
type Auth struct {
	cfg   *config.ServerConfig
	utils *Utils
}

func NewAuth(cfg *config.ServerConfig, u *Utils) *Auth {
	return &Auth{cfg: cfg, utils: u}
}

func (a *Auth) Reload(context.Context) error {
	return nil
}

// ListAdmins answers with the configured administrators.
func (a *Auth) ListAdmins(w http.ResponseWriter, _ *http.Request, _ http.Handler) error {
	admins := a.cfg.Admins
	if admins == nil {
		admins = []string{}
	}

	return utils.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"admins":  admins,
	})
}

// AdminCheck tells the caller whether they are an administrator.
func (a *Auth) AdminCheck(w http.ResponseWriter, r *http.Request, _ http.Handler) error {
	user, _ := request_context.UserFromRequest(r)

	return utils.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"admin":   a.utils.IsAdmin(r.Context(), user.Username),
	})
}

func (a *Auth) ListAccounts(w http.ResponseWriter, _ *http.Request, _ http.Handler) error {
	return notImplemented(w)
}

// Verify logs a user in with a password.
func (a *Auth) Verify(w http.ResponseWriter, _ *http.Request, _ http.Handler) error {
	return notImplemented(w)
}

func (a *Auth) Register(w http.ResponseWriter, _ *http.Request, _ http.Handler) error {
	if !a.cfg.EnableUserAccounts {
		return utils.WriteFailure(w, http.StatusOK, DescriptionRegistrationDisabled)
	}

	return notImplemented(w)
}

func (a *Auth) DeleteAccount(w http.ResponseWriter, _ *http.Request, _ http.Handler) error {
	return notImplemented(w)
}

func (a *Auth) DisableAccount(w http.ResponseWriter, _ *http.Request, _ http.Handler) error {
	return notImplemented(w)
}

func (a *Auth) ChangePassword(w http.ResponseWriter, _ *http.Request, _ http.Handler) error {
	return notImplemented(w)
}
