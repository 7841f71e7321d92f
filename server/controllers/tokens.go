// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"codeberg.org/kiseki/kiseki/config"
	"codeberg.org/kiseki/kiseki/server/request_context"
	"codeberg.org/kiseki/kiseki/server/utils"
)

// Tokens handles API tokens.
//
// Tokens are signed, not stored: changing a token issues a new one but the
// old one stays valid until it expires.
type Tokens struct {
	cfg   *config.ServerConfig
	utils *Utils
}

func NewTokens(cfg *config.ServerConfig, u *Utils) *Tokens {
	return &Tokens{cfg: cfg, utils: u}
}

func (t *Tokens) Reload(context.Context) error {
	if t.cfg.Validator == nil {
		return errNoValidator
	}

	return nil
}

// List answers with the token the caller authenticated with.
func (t *Tokens) List(w http.ResponseWriter, r *http.Request, _ http.Handler) error {
	return utils.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   strings.TrimSpace(r.Header.Get(TokenHeader)),
	})
}

type verifyRequest struct {
	Token string `json:"token"`
}

// Verify checks the token in the request body.
func (t *Tokens) Verify(w http.ResponseWriter, r *http.Request, _ http.Handler) error {
	var body verifyRequest
	if err := utils.DecodeJSON(w, r, &body); err != nil || strings.TrimSpace(body.Token) == "" {
		return utils.WriteFailure(w, http.StatusUnauthorized, DescriptionNoToken)
	}

	user, err := t.cfg.Validator.Verify(strings.TrimSpace(body.Token))
	if err != nil {
		return utils.WriteFailure(w, http.StatusUnauthorized, DescriptionInvalidToken)
	}

	return utils.WriteJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"username": user.Username,
		"admin":    t.utils.IsAdmin(r.Context(), user.Username),
	})
}

// Change issues a fresh token for the caller.
func (t *Tokens) Change(w http.ResponseWriter, r *http.Request, _ http.Handler) error {
	user, ok := request_context.UserFromRequest(r)
	if !ok {
		return utils.WriteFailure(w, http.StatusUnauthorized, DescriptionNoToken)
	}

	token, err := t.cfg.Validator.Sign(user, t.cfg.Token.TTL)
	if err != nil {
		return fmt.Errorf("failed to sign token for %s: %w", user.Username, err)
	}

	return utils.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   token,
	})
}
