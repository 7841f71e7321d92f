// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package controllers

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"codeberg.org/kiseki/kiseki/config"
	"codeberg.org/kiseki/kiseki/core/authenticated"
	"codeberg.org/kiseki/kiseki/core/lrucache"
	"codeberg.org/kiseki/kiseki/server/utils"
)

// verifiedTokenCacheSize bounds how many verified tokens Utils remembers.
const verifiedTokenCacheSize = 1024

// Utils identifies callers by the token header.
type Utils struct {
	cfg *config.ServerConfig

	// verified maps a token to its identity until the token expires.
	verified *lrucache.Cache[authenticated.User]
}

func NewUtils(cfg *config.ServerConfig) *Utils {
	return &Utils{
		cfg:      cfg,
		verified: lrucache.MustNew[authenticated.User](verifiedTokenCacheSize),
	}
}

// Authorize verifies the token header of r.
//
// On failure it answers 401 and returns a User with an empty ID.
func (u *Utils) Authorize(w http.ResponseWriter, r *http.Request) (authenticated.User, error) {
	token := strings.TrimSpace(r.Header.Get(TokenHeader))
	if token == "" {
		return authenticated.User{}, utils.WriteFailure(w, http.StatusUnauthorized, DescriptionNoToken)
	}

	if user, ok := u.verified.Get(token); ok {
		return user, nil
	}

	user, expiresAt, err := u.cfg.Validator.VerifyUntil(token)
	if err != nil {
		log.Debug().Err(err).Msg("Rejected API token")

		return authenticated.User{}, utils.WriteFailure(w, http.StatusUnauthorized, DescriptionInvalidToken)
	}

	u.verified.Add(token, user, expiresAt)

	return user, nil
}

// IsAdmin reports whether username is listed in admins.
func (u *Utils) IsAdmin(_ context.Context, username string) bool {
	return username != "" && slices.Contains(u.cfg.Admins, username)
}
