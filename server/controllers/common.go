// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package controllers

import (
	"net/http"

	"codeberg.org/kiseki/kiseki/server/utils"
)

// Failure descriptions shared by the controllers.
const (
	DescriptionNoToken        = "No token provided"
	DescriptionInvalidToken   = "Invalid token"
	DescriptionNotImplemented = "Not implemented"
)

// TokenHeader carries the API token of the caller.
const TokenHeader = "token"

func notImplemented(w http.ResponseWriter) error {
	return utils.WriteFailure(w, http.StatusNotImplemented, DescriptionNotImplemented)
}
