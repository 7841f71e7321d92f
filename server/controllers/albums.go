// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package controllers

import (
	"context"
	"net/http"

	"codeberg.org/kiseki/kiseki/config"
)

// Albums handles albums.
type Albums struct {
	cfg *config.ServerConfig
}

func NewAlbums(cfg *config.ServerConfig) *Albums {
	return &Albums{cfg: cfg}
}

func (a *Albums) Reload(context.Context) error {
	return nil
}

func (a *Albums) Get(w http.ResponseWriter, _ *http.Request, _ http.Handler) error {
	return notImplemented(w)
}

// GenerateZip is only routed when uploads.generateZips is on.
func (a *Albums) GenerateZip(w http.ResponseWriter, _ *http.Request, _ http.Handler) error {
	return notImplemented(w)
}

func (a *Albums) List(w http.ResponseWriter, _ *http.Request, _ http.Handler) error {
	return notImplemented(w)
}

func (a *Albums) Create(w http.ResponseWriter, _ *http.Request, _ http.Handler) error {
	return notImplemented(w)
}

func (a *Albums) Delete(w http.ResponseWriter, _ *http.Request, _ http.Handler) error {
	return notImplemented(w)
}

func (a *Albums) Rename(w http.ResponseWriter, _ *http.Request, _ http.Handler) error {
	return notImplemented(w)
}
