// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package controllers

import (
	"context"
	"errors"
	"fmt"

	"codeberg.org/kiseki/kiseki/config"
	"codeberg.org/kiseki/kiseki/server/api"
)

var errNoValidator = errors.New("configuration has no token validator")

// Loader builds a generation of controllers from a freshly loaded configuration.
type Loader struct {
	// LoadConfig is usually config.Load.
	LoadConfig func() (*config.ServerConfig, error)
}

func (l Loader) Load(context.Context) (*api.Modules, error) {
	cfg, err := l.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.Validator == nil {
		return nil, errNoValidator
	}

	u := NewUtils(cfg)

	return &api.Modules{
		Config:  cfg,
		Utils:   u,
		Uploads: NewUploads(cfg),
		Albums:  NewAlbums(cfg),
		Tokens:  NewTokens(cfg, u),
		Auth:    NewAuth(cfg, u),
	}, nil
}
