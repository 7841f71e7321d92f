// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"codeberg.org/kiseki/kiseki/config"
	"codeberg.org/kiseki/kiseki/server/utils"
)

const DescriptionFileTooLarge = "File too large"

var errInvalidSize = errors.New("invalid size")

// Uploads handles files.
type Uploads struct {
	cfg *config.ServerConfig

	// parsed from cfg.Uploads.MaxSize by Reload
	maxBytes atomic.Int64
}

func NewUploads(cfg *config.ServerConfig) *Uploads {
	return &Uploads{cfg: cfg}
}

func (u *Uploads) Reload(context.Context) error {
	maxBytes, err := parseSize(u.cfg.Uploads.MaxSize)
	if err != nil {
		return fmt.Errorf("uploads.maxSize: %w", err)
	}

	u.maxBytes.Store(maxBytes)

	log.Debug().
		Int64("max_bytes", maxBytes).
		Msg("Reloaded uploads controller")

	return nil
}

func (u *Uploads) List(w http.ResponseWriter, _ *http.Request, _ http.Handler) error {
	return notImplemented(w)
}

func (u *Uploads) FileInfo(w http.ResponseWriter, _ *http.Request, _ http.Handler) error {
	return notImplemented(w)
}

// Upload rejects bodies over the configured size before anything else.
//
// A declared length is checked up front; a body without one, such as a
// chunked upload, is cut off once it passes the limit.
func (u *Uploads) Upload(w http.ResponseWriter, r *http.Request, _ http.Handler) error {
	limit := u.maxBytes.Load()
	if limit > 0 {
		if r.ContentLength > limit {
			return utils.WriteFailure(w, http.StatusRequestEntityTooLarge, DescriptionFileTooLarge)
		}

		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	if _, err := io.Copy(io.Discard, r.Body); err != nil {
		if maxBytesErr := (*http.MaxBytesError)(nil); errors.As(err, &maxBytesErr) {
			return utils.WriteFailure(w, http.StatusRequestEntityTooLarge, DescriptionFileTooLarge)
		}

		return fmt.Errorf("failed to read upload: %w", err)
	}

	return notImplemented(w)
}

func (u *Uploads) Delete(w http.ResponseWriter, _ *http.Request, _ http.Handler) error {
	return notImplemented(w)
}

// sizeUnits are tried in order, so "MB" is matched before "B".
var sizeUnits = []struct {
	suffix     string
	multiplier int64
}{
	{"GB", 1 << 30},
	{"MB", 1 << 20},
	{"KB", 1 << 10},
	{"B", 1},
}

// parseSize converts sizes such as "512MB" to bytes.
func parseSize(raw string) (int64, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))

	for _, unit := range sizeUnits {
		number, found := strings.CutSuffix(raw, unit.suffix)
		if !found {
			continue
		}

		n, err := strconv.ParseInt(number, 10, 64)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("%w: %q", errInvalidSize, raw)
		}

		return n * unit.multiplier, nil
	}

	return 0, fmt.Errorf("%w: %q", errInvalidSize, raw)
}
