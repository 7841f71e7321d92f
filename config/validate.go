// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"codeberg.org/kiseki/kiseki/core/authenticated"
)

// validation errors.
var (
	errSecretRequired       = errors.New("basic.secret is required")
	errSecretInvalid        = errors.New("basic.secret is not a valid paseto key")
	errInvalidMaxSize       = errors.New("uploads.maxSize must look like 512MB")
	errInvalidTokenTTL      = errors.New("token.ttl must be positive")
	errInvalidLogFormat     = errors.New("log.logFormat must be console or json")
	errInvalidLimiterRate   = errors.New("limiter.rate must be positive")
	errInvalidLimiterBurst  = errors.New("limiter.burst must be positive")
	errInvalidIPv4Prefix    = errors.New("IPv4 prefix must be between 0 and 32")
	errInvalidIPv6Prefix    = errors.New("IPv6 prefix must be between 0 and 128")
	errS3BucketRequired     = errors.New("s3.bucket is required when s3.use is enabled")
	errInvalidBlockedSuffix = errors.New("blockedExtensions entries must start with a dot")
	errInvalidBasePath      = errors.New("basic.basePath must start with '/'")
)

var maxSizeRegexp = regexp.MustCompile(`^[1-9][0-9]*(B|KB|MB|GB)$`)

// validateAndSet validates the server configuration and populates derived fields.
func (cfg *ServerConfig) validateAndSet() error {
	if err := cfg.validateListener(); err != nil {
		return err
	}

	// "" and "/" both mean the API is served from the root
	cfg.Basic.BasePath = strings.TrimRight(cfg.Basic.BasePath, "/")
	if cfg.Basic.BasePath != "" && !strings.HasPrefix(cfg.Basic.BasePath, "/") {
		return errInvalidBasePath
	}

	if cfg.Basic.Secret == "" {
		key := authenticated.NewSecretKeyHex()
		log.Error().Msgf("Generated secret key (put this in config.yaml)\nbasic:\n  secret: \"%s\"", key)

		return errSecretRequired
	}

	validator := &authenticated.Validator{}
	if err := validator.LoadSecretKeyFromHex(cfg.Basic.Secret); err != nil {
		log.Error().Err(err).Msg("Failed to load basic.secret")

		return errSecretInvalid
	}

	cfg.Validator = validator
	// remove key. no longer needed.
	cfg.Basic.Secret = ""

	cfg.Uploads.MaxSize = strings.ToUpper(strings.TrimSpace(cfg.Uploads.MaxSize))
	if !maxSizeRegexp.MatchString(cfg.Uploads.MaxSize) {
		return errInvalidMaxSize
	}

	for i, ext := range cfg.BlockedExtensions {
		if !strings.HasPrefix(ext, ".") {
			return errInvalidBlockedSuffix
		}

		cfg.BlockedExtensions[i] = strings.ToLower(ext)
	}

	if cfg.S3.Use && cfg.S3.Bucket == "" {
		return errS3BucketRequired
	}

	if cfg.Token.TTL <= 0 {
		return errInvalidTokenTTL
	}

	switch cfg.Log.Format {
	case "console", "json":
		// valid
	default:
		return errInvalidLogFormat
	}

	// Skip validating Limiter configuration if it's not enabled
	if !cfg.Limiter.Enabled {
		return nil
	}

	if cfg.Limiter.Rate <= 0 {
		return errInvalidLimiterRate
	}

	if cfg.Limiter.Burst <= 0 {
		return errInvalidLimiterBurst
	}

	if cfg.Limiter.IPv4Prefix < 0 || cfg.Limiter.IPv4Prefix > 32 {
		return errInvalidIPv4Prefix
	}

	if cfg.Limiter.IPv6Prefix < 0 || cfg.Limiter.IPv6Prefix > 128 {
		return errInvalidIPv6Prefix
	}

	return nil
}
