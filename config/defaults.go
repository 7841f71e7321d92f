// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import "time"

const (
	// Default token lifetime in hours.
	defaultTokenTTLHours = 24 * 30

	// Default limiter refill rate in tokens per second.
	defaultLimiterRate = 5.0
	// Default limiter bucket size.
	defaultLimiterBurst = 60
)

// SetDefaults populates the configuration with default values.
func (cfg *ServerConfig) SetDefaults() {
	cfg.Basic.Host = "localhost"
	cfg.Basic.Port = "9999"
	cfg.Basic.BasePath = "/api"

	cfg.Private = true
	cfg.EnableUserAccounts = true
	cfg.AllowEncoding = false
	cfg.BlockedExtensions = []string{".jar", ".exe", ".msi", ".com", ".bat", ".cmd", ".scr", ".ps1", ".sh"}
	cfg.Admins = []string{}

	cfg.Uploads.MaxSize = "512MB"
	cfg.Uploads.GenerateZips = true

	cfg.S3.Use = false

	cfg.Token.TTL = defaultTokenTTLHours * time.Hour

	cfg.Log.Level = "info"
	cfg.Log.Outputs = []string{"/dev/stderr"}
	cfg.Log.Format = "console"

	cfg.Limiter.Enabled = false
	cfg.Limiter.Rate = defaultLimiterRate
	cfg.Limiter.Burst = defaultLimiterBurst
	cfg.Limiter.IPv4Prefix = 24
	cfg.Limiter.IPv6Prefix = 48

	cfg.Compression.Enabled = true

	cfg.Development.InDevelopment = false
}
