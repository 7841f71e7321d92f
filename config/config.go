// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"codeberg.org/kiseki/kiseki/core/authenticated"
)

// ServerConfig holds the application configuration.
//
// A ServerConfig is treated as immutable once Load returns it; a reload
// produces a new value instead of editing the active one.
type ServerConfig struct {
	Build buildInfo `yaml:"-"`

	Basic struct {
		Host string `env:"KISEKI_HOST,overwrite" yaml:"host"`
		Port string `env:"KISEKI_PORT,overwrite" yaml:"port"`
		// when set, the server listens on this unix socket instead of Host:Port
		UnixSocket               string      `env:"KISEKI_UNIXSOCKET"             yaml:"unixSocket"`
		RawUnixSocketPermissions string      `env:"KISEKI_UNIXSOCKET_PERMISSIONS" yaml:"unixSocketPermissions"`
		UnixSocketPermissions    os.FileMode `yaml:"-"`
		UnixSocketUser           string      `env:"KISEKI_UNIXSOCKET_USER"        yaml:"unixSocketUser"`
		UnixSocketGroup          string      `env:"KISEKI_UNIXSOCKET_GROUP"       yaml:"unixSocketGroup"`
		// every API route is served below this path
		BasePath string `env:"KISEKI_BASE_PATH,overwrite" yaml:"basePath"`
		// hex of a v4.public secret key, used to sign and verify API tokens
		Secret string `env:"KISEKI_SECRET" yaml:"secret"`
	} `yaml:"basic"`

	Private            bool     `env:"KISEKI_PRIVATE,overwrite"              yaml:"private"`
	EnableUserAccounts bool     `env:"KISEKI_ENABLE_USER_ACCOUNTS,overwrite" yaml:"enableUserAccounts"`
	AllowEncoding      bool     `env:"KISEKI_ALLOW_ENCODING,overwrite"       yaml:"allowEncoding"`
	BlockedExtensions  []string `env:"KISEKI_BLOCKED_EXTENSIONS,overwrite"   yaml:"blockedExtensions"`
	Admins             []string `env:"KISEKI_ADMINS,overwrite"               yaml:"admins"`

	Uploads struct {
		MaxSize      string `env:"KISEKI_UPLOADS_MAX_SIZE,overwrite"      yaml:"maxSize"`
		GenerateZips bool   `env:"KISEKI_UPLOADS_GENERATE_ZIPS,overwrite" yaml:"generateZips"`
	} `yaml:"uploads"`

	S3 struct {
		Use      bool   `env:"KISEKI_S3,overwrite"          yaml:"use"`
		Bucket   string `env:"KISEKI_S3_BUCKET,overwrite"   yaml:"bucket"`
		Region   string `env:"KISEKI_S3_REGION,overwrite"   yaml:"region"`
		Endpoint string `env:"KISEKI_S3_ENDPOINT,overwrite" yaml:"endpoint"`
	} `yaml:"s3"`

	Token struct {
		TTL time.Duration `env:"KISEKI_TOKEN_TTL,overwrite" yaml:"ttl"`
	} `yaml:"token"`

	Log struct {
		Level   string   `env:"KISEKI_LOG_LEVEL,overwrite"   yaml:"logLevel"`
		Outputs []string `env:"KISEKI_LOG_OUTPUTS,overwrite" yaml:"logOutputs"`
		Format  string   `env:"KISEKI_LOG_FORMAT,overwrite"  yaml:"logFormat"`
	} `yaml:"log"`

	Limiter struct {
		Enabled    bool    `env:"KISEKI_LIMITER,overwrite"             yaml:"enabled"`
		Rate       float64 `env:"KISEKI_LIMITER_RATE,overwrite"        yaml:"rate"`
		Burst      int     `env:"KISEKI_LIMITER_BURST,overwrite"       yaml:"burst"`
		IPv4Prefix int     `env:"KISEKI_LIMITER_IPV4_PREFIX,overwrite" yaml:"ipv4Prefix"`
		IPv6Prefix int     `env:"KISEKI_LIMITER_IPV6_PREFIX,overwrite" yaml:"ipv6Prefix"`
	} `yaml:"limiter"`

	Compression struct {
		Enabled bool `env:"KISEKI_COMPRESSION,overwrite" yaml:"enabled"`
	} `yaml:"compression"`

	Development struct {
		InDevelopment bool `env:"KISEKI_DEV" yaml:"inDevelopment"`
	} `yaml:"development"`

	// Validator is derived from Basic.Secret by validateAndSet.
	Validator *authenticated.Validator `yaml:"-"`
}

// Load reads the configuration from its sources and validates it.
//
// Sources are applied in this order, later ones winning:
//  1. defaults
//  2. YAML file (-config flag, KISEKI_CONFIGFILE, ./config.yaml or ./config.yml)
//  3. .env file
//  4. environment variables
//
// Load is safe to call again to pick up changes on disk; it always returns
// a fresh *ServerConfig.
func Load() (*ServerConfig, error) {
	cfg := &ServerConfig{}

	cfg.SetDefaults()
	cfg.Build.load()

	if err := cfg.readYAML(configFilePath()); err != nil {
		return nil, fmt.Errorf("error loading YAML config: %w", err)
	}

	if err := currentEnvironment().apply(cfg); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	if err := cfg.validateAndSet(); err != nil {
		return nil, fmt.Errorf("configuration invalid: %w", err)
	}

	return cfg, nil
}

// Setup installs the logging configuration of cfg and prints it.
func Setup(cfg *ServerConfig) {
	cfg.setupAudit()
	cfg.print()
}

// configFilePath determines the config file path with the correct precedence:
//  1. Command-line flag (-config)
//  2. Environment variable (KISEKI_CONFIGFILE)
//  3. Default path with fallback check
func configFilePath() string {
	parsedConfigFlagValue := parseCommandLineArgs()

	configFlagUserSet := false

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			configFlagUserSet = true
		}
	})

	if configFlagUserSet {
		return parsedConfigFlagValue
	}

	if envVar := os.Getenv("KISEKI_CONFIGFILE"); envVar != "" {
		return envVar
	}

	// Neither flag nor env var was provided; fall back to "./config.yml"
	// when the default "./config.yaml" does not exist.
	if _, err := os.Stat(parsedConfigFlagValue); os.IsNotExist(err) {
		ymlPath := "./config.yml"
		if _, statErr := os.Stat(ymlPath); statErr == nil {
			return ymlPath
		}
	}

	return parsedConfigFlagValue
}

// GetDurationEncoderOption returns a YAML encoder option that marshals
// time.Duration into a human-readable string format (e.g., "30m", "1h").
func GetDurationEncoderOption() yaml.EncodeOption {
	return yaml.CustomMarshaler[time.Duration](
		func(d time.Duration) ([]byte, error) {
			return yaml.Marshal(d.String())
		},
	)
}
