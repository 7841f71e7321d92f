// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/kiseki/kiseki/core/authenticated"
)

/*
These tests change the process environment, so they can't run in parallel.

TestLoad focuses on verifying main functionality (e.g. rejection of invalid input),
and *shouldn't* need exhaustive scenarios
*/

func TestLoad(t *testing.T) {
	secret := authenticated.NewSecretKeyHex()

	tests := []struct {
		name    string            // Description of the test case
		env     map[string]string // Name of the environment variable and its value
		wantErr bool              // Whether an error is expected
	}{
		{
			name:    "Valid configuration",
			env:     map[string]string{"KISEKI_SECRET": secret},
			wantErr: false,
		},
		{
			name:    "Missing required KISEKI_SECRET",
			env:     map[string]string{"KISEKI_PORT": "8080"},
			wantErr: true,
		},
		{
			name:    "Invalid KISEKI_SECRET",
			env:     map[string]string{"KISEKI_SECRET": "not-hex"},
			wantErr: true,
		},
		{
			name: "Invalid KISEKI_UPLOADS_MAX_SIZE",
			env: map[string]string{
				"KISEKI_SECRET":           secret,
				"KISEKI_UPLOADS_MAX_SIZE": "lots",
			},
			wantErr: true,
		},
		{
			name: "Unparsable KISEKI_PRIVATE",
			env: map[string]string{
				"KISEKI_SECRET":  secret,
				"KISEKI_PRIVATE": "maybe",
			},
			wantErr: true,
		},
		{
			name: "Enabled limiter with invalid burst",
			env: map[string]string{
				"KISEKI_SECRET":        secret,
				"KISEKI_LIMITER":       "true",
				"KISEKI_LIMITER_BURST": "0",
			},
			wantErr: true,
		},
		{
			name: "S3 without bucket",
			env: map[string]string{
				"KISEKI_SECRET": secret,
				"KISEKI_S3":     "true",
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("KISEKI_CONFIGFILE", filepath.Join(t.TempDir(), "missing.yaml"))

			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("KISEKI_CONFIGFILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("KISEKI_SECRET", authenticated.NewSecretKeyHex())
	t.Setenv("KISEKI_ADMINS", "alice, bob,")
	t.Setenv("KISEKI_UPLOADS_GENERATE_ZIPS", "false")
	t.Setenv("KISEKI_LIMITER_RATE", "0.5")
	t.Setenv("KISEKI_TOKEN_TTL", "90m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"alice", "bob"}, cfg.Admins)
	assert.False(t, cfg.Uploads.GenerateZips)
	assert.InDelta(t, 0.5, cfg.Limiter.Rate, 0.0001)
	assert.Equal(t, 90*time.Minute, cfg.Token.TTL)
	assert.NotNil(t, cfg.Validator)
	assert.Empty(t, cfg.Basic.Secret, "secret must not linger after validation")
}

func TestLoadYAMLThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlCfg := `
private: false
blockedExtensions:
  - .EXE
uploads:
  maxSize: 128mb
  generateZips: false
basic:
  port: "7000"
`
	require.NoError(t, os.WriteFile(path, []byte(yamlCfg), 0o600))

	t.Setenv("KISEKI_CONFIGFILE", path)
	t.Setenv("KISEKI_SECRET", authenticated.NewSecretKeyHex())
	t.Setenv("KISEKI_PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Private)
	assert.False(t, cfg.Uploads.GenerateZips)
	assert.Equal(t, "128MB", cfg.Uploads.MaxSize)
	assert.Equal(t, []string{".exe"}, cfg.BlockedExtensions)
	assert.Equal(t, "7001", cfg.Basic.Port, "environment must win over the YAML file")
}

func TestLoadReturnsFreshValues(t *testing.T) {
	t.Setenv("KISEKI_CONFIGFILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("KISEKI_SECRET", authenticated.NewSecretKeyHex())

	first, err := Load()
	require.NoError(t, err)

	t.Setenv("KISEKI_PRIVATE", "false")

	second, err := Load()
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.True(t, first.Private)
	assert.False(t, second.Private)
}

// unsetenv removes key for the duration of the test.
func unsetenv(t *testing.T, key string) {
	t.Helper()

	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func writeDotEnv(t *testing.T, dir, content string) {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600))
}

func TestLoadRereadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	t.Setenv("KISEKI_CONFIGFILE", filepath.Join(dir, "missing.yaml"))
	t.Setenv("KISEKI_SECRET", authenticated.NewSecretKeyHex())
	unsetenv(t, "KISEKI_UPLOADS_GENERATE_ZIPS")
	unsetenv(t, "KISEKI_PRIVATE")

	writeDotEnv(t, dir, "KISEKI_UPLOADS_GENERATE_ZIPS=false\nKISEKI_PRIVATE=false\n")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Uploads.GenerateZips)
	assert.False(t, cfg.Private)

	writeDotEnv(t, dir, "KISEKI_UPLOADS_GENERATE_ZIPS=true\n")

	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.Uploads.GenerateZips, "edited value is picked up")
	assert.True(t, cfg.Private, "removed line falls back to the default")

	_, exported := os.LookupEnv("KISEKI_UPLOADS_GENERATE_ZIPS")
	assert.False(t, exported, ".env values stay out of the process environment")
}

func TestLoadSourcePrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("basic:\n  port: \"7000\"\n  host: yaml.example\n"), 0o600))

	t.Setenv("KISEKI_CONFIGFILE", path)
	t.Setenv("KISEKI_SECRET", authenticated.NewSecretKeyHex())
	t.Setenv("KISEKI_PORT", "7002")
	unsetenv(t, "KISEKI_HOST")

	writeDotEnv(t, dir, "KISEKI_PORT=7001\nKISEKI_HOST=\"dotenv.example\"\n")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7002", cfg.Basic.Port, "environment wins over .env")
	assert.Equal(t, "dotenv.example", cfg.Basic.Host, ".env wins over the YAML file")
}

func TestParseDotEnv(t *testing.T) {
	t.Parallel()

	data := []byte(`
# comment
KISEKI_PORT=8080
  KISEKI_HOST = 'example.org'
KISEKI_ADMINS="alice,bob"
not a pair
KISEKI_SECRET=a=b
`)

	assert.Equal(t, map[string]string{
		"KISEKI_PORT":   "8080",
		"KISEKI_HOST":   "example.org",
		"KISEKI_ADMINS": "alice,bob",
		"KISEKI_SECRET": "a=b",
	}, parseDotEnv(".env", data))
}

func TestLoadRejectsUnknownYAMLKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("uploads:\n  generateZip: false\n"), 0o600))

	t.Setenv("KISEKI_CONFIGFILE", path)
	t.Setenv("KISEKI_SECRET", authenticated.NewSecretKeyHex())

	_, err := Load()
	require.ErrorIs(t, err, errInvalidYAML)
	assert.Contains(t, err.Error(), "generateZip")
}

func TestSetupAuditClosesPreviousLogFiles(t *testing.T) {
	dir := t.TempDir()

	// back to stderr, closing the files below
	t.Cleanup(func() {
		restore := &ServerConfig{}
		restore.SetDefaults()
		restore.setupAudit()
	})

	first := &ServerConfig{}
	first.SetDefaults()
	first.Log.Format = "json"
	first.Log.Outputs = []string{filepath.Join(dir, "first.log")}

	first.setupAudit()
	require.Len(t, logFiles, 1)

	previous := logFiles[0]

	second := &ServerConfig{}
	second.SetDefaults()
	second.Log.Format = "json"
	second.Log.Outputs = []string{filepath.Join(dir, "second.log")}

	second.setupAudit()
	require.Len(t, logFiles, 1)
	assert.Equal(t, filepath.Join(dir, "second.log"), logFiles[0].Name())
	assert.ErrorIs(t, previous.Close(), os.ErrClosed)
}
