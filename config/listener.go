// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"os"
	"os/user"
	"regexp"
	"strconv"

	"github.com/rs/zerolog/log"
)

var (
	errUnixSocketInvalidPermissions = errors.New("invalid basic.unixSocketPermissions value")
	errUnixSocketUserDoesNotExist   = errors.New("user does not exist")
	errUnixSocketGroupDoesNotExist  = errors.New("group does not exist")
)

var (
	fileModeOctalRegexp  = regexp.MustCompile(`^0?[0-7]{3}$`)
	fileModeStringRegexp = regexp.MustCompile(`^(?:[r-][w-][x-]){3}$`)
	digitsRegexp         = regexp.MustCompile(`^[0-9]+$`)
)

// validateListener checks the unix socket settings, or fills in Host and Port for TCP.
func (cfg *ServerConfig) validateListener() error {
	if cfg.Basic.UnixSocket == "" {
		if cfg.Basic.Host == "" {
			cfg.Basic.Host = "localhost"
			log.Info().
				Str("host", cfg.Basic.Host).
				Msg("Binding to default host")
		}

		if cfg.Basic.Port == "" {
			cfg.Basic.Port = "9999"
			log.Info().
				Str("port", cfg.Basic.Port).
				Msg("Using default port")
		}

		return nil
	}

	mode, err := parseFileMode(cfg.Basic.RawUnixSocketPermissions)
	if err != nil {
		return err
	}

	cfg.Basic.UnixSocketPermissions = mode

	if cfg.Basic.UnixSocketUser != "" {
		lookup := user.Lookup
		if digitsRegexp.MatchString(cfg.Basic.UnixSocketUser) {
			lookup = user.LookupId
		}

		if _, err := lookup(cfg.Basic.UnixSocketUser); err != nil {
			return errUnixSocketUserDoesNotExist
		}
	}

	if cfg.Basic.UnixSocketGroup != "" {
		lookup := user.LookupGroup
		if digitsRegexp.MatchString(cfg.Basic.UnixSocketGroup) {
			lookup = user.LookupGroupId
		}

		if _, err := lookup(cfg.Basic.UnixSocketGroup); err != nil {
			return errUnixSocketGroupDoesNotExist
		}
	}

	return nil
}

// parseFileMode accepts "660", "0660" or "rw-rw----". Empty means 0o666.
func parseFileMode(raw string) (os.FileMode, error) {
	switch {
	case raw == "":
		return 0o666, nil
	case fileModeOctalRegexp.MatchString(raw):
		rawModeUint64, _ := strconv.ParseUint(raw, 8, 32)

		return os.FileMode(rawModeUint64), nil
	case fileModeStringRegexp.MatchString(raw):
		mode := os.FileMode(0)

		for i, c := range raw {
			// If permission bit is set
			if c != '-' {
				// Set i-th bit from the end
				const bitsInByte = 8

				mode |= 1 << (bitsInByte - i)
			}
		}

		return mode, nil
	default:
		return 0, errUnixSocketInvalidPermissions
	}
}
