// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/rs/zerolog/log"
)

var errInvalidYAML = errors.New("invalid YAML configuration")

// readYAML applies the YAML file at path on top of cfg.
//
// A missing file is not an error. Unknown keys are, so that a misspelt
// setting fails a reload instead of being ignored.
func (cfg *ServerConfig) readYAML(path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- Only loading a config file
	if errors.Is(err, fs.ErrNotExist) {
		log.Info().
			Str("path", path).
			Msg("No YAML configuration file found, skipping")

		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}

	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.DisallowUnknownField()); err != nil {
		return fmt.Errorf("%w in %s:\n%s", errInvalidYAML, path, yaml.FormatError(err, false, true))
	}

	log.Info().
		Str("path", path).
		Msg("Loaded configuration from YAML file")

	return nil
}
