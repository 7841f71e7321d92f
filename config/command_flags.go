// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import "flag"

// configFlag holds the value of the "config" flag across repeated loads.
var configFlag string

// RegisterFlags defines the "config" flag on flag.CommandLine.
//
// Commands with flags of their own call it before flag.Parse.
func RegisterFlags() {
	if flag.Lookup("config") == nil {
		flag.StringVar(&configFlag, "config", "./config.yaml", "Path to a Kiseki configuration file in YAML format.")
	}
}

// parseCommandLineArgs defines and parses flags, returning the value of the "config" flag.
func parseCommandLineArgs() string {
	RegisterFlags()

	if !flag.Parsed() {
		flag.Parse()
	}

	return configFlag
}
