// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package audit

import (
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetDefaultLogger logs to stderr until a configuration installs its own
// outputs. Colour is only used on a terminal.
func SetDefaultLogger() {
	w := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		TimeFormat: time.DateTime,
	}

	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}
