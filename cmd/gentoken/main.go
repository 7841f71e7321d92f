// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
gentoken issues an API token signed with the configured secret.

	go run ./cmd/gentoken -username alice -id 2
	go run ./cmd/gentoken -newkey

The configuration is read the same way the server reads it.
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"codeberg.org/kiseki/kiseki/config"
	"codeberg.org/kiseki/kiseki/core/audit"
	"codeberg.org/kiseki/kiseki/core/authenticated"
)

var (
	username = flag.String("username", "", "username to issue the token for")
	id       = flag.String("id", "", "user ID to issue the token for (defaults to the username)")
	ttl      = flag.Duration("ttl", 0, "token lifetime (defaults to token.ttl)")
	newKey   = flag.Bool("newkey", false, "print a new secret key for basic.secret and exit")
)

func main() {
	audit.SetDefaultLogger()

	config.RegisterFlags()
	flag.Parse()

	if *newKey {
		fmt.Println(authenticated.NewSecretKeyHex())

		return
	}

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Failed to issue token")
	}
}

func run() error {
	if *username == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	user := authenticated.User{ID: *id, Username: *username}
	if user.ID == "" {
		user.ID = user.Username
	}

	lifetime := cfg.Token.TTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	token, err := cfg.Validator.Sign(user, lifetime)
	if err != nil {
		return err
	}

	log.Info().
		Str("username", user.Username).
		Time("expires", time.Now().Add(lifetime)).
		Msg("Issued API token")

	fmt.Println(token)

	return nil
}
