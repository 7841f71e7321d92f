// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package authenticated issues and verifies the v4.public tokens that identify
API users.
*/
package authenticated

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
)

// domain separation key. can be anything. if you change it, past tokens will become invalid.
const Implicit = "Kiseki API token"

const (
	tokenSubject = "api access"
	usernameKey  = "username"
)

var (
	ErrNoSecretKey     = errors.New("no secret key loaded")
	ErrMissingIdentity = errors.New("token does not carry an identity")
)

// User is the identity carried by a token.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func NewSecretKeyHex() string {
	return paseto.NewV4AsymmetricSecretKey().ExportHex()
}

var parser = paseto.MakeParser([]paseto.Rule{
	paseto.NotExpired(),
	paseto.Subject(tokenSubject),
})

// v4.public validator
type Validator struct {
	SecretKey paseto.V4AsymmetricSecretKey

	loaded bool
}

func (psk *Validator) LoadSecretKeyFromHex(hex string) error {
	key, err := paseto.NewV4AsymmetricSecretKeyFromHex(hex)
	if err != nil {
		return fmt.Errorf("failed to parse secret key: %w", err)
	}

	// public key can be derived efficiently from SecretKey, so it's not calculated here
	psk.SecretKey = key
	psk.loaded = true

	return nil
}

// Sign issues a token for user that expires after ttl.
func (psk *Validator) Sign(user User, ttl time.Duration) (string, error) {
	if !psk.loaded {
		return "", ErrNoSecretKey
	}

	if user.ID == "" || user.Username == "" {
		return "", ErrMissingIdentity
	}

	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(ttl))
	token.SetSubject(tokenSubject) // checked by parser
	token.SetJti(user.ID)
	token.SetString(usernameKey, user.Username)

	return token.V4Sign(psk.SecretKey, []byte(Implicit)), nil
}

// Verify checks the signature and expiry of a token and returns its identity.
func (psk *Validator) Verify(encoded string) (User, error) {
	user, _, err := psk.VerifyUntil(encoded)

	return user, err
}

// VerifyUntil is like Verify but also returns when the token expires.
func (psk *Validator) VerifyUntil(encoded string) (User, time.Time, error) {
	if !psk.loaded {
		return User{}, time.Time{}, ErrNoSecretKey
	}

	token, err := parser.ParseV4Public(psk.SecretKey.Public(), encoded, []byte(Implicit))
	if err != nil {
		return User{}, time.Time{}, fmt.Errorf("failed to parse token: %w", err)
	}

	expiresAt, err := token.GetExpiration()
	if err != nil {
		return User{}, time.Time{}, fmt.Errorf("failed to read expiry: %w", err)
	}

	id, err := token.GetJti()
	if err != nil {
		return User{}, time.Time{}, fmt.Errorf("%w: %w", ErrMissingIdentity, err)
	}

	username, err := token.GetString(usernameKey)
	if err != nil {
		return User{}, time.Time{}, fmt.Errorf("%w: %w", ErrMissingIdentity, err)
	}

	if id == "" || username == "" {
		return User{}, time.Time{}, ErrMissingIdentity
	}

	return User{ID: id, Username: username}, expiresAt, nil
}
