// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package idgen makes short, mostly sortable identifiers for API requests.
*/
package idgen

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// entropyBytes is the number of random bytes appended to the timestamp.
const entropyBytes = 4

// Make makes a request ID with a 6 character timestamp and 4 bytes of entropy.
func Make() string {
	return MakeAt(time.Now())
}

// MakeAt makes a request ID as if it was requested at t.
func MakeAt(t time.Time) string {
	var entropy [entropyBytes]byte

	_, _ = rand.Read(entropy[:])

	return maketime(t) + base64.RawURLEncoding.EncodeToString(entropy[:])
}

func maketime(t time.Time) string {
	return t.UTC().Format("150405")
}
