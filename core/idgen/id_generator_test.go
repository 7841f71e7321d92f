// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package idgen

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMakeAt(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.March, 4, 13, 37, 42, 0, time.UTC)
	id := MakeAt(now)

	assert.True(t, strings.HasPrefix(id, "133742"), "time part incorrect: %s", id)
	// 6 digits + base64 of 4 bytes without padding
	assert.Len(t, id, 6+6)
}

func TestMakeIsUnique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)

	for range 100 {
		id := Make()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}

		seen[id] = true
	}
}
