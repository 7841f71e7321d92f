// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHumanizeSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{1023, "1023"},
		{1024, "1.00K"},
		{1536, "1.50K"},
		{bytesInMB, "1.00M"},
		{3 * bytesInGB, "3.00G"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, humanizeSize(tc.in))
	}
}

func TestSpanEndIsIdempotent(t *testing.T) {
	t.Parallel()

	span := Span{Method: "GET", URL: "/check"}
	_ = span.Begin(context.Background())

	span.End()
	first := span.Duration()
	span.End()

	assert.Equal(t, first, span.Duration())
	assert.Equal(t, "api$GET$L2NoZWNr", span.ServerTimingName())
}
