// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseHeaders(t *testing.T) {
	t.Parallel()

	handler := Wrap(ResponseHeaders("v1.2.0", "abc1234"), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/check", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
	assert.Equal(t, "v1.2.0", rr.Header().Get("Kiseki-Version"))
	assert.Equal(t, "abc1234", rr.Header().Get("Kiseki-Revision"))
}
