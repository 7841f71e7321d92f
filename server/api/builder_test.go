// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"

	"codeberg.org/kiseki/kiseki/server/router"
)

func answer(body string) Handler {
	return func(w http.ResponseWriter, _ *http.Request, _ http.Handler) error {
		_, err := w.Write([]byte(body))

		return err
	}
}

func TestBuild_SkipsMalformedDescriptors(t *testing.T) {
	t.Parallel()

	table := []Descriptor{
		{Method: http.MethodGet, Path: "first", Handler: answer("first")},
		{Method: http.MethodGet, Path: "missing"},
		{Method: "FETCH", Path: "unknown", Handler: answer("unknown")},
		{Method: http.MethodGet, Path: "first", Handler: answer("duplicate")},
		{Method: http.MethodGet, Path: "bad/{", Handler: answer("bad")},
		{Method: http.MethodPost, Path: "last", Handler: answer("last")},
	}

	mux := router.NewRouter()
	registered := Build(table, NewGate(&fakeAuthorizer{rec: &recorder{}}), mux)

	assert.Equal(t, 2, registered)

	tests := []struct {
		method       string
		target       string
		expectedCode int
		expectedBody string
	}{
		{http.MethodGet, "/first", http.StatusOK, "first"},
		{http.MethodPost, "/last", http.StatusOK, "last"},
		{http.MethodGet, "/missing", http.StatusNotFound, ""},
		{"FETCH", "/unknown", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, newRequest(tt.method, tt.target, ""))

		assert.Equal(t, tt.expectedCode, w.Code, "%s %s", tt.method, tt.target)

		if tt.expectedBody != "" {
			assert.Equal(t, tt.expectedBody, w.Body.String())
		}
	}
}

func TestBuild_EmptyPathIsExactRoot(t *testing.T) {
	t.Parallel()

	mux := router.NewRouter()
	registered := Build([]Descriptor{
		{Method: http.MethodGet, Path: "", Handler: answer("root")},
	}, NewGate(&fakeAuthorizer{rec: &recorder{}}), mux)

	assert.Equal(t, 1, registered)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, newRequest(http.MethodGet, "/", ""))
	assert.Equal(t, "root", w.Body.String())

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, newRequest(http.MethodGet, "/elsewhere", ""))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBuild_WrapsRoutesWithGate(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	mux := router.NewRouter()
	Build([]Descriptor{
		{Method: http.MethodGet, Path: "off", Handler: answer("off"), Flags: Flags{Disabled: On}},
		{Method: http.MethodGet, Path: "private", Handler: answer("private"), Flags: Flags{Auth: On}},
	}, NewGate(&fakeAuthorizer{rec: rec}), mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, newRequest(http.MethodGet, "/off", ""))
	assert.Equal(t, DescriptionDisabled, gjson.Get(w.Body.String(), "description").String())

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, newRequest(http.MethodGet, "/private", ""))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, newRequest(http.MethodGet, "/private", userToken))
	assert.Equal(t, "private", w.Body.String())
}

func TestBuild_HandlerErrorIsCaught(t *testing.T) {
	t.Parallel()

	mux := router.NewRouter()
	Build([]Descriptor{
		{Method: http.MethodGet, Path: "broken", Handler: func(http.ResponseWriter, *http.Request, http.Handler) error {
			return assert.AnError
		}},
	}, NewGate(&fakeAuthorizer{rec: &recorder{}}), mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, newRequest(http.MethodGet, "/broken", ""))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "An unexpected error occurred", gjson.Get(w.Body.String(), "description").String())
}
