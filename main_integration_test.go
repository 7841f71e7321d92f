// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

//go:build integration

/*
To run these tests, specify `-tags=integration` when running `go test`.
*/
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"codeberg.org/kiseki/kiseki/core/authenticated"
)

const (
	// Server configuration constants.
	host      = "127.0.0.1:8283"
	authority = "http://127.0.0.1:8283/api"

	// Polling constants.
	retryCount  = 10
	dialTimeout = 250 * time.Millisecond
)

// signer shares the server's secret so tests can mint tokens.
var signer = &authenticated.Validator{}

// httpTestCase defines a test case.
type httpTestCase struct {
	URL                string
	Method             string
	Token              string
	Body               string
	ExpectedStatusCode int
}

// setDefault sets the default values for the test case.
func (c *httpTestCase) setDefault() {
	if c.ExpectedStatusCode == 0 {
		c.ExpectedStatusCode = 200
	}
}

// TestMain is used for global setup and teardown.
//
// It starts the server and waits for it to be available before running tests.
func TestMain(m *testing.M) {
	secret := authenticated.NewSecretKeyHex()
	if err := signer.LoadSecretKeyFromHex(secret); err != nil {
		log.Fatalf("Failed to load secret: %v", err)
	}

	for key, value := range map[string]string{
		"KISEKI_SECRET":     secret,
		"KISEKI_HOST":       "127.0.0.1",
		"KISEKI_PORT":       "8283",
		"KISEKI_ADMINS":     "admin",
		"KISEKI_CONFIGFILE": "/nonexistent/config.yaml",
	} {
		_ = os.Setenv(key, value)
	}

	go func() {
		if err := run(); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for the server.
	if !waitForServerReady() {
		log.Fatalf("Server did not start in time")
	}

	os.Exit(m.Run())
}

// waitForServerReady polls the server until it's available or the retries are exhausted.
func waitForServerReady() bool {
	for range retryCount {
		conn, err := net.DialTimeout("tcp", host, dialTimeout)
		if err == nil {
			_ = conn.Close()

			return true // Server is up.
		}

		time.Sleep(dialTimeout)
	}

	return false
}

func mustSign(t *testing.T, username string) string {
	t.Helper()

	token, err := signer.Sign(authenticated.User{ID: username, Username: username}, time.Hour)
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	return token
}

// TestAllRoutes exercises the API surface of a running server.
func TestAllRoutes(t *testing.T) {
	t.Parallel()

	adminToken := mustSign(t, "admin")
	userToken := mustSign(t, "alice")

	verifyBody, _ := json.Marshal(map[string]string{"token": userToken})

	testCases := []httpTestCase{
		{URL: "", Method: http.MethodGet},
		{URL: "/check", Method: http.MethodGet},
		{URL: "/admins", Method: http.MethodGet, Token: adminToken},
		{URL: "/admins", Method: http.MethodGet, ExpectedStatusCode: http.StatusUnauthorized},
		{URL: "/admincheck", Method: http.MethodGet, Token: userToken},
		{URL: "/tokens", Method: http.MethodGet, Token: userToken},
		{URL: "/tokens/verify", Method: http.MethodPost, Body: string(verifyBody)},
		{URL: "/tokens/change", Method: http.MethodPost, Token: userToken},
		{URL: "/uploads/search/cats", Method: http.MethodGet, Token: userToken, ExpectedStatusCode: http.StatusNotFound},
		{URL: "/albums", Method: http.MethodGet, Token: userToken, ExpectedStatusCode: http.StatusNotImplemented},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s %s", tc.Method, tc.URL), func(t *testing.T) {
			t.Parallel()
			tc.setDefault()

			resp := makeRequest(t, buildRequest(t, authority+tc.URL, tc.Method, tc.Token, tc.Body))
			defer resp.Body.Close()

			if resp.StatusCode != tc.ExpectedStatusCode {
				t.Errorf("expected status %d, got %d", tc.ExpectedStatusCode, resp.StatusCode)
			}
		})
	}
}

// TestReloadOnSIGHUP checks that a reload picks up a changed environment.
func TestReloadOnSIGHUP(t *testing.T) {
	if encoding(t) {
		t.Fatalf("expected encoding to be off before reload")
	}

	t.Setenv("KISEKI_ALLOW_ENCODING", "true")

	if err := syscall.Kill(os.Getpid(), syscall.SIGHUP); err != nil {
		t.Fatalf("Failed to send SIGHUP: %v", err)
	}

	for range retryCount {
		if encoding(t) {
			return
		}

		time.Sleep(dialTimeout)
	}

	t.Errorf("reload did not pick up KISEKI_ALLOW_ENCODING")
}

func encoding(t *testing.T) bool {
	t.Helper()

	resp := makeRequest(t, buildRequest(t, authority+"/check", http.MethodGet, "", ""))
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}

	return gjson.GetBytes(body, "encoding").Bool()
}

func buildRequest(t *testing.T, link, method, token, body string) *http.Request {
	t.Helper()

	req, err := http.NewRequestWithContext(context.TODO(), method, link, strings.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}

	if token != "" {
		req.Header.Set("token", token)
	}

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	return req
}

func makeRequest(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to execute request: %v", err)
	}

	return resp
}
