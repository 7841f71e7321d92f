// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Failure is the body of every API error response.
type Failure struct {
	Success     bool   `json:"success"`
	Description string `json:"description"`
}

// WriteJSON writes v as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("failed to write JSON response: %w", err)
	}

	return nil
}

// WriteFailure writes {"success": false, "description": description}.
func WriteFailure(w http.ResponseWriter, statusCode int, description string) error {
	return WriteJSON(w, statusCode, Failure{Success: false, Description: description})
}

// WriteText writes a plain text response.
func WriteText(w http.ResponseWriter, statusCode int, body string) error {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)

	if _, err := io.WriteString(w, body); err != nil {
		return fmt.Errorf("failed to write text response: %w", err)
	}

	return nil
}

// maxJSONBodyBytes caps request bodies read by DecodeJSON.
const maxJSONBodyBytes = 1 << 20

// DecodeJSON reads a JSON request body into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))

	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("failed to decode JSON body: %w", err)
	}

	return nil
}
