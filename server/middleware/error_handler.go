// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package middleware

import (
	"maps"
	"net/http"
	"net/http/httptest"

	"github.com/rs/zerolog/log"

	"codeberg.org/kiseki/kiseki/core/audit"
	"codeberg.org/kiseki/kiseki/server/request_context"
	"codeberg.org/kiseki/kiseki/server/utils"
)

// DescriptionUnexpectedError is sent when a handler fails without answering.
const DescriptionUnexpectedError = "An unexpected error occurred"

// CatchError wraps HTTP handlers that return an error, providing centralized error handling,
// response buffering, and request logging.
//
// It operates as follows:
//  1. It times the request for logging purposes.
//  2. It runs the handler against an httptest.ResponseRecorder so that
//     nothing reaches the client before the handler has finished.
//  3. Any error returned by the handler is stored in the request context.
//
// After the handler runs, it decides on the final response:
//   - If the handler returned an error without writing an HTTP error status
//     code (i.e., status < 400), the buffered response is discarded and a
//     500 JSON failure is sent instead.
//   - In all other cases the buffered response is written to the client.
//
// Finally, it logs the completed request via the audit package.
func CatchError(handler func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := request_context.FromRequest(r)

		span := audit.Span{
			RequestID: ctx.RequestID,
			Method:    r.Method,
			URL:       r.URL.String(),
		}

		_ = span.Begin(r.Context())
		defer span.End()

		recorder := httptest.NewRecorder()

		err := handler(recorder, r)

		ctx.RequestError = err

		if err != nil && recorder.Code < http.StatusBadRequest {
			ctx.StatusCode = http.StatusInternalServerError

			if writeErr := utils.WriteFailure(w, ctx.StatusCode, DescriptionUnexpectedError); writeErr != nil {
				log.Err(writeErr).Msg("Failed to write error response")
			}

			span.Size = 0
		} else {
			// This is a successful response or a handled error. We trust the recorder's output.
			ctx.StatusCode = recorder.Code
			span.Size = recorder.Body.Len()

			maps.Copy(w.Header(), recorder.Header())
			w.WriteHeader(recorder.Code)

			if _, err := recorder.Body.WriteTo(w); err != nil {
				log.Err(err).Msg("Failed to write response body")
			}
		}

		span.End()
		span.StatusCode = ctx.StatusCode
		span.Error = ctx.RequestError
		span.Log()
	}
}
