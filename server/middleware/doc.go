// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package middleware provides the HTTP plumbing shared by every API route.

Middleware registered with (*router.Router).Use run around the whole mux;
CatchError wraps each registered route individually.
*/
package middleware
