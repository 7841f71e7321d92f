// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package api declares the Kiseki API routes as data and serves them.

Every route is a Descriptor. Build resolves each descriptor's Flags into
Options once, then registers it on a router.Router behind the shared Gate,
which checks, in order, whether the route is disabled, whether the caller is
authenticated and whether the caller is an administrator before the real
handler runs.

API owns the active router. Reload builds a complete replacement from fresh
collaborators and swaps it in atomically.
*/
package api
