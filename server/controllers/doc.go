// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package controllers implements the collaborators the API routes call.

Identity comes from signed API tokens, so the controllers need no user
store. Calls that would need one answer 501.
*/
package controllers
