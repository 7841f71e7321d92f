// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package api

import (
	"net/http"

	"codeberg.org/kiseki/kiseki/config"
	"codeberg.org/kiseki/kiseki/server/utils"
)

// Descriptor declares one API call.
//
// Path is relative to the API root and has no leading slash; "" is the root
// itself. Path parameters use the http.ServeMux wildcard syntax.
type Descriptor struct {
	Method  string
	Path    string
	Handler Handler
	Flags   Flags
}

// pattern is the http.ServeMux pattern of the descriptor.
func (d Descriptor) pattern() string {
	if d.Path == "" {
		// /{$} matches only the root path
		return d.Method + " /{$}"
	}

	return d.Method + " /" + d.Path
}

// Routes returns the API route table for one generation of collaborators.
//
// This table is the contract with API clients. Flags that depend on the
// configuration are read from m.Config here, once per generation.
func Routes(m *Modules) []Descriptor {
	cfg := m.Config

	auth := Flags{Auth: On}

	return []Descriptor{
		{Method: http.MethodGet, Path: "check", Handler: check(cfg), Flags: Flags{Auth: Off}},
		{Method: http.MethodGet, Path: "admins", Handler: m.Auth.ListAdmins, Flags: Flags{Auth: On, Admin: On}},
		{Method: http.MethodGet, Path: "admincheck", Handler: m.Auth.AdminCheck, Flags: auth},
		{Method: http.MethodGet, Path: "account/list", Handler: m.Auth.ListAccounts, Flags: Flags{Auth: On, Admin: On}},
		{Method: http.MethodGet, Path: "uploads", Handler: m.Uploads.List, Flags: auth},
		{Method: http.MethodGet, Path: "uploads/{page}", Handler: m.Uploads.List, Flags: auth},
		{Method: http.MethodGet, Path: "uploads/info/{id}", Handler: m.Uploads.FileInfo, Flags: auth},
		// TODO: add Search to UploadController; until then this call is skipped at build time
		{Method: http.MethodGet, Path: "uploads/search/{query}", Flags: auth},
		{Method: http.MethodGet, Path: "gdelete/{deletekey}", Handler: m.Uploads.Delete},
		{Method: http.MethodGet, Path: "album/get/{identifier}", Handler: m.Albums.Get},
		{Method: http.MethodGet, Path: "album/zip/{identifier}", Handler: m.Albums.GenerateZip, Flags: Flags{Disabled: FlagOf(!cfg.Uploads.GenerateZips)}},
		{Method: http.MethodGet, Path: "album/{id}", Handler: m.Uploads.List, Flags: auth},
		{Method: http.MethodGet, Path: "album/{id}/{page}", Handler: m.Uploads.List, Flags: auth},
		{Method: http.MethodGet, Path: "albums", Handler: m.Albums.List, Flags: auth},
		{Method: http.MethodGet, Path: "albums/{sidebar}", Handler: m.Albums.List, Flags: auth},
		{Method: http.MethodGet, Path: "tokens", Handler: m.Tokens.List, Flags: auth},
		{Method: http.MethodGet, Path: "", Handler: nothingHere},

		{Method: http.MethodPost, Path: "login", Handler: m.Auth.Verify, Flags: Flags{Auth: Off}},
		{Method: http.MethodPost, Path: "register", Handler: m.Auth.Register, Flags: Flags{Auth: Off}},
		{Method: http.MethodPost, Path: "account/delete", Handler: m.Auth.DeleteAccount, Flags: auth},
		{Method: http.MethodPost, Path: "account/disable", Handler: m.Auth.DisableAccount, Flags: auth},
		{Method: http.MethodPost, Path: "password/change", Handler: m.Auth.ChangePassword, Flags: auth},
		{Method: http.MethodPost, Path: "upload", Handler: m.Uploads.Upload, Flags: Flags{Auth: FlagOf(cfg.Private)}},
		{Method: http.MethodPost, Path: "upload/delete", Handler: m.Uploads.Delete, Flags: auth},
		{Method: http.MethodPost, Path: "upload/{albumid}", Handler: m.Uploads.Upload, Flags: auth},
		{Method: http.MethodPost, Path: "albums", Handler: m.Albums.Create, Flags: auth},
		{Method: http.MethodPost, Path: "albums/delete", Handler: m.Albums.Delete, Flags: auth},
		{Method: http.MethodPost, Path: "albums/rename", Handler: m.Albums.Rename, Flags: auth},
		{Method: http.MethodPost, Path: "tokens/verify", Handler: m.Tokens.Verify},
		{Method: http.MethodPost, Path: "tokens/change", Handler: m.Tokens.Change, Flags: auth},
	}
}

// status is the body of GET /check.
type status struct {
	Private           bool     `json:"private"`
	MaxFileSize       string   `json:"maxFileSize"`
	Register          bool     `json:"register"`
	Encoding          bool     `json:"encoding"`
	UsingS3           bool     `json:"usingS3"`
	BlockedExtensions []string `json:"blockedExtensions"`
	GenerateZips      bool     `json:"generateZips"`
}

// check reports the parts of cfg that clients adapt to.
func check(cfg *config.ServerConfig) Handler {
	return func(w http.ResponseWriter, _ *http.Request, _ http.Handler) error {
		return utils.WriteJSON(w, http.StatusOK, status{
			Private:           cfg.Private,
			MaxFileSize:       cfg.Uploads.MaxSize,
			Register:          cfg.EnableUserAccounts,
			Encoding:          cfg.AllowEncoding,
			UsingS3:           cfg.S3.Use,
			BlockedExtensions: cfg.BlockedExtensions,
			GenerateZips:      cfg.Uploads.GenerateZips,
		})
	}
}

func nothingHere(w http.ResponseWriter, _ *http.Request, _ http.Handler) error {
	return utils.WriteText(w, http.StatusOK, "Nothing here!")
}
