// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package api

// Flag is an optional boolean. The zero value means "not declared".
type Flag uint8

const (
	Unset Flag = iota
	On
	Off
)

// FlagOf declares a flag from a boolean known when the table is built.
func FlagOf(b bool) Flag {
	if b {
		return On
	}

	return Off
}

// resolve returns the declared value, or def for Unset and unknown values.
func (f Flag) resolve(def bool) bool {
	switch f {
	case On:
		return true
	case Off:
		return false
	default:
		return def
	}
}

func (f Flag) String() string {
	switch f {
	case Unset:
		return "unset"
	case On:
		return "on"
	case Off:
		return "off"
	default:
		return "invalid"
	}
}

// Flags are the access requirements a Descriptor declares.
type Flags struct {
	Auth     Flag
	Admin    Flag
	Disabled Flag
}

// Options are the access requirements of a registered route, with every field decided.
type Options struct {
	Admin    bool
	Auth     bool
	Disabled bool
}

// Defaults apply to every flag a descriptor leaves unset.
var Defaults = Options{
	Admin:    false,
	Auth:     false,
	Disabled: false,
}

// Resolve merges flags over defaults.
//
// Admin does not imply Auth here; the gate authenticates whenever either is set.
func Resolve(flags Flags, defaults Options) Options {
	return Options{
		Admin:    flags.Admin.resolve(defaults.Admin),
		Auth:     flags.Auth.resolve(defaults.Auth),
		Disabled: flags.Disabled.resolve(defaults.Disabled),
	}
}
