// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package limiter

import (
	"net"
	"net/http"

	"codeberg.org/kiseki/kiseki/server/utils"
)

// IPv4 and IPv6 address lengths as measured in bits.
const (
	ipv4BitLength = 32
	ipv6BitLength = 128
)

// networkOf returns the network the client of r belongs to, in CIDR notation.
func networkOf(r *http.Request, opts *Options) (string, bool) {
	rawIP := net.ParseIP(utils.ClientIP(r))
	if rawIP == nil {
		return "", false
	}

	return getNetwork(rawIP, opts.IPv4Prefix, opts.IPv6Prefix).String(), true
}

func getNetwork(rawIP net.IP, ipv4Prefix, ipv6Prefix int) *net.IPNet {
	// Create mask based on IP version and configured prefix.
	var mask net.IPMask
	if ip4 := rawIP.To4(); ip4 != nil {
		rawIP = ip4
		mask = net.CIDRMask(ipv4Prefix, ipv4BitLength) // IPv4.
	} else {
		mask = net.CIDRMask(ipv6Prefix, ipv6BitLength) // IPv6.
	}

	// Create network with the IP and determined mask.
	return &net.IPNet{
		IP:   rawIP.Mask(mask),
		Mask: mask,
	}
}
