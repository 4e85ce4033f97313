// Package network provides address classification helpers.
package network

import (
	"net/netip"
)

var privatePrefixes = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
}

// IsPrivateIP checks if an IPv4 address is in private (RFC 1918) address space.
func IsPrivateIP(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.Is4() {
		return false
	}
	for _, p := range privatePrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// IsLoopback checks if an address is a loopback address.
func IsLoopback(addr netip.Addr) bool {
	return addr.Unmap().IsLoopback()
}

// OnLocalLink reports whether addr is likely reachable without a router, so
// that link-layer lookups such as ARP can answer. Loopback is excluded.
func OnLocalLink(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.Is4() || addr.IsLoopback() {
		return false
	}
	return IsPrivateIP(addr) || addr.IsLinkLocalUnicast()
}
