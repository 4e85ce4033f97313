//go:build windows

// Package arp looks up the MAC address of a scan target on the local link.
// This file provides stubs for Windows where arping is not available.
package arp

import (
	"context"
	"errors"
	"net/netip"
	"time"
)

const (
	// DefaultTimeout is the default timeout for ARP lookups.
	DefaultTimeout = 1 * time.Second
)

// Errors
var (
	// ErrNotSupported is returned when ARP is called on unsupported platforms.
	ErrNotSupported = errors.New("ARP lookup is not supported on Windows")
	// ErrInvalidIP is returned when an invalid address is provided.
	ErrInvalidIP = errors.New("invalid IP address")
	// ErrIPv6NotSupported is returned when attempting ARP on an IPv6 address.
	ErrIPv6NotSupported = errors.New("ARP is not supported for IPv6 addresses")
)

// DebugLogger is a callback for debug logging.
var DebugLogger func(format string, args ...interface{})

// Result contains the result of an ARP lookup.
type Result struct {
	Addr       netip.Addr
	MACAddress string
	Duration   time.Duration
}

// Lookup performs ARP lookups.
type Lookup struct {
	Timeout time.Duration
}

// NewLookup creates an ARP lookup helper with defaults.
func NewLookup() *Lookup {
	return &Lookup{Timeout: DefaultTimeout}
}

// LookupAddr returns ErrNotSupported on Windows after validating addr.
func (a *Lookup) LookupAddr(ctx context.Context, addr netip.Addr) (*Result, error) {
	if err := checkAddr(addr); err != nil {
		return nil, err
	}
	return nil, ErrNotSupported
}

// IsSupported returns false on Windows.
func IsSupported() bool {
	return false
}
