//go:build linux || darwin || freebsd || netbsd || openbsd

// Package arp looks up the MAC address of a scan target on the local link.
// It is used for banner enrichment only and never contacts a scanned port.
// Note: arping needs raw socket privileges on most systems.
// Platform support: Linux and BSD only (not Windows).
package arp

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/j-keck/arping"
)

const (
	// DefaultTimeout is the default timeout for ARP lookups.
	DefaultTimeout = 1 * time.Second
)

// Errors
var (
	// ErrNotSupported is returned when ARP is called on unsupported platforms.
	ErrNotSupported = errors.New("ARP lookup is not supported on this platform")
	// ErrInvalidIP is returned when an invalid address is provided.
	ErrInvalidIP = errors.New("invalid IP address")
	// ErrIPv6NotSupported is returned when attempting ARP on an IPv6 address.
	ErrIPv6NotSupported = errors.New("ARP is not supported for IPv6 addresses")
)

// DebugLogger is a callback for debug logging.
// Set this to receive debug messages from ARP operations.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// arping keeps its timeout in a package global.
var arpingMu sync.Mutex

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

// LookupAddr returns the MAC address of addr if it answers ARP.
func (a *Lookup) LookupAddr(ctx context.Context, addr netip.Addr) (*Result, error) {
	if err := checkAddr(addr); err != nil {
		return nil, err
	}

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	type arpResponse struct {
		mac net.HardwareAddr
		dur time.Duration
		err error
	}
	responseChan := make(chan arpResponse, 1)

	go func() {
		arpingMu.Lock()
		defer arpingMu.Unlock()
		arping.SetTimeout(timeout)
		mac, dur, err := arping.Ping(net.IP(addr.Unmap().AsSlice()))
		responseChan <- arpResponse{mac: mac, dur: dur, err: err}
	}()

	select {
	case <-ctx.Done():
		debugLog("%s: context cancelled", addr)
		return nil, ctx.Err()
	case resp := <-responseChan:
		if resp.err != nil {
			debugLog("%s: error: %v", addr, resp.err)
			return nil, resp.err
		}
		res := &Result{Addr: addr, MACAddress: resp.mac.String(), Duration: resp.dur}
		debugLog("%s -> MAC: %s (%.2fms)", addr, res.MACAddress, float64(resp.dur.Microseconds())/1000)
		return res, nil
	}
}

// IsSupported returns true if ARP is supported on this platform.
func IsSupported() bool {
	return true
}
