// Package portscan provides a concurrent TCP connect port scanner. A fixed
// pool of workers drains a queue holding every port of a range, probes each
// port once with a bounded timeout, and feeds the outcomes to a single
// collector that publishes the open ports sorted ascending.
//
// Connect scans need no raw sockets or elevated privileges and work across
// platforms. Name resolution lives in the resolve subpackage; optional target
// enrichment (reverse DNS, ARP, MAC vendor) in arp and oui.
package portscan

import (
	"context"
	"fmt"
	"strings"

	"github.com/marcuoli/go-portscan/pkg/portscan/resolve"
)

// Resolve maps host to a Target. A nil resolver selects the system resolver.
// Failures are returned as *ResolutionError.
func Resolve(ctx context.Context, r *resolve.Resolver, host string) (Target, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return Target{}, &ValidationError{Field: "host", Value: host, Err: ErrMissingHost}
	}
	if r == nil {
		r = resolve.NewResolver()
	}
	addr, err := r.Resolve(ctx, host)
	if err != nil {
		debugLog(ComponentResolve, "%s: %v", host, err)
		return Target{}, &ResolutionError{Host: host, Err: err}
	}
	return Target{Host: host, Addr: addr}, nil
}

// ScanHost validates its arguments, resolves host and scans ports start..end.
// Validation failures are reported before any lookup, and resolution failures
// before any port is queued.
func ScanHost(ctx context.Context, host string, start, end int, opts Options, r *resolve.Resolver) (*Result, error) {
	if strings.TrimSpace(host) == "" {
		return nil, &ValidationError{Field: "host", Value: host, Err: ErrMissingHost}
	}
	rng, err := NewPortRange(start, end)
	if err != nil {
		return nil, err
	}
	s, err := NewScanner(opts)
	if err != nil {
		return nil, err
	}
	target, err := Resolve(ctx, r, host)
	if err != nil {
		return nil, err
	}
	res, err := s.Scan(ctx, target, rng)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", target, err)
	}
	return res, nil
}
