// Package portscan: Target enrichment for the scan banner.
package portscan

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marcuoli/go-portscan/pkg/portscan/arp"
	"github.com/marcuoli/go-portscan/pkg/portscan/network"
	"github.com/marcuoli/go-portscan/pkg/portscan/oui"
	"github.com/marcuoli/go-portscan/pkg/portscan/resolve"
)

// Enrichment steps, used as keys of TargetInfo.Errors.
const (
	EnrichReverseDNS = "reverse-dns"
	EnrichARP        = "arp"
	EnrichVendor     = "vendor"
)

// EnrichOptions configures Enrich.
type EnrichOptions struct {
	EnableReverseDNS bool
	EnableARP        bool
	EnableVendor     bool
	// Resolver is used for PTR lookups. Nil selects the system resolver.
	Resolver *resolve.Resolver
	// Timeout bounds each step.
	Timeout time.Duration
}

// DefaultEnrichOptions returns options with every step enabled.
func DefaultEnrichOptions() EnrichOptions {
	return EnrichOptions{
		EnableReverseDNS: true,
		EnableARP:        true,
		EnableVendor:     true,
		Timeout:          2 * time.Second,
	}
}

// Enrich gathers descriptive information about target without contacting
// any scanned port. The steps run concurrently; failures are recorded in
// TargetInfo.Errors and never returned.
//
// ARP runs only for IPv4 targets on the local link, and vendor lookup only when
// ARP returned a MAC and an OUI database is configured.
func Enrich(ctx context.Context, target Target, opts EnrichOptions) *TargetInfo {
	info := &TargetInfo{Errors: make(map[string]error)}
	if !target.Addr.IsValid() {
		return info
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	var (
		hostname, mac, vendor  string
		dnsErr, arpErr, ouiErr error
	)

	g, gctx := errgroup.WithContext(ctx)

	if opts.EnableReverseDNS {
		g.Go(func() error {
			r := opts.Resolver
			if r == nil {
				r = &resolve.Resolver{Timeout: timeout}
			}
			hostname, dnsErr = r.LookupAddr(gctx, target.Addr)
			return nil
		})
	}

	if opts.EnableARP && network.OnLocalLink(target.Addr) {
		g.Go(func() error {
			lookup := &arp.Lookup{Timeout: timeout}
			res, err := lookup.LookupAddr(gctx, target.Addr)
			if err != nil {
				arpErr = err
				return nil
			}
			mac = res.MACAddress
			if !opts.EnableVendor {
				return nil
			}
			v, err := oui.Lookup(mac)
			switch {
			case err != nil:
				ouiErr = err
			case v != nil:
				vendor = v.Name
			}
			return nil
		})
	}

	_ = g.Wait()

	info.Hostname, info.MAC, info.Vendor = hostname, mac, vendor
	for step, err := range map[string]error{EnrichReverseDNS: dnsErr, EnrichARP: arpErr, EnrichVendor: ouiErr} {
		if err != nil {
			info.Errors[step] = err
			debugLog(ComponentEnrich, "%s %s: %v", target.Addr, step, err)
		}
	}
	return info
}
