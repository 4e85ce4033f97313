// Package resolve maps a host identifier to a single numeric address.
// By default it uses the system resolver (hosts file included). When explicit
// DNS servers are configured it queries them directly with github.com/miekg/dns.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// DefaultTimeout is the default timeout for one lookup.
const DefaultTimeout = 2 * time.Second

// Errors
var (
	// ErrEmptyHost is returned when no host is given.
	ErrEmptyHost = errors.New("empty host")
	// ErrNotFound is returned when the name does not exist or has no address records.
	ErrNotFound = errors.New("no address found for host")
)

// DebugLogger is a callback for debug logging.
// Set this to receive debug messages from resolver operations.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// Resolver resolves target hosts.
type Resolver struct {
	Timeout time.Duration
	// Servers are "host:port" DNS servers queried directly. Empty means system resolver.
	Servers []string
}

// NewResolver creates a resolver that uses the system resolver.
func NewResolver() *Resolver {
	return &Resolver{Timeout: DefaultTimeout}
}

func (r *Resolver) timeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultTimeout
	}
	return r.Timeout
}

// Resolve returns one address for host. IP literals are returned unchanged.
// IPv4 addresses are preferred over IPv6.
func (r *Resolver) Resolve(ctx context.Context, host string) (netip.Addr, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return netip.Addr{}, ErrEmptyHost
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr.Unmap(), nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	if len(r.Servers) == 0 {
		return r.resolveSystem(lookupCtx, host)
	}
	return r.resolveDNS(lookupCtx, host)
}

func (r *Resolver) resolveSystem(ctx context.Context, host string) (netip.Addr, error) {
	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return netip.Addr{}, fmt.Errorf("%w: %s", ErrNotFound, host)
		}
		return netip.Addr{}, err
	}
	addr, ok := pickAddr(addrs)
	if !ok {
		return netip.Addr{}, fmt.Errorf("%w: %s", ErrNotFound, host)
	}
	debugLog("%s -> %s (system)", host, addr)
	return addr, nil
}

// resolveDNS asks each server for A, then AAAA records.
func (r *Resolver) resolveDNS(ctx context.Context, host string) (netip.Addr, error) {
	fqdn := dns.Fqdn(host)
	client := &dns.Client{Net: "udp", Timeout: r.timeout()}

	var lastErr error
	for _, server := range r.Servers {
		for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
			addrs, err := exchange(ctx, client, server, fqdn, qtype)
			if err != nil {
				lastErr = err
				if errors.Is(err, ErrNotFound) {
					// NXDOMAIN is authoritative for the name, skip AAAA.
					break
				}
				continue
			}
			if addr, ok := pickAddr(addrs); ok {
				debugLog("%s -> %s (server %s)", host, addr, server)
				return addr, nil
			}
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: %s", ErrNotFound, host)
	}
	return netip.Addr{}, lastErr
}

func exchange(ctx context.Context, client *dns.Client, server, fqdn string, qtype uint16) ([]netip.Addr, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(fqdn, qtype)
	msg.RecursionDesired = true

	in, _, err := client.ExchangeContext(ctx, msg, server)
	if err != nil {
		debugLog("%s %s @%s: %v", fqdn, dns.TypeToString[qtype], server, err)
		return nil, fmt.Errorf("query %s: %w", server, err)
	}
	switch in.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, strings.TrimSuffix(fqdn, "."))
	default:
		return nil, fmt.Errorf("query %s: rcode %s", server, dns.RcodeToString[in.Rcode])
	}

	var addrs []netip.Addr
	for _, rr := range in.Answer {
		var ip net.IP
		switch v := rr.(type) {
		case *dns.A:
			ip = v.A
		case *dns.AAAA:
			ip = v.AAAA
		default:
			continue
		}
		if addr, ok := netip.AddrFromSlice(ip); ok {
			addrs = append(addrs, addr.Unmap())
		}
	}
	return addrs, nil
}

// LookupAddr performs a reverse (PTR) lookup and returns the first name,
// without the trailing dot.
func (r *Resolver) LookupAddr(ctx context.Context, addr netip.Addr) (string, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	var names []string
	if len(r.Servers) == 0 {
		var err error
		names, err = net.DefaultResolver.LookupAddr(lookupCtx, addr.String())
		if err != nil {
			debugLog("%s: reverse lookup failed: %v", addr, err)
			return "", err
		}
	} else {
		reverse, err := dns.ReverseAddr(addr.String())
		if err != nil {
			return "", err
		}
		client := &dns.Client{Net: "udp", Timeout: r.timeout()}
		var lastErr error
		for _, server := range r.Servers {
			msg := new(dns.Msg)
			msg.SetQuestion(reverse, dns.TypePTR)
			in, _, err := client.ExchangeContext(lookupCtx, msg, server)
			if err != nil {
				lastErr = err
				continue
			}
			for _, rr := range in.Answer {
				if ptr, ok := rr.(*dns.PTR); ok {
					names = append(names, ptr.Ptr)
				}
			}
			if len(names) > 0 {
				break
			}
		}
		if len(names) == 0 && lastErr != nil {
			return "", lastErr
		}
	}

	if len(names) == 0 {
		return "", fmt.Errorf("%w: no PTR record for %s", ErrNotFound, addr)
	}
	name := strings.TrimSuffix(names[0], ".")
	debugLog("%s -> %s (reverse)", addr, name)
	return name, nil
}

// ServersFromResolvConf returns the nameservers listed in a resolv.conf style
// file as "host:port" strings.
func ServersFromResolvConf(path string) ([]string, error) {
	cfg, err := dns.ClientConfigFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	servers := make([]string, 0, len(cfg.Servers))
	for _, s := range cfg.Servers {
		servers = append(servers, net.JoinHostPort(s, cfg.Port))
	}
	return servers, nil
}

// NormalizeServer adds the default DNS port when server has none.
func NormalizeServer(server string) string {
	server = strings.TrimSpace(server)
	if server == "" {
		return ""
	}
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(strings.Trim(server, "[]"), "53")
}

func pickAddr(addrs []netip.Addr) (netip.Addr, bool) {
	var v6 netip.Addr
	for _, a := range addrs {
		a = a.Unmap()
		if a.Is4() {
			return a, true
		}
		if !v6.IsValid() {
			v6 = a
		}
	}
	return v6, v6.IsValid()
}
