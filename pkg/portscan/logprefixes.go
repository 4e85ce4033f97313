// Package portscan: Log prefix constants for consistent log tagging.
// Consumers may use them in their SetDebugLogger callback; they are not required.
package portscan

const (
	LogPrefixScan    = "[Scan]"
	LogPrefixEngine  = "[Scan:Engine]"
	LogPrefixProbe   = "[Scan:Probe]"
	LogPrefixResolve = "[Scan:Resolve]"
	LogPrefixEnrich  = "[Scan:Enrich]"
	LogPrefixARP     = "[Scan:ARP]"
	LogPrefixOUI     = "[Scan:OUI]"

	// Debug prefix - use as "[DEBUG][Scan:*]" format
	LogPrefixDebug = "[DEBUG]"
)

// ComponentToPrefix returns the log prefix for a component.
func ComponentToPrefix(component Component) string {
	switch component {
	case ComponentEngine:
		return LogPrefixEngine
	case ComponentProbe:
		return LogPrefixProbe
	case ComponentResolve:
		return LogPrefixResolve
	case ComponentEnrich:
		return LogPrefixEnrich
	case ComponentARP:
		return LogPrefixARP
	case ComponentOUI:
		return LogPrefixOUI
	default:
		return LogPrefixScan
	}
}
