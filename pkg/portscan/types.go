package portscan

import (
	"fmt"
	"net/netip"
	"time"
)

// Port limits.
const (
	MinPort = 1
	MaxPort = 65535
)

// Default range used by the CLI when no bounds are given.
const (
	DefaultStartPort = 1
	DefaultEndPort   = 1000
)

// Target is a resolved scan target.
type Target struct {
	// Host is the identifier as given by the caller, used for reporting.
	Host string
	// Addr is the numeric address probes connect to.
	Addr netip.Addr
	// Info holds optional enrichment data. Nil unless Enrich was run.
	Info *TargetInfo
}

func (t Target) String() string {
	if t.Host == "" || t.Host == t.Addr.String() {
		return t.Addr.String()
	}
	return fmt.Sprintf("%s (%s)", t.Host, t.Addr)
}

// PortRange is a closed interval [Start, End] of TCP ports.
type PortRange struct {
	Start uint16
	End   uint16
}

// NewPortRange validates start and end and returns the range.
func NewPortRange(start, end int) (PortRange, error) {
	switch {
	case start < MinPort:
		return PortRange{}, &ValidationError{Field: "start", Value: start, Err: ErrInvalidPortRange}
	case end > MaxPort:
		return PortRange{}, &ValidationError{Field: "end", Value: end, Err: ErrInvalidPortRange}
	case start > end:
		return PortRange{}, &ValidationError{Field: "range", Value: fmt.Sprintf("%d-%d", start, end), Err: ErrInvalidPortRange}
	}
	return PortRange{Start: uint16(start), End: uint16(end)}, nil
}

// Len returns the number of ports in the range.
func (r PortRange) Len() int {
	if r.Start == 0 || r.End < r.Start {
		return 0
	}
	return int(r.End) - int(r.Start) + 1
}

// Contains reports whether port is inside the range.
func (r PortRange) Contains(port uint16) bool {
	return r.Len() > 0 && port >= r.Start && port <= r.End
}

func (r PortRange) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

func (r PortRange) validate() error {
	_, err := NewPortRange(int(r.Start), int(r.End))
	return err
}

// Stats counts probe outcomes for one scan.
type Stats struct {
	Probed int
	Open   int
	Closed int
	Errors int
}

// Result is the finalized outcome of a scan.
type Result struct {
	ID      string
	Target  Target
	Range   PortRange
	Workers int
	Timeout time.Duration

	// Open lists the open ports, ascending and unique.
	Open  []uint16
	Stats Stats

	Started  time.Time
	Finished time.Time

	// Interrupted is set when the scan was cancelled before every port was probed.
	Interrupted bool
}

// Duration returns the wall-clock scan time.
func (r *Result) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// TargetInfo is descriptive information about a target gathered without
// contacting any scanned port.
type TargetInfo struct {
	Hostname string
	MAC      string
	Vendor   string
	Errors   map[string]error
}
