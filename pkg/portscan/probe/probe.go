// Package probe performs single, bounded-time TCP connect attempts and
// classifies the outcome as open, closed or error.
package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"syscall"
	"time"
)

// DefaultTimeout is the default per-connection timeout.
const DefaultTimeout = 500 * time.Millisecond

// DebugLogger is a callback for debug logging.
// Set this to receive debug messages from probe operations.
var DebugLogger func(format string, args ...interface{})

func debugLog(format string, args ...interface{}) {
	if DebugLogger != nil {
		DebugLogger(format, args...)
	}
}

// State is the classification of a single port.
type State int

const (
	// StateClosed means the connection was refused or timed out.
	StateClosed State = iota
	// StateOpen means the remote end accepted the connection.
	StateOpen
	// StateError means the attempt failed for an environmental reason.
	StateError
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result is the outcome of one probe.
type Result struct {
	Port  uint16
	State State
	// Reason describes why a port was classified closed ("refused", "timeout").
	Reason string
	// Err is set only when State is StateError.
	Err error
	RTT time.Duration
}

// Error describes a probe that failed for a reason other than refusal or timeout.
type Error struct {
	Port uint16
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("probe port %d: %v", e.Port, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Prober classifies one (address, port) pair.
type Prober interface {
	Probe(ctx context.Context, addr netip.Addr, port uint16) Result
}

// Func adapts an ordinary function to the Prober interface.
type Func func(ctx context.Context, addr netip.Addr, port uint16) Result

// Probe calls f(ctx, addr, port).
func (f Func) Probe(ctx context.Context, addr netip.Addr, port uint16) Result {
	return f(ctx, addr, port)
}

// TCP is a TCP connect prober.
type TCP struct {
	Timeout time.Duration
}

// NewTCP creates a TCP prober. A non-positive timeout selects DefaultTimeout.
func NewTCP(timeout time.Duration) *TCP {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &TCP{Timeout: timeout}
}

// Probe makes exactly one connection attempt. The connection, if any, is
// closed before returning.
func (t *TCP) Probe(ctx context.Context, addr netip.Addr, port uint16) Result {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	d := net.Dialer{Timeout: timeout}
	target := netip.AddrPortFrom(addr, port).String()

	start := time.Now()
	conn, err := d.DialContext(ctx, "tcp", target)
	res := Result{Port: port, RTT: time.Since(start)}
	if err == nil {
		_ = conn.Close()
		res.State = StateOpen
		debugLog("%s open rtt=%dms", target, res.RTT.Milliseconds())
		return res
	}

	res.State, res.Reason = Classify(err)
	if res.State == StateError {
		res.Err = &Error{Port: port, Err: err}
		debugLog("%s error: %v", target, err)
	}
	return res
}

// Classify maps a dial error to a port state and a short reason.
func Classify(err error) (State, string) {
	if err == nil {
		return StateOpen, ""
	}
	if errors.Is(err, context.Canceled) {
		return StateError, "canceled"
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return StateClosed, "refused"
	}
	if errors.Is(err, syscall.ECONNRESET) {
		return StateClosed, "reset"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return StateClosed, "timeout"
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return StateClosed, "timeout"
	}
	return StateError, err.Error()
}
