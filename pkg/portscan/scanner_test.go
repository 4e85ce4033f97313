package portscan

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marcuoli/go-portscan/pkg/portscan/probe"
)

var localhost = Target{Host: "127.0.0.1", Addr: netip.MustParseAddr("127.0.0.1")}

// countingProber records every invocation and reports the ports in open as
// open, every other port as closed.
type countingProber struct {
	mu    sync.Mutex
	calls map[uint16]int
	open  map[uint16]bool
	delay time.Duration
}

func newCountingProber(open ...uint16) *countingProber {
	p := &countingProber{calls: make(map[uint16]int), open: make(map[uint16]bool)}
	for _, port := range open {
		p.open[port] = true
	}
	return p
}

func (p *countingProber) Probe(ctx context.Context, addr netip.Addr, port uint16) probe.Result {
	p.mu.Lock()
	p.calls[port]++
	p.mu.Unlock()
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.open[port] {
		return probe.Result{Port: port, State: probe.StateOpen}
	}
	return probe.Result{Port: port, State: probe.StateClosed, Reason: "refused"}
}

func mustRange(t *testing.T, start, end int) PortRange {
	t.Helper()
	r, err := NewPortRange(start, end)
	if err != nil {
		t.Fatalf("NewPortRange(%d, %d): %v", start, end, err)
	}
	return r
}

func mustScanner(t *testing.T, opts Options) *Scanner {
	t.Helper()
	s, err := NewScanner(opts)
	if err != nil {
		t.Fatalf("NewScanner: %v", err)
	}
	return s
}

func TestNewScanner_Defaults(t *testing.T) {
	s := mustScanner(t, Options{})
	opts := s.Options()
	if opts.Workers != DefaultWorkers {
		t.Errorf("expected Workers=%d, got %d", DefaultWorkers, opts.Workers)
	}
	if opts.Timeout != probe.DefaultTimeout {
		t.Errorf("expected Timeout=%v, got %v", probe.DefaultTimeout, opts.Timeout)
	}
	if opts.Prober == nil {
		t.Error("expected default prober to be set")
	}
	if d := DefaultOptions(); d.Workers != 50 || d.Timeout != probe.DefaultTimeout {
		t.Errorf("unexpected DefaultOptions: %+v", d)
	}
}

func TestNewScanner_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want error
	}{
		{"negative workers", Options{Workers: -1}, ErrInvalidWorkers},
		{"too many workers", Options{Workers: MaxWorkers + 1}, ErrInvalidWorkers},
		{"negative timeout", Options{Timeout: -time.Second}, ErrInvalidTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScanner(tt.opts)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
		})
	}
}

func TestScan_EachPortProbedExactlyOnce(t *testing.T) {
	p := newCountingProber(3, 500, 999)
	s := mustScanner(t, Options{Workers: 50, Prober: p})

	rng := mustRange(t, 1, 1000)
	res, err := s.Scan(context.Background(), localhost, rng)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(p.calls) != rng.Len() {
		t.Fatalf("expected %d distinct ports probed, got %d", rng.Len(), len(p.calls))
	}
	for port := 1; port <= 1000; port++ {
		if n := p.calls[uint16(port)]; n != 1 {
			t.Fatalf("port %d probed %d times", port, n)
		}
	}
	if res.Stats.Probed != rng.Len() {
		t.Fatalf("expected Probed=%d, got %d", rng.Len(), res.Stats.Probed)
	}
	if res.Stats.Open != 3 || res.Stats.Closed != 997 || res.Stats.Errors != 0 {
		t.Fatalf("unexpected stats: %+v", res.Stats)
	}
	if res.Interrupted {
		t.Fatal("complete scan must not be marked interrupted")
	}
}

func TestScan_ResultSortedAndUnique(t *testing.T) {
	open := []uint16{900, 17, 443, 22, 80, 8080, 2}
	p := newCountingProber(open...)
	s := mustScanner(t, Options{Workers: 64, Prober: p})

	res, err := s.Scan(context.Background(), localhost, mustRange(t, 1, 9000))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	want := slices.Clone(open)
	slices.Sort(want)
	if !slices.Equal(res.Open, want) {
		t.Fatalf("got %v want %v", res.Open, want)
	}
	for i := 1; i < len(res.Open); i++ {
		if res.Open[i-1] >= res.Open[i] {
			t.Fatalf("result not strictly ascending: %v", res.Open)
		}
	}
}

func TestScan_MoreWorkersThanPorts(t *testing.T) {
	p := newCountingProber(5)
	s := mustScanner(t, Options{Workers: 200, Prober: p})

	done := make(chan *Result, 1)
	go func() {
		res, err := s.Scan(context.Background(), localhost, mustRange(t, 1, 10))
		if err != nil {
			t.Errorf("Scan: %v", err)
		}
		done <- res
	}()

	select {
	case res := <-done:
		if res == nil {
			return
		}
		if !slices.Equal(res.Open, []uint16{5}) {
			t.Fatalf("got %v want [5]", res.Open)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scan with more workers than ports did not terminate")
	}
}

func TestScan_SinglePortRange(t *testing.T) {
	p := newCountingProber(65535)
	s := mustScanner(t, Options{Workers: 4, Prober: p})

	res, err := s.Scan(context.Background(), localhost, mustRange(t, 65535, 65535))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !slices.Equal(res.Open, []uint16{65535}) {
		t.Fatalf("got %v want [65535]", res.Open)
	}
	if p.calls[65535] != 1 || len(p.calls) != 1 {
		t.Fatalf("unexpected calls: %v", p.calls)
	}
}

func TestScan_WorkerCountDoesNotChangeOutcome(t *testing.T) {
	open := []uint16{21, 22, 80, 135, 443, 3306}
	rng := mustRange(t, 1, 4000)

	serial, err := mustScanner(t, Options{Workers: 1, Prober: newCountingProber(open...)}).Scan(context.Background(), localhost, rng)
	if err != nil {
		t.Fatalf("serial Scan: %v", err)
	}
	parallel, err := mustScanner(t, Options{Workers: 50, Prober: newCountingProber(open...)}).Scan(context.Background(), localhost, rng)
	if err != nil {
		t.Fatalf("parallel Scan: %v", err)
	}

	if !slices.Equal(serial.Open, parallel.Open) {
		t.Fatalf("workers=1 gave %v, workers=50 gave %v", serial.Open, parallel.Open)
	}
	if serial.Stats != parallel.Stats {
		t.Fatalf("stats differ: %+v vs %+v", serial.Stats, parallel.Stats)
	}
}

func TestScan_ListenerOnPort80(t *testing.T) {
	p := newCountingProber(80)
	s := mustScanner(t, Options{Workers: 50, Prober: p})

	res, err := s.Scan(context.Background(), localhost, mustRange(t, 20, 100))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !slices.Equal(res.Open, []uint16{80}) {
		t.Fatalf("got %v want [80]", res.Open)
	}
	if len(p.calls) != 81 {
		t.Fatalf("expected 81 ports probed, got %d", len(p.calls))
	}
}

func TestScan_NoListeners(t *testing.T) {
	s := mustScanner(t, Options{Workers: 10, Prober: newCountingProber()})

	res, err := s.Scan(context.Background(), localhost, mustRange(t, 1, 10))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(res.Open) != 0 {
		t.Fatalf("expected no open ports, got %v", res.Open)
	}
	if res.Open == nil {
		t.Fatal("expected an empty, non-nil slice")
	}
}

func TestScan_ProbeErrorsDoNotStopScan(t *testing.T) {
	var calls atomic.Int32
	p := probe.Func(func(ctx context.Context, addr netip.Addr, port uint16) probe.Result {
		calls.Add(1)
		switch {
		case port%10 == 0:
			return probe.Result{Port: port, State: probe.StateError, Err: &probe.Error{Port: port, Err: errors.New("no route to host")}}
		case port == 42:
			return probe.Result{Port: port, State: probe.StateOpen}
		default:
			return probe.Result{Port: port, State: probe.StateClosed}
		}
	})

	var seen []probe.Result
	s := mustScanner(t, Options{Workers: 8, Prober: p, OnResult: func(r probe.Result) {
		seen = append(seen, r)
	}})

	res, err := s.Scan(context.Background(), localhost, mustRange(t, 1, 100))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if calls.Load() != 100 {
		t.Fatalf("expected 100 probes, got %d", calls.Load())
	}
	if res.Stats.Errors != 10 || res.Stats.Open != 1 || res.Stats.Closed != 89 {
		t.Fatalf("unexpected stats: %+v", res.Stats)
	}
	if !slices.Equal(res.Open, []uint16{42}) {
		t.Fatalf("got %v want [42]", res.Open)
	}
	// OnResult runs on the single collector goroutine, so the unguarded
	// append above is safe and complete once Scan returns.
	if len(seen) != 100 {
		t.Fatalf("OnResult saw %d results, want 100", len(seen))
	}
}

func TestScan_Cancelled(t *testing.T) {
	p := newCountingProber(1, 2, 3)
	p.delay = 5 * time.Millisecond
	s := mustScanner(t, Options{Workers: 4, Prober: p})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	done := make(chan *Result, 1)
	go func() {
		res, err := s.Scan(ctx, localhost, mustRange(t, 1, 65535))
		if err != nil {
			t.Errorf("Scan: %v", err)
		}
		done <- res
	}()

	select {
	case res := <-done:
		if res == nil {
			return
		}
		if !res.Interrupted {
			t.Fatal("expected Interrupted after cancel")
		}
		if res.Stats.Probed >= 65535 {
			t.Fatalf("expected a partial scan, probed %d", res.Stats.Probed)
		}
		if !slices.Equal(res.Open, []uint16{1, 2, 3}) {
			t.Fatalf("expected early open ports kept, got %v", res.Open)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("cancelled scan did not return")
	}
}

func TestScan_InvalidInput(t *testing.T) {
	p := newCountingProber()
	s := mustScanner(t, Options{Prober: p})

	if _, err := s.Scan(context.Background(), localhost, PortRange{Start: 100, End: 50}); !errors.Is(err, ErrInvalidPortRange) {
		t.Fatalf("expected ErrInvalidPortRange, got %v", err)
	}
	if _, err := s.Scan(context.Background(), Target{Host: "x"}, mustRange(t, 1, 2)); !errors.Is(err, ErrMissingHost) {
		t.Fatalf("expected ErrMissingHost for unresolved target, got %v", err)
	}
	if len(p.calls) != 0 {
		t.Fatalf("no probe expected on invalid input, got %v", p.calls)
	}
}

func TestScan_RealListener(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	port := uint16(l.Addr().(*net.TCPAddr).Port)

	s := mustScanner(t, Options{Workers: 2, Timeout: time.Second})
	res, err := s.Scan(context.Background(), localhost, PortRange{Start: port, End: port})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !slices.Equal(res.Open, []uint16{port}) {
		t.Fatalf("got %v want [%d]", res.Open, port)
	}
	if res.ID == "" {
		t.Fatal("expected a scan ID")
	}
	if res.Finished.Before(res.Started) {
		t.Fatal("Finished before Started")
	}
}

func TestScanHost_ValidationBeforeResolution(t *testing.T) {
	p := newCountingProber()
	opts := Options{Prober: p}

	_, err := ScanHost(context.Background(), "no-such-host.invalid", 100, 50, opts, nil)
	if !errors.Is(err, ErrInvalidPortRange) {
		t.Fatalf("expected range validation error first, got %v", err)
	}
	var re *ResolutionError
	if errors.As(err, &re) {
		t.Fatal("validation must happen before resolution")
	}

	if _, err := ScanHost(context.Background(), "", 1, 10, opts, nil); !errors.Is(err, ErrMissingHost) {
		t.Fatalf("expected ErrMissingHost, got %v", err)
	}
	if len(p.calls) != 0 {
		t.Fatalf("no probe expected, got %v", p.calls)
	}
}

func TestScanHost_Unresolvable(t *testing.T) {
	p := newCountingProber()
	_, err := ScanHost(context.Background(), "no-such-host.invalid", 1, 10, Options{Prober: p}, nil)

	var re *ResolutionError
	if !errors.As(err, &re) {
		t.Fatalf("expected *ResolutionError, got %T (%v)", err, err)
	}
	if re.Host != "no-such-host.invalid" {
		t.Fatalf("unexpected host in error: %q", re.Host)
	}
	if len(p.calls) != 0 {
		t.Fatalf("no port may be queued after resolution failure, got %v", p.calls)
	}
}

func TestScanHost_Literal(t *testing.T) {
	p := newCountingProber(7)
	res, err := ScanHost(context.Background(), "127.0.0.1", 1, 10, Options{Workers: 3, Prober: p}, nil)
	if err != nil {
		t.Fatalf("ScanHost: %v", err)
	}
	if res.Target.Addr != localhost.Addr || res.Target.Host != "127.0.0.1" {
		t.Fatalf("unexpected target: %+v", res.Target)
	}
	if !slices.Equal(res.Open, []uint16{7}) {
		t.Fatalf("got %v want [7]", res.Open)
	}
}
