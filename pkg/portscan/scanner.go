package portscan

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/marcuoli/go-portscan/pkg/portscan/probe"
)

// DefaultWorkers is the default concurrency level.
const DefaultWorkers = 50

// MaxWorkers bounds the pool size. Each worker holds at most one socket, so
// the limit protects the local file-descriptor table; it has no effect on
// the remote host.
const MaxWorkers = 4096

// Options configures a Scanner.
type Options struct {
	// Workers is the fixed pool size. Zero selects DefaultWorkers; 1 scans serially.
	Workers int
	// Timeout bounds each connection attempt. Zero selects probe.DefaultTimeout.
	Timeout time.Duration
	// Prober overrides the TCP connect prober.
	Prober probe.Prober
	// OnResult, if set, receives every probe result in arrival order. Calls are
	// made from a single goroutine and never overlap.
	OnResult func(probe.Result)
}

// DefaultOptions returns options with the default pool size and timeout.
func DefaultOptions() Options {
	return Options{Workers: DefaultWorkers, Timeout: probe.DefaultTimeout}
}

func (o Options) withDefaults() (Options, error) {
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if o.Workers < 1 || o.Workers > MaxWorkers {
		return o, &ValidationError{Field: "workers", Value: o.Workers, Err: ErrInvalidWorkers}
	}
	if o.Timeout < 0 {
		return o, &ValidationError{Field: "timeout", Value: o.Timeout, Err: ErrInvalidTimeout}
	}
	if o.Timeout == 0 {
		o.Timeout = probe.DefaultTimeout
	}
	if o.Prober == nil {
		o.Prober = probe.NewTCP(o.Timeout)
	}
	return o, nil
}

// Scanner runs port scans with a fixed worker pool.
type Scanner struct {
	opts Options
}

// NewScanner validates opts and returns a Scanner.
func NewScanner(opts Options) (*Scanner, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	return &Scanner{opts: opts}, nil
}

// Options returns the effective options.
func (s *Scanner) Options() Options {
	return s.opts
}

// Scan probes every port of rng on target once and returns when all workers
// have exited and every result has been collected.
//
// Cancelling ctx stops dispatch of new ports and aborts in-flight attempts;
// the partial result is returned with Interrupted set and a nil error.
func (s *Scanner) Scan(ctx context.Context, target Target, rng PortRange) (*Result, error) {
	if err := rng.validate(); err != nil {
		return nil, err
	}
	if !target.Addr.IsValid() {
		return nil, &ValidationError{Field: "target", Value: target.Host, Err: ErrMissingHost}
	}

	res := &Result{
		ID:      uuid.NewString(),
		Target:  target,
		Range:   rng,
		Workers: s.opts.Workers,
		Timeout: s.opts.Timeout,
		Started: time.Now(),
	}
	debugLog(ComponentEngine, "scan %s: %s ports %s workers=%d timeout=%v",
		res.ID, target, rng, s.opts.Workers, s.opts.Timeout)

	queue := newWorkQueue(ctx, rng)
	results := make(chan probe.Result, s.opts.Workers)
	coll := newCollector(s.opts.OnResult)
	go coll.run(results)

	var g errgroup.Group
	for i := 0; i < s.opts.Workers; i++ {
		id := i
		g.Go(func() error {
			s.work(ctx, id, target, queue, results)
			return nil
		})
	}

	// Workers only stop after the queue closes, so Wait covers the
	// producer too. Results are read only after the collector is done.
	_ = g.Wait()
	close(results)
	coll.wait()

	res.Finished = time.Now()
	res.Open = coll.finalize()
	res.Stats = coll.stats
	res.Interrupted = ctx.Err() != nil && res.Stats.Probed < rng.Len()

	debugLog(ComponentEngine, "scan %s done: dispatched=%d probed=%d open=%d closed=%d errors=%d interrupted=%v in %v",
		res.ID, queue.dispatched(), res.Stats.Probed, res.Stats.Open, res.Stats.Closed, res.Stats.Errors,
		res.Interrupted, res.Duration())
	return res, nil
}

func (s *Scanner) work(ctx context.Context, id int, target Target, queue *workQueue, results chan<- probe.Result) {
	n := 0
	for {
		port, ok := queue.next()
		if !ok {
			debugLogVerbose(ComponentEngine, "worker %d exiting after %d ports", id, n)
			return
		}
		n++
		r := s.opts.Prober.Probe(ctx, target.Addr, port)
		r.Port = port
		if ctx.Err() != nil && r.State != probe.StateOpen {
			// Aborted by cancellation; the port was not really classified.
			continue
		}
		results <- r
	}
}
