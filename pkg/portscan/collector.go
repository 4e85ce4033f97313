package portscan

import (
	"slices"

	"github.com/marcuoli/go-portscan/pkg/portscan/probe"
)

// collector is the single owner of scan results. Workers reach it only through
// the results channel, so its fields need no locking. onResult runs on the
// collector goroutine, which makes it the one writer for any console output.
type collector struct {
	open     map[uint16]struct{}
	stats    Stats
	onResult func(probe.Result)
	done     chan struct{}
}

func newCollector(onResult func(probe.Result)) *collector {
	return &collector{
		open:     make(map[uint16]struct{}),
		onResult: onResult,
		done:     make(chan struct{}),
	}
}

// run consumes results until the channel is closed.
func (c *collector) run(results <-chan probe.Result) {
	defer close(c.done)
	for res := range results {
		c.add(res)
	}
}

func (c *collector) add(res probe.Result) {
	c.stats.Probed++
	switch res.State {
	case probe.StateOpen:
		if _, dup := c.open[res.Port]; dup {
			debugLog(ComponentEngine, "port %d reported open twice", res.Port)
		} else {
			c.open[res.Port] = struct{}{}
			c.stats.Open++
		}
	case probe.StateClosed:
		c.stats.Closed++
	default:
		c.stats.Errors++
		debugLog(ComponentEngine, "port %d: %v", res.Port, res.Err)
	}
	if c.onResult != nil {
		c.onResult(res)
	}
}

// wait blocks until run has returned.
func (c *collector) wait() {
	<-c.done
}

// finalize returns the open ports ascending. Call only after wait.
func (c *collector) finalize() []uint16 {
	ports := make([]uint16, 0, len(c.open))
	for p := range c.open {
		ports = append(ports, p)
	}
	slices.Sort(ports)
	return ports
}
