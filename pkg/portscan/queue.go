package portscan

import "context"

// workQueue hands out every port of a range exactly once. A single producer
// goroutine feeds an unbuffered channel in ascending order and closes it when
// the range is exhausted or the context is cancelled. Closing is the only
// termination signal workers need, however many of them there are.
type workQueue struct {
	ports chan uint16
	done  chan struct{}
	sent  int
}

func newWorkQueue(ctx context.Context, r PortRange) *workQueue {
	q := &workQueue{
		ports: make(chan uint16),
		done:  make(chan struct{}),
	}
	go q.fill(ctx, r)
	return q
}

func (q *workQueue) fill(ctx context.Context, r PortRange) {
	defer close(q.done)
	defer close(q.ports)

	if r.Len() == 0 {
		return
	}
	// int loop: a uint16 counter would wrap at 65535.
	for p := int(r.Start); p <= int(r.End); p++ {
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case q.ports <- uint16(p):
			q.sent++
		}
	}
}

// next blocks until a port is available. ok is false once the queue is exhausted.
func (q *workQueue) next() (port uint16, ok bool) {
	port, ok = <-q.ports
	return port, ok
}

// dispatched returns how many ports were handed out. It waits for the producer to exit.
func (q *workQueue) dispatched() int {
	<-q.done
	return q.sent
}
