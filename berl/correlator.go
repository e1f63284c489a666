package berl

import (
	"sync"
	"time"
)

// Predicate decides whether an inbound message satisfies an expectation. A
// nil predicate matches any message.
type Predicate func(message *Message) bool

// Expectation state machine: waiting is the only non-terminal state and every
// expectation leaves it exactly once.
const (
	expectationWaiting = iota
	expectationMatched
	expectationTimedOut
	expectationClosed
)

// Expectation is a single-resolution slot for one inbound message claimed by
// the correlator ahead of default dispatch.
type Expectation struct {
	correlator *correlator
	predicate  Predicate
	timer      *time.Timer

	state  int
	result *Message
	err    error
	done   chan struct{}
}

// Await blocks until the expectation resolves and returns the matched message
// or one of ErrTimedOut and ErrConnectionClosed.
func (expectation *Expectation) Await() (*Message, error) {
	<-expectation.done
	return expectation.result, expectation.err
}

// Done exposes the resolution signal for callers that select.
func (expectation *Expectation) Done() <-chan struct{} {
	return expectation.done
}

// Cancel withdraws a still-waiting expectation, resolving it as timed out.
// Cancelling never disturbs the receive loop or other waiters; a message that
// already matched wins over a concurrent Cancel.
func (expectation *Expectation) Cancel() {
	expectation.correlator.resolve(expectation, nil, expectationTimedOut, ErrTimedOut)
}

// Collector accumulates up to a fixed number of inbound messages under one
// shared deadline.
type Collector struct {
	correlator *correlator
	want       int
	timer      *time.Timer

	collected []*Message
	finished  bool
	err       error
	done      chan struct{}
}

// Await blocks until the collector gathers its full count, its deadline
// passes, or the connection closes. Partial results at the deadline are not
// an error; a close resolves with the partials plus ErrConnectionClosed.
func (collector *Collector) Await() ([]*Message, error) {
	<-collector.done
	return collector.collected, collector.err
}

// correlator owns the pending expectation set for one session. It is the only
// structure mutated by both the receive goroutine and caller goroutines, so
// every mutation happens under its lock.
type correlator struct {
	lock       sync.Mutex
	pending    []*Expectation
	collectors []*Collector
	closed     bool
}

func newCorrelator() *correlator {
	return &correlator{}
}

func (c *correlator) expectNext(predicate Predicate, timeout time.Duration) *Expectation {
	expectation := &Expectation{
		correlator: c,
		predicate:  predicate,
		done:       make(chan struct{}),
	}

	c.lock.Lock()
	if c.closed {
		expectation.state = expectationClosed
		expectation.err = ErrConnectionClosed
		close(expectation.done)
		c.lock.Unlock()
		return expectation
	}
	c.pending = append(c.pending, expectation)
	// The timer field is shared with offer and resolve, so it is set before
	// the expectation becomes visible outside the lock.
	if timeout > 0 {
		expectation.timer = time.AfterFunc(timeout, func() {
			c.resolve(expectation, nil, expectationTimedOut, ErrTimedOut)
		})
	}
	c.lock.Unlock()

	return expectation
}

func (c *correlator) expectCount(count int, timeout time.Duration) *Collector {
	collector := &Collector{
		correlator: c,
		want:       count,
		done:       make(chan struct{}),
	}

	c.lock.Lock()
	if c.closed {
		collector.finished = true
		collector.err = ErrConnectionClosed
		close(collector.done)
		c.lock.Unlock()
		return collector
	}
	if count <= 0 {
		collector.finished = true
		close(collector.done)
		c.lock.Unlock()
		return collector
	}
	c.collectors = append(c.collectors, collector)
	if timeout > 0 {
		collector.timer = time.AfterFunc(timeout, func() {
			c.finishCollector(collector, nil)
		})
	}
	c.lock.Unlock()

	return collector
}

// offer routes an inbound message to the first interested waiter. It returns
// true when the message was consumed, in which case default dispatch rules
// must not run. Single-shot expectations are consulted before collectors, in
// registration order.
func (c *correlator) offer(message *Message) bool {
	c.lock.Lock()

	for i, expectation := range c.pending {
		if expectation.predicate != nil && !expectation.predicate(message) {
			continue
		}
		c.pending = append(c.pending[:i], c.pending[i+1:]...)
		expectation.state = expectationMatched
		expectation.result = message
		timer := expectation.timer
		c.lock.Unlock()

		if timer != nil {
			timer.Stop()
		}
		close(expectation.done)
		return true
	}

	if len(c.collectors) > 0 {
		collector := c.collectors[0]
		collector.collected = append(collector.collected, message)
		if len(collector.collected) < collector.want {
			c.lock.Unlock()
			return true
		}
		c.collectors = c.collectors[1:]
		collector.finished = true
		timer := collector.timer
		c.lock.Unlock()

		if timer != nil {
			timer.Stop()
		}
		close(collector.done)
		return true
	}

	c.lock.Unlock()
	return false
}

// resolve moves a waiting expectation to a terminal state. It is a no-op when
// the expectation already resolved, which is what enforces the at-most-one
// resolution invariant under races between match, timeout, and close.
func (c *correlator) resolve(expectation *Expectation, result *Message, state int, err error) {
	c.lock.Lock()
	if expectation.state != expectationWaiting {
		c.lock.Unlock()
		return
	}
	for i, pending := range c.pending {
		if pending == expectation {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			break
		}
	}
	expectation.state = state
	expectation.result = result
	expectation.err = err
	timer := expectation.timer
	c.lock.Unlock()

	if timer != nil {
		timer.Stop()
	}
	close(expectation.done)
}

func (c *correlator) finishCollector(collector *Collector, err error) {
	c.lock.Lock()
	if collector.finished {
		c.lock.Unlock()
		return
	}
	for i, pending := range c.collectors {
		if pending == collector {
			c.collectors = append(c.collectors[:i], c.collectors[i+1:]...)
			break
		}
	}
	collector.finished = true
	collector.err = err
	timer := collector.timer
	c.lock.Unlock()

	if timer != nil {
		timer.Stop()
	}
	close(collector.done)
}

// closeAll resolves every outstanding waiter with ErrConnectionClosed and
// refuses registrations from then on. Called once the receive loop has
// stopped, so no match can race past it.
func (c *correlator) closeAll() {
	c.lock.Lock()
	if c.closed {
		c.lock.Unlock()
		return
	}
	c.closed = true
	pending := c.pending
	collectors := c.collectors
	c.pending = nil
	c.collectors = nil

	for _, expectation := range pending {
		expectation.state = expectationClosed
		expectation.err = ErrConnectionClosed
		if expectation.timer != nil {
			expectation.timer.Stop()
		}
	}
	for _, collector := range collectors {
		collector.finished = true
		collector.err = ErrConnectionClosed
		if collector.timer != nil {
			collector.timer.Stop()
		}
	}
	c.lock.Unlock()

	for _, expectation := range pending {
		close(expectation.done)
	}
	for _, collector := range collectors {
		close(collector.done)
	}
}

func (c *correlator) pendingCount() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.pending) + len(c.collectors)
}
