// Package work simulates long-running operations for the execution
// model comparisons: a blocking sequential version, and a deferred
// version that bridges the same timed wait into the readiness-polling
// model of package async without ever blocking the polling goroutine.
package work

import (
	"sync/atomic"
	"time"

	"github.com/nrc/apr-intro/async"
	"github.com/nrc/apr-intro/logging"
)

// DefaultDelay is how long a unit of work takes unless overridden
// with WithDelay.
const DefaultDelay = 500 * time.Millisecond

// Option is a functional option for configuring a unit of work.
type Option func(*options)

type options struct {
	delay    time.Duration
	logger   logging.Logger
	busyPoll bool
}

func newOptions(opts ...Option) options {
	o := options{
		delay:  DefaultDelay,
		logger: logging.Discard,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithDelay sets how long the simulated work takes, must be greater
// than 0. If not, it will be ignored.
func WithDelay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.delay = d
		}
	}
}

// WithLogger sets the logger that receives the start/done diagnostics.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithBusyPoll makes Poll request an immediate re-poll whenever the
// work is still pending, instead of the timer waking the task when it
// fires. Busy-polling wastes scheduler turns; the option exists so the
// two wake policies can be compared.
func WithBusyPoll() Option {
	return func(o *options) {
		o.busyPoll = true
	}
}

// A DeferredTask is a unit of timed work that becomes ready only after
// a background timer fires. It implements async.Future.
//
// The readiness flag is shared between the task and its timer
// goroutine and transitions exactly once, from false to true. There is
// no cancellation: dropping the task leaves the timer goroutine
// sleeping to completion.
type DeferredTask struct {
	label    int
	flag     atomic.Bool
	waker    atomic.Pointer[async.Waker]
	logger   logging.Logger
	busyPoll bool
	finished bool
}

// Deferred starts a unit of timed work labeled label, for diagnostics.
// It logs a start message, spawns the timer goroutine, and returns a
// task ready to be spawned on an async.Executor. The actual wait
// happens entirely on the timer goroutine, so polling never blocks.
func Deferred(label int, opts ...Option) *DeferredTask {
	o := newOptions(opts...)
	d := &DeferredTask{
		label:    label,
		logger:   o.logger,
		busyPoll: o.busyPoll,
	}

	d.logger.Printf("starting work %d", label)

	go func() {
		time.Sleep(o.delay)
		d.flag.Store(true)
		if w := d.waker.Load(); w != nil {
			(*w).Wake()
		}
	}()

	return d
}

// Poll reports whether the timer has fired. While pending it registers
// w so the timer goroutine can wake the task when the flag is set
// (or, under WithBusyPoll, wakes w immediately itself). The first poll
// that observes readiness logs the done diagnostic; later polls return
// Ready without side effects.
func (d *DeferredTask) Poll(w async.Waker) async.Poll {
	if d.flag.Load() {
		if !d.finished {
			d.finished = true
			d.logger.Printf("work done! %d", d.label)
		}
		return async.Ready
	}

	if d.busyPoll {
		w.Wake()
		return async.Pending
	}

	d.waker.Store(&w)
	// The timer may have fired between the flag check above and the
	// waker registration, in which case its wake used the previous
	// waker (or none). Re-check so the wake is never lost.
	if d.flag.Load() {
		w.Wake()
	}
	return async.Pending
}

// Label returns the task's diagnostic label.
func (d *DeferredTask) Label() int { return d.label }

// Do is the pure sequential version: log start, block for the delay,
// log done.
func Do(label int, opts ...Option) {
	o := newOptions(opts...)
	o.logger.Printf("starting work %d", label)
	time.Sleep(o.delay)
	o.logger.Printf("work done! %d", label)
}
