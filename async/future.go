package async

// Poll is the result of a single readiness check on a Future.
type Poll uint8

const (
	// Pending means the future cannot complete yet. The future must
	// have arranged for its Waker to be invoked before returning
	// Pending, or it will never be polled again.
	Pending Poll = iota

	// Ready means the future has completed. Polling it again is out of
	// contract but must be harmless.
	Ready
)

// String returns "Pending" or "Ready".
func (p Poll) String() string {
	if p == Ready {
		return "Ready"
	}
	return "Pending"
}

// A Waker is the handle a pending future uses to tell its executor
// "poll me again". Wake is safe to call from any goroutine. Waking a
// future that is already queued, or already complete, is a no-op.
type Waker interface {
	Wake()
}

// WakerFunc adapts a plain function to the Waker interface.
type WakerFunc func()

// Wake calls f.
func (f WakerFunc) Wake() { f() }

// A Future is a unit of asynchronous work driven by readiness polling.
//
// Poll attempts to make progress and must return quickly without
// blocking. If the work is not finished, Poll stores or invokes w so
// the executor knows when to poll again, and returns Pending. Once
// Poll has returned Ready the future is complete; subsequent polls
// must keep returning Ready without side effects.
//
// Only the most recently supplied Waker needs to be woken.
type Future interface {
	Poll(w Waker) Poll
}

// PollFunc adapts a plain function to the Future interface.
type PollFunc func(w Waker) Poll

// Poll calls f.
func (f PollFunc) Poll(w Waker) Poll { return f(w) }
