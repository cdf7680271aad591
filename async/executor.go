package async

import (
	"sync"
	"sync/atomic"
)

// An Executor drives Futures to completion by polling them on a single
// goroutine.
//
// Spawned futures are added to an internal run queue. Run pops and
// polls each queued future in arrival order; a future that returns
// Pending leaves the queue and is re-added only when its Waker fires.
// When the queue is empty but spawned futures remain incomplete, Run
// parks until a wake arrives. If one Poll blocks, no other future can
// run, so futures must not block.
//
// Spawn and wakes are safe for concurrent use from any goroutine. Run
// must not be called twice at the same time.
type Executor struct {
	mu     sync.Mutex
	queue  []*task
	active int
	notify chan struct{}
}

// NewExecutor creates an Executor with an empty run queue.
func NewExecutor() *Executor {
	return &Executor{notify: make(chan struct{}, 1)}
}

// task pairs a spawned future with its queueing state. A task is its
// own Waker, so wakes from timer goroutines need no extra allocation.
type task struct {
	exec   *Executor
	fut    Future
	queued atomic.Bool
	done   atomic.Bool
}

// Wake re-enqueues the task for polling. Duplicate wakes while queued,
// and wakes after completion, are no-ops.
func (t *task) Wake() {
	if t.done.Load() {
		return
	}
	if !t.queued.CompareAndSwap(false, true) {
		return
	}

	e := t.exec
	e.mu.Lock()
	e.queue = append(e.queue, t)
	e.mu.Unlock()

	select {
	case e.notify <- struct{}{}:
	default:
	}
}

// Spawn adds f to the executor. The future is polled for the first
// time on the next turn of the Run loop.
func (e *Executor) Spawn(f Future) {
	t := &task{exec: e, fut: f}

	e.mu.Lock()
	e.active++
	e.mu.Unlock()

	t.Wake()
}

// Run polls queued futures until every spawned future has completed,
// parking whenever nothing is runnable. It returns once the executor
// has no incomplete futures left.
func (e *Executor) Run() {
	for {
		e.mu.Lock()
		if e.active == 0 {
			e.mu.Unlock()
			return
		}
		var t *task
		if len(e.queue) > 0 {
			t = e.queue[0]
			e.queue = e.queue[1:]
		}
		e.mu.Unlock()

		if t == nil {
			<-e.notify
			continue
		}

		// A wake can race with the final poll and re-enqueue a future
		// that has since completed. Drop such entries here.
		if t.done.Load() {
			continue
		}

		// Clear queued before polling so a wake issued during Poll
		// (the busy-poll policy) re-enqueues the task.
		t.queued.Store(false)

		if t.fut.Poll(t) == Ready {
			t.done.Store(true)
			e.mu.Lock()
			e.active--
			e.mu.Unlock()
		}
	}
}

// BlockOn spawns the given futures on a fresh Executor and runs them
// to completion, blocking the calling goroutine until all are done.
// Futures make progress concurrently with respect to each other.
func BlockOn(futures ...Future) {
	e := NewExecutor()
	for _, f := range futures {
		e.Spawn(f)
	}
	e.Run()
}
