package work

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nrc/apr-intro/async"
)

// captureLogger records formatted lines; safe for use from the timer
// goroutine and the test goroutine.
type captureLogger struct {
	mu    sync.Mutex
	lines []string
}

func (c *captureLogger) Printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, fmt.Sprintf(format, args...))
}

func (c *captureLogger) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

type countingWaker struct {
	calls atomic.Int64
}

func (c *countingWaker) Wake() { c.calls.Add(1) }

func TestDeferred_StartAndDoneExactlyOnce(t *testing.T) {
	logger := &captureLogger{}

	async.BlockOn(Deferred(7, WithDelay(30*time.Millisecond), WithLogger(logger)))

	lines := logger.snapshot()
	if len(lines) != 2 {
		t.Fatalf("expected exactly 2 diagnostics, got %d: %v", len(lines), lines)
	}
	if lines[0] != "starting work 7" {
		t.Errorf("expected start diagnostic first, got %q", lines[0])
	}
	if lines[1] != "work done! 7" {
		t.Errorf("expected done diagnostic second, got %q", lines[1])
	}
}

func TestDeferred_PollBeforeTimer(t *testing.T) {
	const delay = 50 * time.Millisecond

	d := Deferred(1, WithDelay(delay))
	w := &countingWaker{}

	if got := d.Poll(w); got != async.Pending {
		t.Fatalf("expected Pending before the timer fires, got %v", got)
	}
	if got := w.calls.Load(); got != 0 {
		t.Fatalf("expected no immediate wake under the default policy, got %d", got)
	}

	// The timer should invoke the registered waker exactly once.
	time.Sleep(5 * delay)
	if got := w.calls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 wake from the timer, got %d", got)
	}
	if got := d.Poll(w); got != async.Ready {
		t.Fatalf("expected Ready after the timer fired, got %v", got)
	}
}

func TestDeferred_BusyPollWakesEveryPoll(t *testing.T) {
	d := Deferred(2, WithDelay(time.Second), WithBusyPoll())
	w := &countingWaker{}

	for i := 1; i <= 3; i++ {
		if got := d.Poll(w); got != async.Pending {
			t.Fatalf("poll %d: expected Pending, got %v", i, got)
		}
		if got := w.calls.Load(); got != int64(i) {
			t.Fatalf("poll %d: expected %d wake requests, got %d", i, i, got)
		}
	}
}

func TestDeferred_ReadyIsIdempotentAndMonotonic(t *testing.T) {
	const delay = 20 * time.Millisecond

	logger := &captureLogger{}
	d := Deferred(3, WithDelay(delay), WithLogger(logger))
	w := &countingWaker{}

	time.Sleep(5 * delay)

	// Once observed true, readiness never reverts, no poll panics,
	// and the done diagnostic is not repeated.
	for i := 0; i < 4; i++ {
		if got := d.Poll(w); got != async.Ready {
			t.Fatalf("poll %d after completion: expected Ready, got %v", i, got)
		}
	}

	var done int
	for _, line := range logger.snapshot() {
		if strings.Contains(line, "done") {
			done++
		}
	}
	if done != 1 {
		t.Fatalf("expected exactly 1 done diagnostic, got %d", done)
	}
}

func TestDeferred_EndToEnd(t *testing.T) {
	const delay = 60 * time.Millisecond

	logger := &captureLogger{}
	d := Deferred(7, WithDelay(delay), WithLogger(logger))
	w := &countingWaker{}

	if got := d.Poll(w); got != async.Pending {
		t.Fatalf("immediate poll: expected Pending, got %v", got)
	}

	time.Sleep(delay + 50*time.Millisecond)

	if got := d.Poll(w); got != async.Ready {
		t.Fatalf("poll after delay: expected Ready, got %v", got)
	}

	lines := logger.snapshot()
	last := lines[len(lines)-1]
	if !strings.Contains(last, "done") || !strings.Contains(last, "7") {
		t.Fatalf("expected a done diagnostic containing the label, got %q", last)
	}
}

func TestDeferred_ConcurrentTimersRunInParallel(t *testing.T) {
	const delay = 200 * time.Millisecond

	tasks := make([]async.Future, 4)
	for i := range tasks {
		tasks[i] = Deferred(i+1, WithDelay(delay))
	}

	start := time.Now()
	async.BlockOn(tasks...)
	elapsed := time.Since(start)

	// Four tasks, one delay interval: the background waits overlap
	// rather than running back to back.
	if elapsed < delay {
		t.Fatalf("completed in %v, before any timer could fire", elapsed)
	}
	if elapsed > 2*delay {
		t.Fatalf("four tasks took %v, expected about one delay interval (%v)", elapsed, delay)
	}
}

func TestDeferred_BusyPollDrivenByExecutor(t *testing.T) {
	logger := &captureLogger{}

	async.BlockOn(Deferred(9, WithDelay(30*time.Millisecond), WithLogger(logger), WithBusyPoll()))

	lines := logger.snapshot()
	if len(lines) != 2 || lines[1] != "work done! 9" {
		t.Fatalf("expected start then done under busy-poll, got %v", lines)
	}
}

func TestDo_Sequential(t *testing.T) {
	const delay = 30 * time.Millisecond

	logger := &captureLogger{}
	start := time.Now()
	Do(5, WithDelay(delay), WithLogger(logger))
	elapsed := time.Since(start)

	if elapsed < delay {
		t.Fatalf("returned after %v, before the work's delay of %v", elapsed, delay)
	}
	lines := logger.snapshot()
	if len(lines) != 2 || lines[0] != "starting work 5" || lines[1] != "work done! 5" {
		t.Fatalf("unexpected diagnostics: %v", lines)
	}
}
