// Package async provides a minimal readiness-polling model for
// asynchronous work: a Future is repeatedly polled by a cooperative,
// single-threaded Executor until it reports Ready.
//
// The contract mirrors the poll/wake split common to cooperative
// runtimes. A Future's Poll must never block; when it cannot complete
// yet it returns Pending and arranges for the supplied Waker to be
// invoked once it can make progress. Waking re-enqueues the future on
// its executor, which polls it again on the next turn of the run loop.
//
// # Basic Usage
//
//	var n int
//	async.BlockOn(async.PollFunc(func(w async.Waker) async.Poll {
//	    if n < 3 {
//	        n++
//	        w.Wake() // ask to be polled again
//	        return async.Pending
//	    }
//	    return async.Ready
//	}))
//
// Wakers may be invoked from any goroutine; everything else happens on
// the goroutine driving Executor.Run.
package async
