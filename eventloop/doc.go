// Package eventloop provides a deterministic, single-threaded cooperative
// event loop: macrotask and microtask queues with strict draining order,
// virtual-clock timers, a promise state machine with Then/Catch/Finally
// chaining and combinators ([All], [Race], [Any], [AllSettled]), and an
// async/await-style suspension runner ([Async]).
//
// # Execution Model
//
// The loop is a single logical thread of control. Ordering guarantees:
//
//  1. Synchronous code always runs to completion before any queue is
//     serviced.
//  2. All microtasks enqueued as a side effect of running a task are
//     drained — to fixpoint — before the next macrotask.
//  3. Reactions on the same promise fire in registration order, each as
//     an independent microtask, each at most once.
//
// No macrotask ever runs while the microtask queue is non-empty. A
// macrotask with a requested delay becomes eligible once its due tick is
// reached on the loop's virtual clock; a delay of zero grants no priority
// over already-queued microtasks.
//
// # Determinism
//
// Time is a virtual tick counter, not the wall clock. When the loop has
// nothing eligible, it jumps the clock to the next due tick. Two runs of
// the same program observe identical interleavings, which is the property
// the whole package exists to provide.
//
// # Thread Safety
//
// [Loop.ScheduleMacro] and [Loop.ScheduleAfter] are safe from any
// goroutine; they are the doorway for host completions. Everything else —
// microtask scheduling, promise settlement, draining — belongs to the
// loop's logical thread. There is no built-in cancellation for an
// in-flight promise or suspension runner; once scheduled, a reaction will
// fire. Layer cancellation with a flag checked inside the handler.
//
// # Usage
//
//	loop := eventloop.New(
//	    eventloop.WithOnUnhandledRejection(func(reason any) {
//	        log.Printf("unhandled rejection: %v", reason)
//	    }),
//	)
//
//	p := eventloop.NewPromise(loop, func(resolve eventloop.ResolveFunc, reject eventloop.RejectFunc) {
//	    loop.ScheduleAfter(5, func() { resolve("ready") })
//	})
//	p.Then(func(v any) any { return use(v) }, nil)
//
//	loop.ScheduleAfter(10, timerCallback)
//	if err := loop.RunUntilIdle(); err != nil { ... }
package eventloop
