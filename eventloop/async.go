// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventloop

// AwaitFunc suspends the enclosing [Async] unit until the awaited promise
// settles. It returns the fulfillment value, or the rejection reason as an
// error (wrapped in [ErrorWrapper] when the reason is not already an
// error), which the unit's own recovery logic may inspect and absorb.
//
// AwaitFunc must only be called from within the unit it was handed to.
type AwaitFunc func(p *Promise) (any, error)

// awaitResult carries a settled value across a resumption.
type awaitResult struct {
	value any
	err   error
}

// Async runs fn as a suspension runner: it executes synchronously, on the
// loop's single logical thread, up to its first await (or to completion if
// it never awaits). Each await registers a reaction on the awaited promise
// and parks the unit; when that promise settles, the unit resumes as a
// microtask. Chained awaits compose strictly sequentially — the second
// suspension is not registered until the first resumes.
//
// The returned promise fulfills with fn's return value, or rejects with
// its error (or [PanicError] if fn panics).
//
// The unit runs on a dedicated goroutine, but control transfers through
// strict channel handoff: exactly one of the loop and the unit is running
// at any instant, preserving the single-threaded execution model. A unit
// parked on a promise that never settles holds its goroutine forever, the
// same way an unsettled await would hang in any cooperative runtime.
func Async(loop *Loop, fn func(await AwaitFunc) (any, error)) *Promise {
	p, resolve, reject := WithResolvers(loop)
	if fn == nil {
		resolve(nil)
		return p
	}

	// parked carries control from the unit back to whoever is driving it:
	// true for "suspended at an await", false for "finished". step carries
	// control (and the settled result) into the parked unit.
	parked := make(chan bool)
	step := make(chan awaitResult)

	await := func(ap *Promise) (any, error) {
		if ap == nil {
			return nil, nil
		}

		// Registered before parking; the reaction cannot run until the
		// unit parks, because the loop's logical thread is held here.
		ap.Then(
			func(v any) any {
				step <- awaitResult{value: v}
				<-parked
				return nil
			},
			func(r any) any {
				step <- awaitResult{err: asError(r)}
				<-parked
				return nil
			},
		)

		parked <- true
		res := <-step
		return res.value, res.err
	}

	go func() {
		finished := false
		defer func() {
			if r := recover(); r != nil {
				reject(PanicError{Value: r})
			}
			if !finished {
				parked <- false
			}
		}()

		v, err := fn(await)
		if err != nil {
			reject(err)
		} else {
			resolve(v)
		}
		finished = true
		parked <- false
	}()

	<-parked
	return p
}
