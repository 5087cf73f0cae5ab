package eventloop

// Outcome is one per-input record in an [AllSettled] result.
type Outcome struct {
	Status string // StatusFulfilled or StatusRejected
	Value  any    // fulfillment value, when fulfilled
	Reason any    // rejection reason, when rejected
}

const (
	StatusFulfilled = "fulfilled"
	StatusRejected  = "rejected"
)

// All returns a promise that fulfills with the in-order slice of results
// once every input fulfills, or rejects with the first rejection seen.
// Input order is preserved regardless of settlement order; the remaining
// inputs still run to completion but their results are discarded. An empty
// input fulfills immediately with an empty slice.
func All(loop *Loop, promises []*Promise) *Promise {
	result, resolve, reject := WithResolvers(loop)

	if len(promises) == 0 {
		resolve(make([]any, 0))
		return result
	}

	values := make([]any, len(promises))
	remaining := len(promises)

	for i, p := range promises {
		idx := i
		p.Then(
			func(v any) any {
				values[idx] = v
				remaining--
				if remaining == 0 {
					resolve(values)
				}
				return nil
			},
			func(r any) any {
				// Settlement is once-only; later fulfillments that
				// decrement remaining to zero resolve into a settled
				// promise and are discarded.
				reject(r)
				return nil
			},
		)
	}

	return result
}

// Race returns a promise that settles with whichever input settles first,
// fulfilled or rejected. An empty input never settles.
func Race(loop *Loop, promises []*Promise) *Promise {
	result, resolve, reject := WithResolvers(loop)

	for _, p := range promises {
		p.Then(
			func(v any) any {
				resolve(v)
				return nil
			},
			func(r any) any {
				reject(r)
				return nil
			},
		)
	}

	return result
}

// Any returns a promise that fulfills with the first fulfillment, or
// rejects with an [AggregateError] of every reason, in input order, only
// if all inputs reject. An empty input rejects immediately with an empty
// [AggregateError] rather than hanging.
func Any(loop *Loop, promises []*Promise) *Promise {
	result, resolve, reject := WithResolvers(loop)

	if len(promises) == 0 {
		reject(&AggregateError{Message: "eventloop: no promises were provided"})
		return result
	}

	reasons := make([]any, len(promises))
	remaining := len(promises)

	for i, p := range promises {
		idx := i
		p.Then(
			func(v any) any {
				resolve(v)
				return nil
			},
			func(r any) any {
				reasons[idx] = r
				remaining--
				if remaining == 0 {
					errs := make([]error, len(reasons))
					for j, reason := range reasons {
						errs[j] = asError(reason)
					}
					reject(&AggregateError{Errors: errs})
				}
				return nil
			},
		)
	}

	return result
}

// AllSettled returns a promise that always fulfills, with a per-input
// [Outcome] slice once every input has settled, in input order. An empty
// input fulfills immediately with an empty slice.
func AllSettled(loop *Loop, promises []*Promise) *Promise {
	result, resolve, _ := WithResolvers(loop)

	if len(promises) == 0 {
		resolve(make([]Outcome, 0))
		return result
	}

	outcomes := make([]Outcome, len(promises))
	remaining := len(promises)

	settle := func(idx int, o Outcome) {
		outcomes[idx] = o
		remaining--
		if remaining == 0 {
			resolve(outcomes)
		}
	}

	for i, p := range promises {
		idx := i
		p.Then(
			func(v any) any {
				settle(idx, Outcome{Status: StatusFulfilled, Value: v})
				return nil
			},
			func(r any) any {
				settle(idx, Outcome{Status: StatusRejected, Reason: r})
				return nil
			},
		)
	}

	return result
}
