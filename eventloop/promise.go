package eventloop

import "fmt"

// PromiseState is the lifecycle state of a [Promise]. A promise starts
// Pending and transitions at most once, to Fulfilled or Rejected; the
// transition is irreversible and the result immutable afterwards.
type PromiseState int

const (
	// Pending indicates the deferred operation has not settled.
	Pending PromiseState = iota

	// Fulfilled indicates settlement with a value.
	Fulfilled

	// Rejected indicates settlement with a failure reason.
	Rejected
)

func (s PromiseState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ResolveFunc fulfills a promise with a value. Calling it after the promise
// has settled is a no-op.
type ResolveFunc func(value any)

// RejectFunc rejects a promise with a reason. Calling it after the promise
// has settled is a no-op.
type RejectFunc func(reason any)

// reaction is one registered settlement handler pair plus the downstream
// promise it settles.
type reaction struct {
	onFulfilled func(any) any
	onRejected  func(any) any
	target      *Promise
}

// Promise is a deferred value: a three-state settlement object whose
// reactions are scheduled as microtasks, each firing exactly once, in
// registration order.
//
// Promise shares the loop's single logical thread of control: settlement
// and reaction registration happen on the loop, never concurrently. Host
// goroutines settle promises indirectly, by submitting a macrotask that
// calls the resolve capability.
type Promise struct {
	loop      *Loop
	result    any
	reactions []reaction
	state     PromiseState
	id        uint64
	// consumed is set once any reaction is registered; a rejection on a
	// promise nobody consumes is what gets reported as unhandled.
	consumed bool
}

// NewPromise creates a promise and runs setup synchronously with its
// settle and fail capabilities. Either capability is idempotent: only the
// first call settles. A panic in setup rejects the promise with
// [PanicError].
func NewPromise(loop *Loop, setup func(resolve ResolveFunc, reject RejectFunc)) *Promise {
	p, resolve, reject := WithResolvers(loop)
	if setup != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					reject(PanicError{Value: r})
				}
			}()
			setup(resolve, reject)
		}()
	}
	return p
}

// WithResolvers creates a pending promise along with its resolve and reject
// capabilities, for call sites where the setup-procedure shape is awkward.
func WithResolvers(loop *Loop) (*Promise, ResolveFunc, RejectFunc) {
	p := &Promise{
		loop: loop,
		id:   loop.promiseID.Add(1),
	}
	return p, p.resolve, p.reject
}

// NewResolved returns a promise fulfilled with value. A promise value is
// adopted rather than nested.
func NewResolved(loop *Loop, value any) *Promise {
	p, resolve, _ := WithResolvers(loop)
	resolve(value)
	return p
}

// NewRejected returns a promise rejected with reason.
func NewRejected(loop *Loop, reason any) *Promise {
	p, _, reject := WithResolvers(loop)
	reject(reason)
	return p
}

// State returns the current state.
func (p *Promise) State() PromiseState { return p.state }

// Result returns the settlement result: the value when fulfilled, the
// reason when rejected, nil while pending.
func (p *Promise) Result() any {
	if p.state == Pending {
		return nil
	}
	return p.result
}

// ID returns the promise's loop-unique identifier.
func (p *Promise) ID() uint64 { return p.id }

// resolve fulfills the promise. If value is itself a promise its state is
// adopted: the chain flattens, never yielding a promise of a promise.
func (p *Promise) resolve(value any) {
	if inner, ok := value.(*Promise); ok {
		if inner == p {
			p.reject(fmt.Errorf("eventloop: chaining cycle detected for promise %d", p.id))
			return
		}
		inner.addReaction(reaction{target: p})
		return
	}

	if p.state != Pending {
		return
	}
	p.state = Fulfilled
	p.result = value
	p.fire()
}

// reject settles the promise with a failure reason. A rejection on a
// promise with no registered consumer is tracked for unhandled-rejection
// reporting at the next full microtask drain.
func (p *Promise) reject(reason any) {
	if p.state != Pending {
		return
	}
	p.state = Rejected
	p.result = reason
	p.fire()

	if !p.consumed {
		p.loop.trackRejection(p.id, reason)
	}
	p.loop.logger.Debug().
		Uint64("loop_id", p.loop.id).
		Uint64("promise_id", p.id).
		Field("reason", reason).
		Log("promise rejected")
}

// fire schedules every queued reaction, each as an independent microtask,
// in registration order.
func (p *Promise) fire() {
	rs := p.reactions
	p.reactions = nil
	for _, r := range rs {
		p.scheduleReaction(r)
	}
}

// addReaction registers a reaction: scheduled immediately when already
// settled, queued otherwise. Registering any reaction makes this promise
// consumed — its rejection would flow downstream rather than go unhandled.
func (p *Promise) addReaction(r reaction) {
	p.consumed = true
	if p.state == Rejected {
		p.loop.markRejectionHandled(p.id)
	}
	if p.state != Pending {
		p.scheduleReaction(r)
		return
	}
	p.reactions = append(p.reactions, r)
}

func (p *Promise) scheduleReaction(r reaction) {
	state, result := p.state, p.result
	p.loop.ScheduleMicrotask(func() {
		executeReaction(r, state, result)
	})
}

// executeReaction runs a single reaction. A nil handler passes the
// settlement through to the downstream promise unchanged; a handler's
// return value settles the downstream promise (flattening applies); a
// handler panic rejects it.
func executeReaction(r reaction, state PromiseState, result any) {
	var fn func(any) any
	if state == Fulfilled {
		fn = r.onFulfilled
	} else {
		fn = r.onRejected
	}

	if fn == nil {
		if r.target == nil {
			return
		}
		if state == Fulfilled {
			r.target.resolve(result)
		} else {
			r.target.reject(result)
		}
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			if r.target != nil {
				r.target.reject(PanicError{Value: rec})
			}
		}
	}()

	out := fn(result)
	if r.target != nil {
		r.target.resolve(out)
	}
}

// Then registers handlers for settlement and returns the downstream
// promise, itself a first-class deferred value with independent state.
// Either handler may be nil, in which case the settlement passes through.
// Handlers always run as microtasks, in registration order, at most once.
func (p *Promise) Then(onFulfilled, onRejected func(any) any) *Promise {
	child := &Promise{
		loop: p.loop,
		id:   p.loop.promiseID.Add(1),
	}
	p.addReaction(reaction{
		onFulfilled: onFulfilled,
		onRejected:  onRejected,
		target:      child,
	})
	return child
}

// Catch is Then(nil, onRejected).
func (p *Promise) Catch(onRejected func(any) any) *Promise {
	return p.Then(nil, onRejected)
}

// Finally registers a handler that runs however the promise settles; the
// downstream promise preserves the original settlement. A panic in
// onFinally rejects the downstream promise instead.
func (p *Promise) Finally(onFinally func()) *Promise {
	if onFinally == nil {
		return p.Then(nil, nil)
	}
	return p.Then(
		func(v any) any {
			onFinally()
			return v
		},
		func(r any) any {
			onFinally()
			// Re-raise: settle the downstream promise rejected with the
			// original reason.
			return NewRejected(p.loop, r)
		},
	)
}
