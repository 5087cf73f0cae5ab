package engine

import (
	"errors"

	"github.com/example/coopexec/callstack"
	"github.com/example/coopexec/eventloop"
	"github.com/example/coopexec/scope"
)

// ErrNotAsync is returned by [Call.Await] when the unit was started with
// [Engine.Run] rather than [Engine.RunAsync]: only suspension runners have
// suspension points.
var ErrNotAsync = errors.New("engine: await outside an async unit")

// Unit is an executable unit: the host's compiled closure body plus the
// declaration records its function-level hoisting needs. The engine never
// parses source text; Decls is the host's lexical scan of the unit's body
// (vars from nested blocks included, nested function bodies excluded).
type Unit struct {
	Name  string
	Decls []scope.Decl
	Body  func(c *Call) (any, error)
}

// Call is the running activation handed to a unit body. It exposes the
// frame's environment and this-value, and the engine services a body needs:
// nested synchronous invocation, block scoping, and — for async units —
// the await capability.
type Call struct {
	engine *Engine
	frame  *callstack.Frame
	await  eventloop.AwaitFunc
}

// Env returns the activation's environment.
func (c *Call) Env() *scope.Environment { return c.frame.Env }

// This returns the dynamic this-value threaded through the call site.
func (c *Call) This() any { return c.frame.This }

// Engine returns the owning engine.
func (c *Call) Engine() *Engine { return c.engine }

// Invoke runs a nested unit synchronously, pushing a fresh frame. env is
// the environment the unit closed over at creation; nil means the current
// activation's environment (immediate lexical nesting).
func (c *Call) Invoke(u *Unit, env *scope.Environment, this any) (any, error) {
	if env == nil {
		env = c.frame.Env
	}
	return c.engine.Run(u, env, this)
}

// Block creates a block-level environment nested in outer (nil meaning the
// activation's environment), applies the block's let/const declarations,
// and runs body in it. Shadowing needs no special casing: the nested
// environment's declarations never touch outer bindings, and resolution
// finds the innermost match first.
func (c *Call) Block(outer *scope.Environment, decls []scope.Decl, body func(env *scope.Environment) (any, error)) (any, error) {
	if outer == nil {
		outer = c.frame.Env
	}
	env := scope.NewBlockEnvironment(outer)
	if err := scope.Hoist(env, decls); err != nil {
		return nil, err
	}
	return body(env)
}

// Await suspends an async unit until p settles, returning the fulfillment
// value or the rejection as an error the unit may recover from. For units
// started with [Engine.Run] it fails with [ErrNotAsync].
func (c *Call) Await(p *eventloop.Promise) (any, error) {
	if c.await == nil {
		return nil, ErrNotAsync
	}
	return c.await(p)
}

// Run executes a unit synchronously: creates the unit's environment nested
// in env (nil meaning the global environment), applies two-pass hoisting,
// pushes a frame, runs the body, and pops. When the pop empties the call
// stack, the microtask queue drains to fixpoint before Run returns — the
// drain-after-frame-pop rule.
//
// Errors from the body unwind synchronously; the frame is popped either
// way. A stack overflow surfaces as [callstack.StackOverflowError].
func (e *Engine) Run(u *Unit, env *scope.Environment, this any) (any, error) {
	if u == nil {
		return nil, nil
	}
	if env == nil {
		env = e.global
	}

	fnEnv := scope.NewEnvironment(env)
	if err := scope.Hoist(fnEnv, u.Decls); err != nil {
		return nil, err
	}

	wasEmpty := e.stack.Empty()
	frame, err := e.stack.Push(fnEnv, this)
	if err != nil {
		return nil, err
	}

	popped := false
	defer func() {
		if !popped {
			e.stack.Pop()
		}
	}()

	result, err := u.Body(&Call{engine: e, frame: frame})

	e.stack.Pop()
	popped = true

	if wasEmpty {
		if drainErr := e.loop.DrainMicrotasks(); err == nil {
			err = drainErr
		}
	}
	return result, err
}

// RunAsync executes a unit as a suspension runner. The unit runs
// synchronously up to its first [Call.Await]; at each suspension point the
// unit's frame leaves the call stack and a reaction on the awaited promise
// re-enters it — with the saved environment — as a microtask when the
// promise settles. The returned promise fulfills with the body's return
// value or rejects with its error.
func (e *Engine) RunAsync(u *Unit, env *scope.Environment, this any) *eventloop.Promise {
	if u == nil {
		return eventloop.NewResolved(e.loop, nil)
	}
	if env == nil {
		env = e.global
	}

	return eventloop.Async(e.loop, func(await eventloop.AwaitFunc) (any, error) {
		fnEnv := scope.NewEnvironment(env)
		if err := scope.Hoist(fnEnv, u.Decls); err != nil {
			return nil, err
		}

		frame, err := e.stack.Push(fnEnv, this)
		if err != nil {
			return nil, err
		}

		pushed := true
		defer func() {
			if pushed {
				e.stack.Pop()
			}
		}()

		call := &Call{engine: e, frame: frame}
		call.await = func(p *eventloop.Promise) (any, error) {
			// Suspension point: the frame leaves the stack while parked
			// so other work sees an empty stack, and re-enters with the
			// saved environment on resumption.
			e.stack.Pop()
			pushed = false

			v, aerr := await(p)

			resumed, perr := e.stack.Push(fnEnv, this)
			if perr != nil {
				return nil, perr
			}
			pushed = true
			call.frame = resumed
			return v, aerr
		}

		return u.Body(call)
	})
}
