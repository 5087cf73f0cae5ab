// Package engine ties the execution core together: the singleton global
// environment, the call stack, and the event loop, behind the interface a
// host (parser/compiler plus host I/O) drives. The host supplies executable
// units — closures over a scope — and timer-style completions; the engine
// supplies ordering, binding resolution, and the promise surface.
package engine

import (
	"github.com/google/uuid"
	"github.com/joeycumines/logiface"

	"github.com/example/coopexec/callstack"
	"github.com/example/coopexec/eventloop"
	"github.com/example/coopexec/scope"
)

// Engine is a single-threaded cooperative execution core instance. It is
// not safe for concurrent use; host completions enter through
// [Engine.ScheduleAfter] (which is goroutine-safe) and everything else
// belongs to the engine's logical thread.
type Engine struct {
	loop   *eventloop.Loop
	stack  *callstack.Stack
	global *scope.Environment
	logger *logiface.Logger[logiface.Event]
	runID  string
}

// New creates an engine, including its process-lifetime global environment.
func New(opts ...Option) *Engine {
	cfg := resolveOptions(opts)

	runID := uuid.NewString()
	logger := cfg.logger
	if ctx := logger.Clone(); ctx != nil {
		logger = ctx.Str("run_id", runID).Logger()
	}

	loopOpts := []eventloop.LoopOption{
		eventloop.WithLogger(logger),
	}
	if cfg.microBudget > 0 {
		loopOpts = append(loopOpts, eventloop.WithMicrotaskBudget(cfg.microBudget))
	}
	if cfg.onUnhandled != nil {
		loopOpts = append(loopOpts, eventloop.WithOnUnhandledRejection(cfg.onUnhandled))
	}
	if cfg.onOverload != nil {
		loopOpts = append(loopOpts, eventloop.WithOnOverload(cfg.onOverload))
	}

	var stackOpts []callstack.Option
	if cfg.maxStackDepth > 0 {
		stackOpts = append(stackOpts, callstack.WithMaxDepth(cfg.maxStackDepth))
	}

	e := &Engine{
		loop:   eventloop.New(loopOpts...),
		stack:  callstack.New(stackOpts...),
		global: scope.NewEnvironment(nil),
		logger: logger,
		runID:  runID,
	}

	e.logger.Debug().
		Uint64("loop_id", e.loop.ID()).
		Log("engine created")

	return e
}

// GlobalEnvironment returns the singleton root environment, created once
// per engine, never destroyed, with no outer scope.
func (e *Engine) GlobalEnvironment() *scope.Environment { return e.global }

// Loop returns the engine's event loop.
func (e *Engine) Loop() *eventloop.Loop { return e.loop }

// Stack returns the engine's call stack.
func (e *Engine) Stack() *callstack.Stack { return e.stack }

// RunID returns the engine's unique run identifier.
func (e *Engine) RunID() string { return e.runID }

// ScheduleAfter schedules a host completion as a macrotask eligible after
// delayTicks of virtual time. Negative delays clamp to zero. Safe from any
// goroutine.
func (e *Engine) ScheduleAfter(delayTicks int64, fn func()) {
	e.loop.ScheduleAfter(delayTicks, fn)
}

// ScheduleMacro schedules an immediately-eligible macrotask.
func (e *Engine) ScheduleMacro(fn func()) {
	e.loop.ScheduleMacro(fn)
}

// RunUntilIdle drives the event loop until no work remains.
func (e *Engine) RunUntilIdle() error {
	return e.loop.RunUntilIdle()
}

// NewPromise creates a promise on the engine's loop.
func (e *Engine) NewPromise(setup func(resolve eventloop.ResolveFunc, reject eventloop.RejectFunc)) *eventloop.Promise {
	return eventloop.NewPromise(e.loop, setup)
}

// All, Race, Any, and AllSettled are the engine-level combinator surface.
func (e *Engine) All(ps []*eventloop.Promise) *eventloop.Promise  { return eventloop.All(e.loop, ps) }
func (e *Engine) Race(ps []*eventloop.Promise) *eventloop.Promise { return eventloop.Race(e.loop, ps) }
func (e *Engine) Any(ps []*eventloop.Promise) *eventloop.Promise  { return eventloop.Any(e.loop, ps) }
func (e *Engine) AllSettled(ps []*eventloop.Promise) *eventloop.Promise {
	return eventloop.AllSettled(e.loop, ps)
}
