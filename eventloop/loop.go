package eventloop

import (
	"container/heap"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/logiface"
)

var loopIDCounter atomic.Uint64

// Loop is a deterministic, single-threaded cooperative event loop.
//
// The loop orders three kinds of work: synchronous code (which always runs
// to completion before any queue is serviced), microtasks (drained to
// fixpoint after every macrotask), and macrotasks (exactly one per turn,
// never while the microtask queue is non-empty).
//
// Time is virtual: the loop owns a monotonically increasing tick counter.
// A macrotask scheduled with a delay becomes eligible once its due tick is
// reached; when nothing else is runnable the clock jumps straight to the
// next due tick, so runs are fully deterministic and independent of the
// wall clock.
//
// Macrotask submission ([Loop.ScheduleMacro], [Loop.ScheduleAfter]) is safe
// from any goroutine, which is how host completions enter the loop.
// Everything else — microtasks, promise settlement, draining — belongs to
// the single logical thread of control.
type Loop struct {
	// Prevent copying
	_ [0]func()

	logger *logiface.Logger[logiface.Event]

	onUnhandled RejectionHandler
	onOverload  func(error)

	// Guards macro, tick and seq; macrotask submission crosses goroutines.
	mu    sync.Mutex
	macro timerHeap
	tick  uint64
	seq   uint64

	// Loop-thread only.
	micro     []Task
	rejected  map[uint64]any
	rejectOrd []uint64

	microBudget int

	taskID    atomic.Uint64
	promiseID atomic.Uint64

	id uint64
}

// New creates an event loop.
func New(opts ...LoopOption) *Loop {
	cfg := resolveLoopOptions(opts)
	return &Loop{
		id:          loopIDCounter.Add(1),
		logger:      cfg.logger,
		microBudget: cfg.microBudget,
		onUnhandled: cfg.onUnhandled,
		onOverload:  cfg.onOverload,
		macro:       make(timerHeap, 0),
		rejected:    make(map[uint64]any),
	}
}

// ID returns the loop's process-unique identifier.
func (l *Loop) ID() uint64 { return l.id }

// Now returns the current virtual tick.
func (l *Loop) Now() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tick
}

// ScheduleMacro appends a macrotask, eligible immediately. Strict FIFO
// among macrotasks scheduled at the same tick.
func (l *Loop) ScheduleMacro(fn func()) {
	l.ScheduleAfter(0, fn)
}

// ScheduleAfter schedules a macrotask that becomes eligible once delayTicks
// have elapsed on the virtual clock. A negative delay is clamped to zero;
// zero delay grants no priority over queued microtasks or the currently
// executing synchronous code. This is the host hook for timer-style
// completions and may be called from any goroutine.
func (l *Loop) ScheduleAfter(delayTicks int64, fn func()) {
	if fn == nil {
		return
	}
	if delayTicks < 0 {
		delayTicks = 0
	}

	t := Task{
		ID:       l.taskID.Add(1),
		Kind:     TaskMacro,
		Runnable: fn,
	}

	l.mu.Lock()
	t.seq = l.seq
	l.seq++
	heap.Push(&l.macro, delayedTask{due: l.tick + uint64(delayTicks), task: t})
	l.mu.Unlock()

	l.logger.Trace().
		Uint64("loop_id", l.id).
		Uint64("task_id", t.ID).
		Int64("delay_ticks", delayTicks).
		Log("macrotask scheduled")
}

// ScheduleMicrotask appends a microtask. Microtasks drain to fixpoint
// before the next macrotask; enqueueing from within a running task is safe
// and the new microtask joins the same drain.
func (l *Loop) ScheduleMicrotask(fn func()) {
	if fn == nil {
		return
	}
	t := Task{
		ID:       l.taskID.Add(1),
		Kind:     TaskMicro,
		Runnable: fn,
	}
	l.micro = append(l.micro, t)
}

// Idle reports whether both queues and the timer heap are empty.
func (l *Loop) Idle() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.micro) == 0 && l.macro.Len() == 0
}

// Tick performs one turn of the loop: drain microtasks to fixpoint, run at
// most one eligible macrotask (advancing the virtual clock to the next due
// tick when nothing is eligible sooner), then drain microtasks again. It
// reports whether work remains.
func (l *Loop) Tick() (more bool, err error) {
	err = l.microtaskCheckpoint()

	task, ok := l.nextMacro()
	if ok {
		l.safeExecute(task)
		if e := l.microtaskCheckpoint(); err == nil {
			err = e
		}
	}

	return !l.Idle(), err
}

// RunUntilIdle drives the loop until both queues and the timer heap are
// empty and no pending work remains. Returns [ErrLoopOverloaded] if any
// microtask drain exceeded the budget; the loop state is still consistent
// and usable afterwards.
func (l *Loop) RunUntilIdle() error {
	var firstErr error
	for {
		more, err := l.Tick()
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if !more {
			return firstErr
		}
	}
}

// nextMacro pops the next eligible macrotask, advancing the virtual clock
// to the earliest due tick when every queued macrotask is still pending.
func (l *Loop) nextMacro() (Task, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.macro.Len() == 0 {
		return Task{}, false
	}
	if due := l.macro[0].due; due > l.tick {
		l.tick = due
	}
	dt := heap.Pop(&l.macro).(delayedTask)
	return dt.task, true
}

// DrainMicrotasks drains the microtask queue to fixpoint and reports
// unhandled rejections, without running any macrotask. Hosts call this
// when their synchronous execution empties the call stack, per the
// drain-after-frame-pop rule; [Loop.Tick] and [Loop.RunUntilIdle] perform
// it automatically around each macrotask.
func (l *Loop) DrainMicrotasks() error {
	return l.microtaskCheckpoint()
}

// microtaskCheckpoint drains the microtask queue to fixpoint, then reports
// unhandled rejections. Reporting may itself enqueue microtasks, so the
// drain repeats until the queue is genuinely empty.
func (l *Loop) microtaskCheckpoint() error {
	var firstErr error
	for {
		if err := l.drainMicrotasks(); err != nil && firstErr == nil {
			firstErr = err
		}
		l.reportUnhandledRejections()
		if len(l.micro) == 0 {
			return firstErr
		}
	}
}

// drainMicrotasks dequeues and runs the oldest microtask until the queue is
// empty, to fixpoint: microtasks enqueued by a running microtask are part
// of the same drain. A drain exceeding the budget discards the rest of the
// queue and reports [ErrLoopOverloaded].
func (l *Loop) drainMicrotasks() error {
	for n := 0; len(l.micro) > 0; n++ {
		if n >= l.microBudget {
			dropped := len(l.micro)
			l.micro = nil
			l.logger.Err().
				Uint64("loop_id", l.id).
				Int("dropped", dropped).
				Int("budget", l.microBudget).
				Log("microtask budget exceeded, drain abandoned")
			if l.onOverload != nil {
				l.onOverload(ErrLoopOverloaded)
			}
			return ErrLoopOverloaded
		}

		t := l.micro[0]
		l.micro = l.micro[1:]
		l.safeExecute(t)
	}
	return nil
}

// safeExecute runs a task with panic recovery. One task's failure must not
// corrupt queue state or other pending tasks; the panic is logged and the
// task discarded.
func (l *Loop) safeExecute(t Task) {
	if t.Runnable == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			l.logger.Err().
				Uint64("loop_id", l.id).
				Uint64("task_id", t.ID).
				Str("kind", t.Kind.String()).
				Err(PanicError{Value: r}).
				Log("task panicked")
		}
	}()

	t.Runnable()
}

// trackRejection records a rejection that, so far, has no consumer.
func (l *Loop) trackRejection(promiseID uint64, reason any) {
	if _, ok := l.rejected[promiseID]; ok {
		return
	}
	l.rejected[promiseID] = reason
	l.rejectOrd = append(l.rejectOrd, promiseID)
}

// markRejectionHandled withdraws a tracked rejection once a reaction is
// registered on the rejected promise.
func (l *Loop) markRejectionHandled(promiseID uint64) {
	delete(l.rejected, promiseID)
}

// reportUnhandledRejections reports, once each, the rejections that still
// have no consumer now that the microtask queue has drained. The loop
// continues regardless; unhandled rejections are observational.
func (l *Loop) reportUnhandledRejections() {
	if len(l.rejected) == 0 {
		l.rejectOrd = l.rejectOrd[:0]
		return
	}

	ord := l.rejectOrd
	l.rejectOrd = nil
	for _, id := range ord {
		reason, ok := l.rejected[id]
		if !ok {
			continue
		}
		delete(l.rejected, id)

		l.logger.Warning().
			Uint64("loop_id", l.id).
			Uint64("promise_id", id).
			Field("reason", reason).
			Log("unhandled promise rejection")
		if l.onUnhandled != nil {
			l.onUnhandled(reason)
		}
	}
}
