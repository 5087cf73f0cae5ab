// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventloop

import (
	"errors"
	"reflect"
	"testing"
)

// TestOrdering_SyncMicroMacro verifies the canonical interleaving: a body
// that logs A, schedules a macrotask logging C, resolves a promise whose
// reaction logs B, then logs D must observe A, D, B, C.
func TestOrdering_SyncMicroMacro(t *testing.T) {
	loop := New()
	var order []string

	order = append(order, "A")
	loop.ScheduleMacro(func() { order = append(order, "C") })
	p := NewResolved(loop, nil)
	p.Then(func(any) any {
		order = append(order, "B")
		return nil
	}, nil)
	order = append(order, "D")

	if err := loop.RunUntilIdle(); err != nil {
		t.Fatalf("RunUntilIdle() failed: %v", err)
	}

	want := []string{"A", "D", "B", "C"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

// TestOrdering_MicrotasksDrainBetweenMacrotasks verifies microtasks
// enqueued by a macrotask run before the next macrotask, including
// microtasks enqueued by other microtasks in the same drain.
func TestOrdering_MicrotasksDrainBetweenMacrotasks(t *testing.T) {
	loop := New()
	var order []string

	loop.ScheduleMacro(func() {
		order = append(order, "macro1")
		loop.ScheduleMicrotask(func() {
			order = append(order, "micro1")
			loop.ScheduleMicrotask(func() {
				order = append(order, "micro2")
			})
		})
	})
	loop.ScheduleMacro(func() {
		order = append(order, "macro2")
	})

	if err := loop.RunUntilIdle(); err != nil {
		t.Fatalf("RunUntilIdle() failed: %v", err)
	}

	want := []string{"macro1", "micro1", "micro2", "macro2"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

// TestMacrotask_FIFOSameTick verifies strict FIFO among macrotasks eligible
// at the same tick.
func TestMacrotask_FIFOSameTick(t *testing.T) {
	loop := New()
	var order []int
	for i := 0; i < 10; i++ {
		i := i
		loop.ScheduleMacro(func() { order = append(order, i) })
	}

	if err := loop.RunUntilIdle(); err != nil {
		t.Fatalf("RunUntilIdle() failed: %v", err)
	}

	for i, v := range order {
		if v != i {
			t.Fatalf("order[%d] = %d, want %d (full order %v)", i, v, i, order)
		}
	}
	if len(order) != 10 {
		t.Fatalf("ran %d macrotasks, want 10", len(order))
	}
}

// TestMacrotask_DelayOrdering verifies delayed macrotasks run in due-tick
// order regardless of scheduling order, and the virtual clock jumps
// straight to each due tick.
func TestMacrotask_DelayOrdering(t *testing.T) {
	loop := New()
	var order []string

	loop.ScheduleAfter(10, func() { order = append(order, "late") })
	loop.ScheduleAfter(1, func() { order = append(order, "early") })
	loop.ScheduleAfter(5, func() { order = append(order, "mid") })

	if err := loop.RunUntilIdle(); err != nil {
		t.Fatalf("RunUntilIdle() failed: %v", err)
	}

	want := []string{"early", "mid", "late"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	if now := loop.Now(); now != 10 {
		t.Fatalf("Now() = %d, want 10", now)
	}
}

// TestMacrotask_NegativeDelayClamps verifies a negative delay behaves as
// zero rather than sorting before already-queued work.
func TestMacrotask_NegativeDelayClamps(t *testing.T) {
	loop := New()
	var order []string

	loop.ScheduleMacro(func() { order = append(order, "first") })
	loop.ScheduleAfter(-100, func() { order = append(order, "second") })

	if err := loop.RunUntilIdle(); err != nil {
		t.Fatalf("RunUntilIdle() failed: %v", err)
	}

	want := []string{"first", "second"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	if now := loop.Now(); now != 0 {
		t.Fatalf("Now() = %d, want 0", now)
	}
}

// TestZeroDelayDoesNotPreemptMicrotasks verifies a zero-delay macrotask
// gains no priority over queued microtasks.
func TestZeroDelayDoesNotPreemptMicrotasks(t *testing.T) {
	loop := New()
	var order []string

	loop.ScheduleAfter(0, func() { order = append(order, "macro") })
	loop.ScheduleMicrotask(func() { order = append(order, "micro") })

	if err := loop.RunUntilIdle(); err != nil {
		t.Fatalf("RunUntilIdle() failed: %v", err)
	}

	want := []string{"micro", "macro"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestTick_OneMacrotaskPerTurn(t *testing.T) {
	loop := New()
	var runs int
	loop.ScheduleMacro(func() { runs++ })
	loop.ScheduleMacro(func() { runs++ })

	more, err := loop.Tick()
	if err != nil {
		t.Fatalf("Tick() failed: %v", err)
	}
	if !more {
		t.Fatal("Tick() reported no more work with a macrotask still queued")
	}
	if runs != 1 {
		t.Fatalf("ran %d macrotasks in one turn, want 1", runs)
	}

	more, err = loop.Tick()
	if err != nil {
		t.Fatalf("Tick() failed: %v", err)
	}
	if more {
		t.Fatal("Tick() reported more work on an idle loop")
	}
	if runs != 2 {
		t.Fatalf("ran %d macrotasks total, want 2", runs)
	}
}

func TestIdle(t *testing.T) {
	loop := New()
	if !loop.Idle() {
		t.Fatal("new loop not idle")
	}
	loop.ScheduleMicrotask(func() {})
	if loop.Idle() {
		t.Fatal("loop idle with a queued microtask")
	}
	if err := loop.RunUntilIdle(); err != nil {
		t.Fatalf("RunUntilIdle() failed: %v", err)
	}
	if !loop.Idle() {
		t.Fatal("loop not idle after RunUntilIdle")
	}
}

func TestScheduleNilIsNoOp(t *testing.T) {
	loop := New()
	loop.ScheduleMacro(nil)
	loop.ScheduleAfter(5, nil)
	loop.ScheduleMicrotask(nil)
	if !loop.Idle() {
		t.Fatal("nil tasks were enqueued")
	}
}

// TestPanicIsolation verifies a panicking task is discarded without
// corrupting queue state or other pending tasks.
func TestPanicIsolation(t *testing.T) {
	loop := New()
	var order []string

	loop.ScheduleMacro(func() { panic("macro boom") })
	loop.ScheduleMacro(func() { order = append(order, "survivor-macro") })
	loop.ScheduleMicrotask(func() { panic("micro boom") })
	loop.ScheduleMicrotask(func() { order = append(order, "survivor-micro") })

	if err := loop.RunUntilIdle(); err != nil {
		t.Fatalf("RunUntilIdle() failed: %v", err)
	}

	want := []string{"survivor-micro", "survivor-macro"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

// TestMicrotaskBudgetOverload verifies a self-perpetuating microtask chain
// trips the budget: the rest of the drain is discarded, ErrLoopOverloaded
// surfaces, the overload callback fires, and the loop remains usable.
func TestMicrotaskBudgetOverload(t *testing.T) {
	var overloads int
	loop := New(
		WithMicrotaskBudget(50),
		WithOnOverload(func(err error) {
			if !errors.Is(err, ErrLoopOverloaded) {
				t.Errorf("overload callback got %v, want ErrLoopOverloaded", err)
			}
			overloads++
		}),
	)

	var reschedule func()
	reschedule = func() { loop.ScheduleMicrotask(reschedule) }
	loop.ScheduleMicrotask(reschedule)

	err := loop.RunUntilIdle()
	if !errors.Is(err, ErrLoopOverloaded) {
		t.Fatalf("RunUntilIdle() = %v, want ErrLoopOverloaded", err)
	}
	if overloads != 1 {
		t.Fatalf("overload callback fired %d times, want 1", overloads)
	}

	// The loop must still work after an overload.
	ran := false
	loop.ScheduleMacro(func() { ran = true })
	if err := loop.RunUntilIdle(); err != nil {
		t.Fatalf("RunUntilIdle() after overload failed: %v", err)
	}
	if !ran {
		t.Fatal("macrotask did not run after overload recovery")
	}
}

// TestDrainMicrotasks exposes the frame-pop drain hook: queued microtasks
// run to fixpoint without touching the macrotask queue.
func TestDrainMicrotasks(t *testing.T) {
	loop := New()
	var order []string

	loop.ScheduleMacro(func() { order = append(order, "macro") })
	loop.ScheduleMicrotask(func() { order = append(order, "micro") })

	if err := loop.DrainMicrotasks(); err != nil {
		t.Fatalf("DrainMicrotasks() failed: %v", err)
	}

	want := []string{"micro"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order after drain = %v, want %v", order, want)
	}
	if loop.Idle() {
		t.Fatal("macrotask should survive a microtask-only drain")
	}
}

func TestLoopIDsUnique(t *testing.T) {
	a, b := New(), New()
	if a.ID() == b.ID() {
		t.Fatalf("two loops share ID %d", a.ID())
	}
}
