// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package eventloop

import "github.com/joeycumines/logiface"

// DefaultMicrotaskBudget caps a single microtask drain. A drain that
// exceeds it is abandoned and reported, rather than hanging the loop on a
// microtask that reschedules itself forever.
const DefaultMicrotaskBudget = 100_000

// loopOptions holds configuration for Loop creation.
type loopOptions struct {
	logger      *logiface.Logger[logiface.Event]
	microBudget int
	onUnhandled RejectionHandler
	onOverload  func(error)
}

// LoopOption configures a Loop instance.
type LoopOption interface {
	applyLoop(*loopOptions)
}

// loopOptionImpl implements LoopOption.
type loopOptionImpl struct {
	applyLoopFunc func(*loopOptions)
}

func (l *loopOptionImpl) applyLoop(opts *loopOptions) {
	l.applyLoopFunc(opts)
}

// WithLogger attaches a structured logger to the loop. A nil logger
// disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) {
		opts.logger = logger
	}}
}

// WithMicrotaskBudget overrides [DefaultMicrotaskBudget]. Non-positive
// values fall back to the default.
func WithMicrotaskBudget(n int) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) {
		if n > 0 {
			opts.microBudget = n
		}
	}}
}

// RejectionHandler is invoked when a rejected promise still has no
// rejection handler attached by the time the microtask queue fully drains.
// The loop continues afterwards; the report is observational.
type RejectionHandler func(reason any)

// WithOnUnhandledRejection configures the unhandled-rejection report
// callback.
func WithOnUnhandledRejection(fn RejectionHandler) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) {
		opts.onUnhandled = fn
	}}
}

// WithOnOverload configures a callback invoked when a microtask drain
// exceeds the budget. The callback receives [ErrLoopOverloaded].
func WithOnOverload(fn func(error)) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) {
		opts.onOverload = fn
	}}
}

// resolveLoopOptions applies LoopOption instances over defaults.
func resolveLoopOptions(opts []LoopOption) *loopOptions {
	cfg := &loopOptions{
		microBudget: DefaultMicrotaskBudget,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyLoop(cfg)
	}
	return cfg
}
