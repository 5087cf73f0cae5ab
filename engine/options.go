package engine

import (
	"github.com/joeycumines/logiface"

	"github.com/example/coopexec/eventloop"
)

// options holds configuration for Engine creation.
type options struct {
	logger        *logiface.Logger[logiface.Event]
	maxStackDepth int
	microBudget   int
	onUnhandled   eventloop.RejectionHandler
	onOverload    func(error)
}

// Option configures an Engine instance.
type Option interface {
	apply(*options)
}

type optionImpl struct {
	applyFunc func(*options)
}

func (o *optionImpl) apply(opts *options) { o.applyFunc(opts) }

// WithLogger attaches a structured logger; it is threaded through to the
// event loop with the engine's run ID in context. Nil disables logging.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *options) {
		opts.logger = logger
	}}
}

// WithMaxStackDepth overrides the call stack's recursion limit.
func WithMaxStackDepth(n int) Option {
	return &optionImpl{func(opts *options) {
		opts.maxStackDepth = n
	}}
}

// WithMicrotaskBudget overrides the loop's per-drain microtask budget.
func WithMicrotaskBudget(n int) Option {
	return &optionImpl{func(opts *options) {
		opts.microBudget = n
	}}
}

// WithOnUnhandledRejection configures the unhandled-rejection report
// callback.
func WithOnUnhandledRejection(fn eventloop.RejectionHandler) Option {
	return &optionImpl{func(opts *options) {
		opts.onUnhandled = fn
	}}
}

// WithOnOverload configures the microtask-budget overload callback.
func WithOnOverload(fn func(error)) Option {
	return &optionImpl{func(opts *options) {
		opts.onOverload = fn
	}}
}

func resolveOptions(opts []Option) *options {
	cfg := &options{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(cfg)
	}
	return cfg
}
