// Package callstack implements the ordered sequence of active execution
// frames. Exactly one frame runs at a time; nested calls push frames and
// returns pop them. The stack is not safe for concurrent use.
package callstack

import (
	"fmt"

	"github.com/example/coopexec/scope"
)

// DefaultMaxDepth bounds recursion when no explicit limit is configured.
const DefaultMaxDepth = 10_000

// Frame is one active execution context: the environment its unit resolves
// identifiers against, the dynamic this value threaded through the call
// site, and a link to the caller.
type Frame struct {
	Env    *scope.Environment
	This   any
	caller *Frame
}

// Caller returns the frame that pushed this one, or nil for the outermost.
func (f *Frame) Caller() *Frame { return f.caller }

// StackOverflowError is returned when a push would exceed the configured
// maximum depth. It is fatal to the run that caused it but leaves the stack
// usable once unwound.
type StackOverflowError struct {
	MaxDepth int
}

func (e *StackOverflowError) Error() string {
	return fmt.Sprintf("callstack: maximum depth %d exceeded", e.MaxDepth)
}

// Option configures a Stack.
type Option interface {
	apply(*Stack)
}

type optionFunc func(*Stack)

func (f optionFunc) apply(s *Stack) { f(s) }

// WithMaxDepth overrides [DefaultMaxDepth]. Non-positive values fall back to
// the default.
func WithMaxDepth(n int) Option {
	return optionFunc(func(s *Stack) {
		if n > 0 {
			s.maxDepth = n
		}
	})
}

// Stack is the call stack.
type Stack struct {
	top      *Frame
	depth    int
	maxDepth int
}

// New creates an empty stack.
func New(opts ...Option) *Stack {
	s := &Stack{maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(s)
		}
	}
	return s
}

// Push creates and activates a new frame whose caller is the previous top.
func (s *Stack) Push(env *scope.Environment, this any) (*Frame, error) {
	if s.depth >= s.maxDepth {
		return nil, &StackOverflowError{MaxDepth: s.maxDepth}
	}
	f := &Frame{Env: env, This: this, caller: s.top}
	s.top = f
	s.depth++
	return f, nil
}

// Pop deactivates the running frame and returns it. Popping an empty stack
// is a programming error, not a user-recoverable condition: it panics.
func (s *Stack) Pop() *Frame {
	if s.top == nil {
		panic("callstack: pop of empty stack")
	}
	f := s.top
	s.top = f.caller
	s.depth--
	return f
}

// Current returns the running frame, or nil when the stack is empty.
func (s *Stack) Current() *Frame { return s.top }

// Depth returns the number of active frames.
func (s *Stack) Depth() int { return s.depth }

// Empty reports whether no frame is active.
func (s *Stack) Empty() bool { return s.top == nil }
