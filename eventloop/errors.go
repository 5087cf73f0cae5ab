package eventloop

import (
	"errors"
	"fmt"
)

// ErrLoopOverloaded is returned when a microtask drain exceeds the
// configured budget, which indicates a microtask that reschedules itself
// forever. The remaining microtasks are discarded and the loop continues.
var ErrLoopOverloaded = errors.New("eventloop: microtask budget exceeded")

// PanicError wraps a recovered panic value from a task, promise setup
// procedure, or reaction handler.
type PanicError struct {
	Value any
}

func (e PanicError) Error() string {
	return fmt.Sprintf("eventloop: recovered panic: %v", e.Value)
}

// Unwrap returns the underlying error if the panic value is an error type,
// enabling [errors.Is] and [errors.As] through the cause chain.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// AggregateError is the rejection reason produced by [Any] when every input
// rejects (or when the input list is empty). Errors preserves the order of
// the input promises.
type AggregateError struct {
	Message string
	Errors  []error
}

func (e *AggregateError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "eventloop: all promises were rejected"
}

// Unwrap returns the errors slice for multi-error unwrapping, so
// [errors.Is] and [errors.As] check against every contained error.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// Is reports a match when target is itself an AggregateError, regardless of
// contents.
func (e *AggregateError) Is(target error) bool {
	var agg *AggregateError
	return errors.As(target, &agg)
}

// ErrorWrapper adapts a non-error rejection reason to the error interface,
// for [AggregateError] aggregation and for surfacing rejections at
// suspension points.
type ErrorWrapper struct {
	Value any
}

func (e *ErrorWrapper) Error() string {
	return fmt.Sprintf("%v", e.Value)
}

// asError returns reason itself when it is an error, wrapping it otherwise.
func asError(reason any) error {
	if err, ok := reason.(error); ok {
		return err
	}
	return &ErrorWrapper{Value: reason}
}
