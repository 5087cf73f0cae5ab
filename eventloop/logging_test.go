package eventloop

import (
	"bytes"
	"strings"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

func newTestLogger(buf *bytes.Buffer) *logiface.Logger[logiface.Event] {
	return stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(buf), stumpy.WithTimeField(``)),
		stumpy.L.WithLevel(logiface.LevelTrace),
	).Logger()
}

func TestLogging_UnhandledRejection(t *testing.T) {
	var buf bytes.Buffer
	loop := New(WithLogger(newTestLogger(&buf)))

	NewRejected(loop, "went nowhere")
	if err := loop.RunUntilIdle(); err != nil {
		t.Fatalf("RunUntilIdle() failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"msg":"unhandled promise rejection"`) {
		t.Fatalf("log output missing unhandled-rejection warning: %s", out)
	}
	if !strings.Contains(out, "went nowhere") {
		t.Fatalf("log output missing rejection reason: %s", out)
	}
}

func TestLogging_TaskPanic(t *testing.T) {
	var buf bytes.Buffer
	loop := New(WithLogger(newTestLogger(&buf)))

	loop.ScheduleMacro(func() { panic("logged boom") })
	if err := loop.RunUntilIdle(); err != nil {
		t.Fatalf("RunUntilIdle() failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"msg":"task panicked"`) {
		t.Fatalf("log output missing panic record: %s", out)
	}
	if !strings.Contains(out, "logged boom") {
		t.Fatalf("log output missing panic value: %s", out)
	}
}

// TestLogging_NoLogger verifies every path tolerates an absent logger.
func TestLogging_NoLogger(t *testing.T) {
	loop := New()

	loop.ScheduleMacro(func() { panic("quiet boom") })
	loop.ScheduleAfter(3, func() {})
	NewRejected(loop, "quiet rejection")

	if err := loop.RunUntilIdle(); err != nil {
		t.Fatalf("RunUntilIdle() failed: %v", err)
	}
}
